package resolve

import "testing"

// gitDep and urlDep build Dependency identities that share a case-insensitive
// name with testDep("same") but differ in Kind/Location, so they collide
// under the same-named-dependency reconciliation rule (§4.5.3) without
// colliding as map keys (Dependency equality for map storage is exact, not
// case-insensitive — only normalizedName() folds them together).
func gitDep(name string) Dependency {
	return Dependency{Kind: GenericGitURL, Name: name, Location: "git://example.com/" + name}
}

func urlDep(name string) Dependency {
	return Dependency{Kind: BinaryURL, Name: name, Location: "https://example.com/" + name + ".tar.gz"}
}

func newTestDependencySet(t *testing.T) *DependencySet {
	t.Helper()
	retriever := NewDependencyRetriever(newFakeProvider(), nil)
	return newEmptyDependencySet(retriever, true, nil)
}

func TestEliminateSameNamedDependenciesAcceptsOneRootDeclaredIdentity(t *testing.T) {
	ds := newTestDependencySet(t)

	// rootDeclared is an explicit root dependency; transitiveOnly shares its
	// name but was only ever reached as someone else's transitive edge (no
	// entry in rootSpecifiers). The root manifest's explicit choice wins
	// unambiguously, regardless of either identity's own specifier.
	rootDeclared := testDep("same")
	transitiveOnly := gitDep("same")
	ds.rootSpecifiers[rootDeclared] = AtLeast{V: MustParse("1.0.0")}
	ds.recordIdentity(rootDeclared)
	ds.recordIdentity(transitiveOnly)

	if err := ds.eliminateSameNamedDependencies(); err != nil {
		t.Fatalf("expected no error when exactly one identity is root-declared, got %v", err)
	}
}

func TestEliminateSameNamedDependenciesRejectsAmbiguousTie(t *testing.T) {
	ds := newTestDependencySet(t)

	a := testDep("same")
	b := gitDep("same")
	ds.rootSpecifiers[a] = Exactly{V: MustParse("1.0.0")}
	ds.rootSpecifiers[b] = Exactly{V: MustParse("2.0.0")}
	ds.recordIdentity(a)
	ds.recordIdentity(b)

	err := ds.eliminateSameNamedDependencies()
	if err == nil {
		t.Fatal("expected an error when two identities tie at the top precedence")
	}
	incompatible, ok := err.(*incompatibleDependenciesError)
	if !ok {
		t.Fatalf("error = %T (%v), want *incompatibleDependenciesError", err, err)
	}
	if len(incompatible.Group) != 2 {
		t.Errorf("Group has %d members, want 2", len(incompatible.Group))
	}
}

func TestEliminateSameNamedDependenciesRejectsWhenNeitherIsRootLevel(t *testing.T) {
	ds := newTestDependencySet(t)

	a := gitDep("same")
	b := urlDep("same")
	// Neither identity has a root-level specifier: both were reached only
	// transitively, so there is no manifest-expressed precedence between them.
	ds.recordIdentity(a)
	ds.recordIdentity(b)

	if err := ds.eliminateSameNamedDependencies(); err == nil {
		t.Fatal("expected an error when no identity is root-level")
	}
}

func TestEliminateSameNamedDependenciesIgnoresSingletonGroups(t *testing.T) {
	ds := newTestDependencySet(t)

	only := testDep("solo")
	ds.rootSpecifiers[only] = Any{}
	ds.recordIdentity(only)

	if err := ds.eliminateSameNamedDependencies(); err != nil {
		t.Errorf("a name with a single identity must never be rejected, got %v", err)
	}
}

func TestRecordIdentityDeduplicatesExactMatches(t *testing.T) {
	ds := newTestDependencySet(t)

	dep := testDep("same")
	ds.recordIdentity(dep)
	ds.recordIdentity(dep)

	if got := len(ds.identities[dep.normalizedName()]); got != 1 {
		t.Errorf("identities[%q] has %d entries, want 1 after recording the same identity twice", dep.normalizedName(), got)
	}
}

func TestNameTrieGroupsWalkOrderAndGrouping(t *testing.T) {
	trie := newNameTrie()
	trie.insert(testDep("zebra"))
	trie.insert(testDep("apple"))
	trie.insert(gitDep("apple"))
	trie.insert(testDep("Mango"))

	groups := trie.groups()
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3 (apple, mango, zebra)", len(groups))
	}

	// radix.Walk visits keys in ascending lexicographic order; names were
	// inserted case-folded, so "apple" < "mango" < "zebra".
	wantFirstNames := []string{"apple", "mango", "zebra"}
	for i, group := range groups {
		if len(group) == 0 {
			t.Fatalf("group %d is empty", i)
		}
		if got := group[0].normalizedName(); got != wantFirstNames[i] {
			t.Errorf("groups[%d] name = %q, want %q", i, got, wantFirstNames[i])
		}
	}

	appleGroup := groups[0]
	if len(appleGroup) != 2 {
		t.Errorf("apple group has %d members, want 2 (testDep + gitDep both named apple)", len(appleGroup))
	}
}
