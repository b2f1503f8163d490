package resolve

import (
	"context"
	"sort"
)

// dependencyEntry is one package's current state within a DependencySet:
// its canonical identity (the Dependency value its candidate pool was last
// fetched for) and its remaining candidate pool.
type dependencyEntry struct {
	dep Dependency
	set *ConcreteVersionSet
}

// DependencySet is a partial assignment: one ConcreteVersionSet per
// package name, a work-list of names still unresolved, the set of names
// currently allowed to change from a prior resolution, and (once set) the
// error that rejected this branch. It is the resolver's unit of
// copy-on-write branching (§9: "copy-on-write sets").
type DependencySet struct {
	retriever *DependencyRetriever

	contents   map[string]*dependencyEntry
	unresolved map[string]struct{}

	updateAll      bool
	updatableNames map[string]struct{}

	// rootSpecifiers and identities back §4.5.3's same-named reconciliation:
	// rootSpecifiers records the specifier the root manifest gave to each
	// distinct (kind, name, location) identity; identities records every
	// distinct identity seen under each case-insensitive name, since the
	// contents map itself merges by name (Dependency equality is
	// name-only) and can no longer tell two forks of the same name apart.
	rootSpecifiers map[Dependency]VersionSpecifier
	identities     map[string][]Dependency

	rejection error
}

func newEmptyDependencySet(retriever *DependencyRetriever, updateAll bool, updatableNames map[string]struct{}) *DependencySet {
	if updatableNames == nil {
		updatableNames = make(map[string]struct{})
	}
	return &DependencySet{
		retriever:      retriever,
		contents:       make(map[string]*dependencyEntry),
		unresolved:     make(map[string]struct{}),
		updateAll:      updateAll,
		updatableNames: updatableNames,
		rootSpecifiers: make(map[Dependency]VersionSpecifier),
		identities:     make(map[string][]Dependency),
	}
}

// NewDependencySet builds the root DependencySet: the unresolved work-list
// is populated by expanding the root entries with no parent.
func NewDependencySet(ctx context.Context, retriever *DependencyRetriever, rootDeps map[Dependency]VersionSpecifier, updateAll bool, updatableNames map[string]struct{}) (*DependencySet, error) {
	ds := newEmptyDependencySet(retriever, updateAll, updatableNames)
	for dep, spec := range rootDeps {
		ds.rootSpecifiers[dep] = spec
	}

	reqs := make([]Requirement, 0, len(rootDeps))
	for dep, spec := range rootDeps {
		reqs = append(reqs, Requirement{Dep: dep, Specifier: spec})
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Dep.Less(reqs[j].Dep) })

	if err := ds.expand(ctx, nil, reqs, false); err != nil {
		ds.rejection = err
		return ds, nil
	}
	return ds, nil
}

func (ds *DependencySet) isRejected() bool { return ds.rejection != nil }
func (ds *DependencySet) isComplete() bool { return ds.rejection == nil && len(ds.unresolved) == 0 }

// Rejection returns the recorded cause of rejection, if any.
func (ds *DependencySet) Rejection() error { return ds.rejection }

// Resolved returns the accepted pinning: one PinnedVersion per resolved
// package, keyed by its canonical Dependency identity.
func (ds *DependencySet) Resolved() map[Dependency]PinnedVersion {
	out := make(map[Dependency]PinnedVersion, len(ds.contents))
	for _, entry := range ds.contents {
		if cv, ok := entry.set.First(); ok {
			out[entry.dep] = cv.Pinned
		}
	}
	return out
}

func (ds *DependencySet) isUpdatableName(name string) bool {
	if ds.updateAll {
		return true
	}
	_, ok := ds.updatableNames[name]
	return ok
}

func (ds *DependencySet) updatableNameList() []string {
	var names []string
	if ds.updateAll {
		for n := range ds.contents {
			names = append(names, n)
		}
	} else {
		for n := range ds.updatableNames {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func (ds *DependencySet) pinnedVersionOfParent(parent *Dependency) (Dependency, PinnedVersion, bool) {
	if parent == nil {
		return Dependency{}, "", false
	}
	entry, ok := ds.contents[parent.normalizedName()]
	if !ok {
		return Dependency{}, "", false
	}
	cv, ok := entry.set.First()
	if !ok {
		return Dependency{}, "", false
	}
	return entry.dep, cv.Pinned, true
}

func (ds *DependencySet) recordIdentity(dep Dependency) {
	name := dep.normalizedName()
	for _, existing := range ds.identities[name] {
		if existing == dep {
			return
		}
	}
	ds.identities[name] = append(ds.identities[name], dep)
}

// expand processes every (child, specifier) edge in transitive, imposed by
// parent (nil for the root). It short-circuits and records the rejection
// on the first failure, per §4.5.
func (ds *DependencySet) expand(ctx context.Context, parent *Dependency, transitive []Requirement, forceUpdatable bool) error {
	for _, req := range transitive {
		name := req.Dep.normalizedName()
		isUpdatable := forceUpdatable || ds.isUpdatableName(name)
		if forceUpdatable {
			ds.updatableNames[name] = struct{}{}
		}
		def := Definition{From: parent, Specifier: req.Specifier}
		if err := ds.process(ctx, req.Dep, def, isUpdatable); err != nil {
			ds.rejection = err
			return err
		}
	}
	return nil
}

// process implements §4.5's per-package admission rule: seed a fresh
// candidate set the first time a package is seen (or when it must be
// re-expanded because it just became updatable), otherwise narrow the
// existing set and diagnose why it went empty.
func (ds *DependencySet) process(ctx context.Context, child Dependency, def Definition, isUpdatable bool) error {
	ds.recordIdentity(child)
	name := child.normalizedName()

	entry, exists := ds.contents[name]
	needsFresh := !exists || (isUpdatable && entry.set.PinnedVersionSpecifier() != nil)

	if needsFresh {
		set, err := ds.retriever.FindAllVersions(ctx, child, def.Specifier, isUpdatable)
		if err != nil {
			ds.retriever.AddProblematic(child)
			return err
		}
		set.AddDefinition(def)
		ds.contents[name] = &dependencyEntry{dep: child, set: set}
		ds.unresolved[name] = struct{}{}
		return nil
	}

	entry.set.AddDefinition(def)
	entry.set.RetainVersionsCompatibleWith(def.Specifier)
	if !entry.set.IsEmpty() {
		return nil
	}

	ds.retriever.AddProblematic(child)

	if conflictDef, ok := entry.set.ConflictingDefinition(def.Specifier); ok {
		err := &incompatibleRequirementsError{Dep: child, Old: conflictDef, New: def}
		newDep, newPin, newOK := ds.pinnedVersionOfParent(def.From)
		oldDep, oldPin, oldOK := ds.pinnedVersionOfParent(conflictDef.From)
		switch {
		case newOK && oldOK:
			ds.retriever.RecordPairwiseConflict(newDep, newPin, oldDep, oldPin, err)
		case oldOK:
			ds.retriever.RecordRootConflict(oldDep, oldPin, err)
		case newOK:
			ds.retriever.RecordRootConflict(newDep, newPin, err)
		}
		return err
	}

	return &unsatisfiableDependencyListError{Names: ds.updatableNameList()}
}

// nextUnresolvedName implements §4.5.1: prefer a problematic package, else
// any unresolved package in deterministic (sorted) order.
func (ds *DependencySet) nextUnresolvedName() (string, bool) {
	for _, dep := range ds.retriever.ProblematicDependencies() {
		name := dep.normalizedName()
		if _, ok := ds.unresolved[name]; ok {
			return name, true
		}
	}
	if len(ds.unresolved) == 0 {
		return "", false
	}
	names := make([]string, 0, len(ds.unresolved))
	for n := range ds.unresolved {
		names = append(names, n)
	}
	sort.Strings(names)
	return names[0], true
}

// Clone makes an independent copy for forking: every bucket set is cloned,
// every bookkeeping map except the read-only rootSpecifiers is copied
// (rootSpecifiers is shared), and the rejection (normally nil on a set
// worth cloning) is carried over.
func (ds *DependencySet) Clone() *DependencySet {
	clone := &DependencySet{
		retriever:      ds.retriever,
		contents:       make(map[string]*dependencyEntry, len(ds.contents)),
		unresolved:     make(map[string]struct{}, len(ds.unresolved)),
		updateAll:      ds.updateAll,
		updatableNames: make(map[string]struct{}, len(ds.updatableNames)),
		rootSpecifiers: ds.rootSpecifiers,
		identities:     make(map[string][]Dependency, len(ds.identities)),
		rejection:      ds.rejection,
	}
	for k, v := range ds.contents {
		clone.contents[k] = &dependencyEntry{dep: v.dep, set: v.set.Clone()}
	}
	for k := range ds.unresolved {
		clone.unresolved[k] = struct{}{}
	}
	for k := range ds.updatableNames {
		clone.updatableNames[k] = struct{}{}
	}
	for k, v := range ds.identities {
		clone.identities[k] = append([]Dependency(nil), v...)
	}
	return clone
}

// popSubSet implements §4.5: pick the next unresolved package, choose its
// preferred candidate, and either discover the candidate is already a
// known dead end, fork to explore it, or expand its transitive
// dependencies in place. Returns (nil, false) when there is nothing left
// to try.
func (ds *DependencySet) popSubSet(ctx context.Context) (*DependencySet, bool) {
	name, ok := ds.nextUnresolvedName()
	if !ok {
		return nil, false
	}
	entry := ds.contents[name]
	chosen, ok := entry.set.First()
	if !ok {
		return nil, false
	}

	if err, _, isRoot, found := ds.retriever.ConflictFor(entry.dep, chosen.Pinned); found && isRoot {
		entry.set.Remove(chosen)
		return &DependencySet{retriever: ds.retriever, rejection: err}, true
	}

	var child *DependencySet
	if entry.set.Len() > 1 {
		clone := ds.Clone()
		clone.contents[name].set.RemoveAllExcept(chosen)
		entry.set.Remove(chosen)
		child = clone
	} else {
		child = ds
	}
	childEntry := child.contents[name]

	if err, conflicting, isRoot, found := ds.retriever.ConflictFor(childEntry.dep, chosen.Pinned); found && !isRoot {
		rejectedNow := false
		for _, partner := range conflicting {
			partnerEntry, ok := child.contents[partner.name]
			if !ok {
				continue
			}
			if partnerEntry.set.Remove(ConcreteVersion{Pinned: partner.pinned}) && partnerEntry.set.IsEmpty() {
				rejectedNow = true
			}
		}
		if rejectedNow {
			child.rejection = err
			return child, true
		}
	}

	reqs, err := child.retriever.FindDependencies(ctx, childEntry.dep, chosen.Pinned)
	if err != nil {
		child.rejection = err
		return child, true
	}
	parent := childEntry.dep
	if expandErr := child.expand(ctx, &parent, reqs, child.isUpdatableName(name)); expandErr != nil {
		return child, true
	}
	delete(child.unresolved, name)
	return child, true
}

// validateForCycles implements §4.5.2: DFS the preferred-candidate
// projection of an accepted set starting from every root package, failing
// if any node is re-entered while still on the stack.
func (ds *DependencySet) validateForCycles(ctx context.Context, roots []Dependency) error {
	onStack := make(map[string]bool)
	var path []Dependency

	var visit func(dep Dependency) error
	visit = func(dep Dependency) error {
		name := dep.normalizedName()
		if onStack[name] {
			start := 0
			for i, node := range path {
				if node.normalizedName() == name {
					start = i
					break
				}
			}
			snapshot := make(map[Dependency][]Dependency, len(path))
			for i, node := range path {
				next := path[start]
				if i+1 < len(path) {
					next = path[i+1]
				}
				snapshot[node] = append(snapshot[node], next)
			}
			return &dependencyCycleError{Stack: snapshot}
		}

		entry, ok := ds.contents[name]
		if !ok {
			return nil
		}
		cv, ok := entry.set.First()
		if !ok {
			return nil
		}
		reqs, err := ds.retriever.FindDependencies(ctx, entry.dep, cv.Pinned)
		if err != nil {
			return nil
		}

		onStack[name] = true
		path = append(path, entry.dep)
		for _, req := range reqs {
			if err := visit(req.Dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		onStack[name] = false
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}

// eliminateSameNamedDependencies implements §4.5.3: group every distinct
// identity seen under each case-insensitive name, and for any group with
// more than one member, require the root manifest to unambiguously prefer
// one via specifier precedence.
func (ds *DependencySet) eliminateSameNamedDependencies() error {
	trie := newNameTrie()
	for _, ids := range ds.identities {
		for _, id := range ids {
			trie.insert(id)
		}
	}
	for _, group := range trie.groups() {
		if len(group) <= 1 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			pi, pj := -1, -1
			if spec, ok := ds.rootSpecifiers[group[i]]; ok {
				pi = specifierPrecedence(spec)
			}
			if spec, ok := ds.rootSpecifiers[group[j]]; ok {
				pj = specifierPrecedence(spec)
			}
			return pi > pj
		})
		_, topHas := ds.rootSpecifiers[group[0]]
		_, secondHas := ds.rootSpecifiers[group[1]]
		if !topHas || secondHas {
			return &incompatibleDependenciesError{Group: group}
		}
	}
	return nil
}
