package resolve

import "testing"

func semverCV(s string) ConcreteVersion {
	v := MustParse(s)
	return ConcreteVersion{Pinned: PinnedVersion(s), Semantic: &v}
}

func nonSemverCV(s string) ConcreteVersion {
	return ConcreteVersion{Pinned: PinnedVersion(s)}
}

func TestAnyExcludesPreRelease(t *testing.T) {
	if Any{}.IsSatisfied(semverCV("1.0.0-beta")) {
		t.Error("Any should not be satisfied by a pre-release")
	}
	if !Any{}.IsSatisfied(semverCV("1.0.0")) {
		t.Error("Any should be satisfied by a release")
	}
	if !Any{}.IsSatisfied(nonSemverCV("my-branch")) {
		t.Error("Any should be satisfied by a non-semantic pin")
	}
}

func TestAtLeastPreReleaseGating(t *testing.T) {
	s := AtLeast{V: MustParse("1.0.0")}
	if s.IsSatisfied(semverCV("1.0.1-beta.1")) {
		t.Error("AtLeast(1.0.0) should reject a pre-release of a higher triple")
	}
	s2 := AtLeast{V: MustParse("1.0.0-alpha")}
	if !s2.IsSatisfied(semverCV("1.0.0-beta")) {
		t.Error("AtLeast(1.0.0-alpha) should accept a later pre-release of the same triple")
	}
}

func TestCompatibleWithUpperBound(t *testing.T) {
	s := CompatibleWith{V: MustParse("1.2.0")}
	if !s.IsSatisfied(semverCV("1.9.0")) {
		t.Error("CompatibleWith(1.2.0) should accept 1.9.0")
	}
	if s.IsSatisfied(semverCV("2.0.0")) {
		t.Error("CompatibleWith(1.2.0) should reject 2.0.0")
	}
	s0 := CompatibleWith{V: MustParse("0.2.0")}
	if s0.IsSatisfied(semverCV("0.3.0")) {
		t.Error("CompatibleWith(0.2.0) should reject 0.3.0 (major 0 bounded by minor)")
	}
}

func TestGitReferenceOnlyMatchesExact(t *testing.T) {
	s := GitReference{Ref: "feature/x"}
	if !s.IsSatisfied(nonSemverCV("feature/x")) {
		t.Error("GitReference should match its own ref")
	}
	if s.IsSatisfied(nonSemverCV("feature/y")) {
		t.Error("GitReference should not match a different ref")
	}
	if s.IsSatisfied(semverCV("1.0.0")) {
		t.Error("GitReference should not be satisfied by an unrelated semantic version")
	}
}

func TestIntersectCompatibleWithDisjointMajors(t *testing.T) {
	_, ok := Intersect(CompatibleWith{V: MustParse("1.0.0")}, CompatibleWith{V: MustParse("2.0.0")})
	if ok {
		t.Error("CompatibleWith(1.x) and CompatibleWith(2.x) should be disjoint")
	}
}

func TestIntersectCompatibleWithMajorZeroDifferingMinors(t *testing.T) {
	_, ok := Intersect(CompatibleWith{V: MustParse("0.1.0")}, CompatibleWith{V: MustParse("0.2.0")})
	if ok {
		t.Error("CompatibleWith(0.1.x) and CompatibleWith(0.2.x) should be disjoint")
	}
}

func TestIntersectAtLeastWithCompatibleWith(t *testing.T) {
	result, ok := Intersect(AtLeast{V: MustParse("1.0.0")}, CompatibleWith{V: MustParse("1.5.0")})
	if !ok {
		t.Fatal("expected intersection to succeed")
	}
	cw, ok := result.(CompatibleWith)
	if !ok || !cw.V.Equal(MustParse("1.5.0")) {
		t.Errorf("got %v, want CompatibleWith(1.5.0)", result)
	}
}

func TestIntersectExactlyInsideRange(t *testing.T) {
	result, ok := Intersect(Exactly{V: MustParse("1.5.0")}, AtLeast{V: MustParse("1.0.0")})
	if !ok {
		t.Fatal("expected intersection to succeed")
	}
	if ex, ok := result.(Exactly); !ok || !ex.V.Equal(MustParse("1.5.0")) {
		t.Errorf("got %v, want Exactly(1.5.0)", result)
	}
}

func TestIntersectExactlyOutsideRange(t *testing.T) {
	_, ok := Intersect(Exactly{V: MustParse("2.0.0")}, AtLeast{V: MustParse("3.0.0")})
	if ok {
		t.Error("Exactly(2.0.0) should be disjoint with AtLeast(3.0.0)")
	}
}

func TestIntersectGitReferencesDiffer(t *testing.T) {
	_, ok := Intersect(GitReference{Ref: "a"}, GitReference{Ref: "b"})
	if ok {
		t.Error("differing GitReferences should be disjoint")
	}
}

func TestIntersectAnyIsIdentity(t *testing.T) {
	result, ok := Intersect(Any{}, CompatibleWith{V: MustParse("1.0.0")})
	if !ok {
		t.Fatal("expected intersection to succeed")
	}
	if cw, ok := result.(CompatibleWith); !ok || !cw.V.Equal(MustParse("1.0.0")) {
		t.Errorf("got %v, want CompatibleWith(1.0.0)", result)
	}
}

func TestIntersectAllShortCircuits(t *testing.T) {
	specs := []VersionSpecifier{
		AtLeast{V: MustParse("1.0.0")},
		Exactly{V: MustParse("2.0.0")},
		Exactly{V: MustParse("3.0.0")},
	}
	_, ok := IntersectAll(specs)
	if ok {
		t.Error("expected disjoint Exactly constraints to fail")
	}
}
