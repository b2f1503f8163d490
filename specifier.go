package resolve

import "github.com/Masterminds/semver"

// VersionSpecifier is a predicate over pinned versions. It is a closed,
// five-member tagged union (per the "sum types over inheritance" guidance:
// prefer an exhaustive switch over virtual dispatch for closed sets), mirroring
// the teacher's Constraint interface in shape while carrying the specific
// variants this resolver needs.
type VersionSpecifier interface {
	// IsSatisfied reports whether cv is an acceptable pin under this
	// specifier.
	IsSatisfied(cv ConcreteVersion) bool
	String() string

	// precedence orders specifiers from loosest to tightest for
	// conflict-reporting tie-breaks: Any < AtLeast < CompatibleWith <
	// Exactly < GitReference.
	precedence() int

	_versionSpecifier()
}

// Any matches every release version; it excludes pre-releases.
type Any struct{}

// AtLeast matches any version >= V, admitting V's own pre-release line.
type AtLeast struct{ V Version }

// CompatibleWith matches any version >= V bounded above by the next major
// (if V.Major() > 0) or the next minor (if V.Major() == 0).
type CompatibleWith struct{ V Version }

// Exactly matches only V.
type Exactly struct{ V Version }

// GitReference matches only a pinned version whose commit-ish equals Ref
// exactly; it is the one specifier kind not satisfied automatically by a
// non-semantic pin.
type GitReference struct{ Ref string }

func (Any) _versionSpecifier()            {}
func (AtLeast) _versionSpecifier()        {}
func (CompatibleWith) _versionSpecifier() {}
func (Exactly) _versionSpecifier()        {}
func (GitReference) _versionSpecifier()   {}

func (Any) precedence() int            { return 0 }
func (AtLeast) precedence() int        { return 1 }
func (CompatibleWith) precedence() int { return 2 }
func (Exactly) precedence() int        { return 3 }
func (GitReference) precedence() int   { return 4 }

func (Any) String() string                { return "*" }
func (s AtLeast) String() string          { return ">=" + s.V.String() }
func (s CompatibleWith) String() string   { return "~>" + s.V.String() }
func (s Exactly) String() string          { return "==" + s.V.String() }
func (s GitReference) String() string     { return "ref:" + s.Ref }

// IsSatisfied implements the satisfaction rule from spec §3: a non-semantic
// pinned version satisfies every specifier except GitReference, for which
// only an exact commit-ish match counts.
func (Any) IsSatisfied(cv ConcreteVersion) bool {
	if cv.Semantic == nil {
		return true
	}
	return !cv.Semantic.IsPreRelease()
}

func (s AtLeast) IsSatisfied(cv ConcreteVersion) bool {
	if cv.Semantic == nil {
		return true
	}
	return atLeastSatisfies(s.V, *cv.Semantic)
}

func (s CompatibleWith) IsSatisfied(cv ConcreteVersion) bool {
	if cv.Semantic == nil {
		return true
	}
	return compatibleWithSatisfies(s.V, *cv.Semantic)
}

func (s Exactly) IsSatisfied(cv ConcreteVersion) bool {
	if cv.Semantic == nil {
		return true
	}
	return cv.Semantic.Equal(s.V)
}

func (s GitReference) IsSatisfied(cv ConcreteVersion) bool {
	return string(cv.Pinned) == s.Ref
}

// atLeastSatisfies is the shared lower-bound + pre-release-gating test used
// by both AtLeast and (for its lower bound) CompatibleWith.
func atLeastSatisfies(r, v Version) bool {
	if Compare(v, r) < 0 {
		return false
	}
	if !v.IsPreRelease() {
		return true
	}
	return r.IsPreRelease() && v.sameNumericTriple(r)
}

func compatibleWithSatisfies(r, v Version) bool {
	if !atLeastSatisfies(r, v) {
		return false
	}
	upper := compatibleUpperBound(r)
	return Compare(v, upper) < 0
}

// compatibleUpperBound returns the exclusive upper bound for CompatibleWith(r):
// the next major when r.Major() > 0, else the next minor.
func compatibleUpperBound(r Version) Version {
	if r.Major() > 0 {
		return newNumericVersion(r.Major()+1, 0, 0)
	}
	return newNumericVersion(0, r.Minor()+1, 0)
}

func newNumericVersion(major, minor, patch uint64) Version {
	v := Version{major: major, minor: minor, patch: patch}
	sv, err := semver.NewVersion(v.canonicalString())
	if err != nil {
		panic("resolve: internal numeric version construction failed: " + err.Error())
	}
	v.sv = sv
	return v
}

// Intersect computes the tightest VersionSpecifier satisfied by any version
// that satisfies both a and b, or reports ok=false when they are disjoint.
func Intersect(a, b VersionSpecifier) (result VersionSpecifier, ok bool) {
	if _, isAny := a.(Any); isAny {
		return stripSpecifierMetadata(b), true
	}
	if _, isAny := b.(Any); isAny {
		return stripSpecifierMetadata(a), true
	}

	switch at := a.(type) {
	case GitReference:
		if bt, isRef := b.(GitReference); isRef && at.Ref == bt.Ref {
			return at, true
		}
		return nil, false
	case Exactly:
		if isSatisfiedBySemanticVersion(b, at.V) {
			return Exactly{V: at.V.DiscardBuildMetadata()}, true
		}
		return nil, false
	}

	switch bt := b.(type) {
	case GitReference:
		return nil, false
	case Exactly:
		if isSatisfiedBySemanticVersion(a, bt.V) {
			return Exactly{V: bt.V.DiscardBuildMetadata()}, true
		}
		return nil, false
	}

	// Only AtLeast and CompatibleWith remain on both sides.
	switch at := a.(type) {
	case AtLeast:
		switch bt := b.(type) {
		case AtLeast:
			return AtLeast{V: maxVersion(at.V, bt.V)}, true
		case CompatibleWith:
			if at.V.Major() <= bt.V.Major() {
				return CompatibleWith{V: maxVersion(at.V, bt.V)}, true
			}
			return nil, false
		}
	case CompatibleWith:
		switch bt := b.(type) {
		case AtLeast:
			if bt.V.Major() <= at.V.Major() {
				return CompatibleWith{V: maxVersion(at.V, bt.V)}, true
			}
			return nil, false
		case CompatibleWith:
			if at.V.Major() != bt.V.Major() {
				return nil, false
			}
			if at.V.Major() == 0 && at.V.Minor() != bt.V.Minor() {
				return nil, false
			}
			return CompatibleWith{V: maxVersion(at.V, bt.V)}, true
		}
	}

	panic("resolve: Intersect: unreachable specifier combination")
}

// IntersectAll folds Intersect across specs, left to right, stopping at the
// first disjoint pair.
func IntersectAll(specs []VersionSpecifier) (VersionSpecifier, bool) {
	var acc VersionSpecifier = Any{}
	for _, s := range specs {
		var ok bool
		acc, ok = Intersect(acc, s)
		if !ok {
			return nil, false
		}
	}
	return acc, true
}

// isSatisfiedBySemanticVersion evaluates a range/any/exact specifier
// (never GitReference) against a bare semantic version, for use inside the
// intersection algebra.
func isSatisfiedBySemanticVersion(spec VersionSpecifier, v Version) bool {
	switch s := spec.(type) {
	case Any:
		return !v.IsPreRelease()
	case AtLeast:
		return atLeastSatisfies(s.V, v)
	case CompatibleWith:
		return compatibleWithSatisfies(s.V, v)
	case Exactly:
		return v.Equal(s.V)
	case GitReference:
		return false
	}
	return false
}

func stripSpecifierMetadata(spec VersionSpecifier) VersionSpecifier {
	switch s := spec.(type) {
	case AtLeast:
		return AtLeast{V: s.V.DiscardBuildMetadata()}
	case CompatibleWith:
		return CompatibleWith{V: s.V.DiscardBuildMetadata()}
	case Exactly:
		return Exactly{V: s.V.DiscardBuildMetadata()}
	default:
		return spec
	}
}

func maxVersion(a, b Version) Version {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// specifierPrecedence exposes precedence() for use outside this file
// (same-named reconciliation in the dependency set).
func specifierPrecedence(s VersionSpecifier) int { return s.precedence() }
