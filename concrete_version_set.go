package resolve

import "sort"

// Definition records who imposed which specifier on a package: the defining
// Dependency, or nil when the constraint came from the root.
type Definition struct {
	From      *Dependency
	Specifier VersionSpecifier
}

// ConcreteVersionSet is the resolver's per-package candidate pool: three
// buckets (release semver, pre-release semver, non-semantic) each held in
// ascending sorted order so that range retention can binary-search its
// bounds instead of scanning. PreferredOrder exposes the resolver's actual
// iteration order: releases descending, then pre-releases descending, then
// non-semantic ascending.
type ConcreteVersionSet struct {
	releases    []ConcreteVersion
	prereleases []ConcreteVersion
	nonsemantic []ConcreteVersion

	definitions []Definition

	// pinnedVersionSpecifier is set when this set was seeded from a
	// previously-pinned value rather than fetched fresh (§4.4); it records
	// the specifier in force at seed time, so DependencySet.process can tell
	// whether re-expansion is needed once the package becomes updatable.
	pinnedVersionSpecifier VersionSpecifier
}

// NewConcreteVersionSet builds an empty set.
func NewConcreteVersionSet() *ConcreteVersionSet {
	return &ConcreteVersionSet{}
}

// NewSingletonConcreteVersionSet builds a set containing exactly cv.
func NewSingletonConcreteVersionSet(cv ConcreteVersion) *ConcreteVersionSet {
	s := &ConcreteVersionSet{}
	s.Insert(cv)
	return s
}

func bucketFor(cv ConcreteVersion) int {
	switch {
	case cv.Semantic == nil:
		return bucketNonsemantic
	case cv.Semantic.IsPreRelease():
		return bucketPrerelease
	default:
		return bucketRelease
	}
}

const (
	bucketRelease = iota
	bucketPrerelease
	bucketNonsemantic
)

func (s *ConcreteVersionSet) bucket(which int) *[]ConcreteVersion {
	switch which {
	case bucketRelease:
		return &s.releases
	case bucketPrerelease:
		return &s.prereleases
	default:
		return &s.nonsemantic
	}
}

// sortKeyLess orders two elements of the same bucket ascending: by semantic
// Compare for release/pre-release buckets, by lexicographic pinned string
// for the non-semantic bucket.
func sortKeyLess(which int, a, b ConcreteVersion) bool {
	if which == bucketNonsemantic {
		return a.Pinned < b.Pinned
	}
	return Compare(*a.Semantic, *b.Semantic) < 0
}

// Insert adds cv to its bucket if no element with the same pinned identity
// is already present. Reports whether it was inserted.
func (s *ConcreteVersionSet) Insert(cv ConcreteVersion) bool {
	which := bucketFor(cv)
	b := s.bucket(which)
	for _, existing := range *b {
		if existing.Equal(cv) {
			return false
		}
	}
	idx := sort.Search(len(*b), func(i int) bool { return !sortKeyLess(which, (*b)[i], cv) })
	*b = append(*b, ConcreteVersion{})
	copy((*b)[idx+1:], (*b)[idx:])
	(*b)[idx] = cv
	return true
}

// Remove deletes the element with cv's pinned identity, searching every
// bucket — cv may be a bare-pinned lookup key without its Semantic field
// populated, so which bucket it would sort into can't be trusted here the
// way Insert can trust it. Reports whether it was present.
func (s *ConcreteVersionSet) Remove(cv ConcreteVersion) bool {
	for _, which := range []int{bucketRelease, bucketPrerelease, bucketNonsemantic} {
		b := s.bucket(which)
		for i, existing := range *b {
			if existing.Equal(cv) {
				*b = append((*b)[:i], (*b)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// RemoveAllExcept collapses the set to the singleton {v}, clearing whichever
// buckets v does not belong to.
func (s *ConcreteVersionSet) RemoveAllExcept(v ConcreteVersion) {
	which := bucketFor(v)
	s.releases, s.prereleases, s.nonsemantic = nil, nil, nil
	*s.bucket(which) = []ConcreteVersion{v}
}

// Len reports the total number of candidates across all buckets.
func (s *ConcreteVersionSet) Len() int {
	return len(s.releases) + len(s.prereleases) + len(s.nonsemantic)
}

// IsEmpty reports whether the set has no candidates left.
func (s *ConcreteVersionSet) IsEmpty() bool { return s.Len() == 0 }

// PreferredOrder returns every candidate in the resolver's preference order:
// releases descending, then pre-releases descending, then non-semantic
// ascending. The returned slice is a fresh copy.
func (s *ConcreteVersionSet) PreferredOrder() []ConcreteVersion {
	out := make([]ConcreteVersion, 0, s.Len())
	for i := len(s.releases) - 1; i >= 0; i-- {
		out = append(out, s.releases[i])
	}
	for i := len(s.prereleases) - 1; i >= 0; i-- {
		out = append(out, s.prereleases[i])
	}
	out = append(out, s.nonsemantic...)
	return out
}

// First returns the most preferred candidate, if any.
func (s *ConcreteVersionSet) First() (ConcreteVersion, bool) {
	if len(s.releases) > 0 {
		return s.releases[len(s.releases)-1], true
	}
	if len(s.prereleases) > 0 {
		return s.prereleases[len(s.prereleases)-1], true
	}
	if len(s.nonsemantic) > 0 {
		return s.nonsemantic[0], true
	}
	return ConcreteVersion{}, false
}

// Clone makes an independent copy: buckets are copied by value, definitions
// are append-only so a shallow slice copy is sufficient to prevent a later
// append on one clone from clobbering the other's backing array.
func (s *ConcreteVersionSet) Clone() *ConcreteVersionSet {
	clone := &ConcreteVersionSet{pinnedVersionSpecifier: s.pinnedVersionSpecifier}
	clone.releases = append([]ConcreteVersion(nil), s.releases...)
	clone.prereleases = append([]ConcreteVersion(nil), s.prereleases...)
	clone.nonsemantic = append([]ConcreteVersion(nil), s.nonsemantic...)
	clone.definitions = append([]Definition(nil), s.definitions...)
	return clone
}

// AddDefinition records def as an origin of a constraint on this package.
func (s *ConcreteVersionSet) AddDefinition(def Definition) {
	s.definitions = append(s.definitions, def)
}

// Definitions returns every definition recorded so far, in the order added.
func (s *ConcreteVersionSet) Definitions() []Definition {
	return s.definitions
}

// ConflictingDefinition returns the first recorded definition whose
// specifier has an empty intersection with spec, used to name the other
// side of an incompatibleRequirements failure.
func (s *ConcreteVersionSet) ConflictingDefinition(spec VersionSpecifier) (Definition, bool) {
	for _, def := range s.definitions {
		if _, ok := Intersect(def.Specifier, spec); !ok {
			return def, true
		}
	}
	return Definition{}, false
}

// MarkPinnedVersionSpecifier records the specifier in force when this set
// was seeded from a previously-resolved pin (§4.4).
func (s *ConcreteVersionSet) MarkPinnedVersionSpecifier(spec VersionSpecifier) {
	s.pinnedVersionSpecifier = spec
}

// PinnedVersionSpecifier returns the specifier recorded by
// MarkPinnedVersionSpecifier, or nil if this set was never seeded from a
// pin.
func (s *ConcreteVersionSet) PinnedVersionSpecifier() VersionSpecifier {
	return s.pinnedVersionSpecifier
}

// RetainVersionsCompatibleWith narrows the set to only the candidates that
// satisfy spec, per the per-kind range rules in §4.3.
func (s *ConcreteVersionSet) RetainVersionsCompatibleWith(spec VersionSpecifier) {
	switch v := spec.(type) {
	case Any:
		s.prereleases = nil
	case GitReference:
		// no-op: a non-semantic pin can only be judged by exact ref match,
		// which is already enforced at insertion time by the provider.
	case AtLeast:
		s.retainReleaseRange(v.V, false, Version{})
		s.retainPrereleaseBand(v.V)
	case CompatibleWith:
		upper := compatibleUpperBound(v.V)
		s.retainReleaseRange(v.V, true, upper)
		s.retainPrereleaseBand(v.V)
	case Exactly:
		s.retainExactRelease(v.V)
		s.retainExactPrerelease(v.V)
	}
}

// retainReleaseRange cuts the release bucket to [lower, upper) — or [lower,
// +inf) when hasUpper is false — via binary search over the ascending
// release bucket.
func (s *ConcreteVersionSet) retainReleaseRange(lower Version, hasUpper bool, upper Version) {
	start := sort.Search(len(s.releases), func(i int) bool {
		return Compare(*s.releases[i].Semantic, lower) >= 0
	})
	end := len(s.releases)
	if hasUpper {
		end = sort.Search(len(s.releases), func(i int) bool {
			return Compare(*s.releases[i].Semantic, upper) >= 0
		})
	}
	if start >= end {
		s.releases = nil
		return
	}
	s.releases = append([]ConcreteVersion(nil), s.releases[start:end]...)
}

// retainPrereleaseBand keeps only pre-release candidates within
// [r, (r.major, r.minor, r.patch+1)) when r is itself a pre-release, and
// clears the bucket entirely otherwise — the mechanism spec.md prescribes
// for "pre-releases retained only when the range target is itself a
// pre-release with the same numeric triple".
func (s *ConcreteVersionSet) retainPrereleaseBand(r Version) {
	if !r.IsPreRelease() {
		s.prereleases = nil
		return
	}
	nextPatch := newNumericVersion(r.Major(), r.Minor(), r.Patch()+1)
	start := sort.Search(len(s.prereleases), func(i int) bool {
		return Compare(*s.prereleases[i].Semantic, r) >= 0
	})
	end := sort.Search(len(s.prereleases), func(i int) bool {
		return Compare(*s.prereleases[i].Semantic, nextPatch) >= 0
	})
	if start >= end {
		s.prereleases = nil
		return
	}
	s.prereleases = append([]ConcreteVersion(nil), s.prereleases[start:end]...)
}

// retainExactRelease keeps only the release candidate equal to r, if any;
// a pre-release r never matches anything in the release bucket.
func (s *ConcreteVersionSet) retainExactRelease(r Version) {
	if r.IsPreRelease() {
		s.releases = nil
		return
	}
	idx := sort.Search(len(s.releases), func(i int) bool {
		return Compare(*s.releases[i].Semantic, r) >= 0
	})
	if idx < len(s.releases) && s.releases[idx].Semantic.Equal(r) {
		s.releases = []ConcreteVersion{s.releases[idx]}
		return
	}
	s.releases = nil
}

// retainExactPrerelease keeps only pre-release candidates exactly equal to
// r (full identifier equality, not just numeric-triple membership, since
// distinct pre-release identifiers can share a numeric triple).
func (s *ConcreteVersionSet) retainExactPrerelease(r Version) {
	if !r.IsPreRelease() {
		s.prereleases = nil
		return
	}
	var kept []ConcreteVersion
	for _, cv := range s.prereleases {
		if cv.Semantic.Equal(r) {
			kept = append(kept, cv)
		}
	}
	s.prereleases = kept
}
