package resolve

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// DependencyRetriever is a caching facade over Provider: it memoizes every
// version list and dependency list the provider has produced during the
// current resolve call, tracks which (dep, pinned) pairs are known to lead
// to a rejection (the conflict cache, a set of "no-goods"), and keeps a
// scoreboard of packages that have taken part in a conflict so the search
// can be steered toward them first. None of its state survives past a
// single resolve call.
type DependencyRetriever struct {
	provider Provider

	lastResolved map[string]PinnedVersion

	versionCache map[versionCacheKey]*ConcreteVersionSet
	depsCache    map[depPinKey][]Requirement

	conflictCache map[depPinKey]conflictRecord
	problematic   map[string]*problematicEntry
}

type versionCacheKey struct {
	name      string
	spec      string
	updatable bool
}

type depPinKey struct {
	name   string
	pinned PinnedVersion
}

type conflictRecord struct {
	err error
	// conflicting is nil (and hasSet false) for a root-level conflict; a
	// non-nil (possibly empty) set for a pairwise conflict against other
	// packages' pins.
	conflicting map[depPinKey]struct{}
	hasSet      bool
}

type problematicEntry struct {
	dep   Dependency
	count int
}

// NewDependencyRetriever builds a retriever over provider, seeded with the
// pins from a previous resolve (nil if there is none).
func NewDependencyRetriever(provider Provider, lastResolved map[Dependency]PinnedVersion) *DependencyRetriever {
	normalized := make(map[string]PinnedVersion, len(lastResolved))
	for dep, pinned := range lastResolved {
		normalized[dep.normalizedName()] = pinned
	}
	return &DependencyRetriever{
		provider:      provider,
		lastResolved:  normalized,
		versionCache:  make(map[versionCacheKey]*ConcreteVersionSet),
		depsCache:     make(map[depPinKey][]Requirement),
		conflictCache: make(map[depPinKey]conflictRecord),
		problematic:   make(map[string]*problematicEntry),
	}
}

// FindAllVersions implements §4.4: when dep is not updatable and a prior
// pin exists, it is returned as a singleton set (and marked as seeded from
// spec); otherwise the provider is consulted, results are filtered by spec,
// and the outcome is cached by (dep, spec, updatable). A package is never
// admitted with an empty candidate set: whether or not it is updatable, an
// empty result here means no version satisfies spec, which must surface as
// requiredVersionNotFound rather than silently starving the package's entry
// in DependencySet.contents.
func (r *DependencyRetriever) FindAllVersions(ctx context.Context, dep Dependency, spec VersionSpecifier, isUpdatable bool) (*ConcreteVersionSet, error) {
	key := versionCacheKey{name: dep.normalizedName(), spec: spec.String(), updatable: isUpdatable}
	if cached, ok := r.versionCache[key]; ok {
		return cached.Clone(), nil
	}

	if !isUpdatable {
		if pinned, ok := r.lastResolved[dep.normalizedName()]; ok {
			set := NewSingletonConcreteVersionSet(concreteVersionFromPin(pinned))
			set.MarkPinnedVersionSpecifier(spec)
			r.versionCache[key] = set
			return set.Clone(), nil
		}
	}

	var pins []PinnedVersion
	var err error
	if ref, isRef := spec.(GitReference); isRef {
		pins, err = r.provider.ResolveGitReference(ctx, dep, ref.Ref)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving git reference %q for %s", ref.Ref, dep.Name)
		}
	} else {
		pins, err = r.provider.ListVersions(ctx, dep)
		if err != nil {
			return nil, errors.Wrapf(err, "listing versions for %s", dep.Name)
		}
	}

	set := NewConcreteVersionSet()
	for _, p := range pins {
		set.Insert(concreteVersionFromPin(p))
	}
	set.RetainVersionsCompatibleWith(spec)

	if set.IsEmpty() {
		return nil, &requiredVersionNotFoundError{Dep: dep, Specifier: spec}
	}

	r.versionCache[key] = set
	return set.Clone(), nil
}

func concreteVersionFromPin(p PinnedVersion) ConcreteVersion {
	cv := ConcreteVersion{Pinned: p}
	if v, err := Parse(string(p)); err == nil {
		cv.Semantic = &v
	}
	return cv
}

// FindDependencies returns the direct dependencies of dep at pinned,
// reordering a cache hit so that packages currently on the problematic
// scoreboard come first (§4.4's fail-fast heuristic).
func (r *DependencyRetriever) FindDependencies(ctx context.Context, dep Dependency, pinned PinnedVersion) ([]Requirement, error) {
	key := depPinKey{name: dep.normalizedName(), pinned: pinned}
	if cached, ok := r.depsCache[key]; ok {
		return r.reorderByProblematic(cached), nil
	}
	reqs, err := r.provider.ListTransitiveDependencies(ctx, dep, pinned)
	if err != nil {
		return nil, errors.Wrapf(err, "listing dependencies of %s@%s", dep.Name, pinned)
	}
	r.depsCache[key] = reqs
	return r.reorderByProblematic(reqs), nil
}

func (r *DependencyRetriever) reorderByProblematic(reqs []Requirement) []Requirement {
	out := make([]Requirement, 0, len(reqs))
	var rest []Requirement
	for _, req := range reqs {
		if _, ok := r.problematic[req.Dep.normalizedName()]; ok {
			out = append(out, req)
		} else {
			rest = append(rest, req)
		}
	}
	return append(out, rest...)
}

// RecordRootConflict memoizes that (dep, pinned) conflicts with a
// root-level constraint: future forks can discard that candidate before
// ever forking on it (§4.5's popSubSet step 1).
func (r *DependencyRetriever) RecordRootConflict(dep Dependency, pinned PinnedVersion, err error) {
	key := depPinKey{name: dep.normalizedName(), pinned: pinned}
	r.conflictCache[key] = conflictRecord{err: err, hasSet: false}
}

// RecordPairwiseConflict memoizes that (depA, pinnedA) conflicts with
// (depB, pinnedB), symmetrically: whichever side popSubSet visits first
// will find the other already recorded.
func (r *DependencyRetriever) RecordPairwiseConflict(depA Dependency, pinnedA PinnedVersion, depB Dependency, pinnedB PinnedVersion, err error) {
	keyA := depPinKey{name: depA.normalizedName(), pinned: pinnedA}
	keyB := depPinKey{name: depB.normalizedName(), pinned: pinnedB}
	r.addConflictingPartner(keyA, keyB, err)
	r.addConflictingPartner(keyB, keyA, err)
}

func (r *DependencyRetriever) addConflictingPartner(key, partner depPinKey, err error) {
	rec, ok := r.conflictCache[key]
	if !ok || !rec.hasSet {
		rec = conflictRecord{conflicting: make(map[depPinKey]struct{}), hasSet: true}
	}
	rec.err = err
	rec.conflicting[partner] = struct{}{}
	r.conflictCache[key] = rec
}

// ConflictFor reports the cached conflict, if any, for (dep, pinned).
func (r *DependencyRetriever) ConflictFor(dep Dependency, pinned PinnedVersion) (err error, conflicting []depPinKey, isRootLevel bool, found bool) {
	rec, ok := r.conflictCache[depPinKey{name: dep.normalizedName(), pinned: pinned}]
	if !ok {
		return nil, nil, false, false
	}
	if !rec.hasSet {
		return rec.err, nil, true, true
	}
	out := make([]depPinKey, 0, len(rec.conflicting))
	for k := range rec.conflicting {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].pinned < out[j].pinned
	})
	return rec.err, out, false, true
}

// AddProblematic increments dep's conflict-participation counter.
func (r *DependencyRetriever) AddProblematic(dep Dependency) {
	key := dep.normalizedName()
	if e, ok := r.problematic[key]; ok {
		e.count++
		return
	}
	r.problematic[key] = &problematicEntry{dep: dep, count: 1}
}

// ProblematicDependencies returns every package that has ever been marked
// problematic, sorted by descending conflict count with a deterministic
// name tie-break.
func (r *DependencyRetriever) ProblematicDependencies() []Dependency {
	entries := make([]*problematicEntry, 0, len(r.problematic))
	for _, e := range r.problematic {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].dep.normalizedName() < entries[j].dep.normalizedName()
	})
	out := make([]Dependency, len(entries))
	for i, e := range entries {
		out[i] = e.dep
	}
	return out
}
