package resolve

import (
	"context"
	"strings"
)

// fakeProvider is an in-memory Provider used throughout this package's
// tests, playing the role the teacher's fixture source managers play in
// its own solver tests: every version list, dependency list, and git
// reference is configured up front as literal data, so a scenario is
// fully reproducible without any network or VCS access.
type fakeProvider struct {
	versions map[string][]PinnedVersion
	deps     map[string]map[PinnedVersion][]Requirement
	gitRefs  map[string]map[string][]PinnedVersion
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		versions: make(map[string][]PinnedVersion),
		deps:     make(map[string]map[PinnedVersion][]Requirement),
		gitRefs:  make(map[string]map[string][]PinnedVersion),
	}
}

func (p *fakeProvider) withVersions(name string, pins ...string) *fakeProvider {
	list := make([]PinnedVersion, len(pins))
	for i, s := range pins {
		list[i] = PinnedVersion(s)
	}
	p.versions[strings.ToLower(name)] = list
	return p
}

func (p *fakeProvider) withDeps(name string, pinned string, reqs ...Requirement) *fakeProvider {
	key := strings.ToLower(name)
	if p.deps[key] == nil {
		p.deps[key] = make(map[PinnedVersion][]Requirement)
	}
	p.deps[key][PinnedVersion(pinned)] = reqs
	return p
}

func (p *fakeProvider) withGitRef(name, ref string, pins ...string) *fakeProvider {
	key := strings.ToLower(name)
	if p.gitRefs[key] == nil {
		p.gitRefs[key] = make(map[string][]PinnedVersion)
	}
	list := make([]PinnedVersion, len(pins))
	for i, s := range pins {
		list[i] = PinnedVersion(s)
	}
	p.gitRefs[key][ref] = list
	return p
}

func (p *fakeProvider) ListVersions(ctx context.Context, dep Dependency) ([]PinnedVersion, error) {
	return p.versions[dep.normalizedName()], nil
}

func (p *fakeProvider) ListTransitiveDependencies(ctx context.Context, dep Dependency, pinned PinnedVersion) ([]Requirement, error) {
	byPin, ok := p.deps[dep.normalizedName()]
	if !ok {
		return nil, nil
	}
	return byPin[pinned], nil
}

func (p *fakeProvider) ResolveGitReference(ctx context.Context, dep Dependency, ref string) ([]PinnedVersion, error) {
	byRef, ok := p.gitRefs[dep.normalizedName()]
	if !ok {
		return nil, nil
	}
	return byRef[ref], nil
}

func testDep(name string) Dependency {
	return Dependency{Kind: HostedRepo, Name: name, Location: "example.com/" + name}
}

func req(name string, spec VersionSpecifier) Requirement {
	return Requirement{Dep: testDep(name), Specifier: spec}
}
