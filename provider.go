package resolve

import "context"

// Provider is the resolver's only external collaborator: everything about
// talking to a real package repository — network access, VCS shelling out,
// on-disk caching — lives on the other side of this boundary (per spec.md's
// Non-goals). The resolver calls it only at the two suspension points
// listed in §5: once to enumerate candidates for a package, and once to
// list a specific version's direct dependencies.
type Provider interface {
	// ListVersions enumerates every pinned version a package has published.
	// Order is unimportant; the resolver sorts candidates itself.
	ListVersions(ctx context.Context, dep Dependency) ([]PinnedVersion, error)

	// ListTransitiveDependencies returns the direct dependencies of one
	// specific pinned version of dep.
	ListTransitiveDependencies(ctx context.Context, dep Dependency, pinned PinnedVersion) ([]Requirement, error)

	// ResolveGitReference resolves a symbolic reference (branch name, tag
	// pattern, or commit-ish) to one or more concrete pinned versions.
	ResolveGitReference(ctx context.Context, dep Dependency, ref string) ([]PinnedVersion, error)
}

// Requirement is one direct-dependency edge returned by
// ListTransitiveDependencies: a child package and the specifier imposed on
// it by the version being inspected.
type Requirement struct {
	Dep       Dependency
	Specifier VersionSpecifier
}
