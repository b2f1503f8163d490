package resolve

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
)

// Options configures a BacktrackingResolver. There is no config file: this
// struct is the resolver's entire "configuration" surface, assembled once
// by the caller before Resolve runs — mirroring the shape of the teacher's
// SolveParameters.
type Options struct {
	// Trace, when true, makes the resolver log one line per accept/reject
	// decision to TraceLogger (or to a default stderr logger if
	// TraceLogger is nil).
	Trace       bool
	TraceLogger *log.Logger
}

// BacktrackingResolver is the driver described in §4.6: a recursive search
// over DependencySet forks, implemented as an explicit stack of frames
// rather than genuine recursion, per §9's "avoid recursion stack blowup."
type BacktrackingResolver struct {
	provider Provider
	options  Options
}

// NewBacktrackingResolver builds a resolver over provider.
func NewBacktrackingResolver(provider Provider, options Options) *BacktrackingResolver {
	if options.Trace && options.TraceLogger == nil {
		options.TraceLogger = log.New(os.Stderr, "resolve: ", log.LstdFlags)
	}
	return &BacktrackingResolver{provider: provider, options: options}
}

// Resolve implements §4.6's outer algorithm: build the updatable-names
// set, seed a retriever and root DependencySet, run the backtracking
// search, and on acceptance validate for cycles and same-named conflicts
// before returning the pinning.
func (r *BacktrackingResolver) Resolve(ctx context.Context, rootDeps map[Dependency]VersionSpecifier, lastResolved map[Dependency]PinnedVersion, dependenciesToUpdate map[string]struct{}) (map[Dependency]PinnedVersion, error) {
	updateAll := len(dependenciesToUpdate) == 0
	updatableNames := make(map[string]struct{}, len(dependenciesToUpdate))
	for name := range dependenciesToUpdate {
		updatableNames[strings.ToLower(name)] = struct{}{}
	}

	retriever := NewDependencyRetriever(r.provider, lastResolved)
	root, _ := NewDependencySet(ctx, retriever, rootDeps, updateAll, updatableNames)

	final := r.backtrack(ctx, root)
	if !final.isComplete() || final.isRejected() {
		if final.Rejection() != nil {
			return nil, final.Rejection()
		}
		return nil, &unresolvedDependenciesError{Names: final.updatableNameList()}
	}

	roots := make([]Dependency, 0, len(rootDeps))
	for dep := range rootDeps {
		roots = append(roots, dep)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Less(roots[j]) })

	if err := final.validateForCycles(ctx, roots); err != nil {
		return nil, err
	}
	if err := final.eliminateSameNamedDependencies(); err != nil {
		return nil, err
	}
	return final.Resolved(), nil
}

// backtrack is §4.6's pseudocode rendered as an explicit stack: each
// iteration looks at the top frame, and either accepts, discards a
// rejected frame and retries its parent, or pops one more candidate and
// pushes a fresh frame to explore it.
func (r *BacktrackingResolver) backtrack(ctx context.Context, root *DependencySet) *DependencySet {
	stack := []*DependencySet{root}
	for {
		set := stack[len(stack)-1]

		if set.isRejected() {
			r.traceReject(set)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return set
			}
			continue
		}
		if set.isComplete() {
			r.traceAccept(set)
			return set
		}

		child, ok := set.popSubSet(ctx)
		if !ok {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return set
			}
			continue
		}
		if child != set {
			stack = append(stack, child)
		}
	}
}

func (r *BacktrackingResolver) tracef(format string, args ...interface{}) {
	if !r.options.Trace || r.options.TraceLogger == nil {
		return
	}
	r.options.TraceLogger.Printf(format, args...)
}

func (r *BacktrackingResolver) traceReject(set *DependencySet) {
	r.tracef("reject: %v", set.Rejection())
}

func (r *BacktrackingResolver) traceAccept(set *DependencySet) {
	r.tracef("accept: %d packages resolved", len(set.contents))
}
