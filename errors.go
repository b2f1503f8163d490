package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// requiredVersionNotFoundError: the provider produced no version satisfying
// Specifier for Dep.
type requiredVersionNotFoundError struct {
	Dep       Dependency
	Specifier VersionSpecifier
}

func (e *requiredVersionNotFoundError) Error() string {
	return fmt.Sprintf("no version of %s satisfies %s", e.Dep.Name, e.Specifier.String())
}

func (e *requiredVersionNotFoundError) traceString() string {
	return fmt.Sprintf("%s: no candidate version satisfies %s", e.Dep.Name, e.Specifier.String())
}

// incompatibleRequirementsError: two specifiers imposed on the same package
// are disjoint. Old is the specifier already recorded on the package's set;
// New is the one that just made it empty.
type incompatibleRequirementsError struct {
	Dep Dependency
	Old Definition
	New Definition
}

func (e *incompatibleRequirementsError) Error() string {
	return fmt.Sprintf("incompatible requirements on %s: %s (from %s) conflicts with %s (from %s)",
		e.Dep.Name, e.Old.Specifier, definitionSource(e.Old), e.New.Specifier, definitionSource(e.New))
}

func (e *incompatibleRequirementsError) traceString() string {
	return e.Error()
}

func definitionSource(def Definition) string {
	if def.From == nil {
		return "root"
	}
	return def.From.Name
}

// incompatibleDependenciesError: more than one package in an accepted
// solution shares a case-insensitive name and the root manifest does not
// express which should win (§4.5.3).
type incompatibleDependenciesError struct {
	Group []Dependency
}

func (e *incompatibleDependenciesError) Error() string {
	merr := &multierror.Error{}
	for _, d := range e.Group {
		merr = multierror.Append(merr, fmt.Errorf("%s (%s, %s)", d.Name, d.Kind, d.Location))
	}
	name := ""
	if len(e.Group) > 0 {
		name = e.Group[0].Name
	}
	return fmt.Sprintf("multiple packages share the name %q with no root-level precedence:\n%s", name, merr.Error())
}

// dependencyCycleError: the preferred-candidate projection of an accepted
// set contains a cycle. Stack maps each node on the DFS stack at detection
// time to the child it was descending into when the cycle closed.
type dependencyCycleError struct {
	Stack map[Dependency][]Dependency
}

func (e *dependencyCycleError) Error() string {
	deps := make([]Dependency, 0, len(e.Stack))
	for d := range e.Stack {
		deps = append(deps, d)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Less(deps[j]) })

	var b strings.Builder
	b.WriteString("dependency cycle detected: ")
	for i, d := range deps {
		if i > 0 {
			b.WriteString(", ")
		}
		children := e.Stack[d]
		childNames := make([]string, len(children))
		for j, c := range children {
			childNames[j] = c.Name
		}
		fmt.Fprintf(&b, "%s -> {%s}", d.Name, strings.Join(childNames, ", "))
	}
	return b.String()
}

// unresolvedDependenciesError: the search terminated with unresolved
// packages and no more specific cause was recorded along the branch.
type unresolvedDependenciesError struct {
	Names []string
}

func (e *unresolvedDependenciesError) Error() string {
	merr := &multierror.Error{}
	for _, n := range e.Names {
		merr = multierror.Append(merr, fmt.Errorf("%s", n))
	}
	return fmt.Sprintf("search ended with unresolved packages:\n%s", merr.Error())
}

// unsatisfiableDependencyListError: a constraint narrowed some package to
// an empty candidate set but no single prior definition was disjoint with
// it — a multi-party conflict rather than a pairwise one.
type unsatisfiableDependencyListError struct {
	Names []string
}

func (e *unsatisfiableDependencyListError) Error() string {
	merr := &multierror.Error{}
	for _, n := range e.Names {
		merr = multierror.Append(merr, fmt.Errorf("%s", n))
	}
	return fmt.Sprintf("no satisfying assignment among currently updatable packages:\n%s", merr.Error())
}
