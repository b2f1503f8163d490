package resolve

import "github.com/armon/go-radix"

// nameTrie groups Dependency values by case-insensitive name in O(log n)
// per insert, the same typed-wrapper-over-radix.Tree pattern the teacher
// uses for its deducer lookups. eliminateSameNamedDependencies (§4.5.3)
// walks the trie once, in key order, to find every name with more than one
// distinct package registered against it.
type nameTrie struct {
	t *radix.Tree
}

func newNameTrie() *nameTrie {
	return &nameTrie{t: radix.New()}
}

func (n *nameTrie) insert(dep Dependency) {
	key := dep.normalizedName()
	var group []Dependency
	if v, ok := n.t.Get(key); ok {
		group = v.([]Dependency)
	}
	group = append(group, dep)
	n.t.Insert(key, group)
}

// groups returns every distinct name's member list, walked in ascending
// key order for deterministic iteration.
func (n *nameTrie) groups() [][]Dependency {
	var out [][]Dependency
	n.t.Walk(func(key string, v interface{}) bool {
		out = append(out, v.([]Dependency))
		return false
	})
	return out
}
