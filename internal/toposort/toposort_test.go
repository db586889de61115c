package toposort_test

import (
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/peterldowns/migverify/internal/toposort"
)

func TestSortWithCycles(t *testing.T) {
	t.Parallel()

	// a -> b -> c
	//           c -> d -> e
	//           c <- d <- e
	//           c <-----> e
	//                     e <- f
	//                     e -> z
	a := newSnode("a", "b")
	b := newSnode("b", "c")
	c := newSnode("c", "d", "e")
	d := newSnode("d", "e", "c")
	e := newSnode("e", "d", "c", "z")
	f := newSnode("f", "e")
	z := newSnode("z")
	initial := []snode{a, b, c, d, e, f, z}
	nodes := toposort.Sort[string](initial)

	expected := []snode{z, e, d, c, b, a, f}
	if !check.Equal(t, asKeys(expected), asKeys(nodes)) {
		t.Log("expected:", expected)
		t.Log("  result:", nodes)
	}
	check.Equal(t, [][]string{{"c", "d", "e"}}, toposort.Cycles[string](initial))
}

func TestSortInitialOrderIndependent(t *testing.T) {
	t.Parallel()
	z := newSnode("z")
	x := newSnode("x")
	a := newSnode("a", "z")
	for _, initial := range [][]snode{
		{a, x, z},
		{a, z, x},
		{x, a, z},
		{x, z, a},
		{z, a, x},
		{z, x, a},
	} {
		nodes := toposort.Sort[string](initial)
		expected := []snode{z, a, x}
		if !check.Equal(t, asKeys(expected), asKeys(nodes)) {
			t.Log(" initial:", initial)
			t.Log("expected:", expected)
			t.Log("  result:", nodes)
		}
	}
}

func TestSortDoesNotModifyInput(t *testing.T) {
	t.Parallel()
	initial := []snode{newSnode("b"), newSnode("a")}
	_ = toposort.Sort[string](initial)
	check.Equal(t, []string{"b", "a"}, asKeys(initial))
}

func TestComplicatedSort(t *testing.T) {
	t.Parallel()

	// x
	// a -> e
	// a -> b -> c
	// a -> b -> d -> e
	// y -> z
	a := newSnode("a", "b", "e")
	b := newSnode("b", "c", "d")
	c := newSnode("c")
	d := newSnode("d", "e")
	e := newSnode("e")
	x := newSnode("x")
	y := newSnode("y", "z")
	z := newSnode("z")
	nodes := []snode{a, b, c, d, e, x, y, z}
	sorted := toposort.Sort[string](nodes)

	expected := []snode{c, e, d, b, a, x, z, y}
	if !check.Equal(t, asKeys(expected), asKeys(sorted)) {
		t.Log("expected:", expected)
		t.Log("  result:", sorted)
	}
	check.Equal(t, 0, len(toposort.Cycles[string](nodes)))
}

func TestIntegerKeys(t *testing.T) {
	t.Parallel()
	nodes := []inode{
		{key: 0, deps: []int{2}},
		{key: 1},
		{key: 2},
	}
	sorted := toposort.Sort[int](nodes)
	keys := make([]int, 0, len(sorted))
	for _, n := range sorted {
		keys = append(keys, n.key)
	}
	check.Equal(t, []int{2, 0, 1}, keys)
}

func TestCycles(t *testing.T) {
	t.Parallel()
	// self -> self
	// a -> b -> a
	// c -> d -> e -> c
	// f -> a
	// g -> missing
	nodes := []snode{
		newSnode("self", "self"),
		newSnode("f", "a"),
		newSnode("e", "c"),
		newSnode("d", "e"),
		newSnode("c", "d"),
		newSnode("b", "a"),
		newSnode("a", "b"),
		newSnode("g", "missing"),
	}
	check.Equal(t, [][]string{
		{"a", "b"},
		{"c", "d", "e"},
		{"self"},
	}, toposort.Cycles[string](nodes))
}

type snode struct {
	key  string
	deps []string
}

func (s snode) SortKey() string {
	return s.key
}

func (s snode) DependsOn() []string {
	return s.deps
}

func newSnode(key string, deps ...string) snode {
	return snode{key: key, deps: deps}
}

func asKeys(snodes []snode) []string {
	result := make([]string, 0, len(snodes))
	for _, snode := range snodes {
		result = append(result, snode.key)
	}
	return result
}

type inode struct {
	key  int
	deps []int
}

func (n inode) SortKey() int      { return n.key }
func (n inode) DependsOn() []int { return n.deps }
