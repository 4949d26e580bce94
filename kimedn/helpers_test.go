package kimedn

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// treeOpts compares decoded trees: maps by their ordered members, big
// integers by value.
var treeOpts = cmp.Options{
	cmp.Transformer("Pairs", func(m *Map) []Pair { return m.Pairs() }),
	cmp.Comparer(func(a, b *big.Int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	}),
}

func assertTree(t *testing.T, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got, treeOpts); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func kv(key, value any) Pair {
	return Pair{Key: key, Value: value}
}

func vec(values ...any) []any {
	if values == nil {
		return []any{}
	}
	return values
}
