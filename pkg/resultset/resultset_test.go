// pkg/resultset/resultset_test.go
package resultset

import (
	"math"
	"testing"

	"slimtree/pkg/object/demoobj"
)

func TestUnboundedAddKeepsEverything(t *testing.T) {
	rs := New()
	for i := 0; i < 5; i++ {
		rs.Add(demoobj.NewVector([]float64{float64(i)}), float64(i))
	}
	if rs.Len() != 5 {
		t.Fatalf("got %d pairs, want 5", rs.Len())
	}
	if !math.IsInf(rs.WorstDistance(), 1) {
		t.Fatal("unbounded set should report +Inf worst distance")
	}
}

func TestBoundedAddEvictsWorst(t *testing.T) {
	rs := NewBounded(2)
	rs.Add(demoobj.NewVector([]float64{0}), 5)
	rs.Add(demoobj.NewVector([]float64{1}), 1)
	if !rs.IsFull() {
		t.Fatal("should be full at bound")
	}
	if rs.WorstDistance() != 5 {
		t.Fatalf("got worst %v, want 5", rs.WorstDistance())
	}

	kept := rs.Add(demoobj.NewVector([]float64{2}), 3)
	if !kept {
		t.Fatal("3 should displace worst (5)")
	}
	if rs.WorstDistance() != 3 {
		t.Fatalf("got worst %v, want 3", rs.WorstDistance())
	}

	rejected := rs.Add(demoobj.NewVector([]float64{3}), 10)
	if rejected {
		t.Fatal("10 should not displace a better worst (3)")
	}
}

func TestPairsSortedAscending(t *testing.T) {
	rs := NewBounded(3)
	rs.Add(demoobj.NewVector([]float64{0}), 7)
	rs.Add(demoobj.NewVector([]float64{1}), 2)
	rs.Add(demoobj.NewVector([]float64{2}), 5)

	pairs := rs.Pairs()
	want := []float64{2, 5, 7}
	for i, w := range want {
		if pairs[i].Distance != w {
			t.Fatalf("pairs[%d].Distance = %v, want %v", i, pairs[i].Distance, w)
		}
	}
}

func TestAddTiedBypassesBound(t *testing.T) {
	rs := NewBounded(1)
	rs.Add(demoobj.NewVector([]float64{0}), 2)
	rs.AddTied(demoobj.NewVector([]float64{1}), 2)
	if rs.Len() != 2 {
		t.Fatalf("got %d pairs, want 2 after tie add", rs.Len())
	}
}

func TestZeroKBoundedSetNeverRetains(t *testing.T) {
	rs := NewBounded(0)
	kept := rs.Add(demoobj.NewVector([]float64{0}), 1)
	if kept {
		t.Fatal("k=0 result set must not retain anything")
	}
	if rs.Len() != 0 {
		t.Fatalf("got %d pairs, want 0", rs.Len())
	}
}
