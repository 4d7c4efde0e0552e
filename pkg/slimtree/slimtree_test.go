// pkg/slimtree/slimtree_test.go
package slimtree

import (
	"testing"

	"slimtree/pkg/object"
	"slimtree/pkg/object/demoobj"
	"slimtree/pkg/pager"

	distancepkg "slimtree/pkg/distance"
)

func newTestTree(t *testing.T, pageSize int) *Tree {
	t.Helper()
	pm := pager.NewMemoryPageManager(pager.Options{PageSize: pageSize})
	dist := distancepkg.New(demoobj.Euclidean)
	tr, err := New(pm, dist, func() object.Object { return &demoobj.Vector{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func vec(vals ...float64) *demoobj.Vector { return demoobj.NewVector(vals) }

func TestEmptyTreeSingleInsert(t *testing.T) {
	tr := newTestTree(t, 4096)
	a := vec(1, 2)

	ok, err := tr.Add(a)
	if err != nil || !ok {
		t.Fatalf("Add: ok=%v err=%v", ok, err)
	}
	if tr.Height() != 1 {
		t.Fatalf("got height %d, want 1", tr.Height())
	}
	if tr.NumObjects() != 1 {
		t.Fatalf("got %d objects, want 1", tr.NumObjects())
	}

	rs, err := tr.RangeQuery(a, 0)
	if err != nil {
		t.Fatalf("RangeQuery: %v", err)
	}
	pairs := rs.Pairs()
	if len(pairs) != 1 || pairs[0].Distance != 0 {
		t.Fatalf("got %+v, want single zero-distance match", pairs)
	}
}

func TestTwoObjectsBothInRootLeaf(t *testing.T) {
	tr := newTestTree(t, 4096)
	a := vec(0, 0)
	b := vec(1, 0)
	tr.Add(a)
	tr.Add(b)

	rs, err := tr.NearestQuery(a, 1, false)
	if err != nil {
		t.Fatalf("NearestQuery: %v", err)
	}
	pairs := rs.Pairs()
	if len(pairs) != 1 || pairs[0].Distance != 0 {
		t.Fatalf("got %+v, want [(A,0)]", pairs)
	}

	rs2, err := tr.NearestQuery(a, 2, false)
	if err != nil {
		t.Fatalf("NearestQuery: %v", err)
	}
	pairs2 := rs2.Pairs()
	if len(pairs2) != 2 || pairs2[0].Distance != 0 || pairs2[1].Distance != 1 {
		t.Fatalf("got %+v, want [(A,0),(B,1)]", pairs2)
	}
}

func TestForcedSplitProducesTwoLevelTree(t *testing.T) {
	// A small page forces overflow after a handful of inserts.
	tr := newTestTree(t, 100)

	pts := []*demoobj.Vector{
		vec(0, 0),
		vec(100, 0),
		vec(0, 100),
		vec(100, 100),
	}
	for i, p := range pts {
		ok, err := tr.Add(p)
		if err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
		if !ok {
			t.Fatalf("Add #%d rejected", i)
		}
	}

	if tr.Height() < 2 {
		t.Fatalf("got height %d, want >= 2 after forced overflow", tr.Height())
	}
	if tr.NumObjects() != 4 {
		t.Fatalf("got %d objects, want 4", tr.NumObjects())
	}

	rs, err := tr.RangeQuery(pts[0], 200)
	if err != nil {
		t.Fatalf("RangeQuery: %v", err)
	}
	if rs.Len() != 4 {
		t.Fatalf("got %d results, want all 4 within radius 200", rs.Len())
	}
}

func TestKNNWithTies(t *testing.T) {
	tr := newTestTree(t, 4096)
	q := vec(0, 0)
	tr.Add(vec(1, 0))  // distance 1
	tr.Add(vec(0, 2))  // distance 2
	tr.Add(vec(2, 0))  // distance 2
	tr.Add(vec(0, 3))  // distance 3

	rs, err := tr.NearestQuery(q, 2, false)
	if err != nil {
		t.Fatalf("NearestQuery: %v", err)
	}
	if rs.Len() != 2 {
		t.Fatalf("got %d results, want 2 without ties", rs.Len())
	}

	rsTied, err := tr.NearestQuery(q, 2, true)
	if err != nil {
		t.Fatalf("NearestQuery tied: %v", err)
	}
	if rsTied.Len() != 3 {
		t.Fatalf("got %d results, want 3 with both distance-2 points included", rsTied.Len())
	}
}

func TestRangeQueryPrunesSubtree(t *testing.T) {
	tr := newTestTree(t, 128)

	q := vec(0, 0)
	tr.Add(q)
	for i := 1; i <= 6; i++ {
		tr.Add(vec(float64(i)*50, float64(i)*50))
	}

	pm := tr.PageManager()
	pm.ResetStatistics()
	rs, err := tr.RangeQuery(q, 5)
	if err != nil {
		t.Fatalf("RangeQuery: %v", err)
	}
	pairs := rs.Pairs()
	if len(pairs) != 1 || pairs[0].Distance != 0 {
		t.Fatalf("got %+v, want only the query point itself", pairs)
	}
	// A full traversal reads every node once plus the root a second time
	// for its representative; skipping a pruned subtree keeps the count
	// at or below the node count.
	if pm.DiskReads() > uint64(tr.NodeCount()) {
		t.Fatalf("range query read %d pages for %d nodes, want at least one subtree skipped", pm.DiskReads(), tr.NodeCount())
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/slimtree.db"

	pm, err := pager.NewDiskPageManager(path, pager.Options{PageSize: 512})
	if err != nil {
		t.Fatalf("NewDiskPageManager: %v", err)
	}
	dist := distancepkg.New(demoobj.Euclidean)
	tr, err := New(pm, dist, func() object.Object { return &demoobj.Vector{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var inserted []*demoobj.Vector
	for i := 0; i < 40; i++ {
		v := vec(float64(i), float64(i*2))
		inserted = append(inserted, v)
		if ok, err := tr.Add(v); err != nil || !ok {
			t.Fatalf("Add #%d: ok=%v err=%v", i, ok, err)
		}
	}

	q := vec(5, 10)
	before, err := tr.NearestQuery(q, 5, false)
	if err != nil {
		t.Fatalf("NearestQuery before close: %v", err)
	}
	if err := pm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	pm2, err := pager.NewDiskPageManager(path, pager.Options{PageSize: 512})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer pm2.Close()
	tr2, err := New(pm2, distancepkg.New(demoobj.Euclidean), func() object.Object { return &demoobj.Vector{} })
	if err != nil {
		t.Fatalf("New after reopen: %v", err)
	}
	if tr2.NumObjects() != 40 {
		t.Fatalf("got %d objects after reopen, want 40", tr2.NumObjects())
	}

	after, err := tr2.NearestQuery(q, 5, false)
	if err != nil {
		t.Fatalf("NearestQuery after reopen: %v", err)
	}
	bp, ap := before.Pairs(), after.Pairs()
	if len(bp) != len(ap) {
		t.Fatalf("got %d results after reopen, want %d", len(ap), len(bp))
	}
	for i := range bp {
		if bp[i].Distance != ap[i].Distance {
			t.Fatalf("result %d distance changed: before=%v after=%v", i, bp[i].Distance, ap[i].Distance)
		}
	}
}

func TestKZeroReturnsEmpty(t *testing.T) {
	tr := newTestTree(t, 4096)
	tr.Add(vec(1, 1))
	rs, err := tr.NearestQuery(vec(0, 0), 0, false)
	if err != nil {
		t.Fatalf("NearestQuery: %v", err)
	}
	if rs.Len() != 0 {
		t.Fatalf("got %d results, want 0 for k=0", rs.Len())
	}
}

func TestKGreaterThanObjectCountReturnsAll(t *testing.T) {
	tr := newTestTree(t, 4096)
	for i := 0; i < 3; i++ {
		tr.Add(vec(float64(i), 0))
	}
	rs, err := tr.NearestQuery(vec(0, 0), 100, false)
	if err != nil {
		t.Fatalf("NearestQuery: %v", err)
	}
	if rs.Len() != 3 {
		t.Fatalf("got %d results, want 3", rs.Len())
	}
}

func TestExistsQueryShortCircuits(t *testing.T) {
	tr := newTestTree(t, 4096)
	a := vec(0, 0)
	tr.Add(a)
	tr.Add(vec(10, 10))

	rs, err := tr.ExistsQuery(a, 0)
	if err != nil {
		t.Fatalf("ExistsQuery: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("got %d results, want 1", rs.Len())
	}
}

func TestInsertionOrderDoesNotChangeQueryResults(t *testing.T) {
	ptsA := []*demoobj.Vector{vec(0, 0), vec(5, 5), vec(1, 1), vec(9, 2)}
	ptsB := []*demoobj.Vector{vec(9, 2), vec(1, 1), vec(5, 5), vec(0, 0)}

	trA := newTestTree(t, 256)
	for _, p := range ptsA {
		trA.Add(p)
	}
	trB := newTestTree(t, 256)
	for _, p := range ptsB {
		trB.Add(p)
	}

	q := vec(0, 0)
	rsA, err := trA.NearestQuery(q, 4, false)
	if err != nil {
		t.Fatalf("NearestQuery A: %v", err)
	}
	rsB, err := trB.NearestQuery(q, 4, false)
	if err != nil {
		t.Fatalf("NearestQuery B: %v", err)
	}
	pa, pb := rsA.Pairs(), rsB.Pairs()
	if len(pa) != len(pb) {
		t.Fatalf("result count differs: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i].Distance != pb[i].Distance {
			t.Fatalf("distance at rank %d differs: %v vs %v", i, pa[i].Distance, pb[i].Distance)
		}
	}
}
