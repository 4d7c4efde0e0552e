// cmd/slimtree/main.go
// Command slimtree is a minimal example program: it builds a small
// Slim-tree over demo vectors in memory, inserts them, and runs a
// range query, printing the matches it finds.
package main

import (
	"fmt"
	"os"

	"slimtree/pkg/distance"
	"slimtree/pkg/object"
	"slimtree/pkg/object/demoobj"
	"slimtree/pkg/pager"
	"slimtree/pkg/slimtree"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "slimtree:", err)
		os.Exit(1)
	}
}

func run() error {
	pm := pager.NewMemoryPageManager(pager.Options{PageSize: 4096})
	dist := distance.New(demoobj.Euclidean)

	tr, err := slimtree.New(pm, dist, func() object.Object { return &demoobj.Vector{} })
	if err != nil {
		return err
	}

	points := [][]float64{
		{0, 0},
		{1, 1},
		{5, 5},
		{5.5, 5.5},
		{10, 0},
		{0, 10},
	}
	for _, p := range points {
		if _, err := tr.Add(demoobj.NewVector(p)); err != nil {
			return err
		}
	}

	fmt.Printf("indexed %d objects, tree height %d\n", tr.NumObjects(), tr.Height())

	query := demoobj.NewVector([]float64{5, 5})
	const radius = 2.0

	rs, err := tr.RangeQuery(query, radius)
	if err != nil {
		return err
	}

	fmt.Printf("objects within %.1f of %v:\n", radius, query.Data)
	for _, pair := range rs.Pairs() {
		v := pair.Object.(*demoobj.Vector)
		fmt.Printf("  %v  distance=%.4f\n", v.Data, pair.Distance)
	}

	nearest, err := tr.NearestQuery(query, 3, false)
	if err != nil {
		return err
	}
	fmt.Println("3 nearest neighbours:")
	for _, pair := range nearest.Pairs() {
		v := pair.Object.(*demoobj.Vector)
		fmt.Printf("  %v  distance=%.4f\n", v.Data, pair.Distance)
	}

	return nil
}
