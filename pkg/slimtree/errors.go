// pkg/slimtree/errors.go
package slimtree

import "errors"

// ErrSplitInfeasible is returned when a serialised object exceeds page
// capacity after every candidate split pair has been tried. The insert
// that produced it is aborted; no new object is counted.
var ErrSplitInfeasible = errors.New("slimtree: object too large to fit any split partition")
