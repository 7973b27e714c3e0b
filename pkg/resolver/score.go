package resolver

import (
	"math"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// Scoring constants.
const (
	// OverlapEpsilon is the score difference below which two candidates tie.
	OverlapEpsilon = 0.01

	// ProximityTolerance is the distance difference below which two
	// candidates tie in the proximity fallback.
	ProximityTolerance = 50.0
)

// Candidate is a scrollable container considered during one search.
type Candidate struct {
	Node     *viewtree.Node
	Area     float64
	Overlap  float64 // Fraction of the reference inside Node.Frame
	Distance float64 // Proximity fallback only
}

func newCandidate(n *viewtree.Node) Candidate {
	return Candidate{Node: n, Area: n.Frame.Area()}
}

// selectByOverlap picks the candidate covering most of reference. Scores
// within OverlapEpsilon tie and the smaller area wins. Candidates with no
// overlap are ignored; nil means none overlapped.
func selectByOverlap(reference core.Rect, cands []Candidate) *Candidate {
	var best *Candidate
	for i := range cands {
		c := &cands[i]
		c.Overlap = reference.Overlap(c.Node.Frame)
		if c.Overlap <= 0 {
			continue
		}

		switch {
		case best == nil:
			best = c
		case math.Abs(c.Overlap-best.Overlap) < OverlapEpsilon:
			if c.Area < best.Area {
				best = c
			}
		case c.Overlap > best.Overlap:
			best = c
		}
	}
	return best
}

// selectByProximity picks the candidate whose origin is closest to pos,
// skipping candidates larger than maxArea. Distances within
// ProximityTolerance tie and the smaller area wins.
func selectByProximity(pos core.Point, maxArea float64, cands []Candidate) *Candidate {
	var best *Candidate
	for i := range cands {
		c := &cands[i]
		if c.Area > maxArea {
			continue
		}
		c.Distance = pos.Distance(c.Node.Frame.Origin())

		switch {
		case best == nil:
			best = c
		case c.Distance < best.Distance-ProximityTolerance:
			best = c
		case math.Abs(c.Distance-best.Distance) <= ProximityTolerance && c.Area < best.Area:
			best = c
		}
	}
	return best
}

// selectSmallest picks the smallest-area candidate; the first wins ties.
func selectSmallest(cands []Candidate) *Candidate {
	var best *Candidate
	for i := range cands {
		c := &cands[i]
		if best == nil || c.Area < best.Area {
			best = c
		}
	}
	return best
}
