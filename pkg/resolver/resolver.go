// Package resolver locates the scroll container that belongs to a probe.
//
// A probe is a zero-size marker placed inside an element's view tree. The
// host toolkit renders the element's scrolling content at an unpredictable
// depth relative to the marker, so the resolver searches the tree around it
// with a ladder of phases: the subtrees beside the probe, the ancestors'
// siblings, the whole tree, and finally the enclosing container's own
// scrollable ancestors. Geometry phases score candidates by how much of the
// enclosing container's frame they cover.
//
// Resolution is pure: it reads the tree and the owner index and never
// mutates either. Callers run it on the main loop.
package resolver

import (
	"math"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// Search depth limits. Depth counts edges below the node a scan starts from.
const (
	SiblingDepth         = 3
	AncestorLevels       = 5
	AncestorSiblingDepth = 4
	AncestorChainLevels  = 10
)

// Large-area defaults for the proximity fallback.
const (
	DefaultLargeAreaFraction = 0.9
	DefaultLargeAreaLimit    = 300000.0
)

// OwnerLookup reports which testID, if any, already owns a scroll container.
type OwnerLookup interface {
	OwnerOf(nodeID string) (testID string, ok bool)
}

// Options tune the resolver.
type Options struct {
	// LargeAreaFraction excludes, in the proximity fallback, candidates whose
	// area exceeds this fraction of the root frame's area.
	LargeAreaFraction float64

	// LargeAreaLimit is the absolute area limit used when the root frame is
	// degenerate.
	LargeAreaLimit float64

	// OnPhase is called each time a phase is evaluated.
	OnPhase func(Phase)
}

// DefaultOptions returns Options with the default thresholds.
func DefaultOptions() Options {
	return Options{
		LargeAreaFraction: DefaultLargeAreaFraction,
		LargeAreaLimit:    DefaultLargeAreaLimit,
	}
}

// Result is a successful resolution.
type Result struct {
	Target     *viewtree.Node
	Phase      Phase
	Candidates int // Candidates considered by the winning phase
}

// Resolver runs the phase ladder.
type Resolver struct {
	owners OwnerLookup
	opts   Options
}

// New creates a Resolver. owners may be nil when no bindings exist.
func New(owners OwnerLookup, opts Options) *Resolver {
	if opts.LargeAreaFraction <= 0 {
		opts.LargeAreaFraction = DefaultLargeAreaFraction
	}
	if opts.LargeAreaLimit <= 0 {
		opts.LargeAreaLimit = DefaultLargeAreaLimit
	}
	return &Resolver{owners: owners, opts: opts}
}

// query is the input of one resolution.
type query struct {
	testID    string
	enclosing *viewtree.Node // may be nil
	reference core.Rect      // enclosing frame, degenerate if unknown
	position  core.Point     // probe's absolute position
	root      *viewtree.Node
}

// Resolve finds the scroll container for the probe carrying testID.
// The probe's parent is the enclosing container.
func (r *Resolver) Resolve(testID string, probe *viewtree.Node) (Result, bool) {
	if probe == nil {
		return Result{}, false
	}
	q := query{
		testID:    testID,
		enclosing: probe.Parent,
		position:  probe.Frame.Origin(),
		root:      probe.Root(),
	}
	if probe.Parent != nil {
		q.reference = probe.Parent.Frame
	}
	return r.run(q)
}

// ResolveFrom finds the scroll container for testID given the enclosing
// container directly, with pos as the probe's absolute position.
func (r *Resolver) ResolveFrom(testID string, enclosing *viewtree.Node, pos core.Point) (Result, bool) {
	if enclosing == nil {
		return Result{}, false
	}
	return r.run(query{
		testID:    testID,
		enclosing: enclosing,
		reference: enclosing.Frame,
		position:  pos,
		root:      enclosing.Root(),
	})
}

// ResolveRect finds the scroll container for testID given only the enclosing
// frame, the probe position and the tree root. The enclosing container is the
// deepest node whose frame equals reference; without one, only the whole-tree
// phase can succeed.
func (r *Resolver) ResolveRect(testID string, reference core.Rect, pos core.Point, root *viewtree.Node) (Result, bool) {
	if root == nil {
		return Result{}, false
	}
	return r.run(query{
		testID:    testID,
		enclosing: deepestWithFrame(root, reference),
		reference: reference,
		position:  pos,
		root:      root,
	})
}

func deepestWithFrame(root *viewtree.Node, frame core.Rect) *viewtree.Node {
	if frame.IsEmpty() {
		return nil
	}
	var found *viewtree.Node
	root.Walk(func(n *viewtree.Node) bool {
		if n.Frame == frame {
			found = n
		}
		return true
	})
	return found
}

func (r *Resolver) run(q query) (Result, bool) {
	for phase := PhaseSiblings; phase != PhaseNone; phase = phase.next() {
		if r.opts.OnPhase != nil {
			r.opts.OnPhase(phase)
		}
		if best, n := r.evaluate(phase, q); best != nil {
			return Result{Target: best.Node, Phase: phase, Candidates: n}, true
		}
	}
	return Result{}, false
}

// EvaluatePhase runs a single phase in isolation.
func (r *Resolver) EvaluatePhase(phase Phase, testID string, probe *viewtree.Node) (*viewtree.Node, bool) {
	if probe == nil {
		return nil, false
	}
	q := query{testID: testID, enclosing: probe.Parent, position: probe.Frame.Origin(), root: probe.Root()}
	if probe.Parent != nil {
		q.reference = probe.Parent.Frame
	}
	best, _ := r.evaluate(phase, q)
	if best == nil {
		return nil, false
	}
	return best.Node, true
}

func (r *Resolver) evaluate(phase Phase, q query) (*Candidate, int) {
	switch phase {
	case PhaseSiblings:
		return r.siblings(q)
	case PhaseAncestorSiblings:
		return r.ancestorSiblings(q)
	case PhaseWholeTree:
		return r.wholeTree(q)
	case PhaseAncestorChain:
		return r.ancestorChain(q)
	default:
		return nil, 0
	}
}

// siblings scans every child of the enclosing container's parent, the
// enclosing container included, so scrollables next to the probe are found.
// Without a parent only the enclosing container's subtree is scanned.
func (r *Resolver) siblings(q query) (*Candidate, int) {
	if q.enclosing == nil || q.reference.IsEmpty() {
		return nil, 0
	}
	scope := []*viewtree.Node{q.enclosing}
	if q.enclosing.Parent != nil {
		scope = q.enclosing.Parent.Children
	}
	var cands []Candidate
	for _, n := range scope {
		cands = r.collect(n, 0, SiblingDepth, q.testID, cands)
	}
	return selectByOverlap(q.reference, cands), len(cands)
}

func (r *Resolver) ancestorSiblings(q query) (*Candidate, int) {
	if q.enclosing == nil || q.reference.IsEmpty() {
		return nil, 0
	}
	var cands []Candidate
	ancestor := q.enclosing.Parent
	for level := 0; level < AncestorLevels && ancestor != nil; level++ {
		for _, sib := range ancestor.Siblings() {
			cands = r.collect(sib, 0, AncestorSiblingDepth, q.testID, cands)
		}
		ancestor = ancestor.Parent
	}
	return selectByOverlap(q.reference, cands), len(cands)
}

func (r *Resolver) wholeTree(q query) (*Candidate, int) {
	if q.root == nil {
		return nil, 0
	}
	cands := r.collect(q.root, 0, math.MaxInt, q.testID, nil)
	if q.reference.IsEmpty() {
		return selectByProximity(q.position, r.largeArea(q.root), cands), len(cands)
	}
	return selectByOverlap(q.reference, cands), len(cands)
}

func (r *Resolver) ancestorChain(q query) (*Candidate, int) {
	var cands []Candidate
	n := q.enclosing
	for level := 0; level < AncestorChainLevels && n != nil; level++ {
		if n.Scrollable && !r.boundElsewhere(n, q.testID) {
			cands = append(cands, newCandidate(n))
		}
		n = n.Parent
	}
	return selectSmallest(cands), len(cands)
}

// collect gathers scrollable nodes in n's subtree down to limit levels below n.
// The whole-tree phase passes math.MaxInt and scans every level.
// Nodes owned by another testID are skipped but their subtrees are still scanned.
func (r *Resolver) collect(n *viewtree.Node, depth, limit int, testID string, out []Candidate) []Candidate {
	if n == nil || depth > limit {
		return out
	}
	if n.Scrollable && !r.boundElsewhere(n, testID) {
		out = append(out, newCandidate(n))
	}
	for _, c := range n.Children {
		out = r.collect(c, depth+1, limit, testID, out)
	}
	return out
}

// boundElsewhere reports whether n is already the target of a different testID.
func (r *Resolver) boundElsewhere(n *viewtree.Node, testID string) bool {
	if r.owners == nil {
		return false
	}
	owner, ok := r.owners.OwnerOf(n.ID)
	return ok && owner != "" && owner != testID
}

// largeArea returns the area above which a candidate is treated as the
// screen-filling container rather than a real target.
func (r *Resolver) largeArea(root *viewtree.Node) float64 {
	if area := root.Frame.Area(); area > 0 {
		return area * r.opts.LargeAreaFraction
	}
	return r.opts.LargeAreaLimit
}
