package resolver

// Phase is one rung of the resolution ladder. Phases run in declaration
// order; the first to produce a target ends the search.
type Phase int

const (
	PhaseNone             Phase = iota // No phase produced a target
	PhaseSiblings                      // Subtrees of the enclosing container's siblings
	PhaseAncestorSiblings              // Subtrees of the ancestors' siblings
	PhaseWholeTree                     // Every scrollable in the tree, proximity fallback
	PhaseAncestorChain                 // Scrollable ancestors of the enclosing container
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseSiblings:
		return "siblings"
	case PhaseAncestorSiblings:
		return "ancestor-siblings"
	case PhaseWholeTree:
		return "whole-tree"
	case PhaseAncestorChain:
		return "ancestor-chain"
	default:
		return "unknown"
	}
}

// next returns the phase to try after p fails. PhaseNone ends the ladder.
func (p Phase) next() Phase {
	switch p {
	case PhaseSiblings:
		return PhaseAncestorSiblings
	case PhaseAncestorSiblings:
		return PhaseWholeTree
	case PhaseWholeTree:
		return PhaseAncestorChain
	default:
		return PhaseNone
	}
}

// Phases lists the ladder in evaluation order.
func Phases() []Phase {
	var out []Phase
	for p := PhaseSiblings; p != PhaseNone; p = p.next() {
		out = append(out, p)
	}
	return out
}
