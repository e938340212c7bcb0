package ssa

import (
	"sort"

	"github.com/arclang/midc/internal/midir"
)

// Plan is the φ-placement table produced by PhiPlanner: for each block id
// that needs φ nodes, the set of variable ids that must receive one,
// returned in ascending variable-id order.
type Plan struct {
	order map[int][]int
}

// Vars returns the variable ids requiring a φ node in block id, in
// deterministic order. The caller should create them in this order so that
// FunctionLowerer's generated IR is stable across runs.
func (p *Plan) Vars(block int) []int {
	return p.order[block]
}

// Blocks returns the set of block ids that need at least one φ node.
func (p *Plan) Blocks() []int {
	blocks := make([]int, 0, len(p.order))
	for id := range p.order {
		blocks = append(blocks, id)
	}
	sort.Ints(blocks)
	return blocks
}

// PlanPhis computes the minimal-SSA φ-placement plan for fn: the classical
// iterated-dominance-frontier construction. A variable is a φ candidate in
// block X once some block that defines it reaches X's dominance frontier;
// adding a φ to X is itself a definition, so the frontier is iterated to a
// fixed point.
func PlanPhis(fn *midir.FunctionBody) *Plan {
	frontier := ComputeDominanceFrontier(fn)

	defs := definitionSites(fn)

	hasPhi := make(map[int]map[int]bool) // block -> var -> already planned
	order := make(map[int][]int)

	// Range over defs in ascending variable-id order: Go randomizes map
	// iteration order, and since two distinct variables can both land a phi
	// in the same block, processing them in a fixed order is required for
	// the output list (and therefore the phi creation order) to be
	// deterministic across runs.
	varIDs := make([]int, 0, len(defs))
	for varID := range defs {
		varIDs = append(varIDs, varID)
	}
	sort.Ints(varIDs)

	for _, varID := range varIDs {
		defBlocks := defs[varID]
		worklist := append([]int(nil), defBlocks...)
		onWorklist := make(map[int]bool, len(defBlocks))
		for _, b := range defBlocks {
			onWorklist[b] = true
		}

		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			onWorklist[b] = false

			for _, x := range frontier[b] {
				if hasPhi[x] == nil {
					hasPhi[x] = make(map[int]bool)
				}
				if hasPhi[x][varID] {
					continue
				}
				hasPhi[x][varID] = true
				order[x] = append(order[x], varID)

				if !onWorklist[x] {
					onWorklist[x] = true
					worklist = append(worklist, x)
				}
			}
		}
	}

	return &Plan{order: order}
}

// definitionSites maps each assigned variable id to the blocks where a Move
// statement targets it. Seeding binds every variable ahead of the CFG
// entry, but those bindings sit above the entire graph and so never place
// a φ of their own.
func definitionSites(fn *midir.FunctionBody) map[int][]int {
	defs := make(map[int][]int)
	seen := make(map[int]map[int]bool)

	add := func(varID, block int) {
		if seen[varID] == nil {
			seen[varID] = make(map[int]bool)
		}
		if seen[varID][block] {
			return
		}
		seen[varID][block] = true
		defs[varID] = append(defs[varID], block)
	}

	for _, b := range fn.Blocks {
		for _, s := range b.Stmts {
			if s.Kind == midir.StmtMove {
				add(s.Target, b.ID)
			}
		}
	}
	return defs
}
