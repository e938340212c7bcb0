// Package ssa computes dominance frontiers over a MidIR function's CFG and,
// from them, the φ-placement plan function lowering needs. The dominator
// and dominance-frontier algorithms are the iterative fixed-point
// formulation standard in CFG-based SSA construction.
package ssa

import "github.com/arclang/midc/internal/midir"

// ComputeDominators computes, for every block id in fn, its immediate
// dominator. The entry block maps to -1 (no dominator).
func ComputeDominators(fn *midir.FunctionBody) map[int]int {
	idom := make(map[int]int)
	if len(fn.Blocks) == 0 {
		return idom
	}

	order := blockOrder(fn)
	preds := buildPredecessors(fn)

	idom[fn.Entry] = -1

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			if id == fn.Entry {
				continue
			}
			newDom := -2 // sentinel: "no candidate yet"
			for _, p := range preds[id] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newDom == -2 {
					newDom = p
				} else {
					newDom = intersect(p, newDom, idom)
				}
			}
			if newDom == -2 {
				continue
			}
			if cur, ok := idom[id]; !ok || cur != newDom {
				idom[id] = newDom
				changed = true
			}
		}
	}
	return idom
}

// intersect finds the nearest common ancestor of b1 and b2 in the
// dominator tree described by idom.
func intersect(b1, b2 int, idom map[int]int) int {
	onPathFromB1 := make(map[int]bool)
	for cur := b1; ; {
		onPathFromB1[cur] = true
		next, ok := idom[cur]
		if !ok || next == -1 {
			if next == -1 {
				onPathFromB1[-1] = true
			}
			break
		}
		cur = next
	}
	for cur := b2; ; {
		if onPathFromB1[cur] {
			return cur
		}
		next, ok := idom[cur]
		if !ok {
			return b1
		}
		cur = next
		if cur == -1 {
			if onPathFromB1[-1] {
				return -1
			}
			return b1
		}
	}
}

// ComputeDominanceFrontier computes the dominance frontier of every block:
// the set of blocks X such that B dominates a predecessor of X but does not
// strictly dominate X.
func ComputeDominanceFrontier(fn *midir.FunctionBody) map[int][]int {
	idom := ComputeDominators(fn)
	preds := buildPredecessors(fn)

	frontier := make(map[int][]int)
	for _, b := range fn.Blocks {
		frontier[b.ID] = nil
	}

	// No join-point shortcut here: a back edge into the entry block gives it
	// a single CFG predecessor yet still merges with the values seeded ahead
	// of it, so every block's predecessors are walked.
	for _, b := range fn.Blocks {
		ps := preds[b.ID]
		dom := idom[b.ID]
		for _, p := range ps {
			runner := p
			for runner != dom && runner != -1 {
				frontier[runner] = append(frontier[runner], b.ID)
				runner = idom[runner]
			}
		}
	}
	return frontier
}

// buildPredecessors builds a block id -> list of predecessor ids map.
func buildPredecessors(fn *midir.FunctionBody) map[int][]int {
	preds := make(map[int][]int, len(fn.Blocks))
	for _, b := range fn.Blocks {
		preds[b.ID] = nil
	}
	for _, b := range fn.Blocks {
		term := b.Term
		for _, s := range term.Successors() {
			preds[s] = append(preds[s], b.ID)
		}
	}
	return preds
}

// blockOrder returns block ids in the order the blocks were declared, so
// that the dominator fixed-point loop visits them deterministically.
func blockOrder(fn *midir.FunctionBody) []int {
	order := make([]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		order[i] = b.ID
	}
	return order
}
