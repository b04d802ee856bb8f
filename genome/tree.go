package genome

import "github.com/pthm-cable/creatures/neural"

// Children returns the adjacency list of the block tree, derived by scanning
// parent ids. Child lists are in ascending id order.
func (g *Genome) Children() [][]int {
	children := make([][]int, len(g.Blocks))
	for i := 1; i < len(g.Blocks); i++ {
		p := g.Blocks[i].Parent
		if p >= 0 && p < len(g.Blocks) {
			children[p] = append(children[p], i)
		}
	}
	return children
}

// Walk visits blocks depth-first from the root using an explicit stack.
// Returning false from fn skips the block's subtree.
func (g *Genome) Walk(fn func(b *Block, depth int) bool) {
	if len(g.Blocks) == 0 {
		return
	}
	children := g.Children()

	type frame struct{ id, depth int }
	stack := []frame{{id: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(&g.Blocks[f.id], f.depth) {
			continue
		}
		kids := children[f.id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], depth: f.depth + 1})
		}
	}
}

// Depth returns the number of levels in the tree (1 for a root-only genome).
func (g *Genome) Depth() int {
	depth := 0
	g.Walk(func(_ *Block, d int) bool {
		if d+1 > depth {
			depth = d + 1
		}
		return true
	})
	return depth
}

// Subtree returns the ids of id and all its descendants.
func (g *Genome) Subtree(id int) []int {
	children := g.Children()
	var ids []int
	stack := []int{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, n)
		stack = append(stack, children[n]...)
	}
	return ids
}

// Compact returns a genome holding only the blocks with keep[id] set, ids
// renumbered in order. A kept block whose parent is dropped is dropped too,
// so the result is always a connected tree rooted at block 0.
func (g *Genome) Compact(keep []bool) *Genome {
	remap := make([]int, len(g.Blocks))
	out := &Genome{Blocks: make([]Block, 0, len(g.Blocks))}
	for i := range g.Blocks {
		remap[i] = -1
		b := g.Blocks[i]
		if !keep[i] {
			continue
		}
		if !b.IsRoot() {
			if remap[b.Parent] < 0 {
				continue
			}
			b.Parent = remap[b.Parent]
		} else if i != 0 {
			continue
		}
		remap[i] = len(out.Blocks)
		b.ID = remap[i]
		b.Neurons = append([]neural.Neuron(nil), b.Neurons...)
		out.Blocks = append(out.Blocks, b)
	}
	return out
}
