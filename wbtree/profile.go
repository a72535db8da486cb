package wbtree

import "sort"

// NodeRef names a node together with its level.
type NodeRef struct {
	Level int
	ID    int64
}

// Profile records which nodes a cursor read and which subtrees it skipped
// without reading them.
type Profile struct {
	Touched map[NodeRef]struct{}
	Pruned  map[NodeRef]struct{}
}

func newProfile() *Profile {
	return &Profile{
		Touched: make(map[NodeRef]struct{}),
		Pruned:  make(map[NodeRef]struct{}),
	}
}

func (p *Profile) touch(level int, id int64) { p.Touched[NodeRef{level, id}] = struct{}{} }

func (p *Profile) prune(level int, id int64) { p.Pruned[NodeRef{level, id}] = struct{}{} }

func (p *Profile) TouchedByLevel() map[int]int { return countByLevel(p.Touched) }

func (p *Profile) PrunedByLevel() map[int]int { return countByLevel(p.Pruned) }

// Levels returns every level that appears in the profile, highest first.
func (p *Profile) Levels() []int {
	seen := make(map[int]bool)
	for ref := range p.Touched {
		seen[ref.Level] = true
	}
	for ref := range p.Pruned {
		seen[ref.Level] = true
	}
	levels := make([]int, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels
}

func countByLevel(refs map[NodeRef]struct{}) map[int]int {
	out := make(map[int]int)
	for ref := range refs {
		out[ref.Level]++
	}
	return out
}
