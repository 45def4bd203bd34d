package convert

import (
	"fmt"

	"github.com/pbaille/tdconv/internal/domain"
)

// outlineNode is one entry of the outline arena. Index 0 is the body.
type outlineNode struct {
	label    string
	note     string
	children []int
}

// outlineTree rebuilds nesting from indent-coded records. parents[L] is
// the most recent node at level L; placing a node at L forgets deeper
// levels.
type outlineTree struct {
	nodes   []outlineNode
	parents []int
	current int
}

func newOutlineTree() *outlineTree {
	return &outlineTree{
		nodes:   []outlineNode{{}},
		parents: []int{0},
		current: -1,
	}
}

func (t *outlineTree) addTask(level int, label string) error {
	if level < 1 || level > len(t.parents) {
		return fmt.Errorf("task %q at level %d with deepest open level %d: %w",
			label, level, len(t.parents)-1, domain.ErrMalformedIndent)
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, outlineNode{label: label})
	parent := t.parents[level-1]
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	t.parents = append(t.parents[:level], idx)
	t.current = idx
	return nil
}

// appendNote adds text to the current node's note, separated by a blank line.
func (t *outlineTree) appendNote(text string) error {
	if t.current < 0 {
		return domain.ErrOrphanNote
	}
	n := &t.nodes[t.current]
	if n.note != "" {
		n.note += "\n\n" + text
	} else {
		n.note = text
	}
	return nil
}

func (t *outlineTree) outlines(idx int) []opmlOutline {
	children := t.nodes[idx].children
	if len(children) == 0 {
		return nil
	}
	out := make([]opmlOutline, 0, len(children))
	for _, c := range children {
		out = append(out, opmlOutline{
			Text:     t.nodes[c].label,
			Note:     t.nodes[c].note,
			Outlines: t.outlines(c),
		})
	}
	return out
}
