// Package replytree holds the in-memory operations over a comment's reply tree.
//
// A stored tree is a nested document (each Reply owns its children). Tree loads
// it into an arena: a flat node slice in depth-first pre-order, an id index, and
// parent/child index lists. Every walk is iterative, so nesting depth is bounded
// by memory rather than the goroutine stack. Flatten writes the nested shape back.
package replytree

import (
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/reaction"
)

const root = -1

type node struct {
	reply    models.Reply
	parent   int
	children []int
}

// Tree is an arena view of one comment's replies. It is not safe for concurrent use.
type Tree struct {
	nodes []node
	roots []int
	index map[string]int
}

type pending struct {
	reply  models.Reply
	parent int
}

// New loads a nested reply sequence. When the same id appears more than once,
// the first occurrence in depth-first order owns the id.
func New(replies []models.Reply) *Tree {
	t := &Tree{index: make(map[string]int)}
	t.attach(replies, root)
	return t
}

// attach adds replies, and everything nested below them, under parent.
// Visiting order is siblings in stored order with each sibling's subtree
// finished before the next sibling.
func (t *Tree) attach(replies []models.Reply, parent int) {
	stack := make([]pending, 0, len(replies))
	for i := len(replies) - 1; i >= 0; i-- {
		stack = append(stack, pending{reply: replies[i], parent: parent})
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := p.reply.Replies
		p.reply.Replies = nil

		idx := len(t.nodes)
		t.nodes = append(t.nodes, node{reply: p.reply, parent: p.parent})
		if p.parent == root {
			t.roots = append(t.roots, idx)
		} else {
			t.nodes[p.parent].children = append(t.nodes[p.parent].children, idx)
		}
		if _, taken := t.index[p.reply.ID]; !taken {
			t.index[p.reply.ID] = idx
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pending{reply: children[i], parent: idx})
		}
	}
}

// Len returns the number of replies at any depth
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Contains reports whether id names a reply anywhere in the tree
func (t *Tree) Contains(id string) bool {
	_, ok := t.index[id]
	return ok
}

// IDs returns every reply id in depth-first order
func (t *Tree) IDs() []string {
	out := make([]string, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n.reply.ID)
	}
	return out
}

// Get returns the reply with id, without its children
func (t *Tree) Get(id string) (models.Reply, bool) {
	idx, ok := t.index[id]
	if !ok {
		return models.Reply{}, false
	}
	return t.nodes[idx].reply, true
}

// ParentOf returns the id of the reply that directly owns id. The second result
// is false when id is unknown or sits at the root of the tree.
func (t *Tree) ParentOf(id string) (string, bool) {
	idx, ok := t.index[id]
	if !ok || t.nodes[idx].parent == root {
		return "", false
	}
	return t.nodes[t.nodes[idx].parent].reply.ID, true
}

// acceptable reports whether every id in reply's subtree is new to the tree.
// Rejecting known ids keeps the structure acyclic.
func (t *Tree) acceptable(reply models.Reply) bool {
	seen := make(map[string]struct{})
	stack := []models.Reply{reply}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.ID == "" || t.Contains(r.ID) {
			return false
		}
		if _, dup := seen[r.ID]; dup {
			return false
		}
		seen[r.ID] = struct{}{}
		stack = append(stack, r.Replies...)
	}
	return true
}

// AppendRoot appends reply directly under the comment. It returns false when the
// reply id is already in the tree.
func (t *Tree) AppendRoot(reply models.Reply) bool {
	if !t.acceptable(reply) {
		return false
	}
	t.attach([]models.Reply{reply}, root)
	return true
}

// InsertUnder appends reply as the last child of the first reply whose id is
// targetID. It returns false, leaving the tree untouched, when no reply matches
// or when the reply id is already present.
func (t *Tree) InsertUnder(targetID string, reply models.Reply) bool {
	idx, ok := t.index[targetID]
	if !ok || !t.acceptable(reply) {
		return false
	}
	t.attach([]models.Reply{reply}, idx)
	return true
}

// ToggleLike toggles userID's like on targetID. found is false when no reply
// matches; liked is the new state otherwise.
func (t *Tree) ToggleLike(targetID, userID string) (liked bool, found bool) {
	idx, ok := t.index[targetID]
	if !ok {
		return false, false
	}
	r := &t.nodes[idx].reply
	return reaction.Like(&r.Likes, &r.Dislikes, userID), true
}

// ToggleDislike mirrors ToggleLike on the dislike set
func (t *Tree) ToggleDislike(targetID, userID string) (disliked bool, found bool) {
	idx, ok := t.index[targetID]
	if !ok {
		return false, false
	}
	r := &t.nodes[idx].reply
	return reaction.Dislike(&r.Likes, &r.Dislikes, userID), true
}

// Flatten rebuilds the nested representation. Children always sit after their
// parent in the arena, so one reverse pass assembles every subtree bottom-up.
func (t *Tree) Flatten() models.ReplyList {
	built := make([]models.Reply, len(t.nodes))
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		r := n.reply
		r.Replies = make([]models.Reply, len(n.children))
		for j, c := range n.children {
			r.Replies[j] = built[c]
		}
		built[i] = r
	}
	out := make(models.ReplyList, len(t.roots))
	for i, idx := range t.roots {
		out[i] = built[idx]
	}
	return out
}
