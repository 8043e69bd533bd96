package tui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/roeyazroel/issuedash/internal/logger"
)

var (
	// ErrInvalidFocusTarget is returned when a node is unknown or hidden.
	ErrInvalidFocusTarget = errors.New("invalid focus target")
	// ErrFocusUnreachable is returned when a node sits below a hidden ancestor.
	ErrFocusUnreachable = errors.New("focus target unreachable")
)

// NodeID identifies a focus node. Render regions use the same IDs.
type NodeID string

// KeyHandler consumes key events. HandleKey reports whether the key was used.
type KeyHandler interface {
	HandleKey(ev *tcell.EventKey) bool
}

// KeyInterceptor is implemented by handlers that want a look at keys bound
// for their descendants before the descendant sees them.
type KeyInterceptor interface {
	InterceptKey(ev *tcell.EventKey) bool
}

// DirtyMarker is told which nodes need repainting after a focus change.
type DirtyMarker interface {
	MarkDirty(id NodeID)
}

type focusNode struct {
	id       NodeID
	parent   NodeID
	children []NodeID
	captures bool
	visible  bool
	handler  KeyHandler
}

// FocusTree holds the widget hierarchy and routes keys to the active node.
// Nodes live in an arena keyed by ID; links between them are IDs.
type FocusTree struct {
	root   NodeID
	nodes  map[NodeID]*focusNode
	active NodeID
	marker DirtyMarker
}

// NewFocusTree returns a tree containing only root, which starts active.
func NewFocusTree(root NodeID, handler KeyHandler, marker DirtyMarker) *FocusTree {
	t := &FocusTree{
		root:   root,
		nodes:  make(map[NodeID]*focusNode),
		active: root,
		marker: marker,
	}
	t.nodes[root] = &focusNode{id: root, visible: true, handler: handler}
	return t
}

// Add appends id as the last child of parent. New nodes are visible.
func (t *FocusTree) Add(id, parent NodeID, handler KeyHandler) error {
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("%w: duplicate node %q", ErrInvalidFocusTarget, id)
	}
	p, ok := t.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: unknown parent %q", ErrInvalidFocusTarget, parent)
	}
	t.nodes[id] = &focusNode{id: id, parent: parent, visible: true, handler: handler}
	p.children = append(p.children, id)
	return nil
}

// Root returns the root node ID.
func (t *FocusTree) Root() NodeID { return t.root }

// Active returns the active node.
func (t *FocusTree) Active() NodeID { return t.active }

// Contains reports whether id is in the tree.
func (t *FocusTree) Contains(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Parent returns the parent of id, or "" for the root and unknown nodes.
func (t *FocusTree) Parent(id NodeID) NodeID {
	if n, ok := t.nodes[id]; ok {
		return n.parent
	}
	return ""
}

// Children returns a copy of id's children in tree order.
func (t *FocusTree) Children(id NodeID) []NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// Visible reports the node's own visible flag.
func (t *FocusTree) Visible(id NodeID) bool {
	n, ok := t.nodes[id]
	return ok && n.visible
}

// Reachable reports whether id and all of its ancestors are visible.
func (t *FocusTree) Reachable(id NodeID) bool {
	for n, ok := t.nodes[id]; ok; n, ok = t.nodes[n.parent] {
		if !n.visible {
			return false
		}
		if n.id == t.root {
			return true
		}
	}
	return false
}

// Captures reports whether id has input capture set.
func (t *FocusTree) Captures(id NodeID) bool {
	n, ok := t.nodes[id]
	return ok && n.captures
}

// IsCaptured reports whether the active node or one of its ancestors
// captures input.
func (t *FocusTree) IsCaptured() bool {
	_, ok := t.capturer()
	return ok
}

// SetActive focuses id.
func (t *FocusTree) SetActive(id NodeID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidFocusTarget, id)
	}
	if !n.visible {
		return fmt.Errorf("%w: node %q is hidden", ErrInvalidFocusTarget, id)
	}
	if !t.Reachable(id) {
		return fmt.Errorf("%w: node %q has a hidden ancestor", ErrFocusUnreachable, id)
	}
	t.focus(id)
	return nil
}

// SetVisible shows or hides id. Hiding the active node or one of its
// ancestors moves focus to the nearest reachable ancestor of id.
func (t *FocusTree) SetVisible(id NodeID, visible bool) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidFocusTarget, id)
	}
	if id == t.root && !visible {
		return fmt.Errorf("%w: the root cannot be hidden", ErrInvalidFocusTarget)
	}
	if n.visible == visible {
		return nil
	}
	n.visible = visible
	if visible || (t.active != id && !t.isAncestor(id, t.active)) {
		return nil
	}
	for p := n.parent; ; p = t.nodes[p].parent {
		if t.Reachable(p) {
			t.focus(p)
			return nil
		}
	}
}

// Capture makes id receive every raw key while it or a descendant is active.
func (t *FocusTree) Capture(id NodeID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidFocusTarget, id)
	}
	n.captures = true
	return nil
}

// Release restores normal routing for id.
func (t *FocusTree) Release(id NodeID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidFocusTarget, id)
	}
	n.captures = false
	return nil
}

// FocusNext moves to the next visible, non-capturing sibling of the active
// node, wrapping around. From the root it moves to the first such child.
func (t *FocusTree) FocusNext() NodeID { return t.cycle(1) }

// FocusPrev is FocusNext in reverse.
func (t *FocusTree) FocusPrev() NodeID { return t.cycle(-1) }

func (t *FocusTree) cycle(step int) NodeID {
	var siblings []NodeID
	pos := -1
	if t.active == t.root {
		siblings = t.nodes[t.root].children
	} else {
		siblings = t.nodes[t.nodes[t.active].parent].children
		for i, id := range siblings {
			if id == t.active {
				pos = i
				break
			}
		}
	}
	n := len(siblings)
	for i := 1; i <= n; i++ {
		idx := ((pos+step*i)%n + n) % n
		if pos < 0 && step < 0 {
			idx = n - i
		}
		cand := t.nodes[siblings[idx]]
		if cand.id == t.active {
			break
		}
		if cand.visible && !cand.captures {
			t.focus(cand.id)
			break
		}
	}
	return t.active
}

// Dispatch routes ev and returns the node that consumed it.
//
// A capturing node on the active chain gets the raw event and nobody else
// does. Otherwise ancestors may intercept it, root first, then the active
// node handles it, and an unhandled key bubbles up through the ancestors.
func (t *FocusTree) Dispatch(ev *tcell.EventKey) (NodeID, bool) {
	if t.active == "" {
		return "", false
	}
	if id, ok := t.capturer(); ok {
		h := t.nodes[id].handler
		if h == nil {
			return id, false
		}
		return id, h.HandleKey(ev)
	}

	chain := t.chain(t.active)
	for i := len(chain) - 1; i >= 1; i-- {
		if ic, ok := t.nodes[chain[i]].handler.(KeyInterceptor); ok && ic.InterceptKey(ev) {
			return chain[i], true
		}
	}
	for _, id := range chain {
		if h := t.nodes[id].handler; h != nil && h.HandleKey(ev) {
			return id, true
		}
	}
	return "", false
}

// chain returns id followed by its ancestors up to the root.
func (t *FocusTree) chain(id NodeID) []NodeID {
	var out []NodeID
	for n, ok := t.nodes[id]; ok; n, ok = t.nodes[n.parent] {
		out = append(out, n.id)
		if n.id == t.root {
			break
		}
	}
	return out
}

func (t *FocusTree) capturer() (NodeID, bool) {
	for _, id := range t.chain(t.active) {
		if t.nodes[id].captures {
			return id, true
		}
	}
	return "", false
}

// isAncestor reports whether a is a strict ancestor of b.
func (t *FocusTree) isAncestor(a, b NodeID) bool {
	chain := t.chain(b)
	if len(chain) < 2 {
		return false
	}
	for _, id := range chain[1:] {
		if id == a {
			return true
		}
	}
	return false
}

func (t *FocusTree) focus(id NodeID) {
	if id == t.active {
		return
	}
	prev := t.active
	t.active = id
	logger.Debug("tui.focus: %s -> %s", prev, id)
	if t.marker != nil {
		t.marker.MarkDirty(prev)
		t.marker.MarkDirty(id)
	}
}
