// Package trie holds the trigger prefix tree the matcher walks.
//
// Nodes live in a single arena and refer to their children by index, so a
// tree is released by dropping the arena. Index 0 is always the root, and
// because the root is never anyone's child, a zero child slot means empty.
package trie

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"expandd/internal/keymap"
)

// NodeID addresses a node in the arena.
type NodeID int32

// Root is the ID of the root node of every non-released trie.
const Root NodeID = 0

// ErrEmptyTrigger is returned when inserting an empty trigger or expansion.
var ErrEmptyTrigger = errors.New("empty trigger")

type node struct {
	sym       keymap.Symbol
	depth     int
	terminal  bool
	expansion string
	children  [keymap.AlphabetSize]NodeID
}

// Node is a read-only view of one trie node.
type Node struct {
	ID        NodeID
	Symbol    keymap.Symbol
	Depth     int
	Terminal  bool
	Expansion string
}

// Trie maps trigger strings to expansions.
type Trie struct {
	keys     *keymap.Keymap
	nodes    []node
	triggers int
}

// New returns an empty trie whose characters are resolved through keys.
func New(keys *keymap.Keymap) *Trie {
	return &Trie{
		keys:  keys,
		nodes: make([]node, 1, 64),
	}
}

// Insert registers trigger with its expansion. Triggers sharing a prefix
// share the corresponding path. Re-inserting a trigger replaces its
// expansion.
func (t *Trie) Insert(trigger, expansion string) error {
	if trigger == "" {
		return ErrEmptyTrigger
	}
	if expansion == "" {
		return fmt.Errorf("%w: no expansion for %q", ErrEmptyTrigger, trigger)
	}
	if t.nodes == nil {
		t.nodes = make([]node, 1, 64)
	}

	cur := Root
	for _, c := range trigger {
		sym, err := t.keys.Symbol(c)
		if err != nil {
			return fmt.Errorf("trigger %q: %w", trigger, err)
		}
		next := t.nodes[cur].children[sym.Position]
		if next == Root {
			next = NodeID(len(t.nodes))
			t.nodes = append(t.nodes, node{
				sym:   sym,
				depth: t.nodes[cur].depth + 1,
			})
			t.nodes[cur].children[sym.Position] = next
		}
		cur = next
	}

	n := &t.nodes[cur]
	if !n.terminal {
		t.triggers++
	}
	n.terminal = true
	n.expansion = strings.Clone(expansion)
	return nil
}

// Child returns the child of id at the given alphabet position.
func (t *Trie) Child(id NodeID, position int) (Node, bool) {
	if int(id) >= len(t.nodes) || position < 0 || position >= keymap.AlphabetSize {
		return Node{}, false
	}
	next := t.nodes[id].children[position]
	if next == Root {
		return Node{}, false
	}
	return t.Node(next), true
}

// Node returns the view of node id. Unknown IDs yield the zero Node.
func (t *Trie) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}
	}
	n := t.nodes[id]
	return Node{
		ID:        id,
		Symbol:    n.sym,
		Depth:     n.depth,
		Terminal:  n.terminal,
		Expansion: n.expansion,
	}
}

// Lookup returns the expansion registered for trigger, if any.
func (t *Trie) Lookup(trigger string) (string, bool) {
	if len(t.nodes) == 0 {
		return "", false
	}
	cur := Root
	for _, c := range trigger {
		sym, err := t.keys.Symbol(c)
		if err != nil {
			return "", false
		}
		n, ok := t.Child(cur, sym.Position)
		if !ok {
			return "", false
		}
		cur = n.ID
	}
	n := t.nodes[cur]
	return n.expansion, n.terminal
}

// Len returns the number of registered triggers.
func (t *Trie) Len() int { return t.triggers }

// Size returns the number of nodes, root included. A released trie has
// size zero.
func (t *Trie) Size() int { return len(t.nodes) }

// Release drops every node. Releasing twice, or releasing an empty trie,
// is a no-op. A released trie can be reused by inserting into it again.
func (t *Trie) Release() {
	t.nodes = nil
	t.triggers = 0
}

// Walk visits every node below the root in depth-first order, children in
// alphabet order. Returning false from fn stops the walk.
func (t *Trie) Walk(fn func(Node) bool) {
	if len(t.nodes) == 0 {
		return
	}
	// Explicit stack; reversed push keeps alphabet order on pop.
	stack := make([]NodeID, 0, 32)
	pushChildren := func(id NodeID) {
		children := &t.nodes[id].children
		for i := len(children) - 1; i >= 0; i-- {
			if c := children[i]; c != Root {
				stack = append(stack, c)
			}
		}
	}
	pushChildren(Root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(t.Node(id)) {
			return
		}
		pushChildren(id)
	}
}

// Dump writes the tree one node per line, indented with one dash per
// depth level. Terminal nodes show their expansion.
func (t *Trie) Dump(w io.Writer) error {
	var err error
	t.Walk(func(n Node) bool {
		line := strings.Repeat("-", n.Depth) + n.Symbol.String()
		if n.Terminal {
			line += " = " + n.Expansion
		}
		_, err = fmt.Fprintln(w, line)
		return err == nil
	})
	return err
}
