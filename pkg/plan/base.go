// Package plan defines the immutable plan tree the evaluator executes.
//
// A plan is built from two closed families of nodes: Rex (scalar
// expressions, which produce one Datum) and Rel (relational operators, which
// produce a stream of binding rows). Both families are sealed by unexported
// marker methods and consumers dispatch over them with type switches.
//
// Plans carry no runtime state. One plan may be prepared once and executed
// any number of times, concurrently; every execution instantiates its own
// operator tree from it.
package plan

import (
	"fmt"
	"strings"

	"pqleval/pkg/utils"
)

// Node is implemented by every plan node.
type Node interface {
	// NodeType returns the short name of the node (for debugging/visualization).
	NodeType() string

	// Children returns the child nodes in evaluation order.
	Children() []Node

	// describe renders the node's own parameters, without its children.
	describe() string
}

// Rex is a scalar expression node.
type Rex interface {
	Node
	isRex()
}

// Rel is a relational operator node.
type Rel interface {
	Node
	isRel()
}

type rexNode struct{}

func (rexNode) isRex() {}

type relNode struct{}

func (relNode) isRel() {}

// nodes collects non-nil children. Nil children are kept out so that
// visualisation of a partially built plan does not panic; Validate reports them.
func nodes[T Node](ns ...T) []Node {
	out := make([]Node, 0, len(ns))
	for _, n := range ns {
		if !utils.IsNil(n) {
			out = append(out, n)
		}
	}
	return out
}

// Explain returns a tree-like visualization of the plan.
func Explain(n Node) string {
	var sb strings.Builder
	explainNode(&sb, n, "", "")
	return sb.String()
}

// Describe renders a one-line header for n without its children, such as
// Join[LEFT] or Scan[AS t].
func Describe(n Node) string {
	if utils.IsNil(n) {
		return "<nil>"
	}
	if d := n.describe(); d != "" {
		return fmt.Sprintf("%s[%s]", n.NodeType(), d)
	}
	return n.NodeType()
}

func explainNode(sb *strings.Builder, n Node, connector, prefix string) {
	sb.WriteString(connector)
	sb.WriteString(Describe(n))
	sb.WriteByte('\n')
	if utils.IsNil(n) {
		return
	}

	children := n.Children()
	for i, child := range children {
		if i == len(children)-1 {
			explainNode(sb, child, prefix+"└── ", prefix+"    ")
		} else {
			explainNode(sb, child, prefix+"├── ", prefix+"│   ")
		}
	}
}

// Walk visits n and its descendants depth-first, parents first. Returning
// false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if utils.IsNil(n) || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
