package bundle

import "fmt"

// NodeID is the arena handle of a node.
type NodeID int

// TensorID is the arena handle of a tensor or slice.
type TensorID int

// None marks an absent handle, e.g. a tensor without a producer.
const None = -1

// Kind is the closed set of node classes the scheduler distinguishes.
type Kind int

const (
	// KindRegular is any compute node that is not one of the classes below.
	KindRegular Kind = iota
	// KindMME runs on the matrix-multiplication engine.
	KindMME
	// KindMemset initialises an accumulation buffer.
	KindMemset
	// KindFork splits a bundle input into slices.
	KindFork
	// KindJoin reassembles slices into one logical tensor.
	KindJoin
	// KindReduction accumulates partial results of several producers.
	KindReduction
	// KindLogical only reinterprets memory and emits no engine work.
	KindLogical
)

var kindNames = map[Kind]string{
	KindRegular:   "regular",
	KindMME:       "mme",
	KindMemset:    "memset",
	KindFork:      "fork",
	KindJoin:      "join",
	KindReduction: "reduction",
	KindLogical:   "logical",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts the textual kind used in bundle descriptions.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindRegular, fmt.Errorf("unknown node kind %q", s)
}

// Node is a single bundle operation. Its edges are owned by the Graph.
type Node struct {
	ID   NodeID
	Name string
	Kind Kind

	inputs  []TensorID
	outputs []TensorID
}

// Inputs returns the data inputs in operand order.
func (n *Node) Inputs() []TensorID { return n.inputs }

// Outputs returns the data outputs in operand order.
func (n *Node) Outputs() []TensorID { return n.outputs }

// IsMemset reports whether the node clears a buffer, typically the
// accumulator of a reduction.
func (n *Node) IsMemset() bool { return n.Kind == KindMemset }

// IsForkNode reports whether the node splits a tensor into slices.
func (n *Node) IsForkNode() bool { return n.Kind == KindFork }

// IsJoinNode reports whether the node reassembles slices into one tensor.
func (n *Node) IsJoinNode() bool { return n.Kind == KindJoin }

// IsReduction reports whether the node accumulates partial slices.
func (n *Node) IsReduction() bool { return n.Kind == KindReduction }

// RunsOnMME reports whether the node executes on the matrix engine.
func (n *Node) RunsOnMME() bool { return n.Kind == KindMME }

// IsLogicalOperation reports whether the node only reinterprets its input
// and does no work of its own.
func (n *Node) IsLogicalOperation() bool { return n.Kind == KindLogical }

// IsRouteEnd reports whether the node terminates routes: joins reassemble a
// logical output and reductions accumulate partial slices.
func (n *Node) IsRouteEnd() bool { return n.IsJoinNode() || n.IsReduction() }

func (n *Node) String() string {
	return fmt.Sprintf("%s(%d)", n.Name, n.ID)
}

// Tensor is an operand. A slice is a tensor that tiles a larger boundary tensor.
type Tensor struct {
	ID   TensorID
	Name string

	producer  NodeID
	consumers []NodeID
}

// Producer returns the producing node or None.
func (t *Tensor) Producer() NodeID { return t.producer }

// Consumers returns the consuming nodes in insertion order.
func (t *Tensor) Consumers() []NodeID { return t.consumers }
