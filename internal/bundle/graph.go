package bundle

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNode is returned when a handle or name does not resolve to a node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownTensor is returned when a handle or name does not resolve to a tensor.
	ErrUnknownTensor = errors.New("unknown tensor")
	// ErrCycle is returned by DetectCycles.
	ErrCycle = errors.New("cycle detected")
)

// Graph is the arena of nodes and tensors of one bundle together with their
// data edges (tensor producer/consumers) and control edges.
//
// A Graph is populated once and then only read, so it carries no locking.
type Graph struct {
	nodes   []*Node
	tensors []*Tensor

	nodeByName   map[string]NodeID
	tensorByName map[string]TensorID

	// ctrlIn maps a blocked node to the nodes that must precede it.
	ctrlIn  map[NodeID][]NodeID
	ctrlOut map[NodeID][]NodeID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeByName:   make(map[string]NodeID),
		tensorByName: make(map[string]TensorID),
		ctrlIn:       make(map[NodeID][]NodeID),
		ctrlOut:      make(map[NodeID][]NodeID),
	}
}

// AddTensor registers a tensor. Adding a name twice returns the existing handle.
func (g *Graph) AddTensor(name string) TensorID {
	if id, ok := g.tensorByName[name]; ok {
		return id
	}
	id := TensorID(len(g.tensors))
	g.tensors = append(g.tensors, &Tensor{ID: id, Name: name, producer: None})
	g.tensorByName[name] = id
	return id
}

// AddNode registers a node consuming inputs and producing outputs. Every
// tensor must already exist and may have at most one producer.
func (g *Graph) AddNode(name string, kind Kind, inputs, outputs []TensorID) (NodeID, error) {
	if _, exists := g.nodeByName[name]; exists {
		return None, fmt.Errorf("node %q already exists", name)
	}
	for _, t := range append(append([]TensorID(nil), inputs...), outputs...) {
		if !g.validTensor(t) {
			return None, fmt.Errorf("node %q: tensor %d: %w", name, t, ErrUnknownTensor)
		}
	}
	for _, t := range outputs {
		if p := g.tensors[t].producer; p != None {
			return None, fmt.Errorf("node %q: tensor %q is already produced by %q", name, g.tensors[t].Name, g.nodes[p].Name)
		}
	}

	id := NodeID(len(g.nodes))
	n := &Node{
		ID:      id,
		Name:    name,
		Kind:    kind,
		inputs:  append([]TensorID(nil), inputs...),
		outputs: append([]TensorID(nil), outputs...),
	}
	g.nodes = append(g.nodes, n)
	g.nodeByName[name] = id

	for _, t := range inputs {
		g.tensors[t].consumers = append(g.tensors[t].consumers, id)
	}
	for _, t := range outputs {
		g.tensors[t].producer = id
	}
	return id, nil
}

// AddControlEdge records that blocked may only run after blocking.
func (g *Graph) AddControlEdge(blocking, blocked NodeID) error {
	if blocking == blocked {
		return fmt.Errorf("self-referential control edge not allowed: %d -> %d", blocking, blocked)
	}
	if !g.validNode(blocking) {
		return fmt.Errorf("control edge source %d: %w", blocking, ErrUnknownNode)
	}
	if !g.validNode(blocked) {
		return fmt.Errorf("control edge destination %d: %w", blocked, ErrUnknownNode)
	}
	for _, n := range g.ctrlIn[blocked] {
		if n == blocking {
			return nil
		}
	}
	g.ctrlIn[blocked] = append(g.ctrlIn[blocked], blocking)
	g.ctrlOut[blocking] = append(g.ctrlOut[blocking], blocked)
	return nil
}

// Node returns the node for id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if !g.validNode(id) {
		return nil
	}
	return g.nodes[id]
}

// Tensor returns the tensor for id, or nil.
func (g *Graph) Tensor(id TensorID) *Tensor {
	if !g.validTensor(id) {
		return nil
	}
	return g.tensors[id]
}

// NodeByName resolves a node name.
func (g *Graph) NodeByName(name string) (NodeID, bool) {
	id, ok := g.nodeByName[name]
	return id, ok
}

// TensorByName resolves a tensor name.
func (g *Graph) TensorByName(name string) (TensorID, bool) {
	id, ok := g.tensorByName[name]
	return id, ok
}

// Nodes returns all nodes in id order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NumNodes returns the number of nodes in the arena.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Producer returns the producer of t or None.
func (g *Graph) Producer(t TensorID) NodeID {
	if !g.validTensor(t) {
		return None
	}
	return g.tensors[t].producer
}

// Consumers returns the consumers of t.
func (g *Graph) Consumers(t TensorID) []NodeID {
	if !g.validTensor(t) {
		return nil
	}
	return g.tensors[t].consumers
}

// ControlInputs returns the nodes that must run before n.
func (g *Graph) ControlInputs(n NodeID) []NodeID { return g.ctrlIn[n] }

// ControlOutputs returns the nodes that must run after n.
func (g *Graph) ControlOutputs(n NodeID) []NodeID { return g.ctrlOut[n] }

// HasControlEdge reports whether blocked directly waits on blocking.
func (g *Graph) HasControlEdge(blocking, blocked NodeID) bool {
	for _, n := range g.ctrlIn[blocked] {
		if n == blocking {
			return true
		}
	}
	return false
}

// DataProducers returns the distinct producers of n's inputs in operand order.
func (g *Graph) DataProducers(n NodeID) []NodeID {
	node := g.Node(n)
	if node == nil {
		return nil
	}
	var out []NodeID
	seen := make(map[NodeID]struct{})
	for _, t := range node.inputs {
		p := g.tensors[t].producer
		if p == None {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// DataConsumers returns the distinct consumers of n's outputs.
func (g *Graph) DataConsumers(n NodeID) []NodeID {
	node := g.Node(n)
	if node == nil {
		return nil
	}
	var out []NodeID
	seen := make(map[NodeID]struct{})
	for _, t := range node.outputs {
		for _, c := range g.tensors[t].consumers {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// DependsOnData reports whether consumer reads a tensor written by producer.
func (g *Graph) DependsOnData(consumer, producer NodeID) bool {
	node := g.Node(consumer)
	if node == nil {
		return false
	}
	for _, t := range node.inputs {
		if g.tensors[t].producer == producer {
			return true
		}
	}
	return false
}

// IsAncestor reports whether b is reachable from a over data or control edges.
func (g *Graph) IsAncestor(a, b NodeID) bool {
	if !g.validNode(a) || !g.validNode(b) || a == b {
		return false
	}
	visited := make(map[NodeID]bool)
	stack := []NodeID{a}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.successors(n) {
			if next == b {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// DetectCycles checks the graph for cycles over data and control edges and
// names the first node found on one.
func (g *Graph) DetectCycles() error {
	// permanent: fully visited nodes; temporary: the current recursion stack.
	permanent := make(map[NodeID]bool)
	temporary := make(map[NodeID]bool)

	var visit func(n NodeID) error
	visit = func(n NodeID) error {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			return fmt.Errorf("%w involving node %q", ErrCycle, g.nodes[n].Name)
		}
		temporary[n] = true
		for _, next := range g.successors(n) {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, n)
		permanent[n] = true
		return nil
	}

	for _, n := range g.nodes {
		if err := visit(n.ID); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) successors(n NodeID) []NodeID {
	out := g.DataConsumers(n)
	return append(out, g.ctrlOut[n]...)
}

func (g *Graph) validNode(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

func (g *Graph) validTensor(id TensorID) bool {
	return id >= 0 && int(id) < len(g.tensors)
}
