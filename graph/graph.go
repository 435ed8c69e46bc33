package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is a special constant used to represent the terminal node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")
)

// Node represents a named step in the graph.
type Node struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function takes the current state and returns the updated state.
	Function func(ctx context.Context, state any) (any, error)
}

// Edge represents a static transition between two nodes.
type Edge struct {
	From string
	To   string
}

// StateGraph is a sequential state machine over named nodes. Exactly one
// node runs per step; the successor is chosen by a conditional edge when one
// is registered for the node, by the static edge otherwise.
type StateGraph struct {
	nodes            map[string]Node
	edges            []Edge
	conditionalEdges map[string]func(ctx context.Context, state any) string
	entryPoint       string
}

// NewStateGraph creates a new empty StateGraph.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:            make(map[string]Node),
		conditionalEdges: make(map[string]func(ctx context.Context, state any) string),
	}
}

// AddNode adds a node with the given name, description and function.
func (g *StateGraph) AddNode(name, description string, fn func(ctx context.Context, state any) (any, error)) {
	g.nodes[name] = Node{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a static edge between the "from" and "to" nodes.
func (g *StateGraph) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge adds an edge whose target node is determined at runtime
// from the state. A conditional edge takes precedence over static edges.
func (g *StateGraph) AddConditionalEdge(from string, condition func(ctx context.Context, state any) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the graph.
func (g *StateGraph) SetEntryPoint(name string) {
	g.entryPoint = name
}

// Runnable is a compiled state graph that can be invoked.
type Runnable struct {
	graph *StateGraph
}

// Compile validates the graph and returns a Runnable.
func (g *StateGraph) Compile() (*Runnable, error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}
	return &Runnable{graph: g}, nil
}

// Invoke executes the graph from the entry point until END, threading the
// state through each node in turn.
func (r *Runnable) Invoke(ctx context.Context, initialState any) (any, error) {
	state := initialState
	current := r.graph.entryPoint

	for current != END {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		next, err := node.Function(ctx, state)
		if err != nil {
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}
		state = next

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

// nextNode resolves the successor of a node, preferring a conditional edge.
func (r *Runnable) nextNode(ctx context.Context, from string, state any) (string, error) {
	if condition, ok := r.graph.conditionalEdges[from]; ok {
		next := condition(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", from)
		}
		return next, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == from {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}
