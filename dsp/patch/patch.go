// Package patch describes generator graphs as JSON and builds them on a
// ugen.Server.
//
// A patch is a list of nodes. Each node names a generator type, its
// parameters and optional lifecycle settings:
//
//	{"nodes": [
//	  {"id": "osc", "type": "sine", "params": {"freq": 220}},
//	  {"id": "echo", "type": "delay",
//	   "params": {"input": "@osc", "delay": 0.3, "feedback": 0.4}, "out": 0}
//	]}
//
// Numeric parameters bind constants. String parameters of the form "@id"
// or "@id:lane" bind the output of another node. Nodes are built in
// dependency order regardless of the order they are listed in.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/cwbudde/algo-ugen/dsp/ugen"
)

var (
	// ErrUnknownGenerator is returned for a node type with no registered factory.
	ErrUnknownGenerator = errors.New("patch: unknown generator type")
	// ErrUnknownNode is returned when a reference names no node in the patch.
	ErrUnknownNode = errors.New("patch: unknown node reference")
	// ErrCycle is returned when references form a loop.
	ErrCycle = errors.New("patch: graph has a cycle")
	// ErrDuplicateNode is returned when two nodes share an id.
	ErrDuplicateNode = errors.New("patch: duplicate node id")
	// ErrLaneRange is returned for a reference to a lane the node does not have.
	ErrLaneRange = errors.New("patch: lane out of range")
)

// Node is one generator in a patch.
type Node struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
	// Out routes the node to an output channel. Nil leaves it playing
	// unrouted, readable only by other nodes.
	Out *int `json:"out,omitempty"`
	// Dur is the play time in seconds. Zero plays until stopped.
	Dur float64 `json:"dur,omitempty"`
	// Delay is the start offset in seconds.
	Delay float64 `json:"delay,omitempty"`
}

// Patch is the root JSON structure.
type Patch struct {
	Nodes []Node `json:"nodes"`
}

// Parse decodes a JSON patch.
func Parse(data []byte) (*Patch, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a JSON patch from r. Unknown node fields are rejected.
func Load(r io.Reader) (*Patch, error) {
	var p Patch

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	err := dec.Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("invalid patch json: %w", err)
	}

	return &p, nil
}

// compiled holds the parsed parameters of every node and a topologically
// sorted build order.
type compiled struct {
	params map[string]Params
	nodes  map[string]Node
	order  []string
}

// compile validates node ids and references and sorts the nodes with
// Kahn's algorithm. Ties are broken by listing order so the result is
// deterministic.
func (p *Patch) compile() (*compiled, error) {
	c := &compiled{
		params: make(map[string]Params, len(p.Nodes)),
		nodes:  make(map[string]Node, len(p.Nodes)),
	}

	index := make(map[string]int, len(p.Nodes))

	for i, n := range p.Nodes {
		if n.ID == "" || n.Type == "" {
			return nil, fmt.Errorf("patch: node %d needs an id and a type", i)
		}

		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}

		params := parseNodeParams(n.Params)
		params.ID = n.ID
		params.Type = n.Type

		index[n.ID] = i
		c.params[n.ID] = params
		c.nodes[n.ID] = n
	}

	inDegree := make(map[string]int, len(p.Nodes))
	outgoing := make(map[string][]string, len(p.Nodes))

	for _, n := range p.Nodes {
		for _, dep := range c.params[n.ID].deps() {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("%w: %s references %s", ErrUnknownNode, n.ID, dep)
			}

			inDegree[n.ID]++
			outgoing[dep] = append(outgoing[dep], n.ID)
		}
	}

	// ready is kept sorted by listing index.
	var ready []int

	for i, n := range p.Nodes {
		if inDegree[n.ID] == 0 {
			ready = append(ready, i)
		}
	}

	c.order = make([]string, 0, len(p.Nodes))

	for len(ready) > 0 {
		id := p.Nodes[ready[0]].ID
		ready = ready[1:]
		c.order = append(c.order, id)

		for _, next := range outgoing[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				i := index[next]
				pos, _ := slices.BinarySearch(ready, i)
				ready = slices.Insert(ready, pos, i)
			}
		}
	}

	if len(c.order) != len(p.Nodes) {
		return nil, ErrCycle
	}

	return c, nil
}

// Order returns the node ids in build order.
func (p *Patch) Order() ([]string, error) {
	c, err := p.compile()
	if err != nil {
		return nil, err
	}

	return c.order, nil
}

// Graph is a patch built on a server.
type Graph struct {
	server *ugen.Server
	nodes  map[string]ugen.Generator
	order  []string
}

// Build instantiates every node on s using the factories in reg. On error
// the generators built so far are removed again.
func (p *Patch) Build(s *ugen.Server, reg *Registry) (*Graph, error) {
	if s == nil {
		return nil, ugen.ErrNilServer
	}

	if reg == nil {
		reg = DefaultRegistry()
	}

	c, err := p.compile()
	if err != nil {
		return nil, err
	}

	g := &Graph{
		server: s,
		nodes:  make(map[string]ugen.Generator, len(c.order)),
		order:  c.order,
	}

	for _, id := range c.order {
		gen, err := g.buildNode(reg, c.nodes[id], c.params[id])
		if err != nil {
			g.Remove()
			return nil, err
		}

		g.nodes[id] = gen
	}

	return g, nil
}

func (g *Graph) buildNode(reg *Registry, n Node, params Params) (ugen.Generator, error) {
	factory := reg.Lookup(n.Type)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s (node %s)", ErrUnknownGenerator, n.Type, n.ID)
	}

	params.resolved = g.nodes

	err := checkLanes(params)
	if err != nil {
		return nil, err
	}

	gen, err := factory(Context{Server: g.server, Params: params})
	if err != nil {
		return nil, fmt.Errorf("patch: node %s (%s): %w", n.ID, n.Type, err)
	}

	if v := params.GetValue(keyMul); v != nil {
		gen.SetMul(v)
	}

	if v := params.GetValue(keyAdd); v != nil {
		gen.SetAdd(v)
	}

	switch {
	case n.Out != nil:
		gen.Out(*n.Out, n.Dur, n.Delay)
	case n.Dur != 0 || n.Delay != 0:
		gen.Play(n.Dur, n.Delay)
	}

	return gen, nil
}

// checkLanes rejects references to lanes the referenced node lacks.
func checkLanes(p Params) error {
	check := func(r ref) error {
		gen := p.resolved[r.id]
		if r.lane >= gen.Lanes() {
			return fmt.Errorf("%w: %s:%d (%s has %d lanes)", ErrLaneRange, r.id, r.lane, gen.Kind(), gen.Lanes())
		}

		return nil
	}

	for _, r := range p.refs {
		err := check(r)
		if err != nil {
			return err
		}
	}

	for _, rs := range p.refLists {
		for _, r := range rs {
			err := check(r)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Node returns the generator built for id.
func (g *Graph) Node(id string) (ugen.Generator, bool) {
	gen, ok := g.nodes[id]
	return gen, ok
}

// Order returns the node ids in the order they were built.
func (g *Graph) Order() []string { return slices.Clone(g.order) }

// Remove unregisters every generator of the graph from its server,
// downstream nodes first.
func (g *Graph) Remove() {
	for i := len(g.order) - 1; i >= 0; i-- {
		if gen, ok := g.nodes[g.order[i]]; ok {
			g.server.Remove(gen)
			delete(g.nodes, g.order[i])
		}
	}
}
