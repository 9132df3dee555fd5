package pkg

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Topo is the process -> resource graph of one walk. Pipes and sockets get
// one node per inode, so two processes holding the same pipe share a node.
type Topo struct {
	graph *simple.DirectedGraph

	processNodes  map[uint64]int64
	resourceNodes map[ResourceKey]int64
	processes     map[int64]*Process
	resources     map[int64]ResourceKey
}

func NewTopo(processes []*Process) *Topo {
	t := &Topo{
		graph:         simple.NewDirectedGraph(),
		processNodes:  map[uint64]int64{},
		resourceNodes: map[ResourceKey]int64{},
		processes:     map[int64]*Process{},
		resources:     map[int64]ResourceKey{},
	}
	for _, p := range processes {
		t.AddProcess(p)
	}
	return t
}

func (t *Topo) AddProcess(p *Process) {
	if _, ok := t.processNodes[p.Pid]; ok {
		return
	}
	node := t.graph.NewNode()
	t.graph.AddNode(node)
	t.processNodes[p.Pid] = node.ID()
	t.processes[node.ID()] = p

	for _, d := range p.Descriptors {
		if d.Kind == KindUnresolved {
			continue
		}
		// a file whose status could not be read carries the process inode
		if d.Kind == KindFile && d.Inode == p.Inode {
			continue
		}
		t.link(node, ResourceKey{Kind: d.Kind, Inode: d.Inode})
	}
}

func (t *Topo) link(from graph.Node, key ResourceKey) {
	id, ok := t.resourceNodes[key]
	if !ok {
		node := t.graph.NewNode()
		t.graph.AddNode(node)
		id = node.ID()
		t.resourceNodes[key] = id
		t.resources[id] = key
	}
	if t.graph.HasEdgeFromTo(from.ID(), id) {
		return
	}
	t.graph.SetEdge(t.graph.NewEdge(from, t.graph.Node(id)))
}

func (t *Topo) Graph() *simple.DirectedGraph {
	return t.graph
}

// SharedResources returns the resources held by more than one process.
func (t *Topo) SharedResources() *ResourceSet {
	shared := NewResourceSet()
	for key, id := range t.resourceNodes {
		if t.graph.To(id).Len() > 1 {
			shared.Add(key)
		}
	}
	return shared
}

// Holders returns the pids holding key, in ascending order.
func (t *Topo) Holders(key ResourceKey) []uint64 {
	id, ok := t.resourceNodes[key]
	if !ok {
		return nil
	}
	var pids []uint64
	for _, n := range graph.NodesOf(t.graph.To(id)) {
		pids = append(pids, t.processes[n.ID()].Pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

func (t *Topo) nodeName(id int64) string {
	if p, ok := t.processes[id]; ok {
		return fmt.Sprintf("p%d", p.Pid)
	}
	key := t.resources[id]
	return fmt.Sprintf("%s%d", key.Kind, key.Inode)
}

func (t *Topo) nodeLabel(id int64) string {
	if p, ok := t.processes[id]; ok {
		if p.Command != "" {
			return fmt.Sprintf("%d %s", p.Pid, p.Command)
		}
		return fmt.Sprintf("%d", p.Pid)
	}
	key := t.resources[id]
	return fmt.Sprintf("%s:[%d]", key.Kind, key.Inode)
}
