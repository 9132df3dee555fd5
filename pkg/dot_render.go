package pkg

import (
	"io"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
)

type DotRender struct {
	g *graphviz.Graphviz
}

func NewDotRender() *DotRender {
	return &DotRender{g: graphviz.New()}
}

func (r *DotRender) Close() error {
	return r.g.Close()
}

// Render writes topo as a DOT digraph. Resources held by more than one
// process are drawn in red.
func (r *DotRender) Render(topo *Topo, w io.Writer) error {
	g, err := r.g.Graph()
	if err != nil {
		return errors.Wrap(err, "create graph")
	}
	defer g.Close()
	g.SetRankDir(cgraph.LRRank)

	shared := topo.SharedResources()
	nodes := map[int64]*cgraph.Node{}
	for _, n := range graph.NodesOf(topo.Graph().Nodes()) {
		id := n.ID()
		node, err := g.CreateNode(topo.nodeName(id))
		if err != nil {
			return errors.Wrap(err, "create node")
		}
		node.SetLabel(topo.nodeLabel(id))
		if key, ok := topo.resources[id]; ok {
			node.SetShape(cgraph.BoxShape)
			if shared.Contains(key) {
				node.SetColor("red")
			}
		}
		nodes[id] = node
	}

	edges := topo.Graph().Edges()
	for edges.Next() {
		e := edges.Edge()
		from, to := nodes[e.From().ID()], nodes[e.To().ID()]
		if from == nil || to == nil {
			continue
		}
		if _, err := g.CreateEdge("", from, to); err != nil {
			return errors.Wrap(err, "create edge")
		}
	}

	return errors.Wrap(r.g.Render(g, graphviz.XDOT, w), "render dot")
}

func (r *DotRender) Write(topo *Topo, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create dot output")
	}
	defer f.Close()
	if err := r.Render(topo, f); err != nil {
		return err
	}
	logrus.WithField("path", path).Infoln("dot graph written")
	return errors.Wrap(f.Close(), "close dot output")
}
