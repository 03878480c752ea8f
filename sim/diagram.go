package sim

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// DefaultDiagramFile is where RenderWithGraphviz writes when no file is given.
const DefaultDiagramFile = "system_view.gz"

// Connection wires an output port of one system to an input port of another.
type Connection struct {
	From, FromPort string
	To, ToPort     string
}

// Diagram describes which systems feed which. It is used for inspection only.
type Diagram struct {
	Name        string
	systems     []string
	connections []Connection
}

// NewDiagram returns an empty diagram.
func NewDiagram(name string) *Diagram {
	return &Diagram{Name: name}
}

// AddSystem adds a system. Names must be unique.
func (d *Diagram) AddSystem(name string) error {
	if lo.Contains(d.systems, name) {
		return errors.Errorf("system %q already in diagram", name)
	}
	d.systems = append(d.systems, name)
	return nil
}

// Connect wires from.fromPort to to.toPort. Both systems must already be in the diagram.
func (d *Diagram) Connect(from, fromPort, to, toPort string) error {
	for _, name := range []string{from, to} {
		if !lo.Contains(d.systems, name) {
			return errors.Errorf("system %q not in diagram", name)
		}
	}
	d.connections = append(d.connections, Connection{From: from, FromPort: fromPort, To: to, ToPort: toPort})
	return nil
}

// Systems returns the system names in insertion order.
func (d *Diagram) Systems() []string {
	return d.systems
}

// Connections returns the connections in insertion order.
func (d *Diagram) Connections() []Connection {
	return d.connections
}

// build lays d out as a graphviz graph owned by g.
func (d *Diagram) build(g *graphviz.Graphviz) (graph *cgraph.Graph, err error) {
	graph, err = g.Graph(graphviz.Name(d.Name))
	if err != nil {
		return nil, errors.Wrap(err, "creating diagram graph")
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, graph.Close())
			graph = nil
		}
	}()
	graph.SetRankDir(cgraph.LRRank)

	nodes := make(map[string]*cgraph.Node, len(d.systems))
	for i, s := range d.systems {
		n, err := graph.CreateNode(fmt.Sprintf("s%d", i))
		if err != nil {
			return nil, errors.Wrapf(err, "adding system %q", s)
		}
		n.SetLabel(s).SetShape(cgraph.BoxShape)
		nodes[s] = n
	}
	for i, c := range d.connections {
		e, err := graph.CreateEdge(fmt.Sprintf("e%d", i), nodes[c.From], nodes[c.To])
		if err != nil {
			return nil, errors.Wrapf(err, "connecting %q to %q", c.From, c.To)
		}
		e.SetLabel(c.FromPort + " -> " + c.ToPort)
	}
	return graph, nil
}

// GraphvizString returns the laid out diagram in DOT.
func (d *Diagram) GraphvizString() (dot string, err error) {
	g := graphviz.New()
	graph, err := d.build(g)
	if err != nil {
		return "", multierr.Combine(err, g.Close())
	}
	defer func() {
		err = multierr.Combine(err, graph.Close(), g.Close())
	}()
	var buf bytes.Buffer
	if err := g.Render(graph, graphviz.XDOT, &buf); err != nil {
		return "", errors.Wrap(err, "rendering diagram")
	}
	return buf.String(), nil
}

func graphvizFormat(outputFile string) graphviz.Format {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".png":
		return graphviz.PNG
	case ".svg":
		return graphviz.SVG
	case ".jpg", ".jpeg":
		return graphviz.JPG
	default:
		return graphviz.XDOT
	}
}

// RenderWithGraphviz renders d to outputFile, DefaultDiagramFile if empty. Image formats come from the
// extension (.png, .svg, .jpg); anything else gets DOT text.
func RenderWithGraphviz(d *Diagram, outputFile string) (err error) {
	if outputFile == "" {
		outputFile = DefaultDiagramFile
	}
	g := graphviz.New()
	graph, err := d.build(g)
	if err != nil {
		return multierr.Combine(err, g.Close())
	}
	defer func() {
		err = multierr.Combine(err, graph.Close(), g.Close())
	}()
	return errors.Wrapf(g.RenderFilename(graph, graphvizFormat(outputFile), outputFile), "rendering diagram to %q", outputFile)
}
