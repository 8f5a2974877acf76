package drawer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/sch-migrate/internal/topology"
	"github.com/askiada/sch-migrate/pkg/definition"
)

// Extension is the extension of the files written by DOTDrawer.
const Extension = ".dot"

const maxRGB = 240

// DOTDrawer writes the stage graph of pipelines as Graphviz DOT files.
type DOTDrawer struct {
	dir string

	mu     sync.Mutex
	graphs map[string]*topology.Topology
	order  []string
}

// NewDOTDrawer creates a drawer writing into dir.
func NewDOTDrawer(dir string) *DOTDrawer {
	return &DOTDrawer{
		dir:    dir,
		graphs: make(map[string]*topology.Topology),
	}
}

// Path returns the file the graph of the pipeline name is written to.
func (d *DOTDrawer) Path(name string) string {
	return filepath.Join(d.dir, strings.ReplaceAll(name, string(filepath.Separator), "_")+Extension)
}

// AddPipeline adds the stage graph of def.
func (d *DOTDrawer) AddPipeline(name string, def *definition.Pipeline, highlighted []int) error {
	topo, err := topology.New(def)
	if err != nil {
		return errors.Wrapf(err, "unable to build graph of %s", name)
	}

	for i, idx := range highlighted {
		if idx < 0 || idx >= len(def.Stages) {
			return errors.Wrapf(definition.ErrIndexOutOfRange, "highlight %d in %s", idx, name)
		}

		colour, err := gradient(i, len(highlighted))
		if err != nil {
			return err
		}

		instanceName := def.Stages[idx].InstanceName
		for key, value := range map[string]string{"style": "filled", "fillcolor": colour, "fontcolor": "white"} {
			err := topo.Mark(instanceName, key, value)
			if err != nil {
				return err
			}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.graphs[name]; !ok {
		d.order = append(d.order, name)
	}

	d.graphs[name] = topo

	return nil
}

// Draw writes every added graph, concurrently.
func (d *DOTDrawer) Draw(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)

	for _, name := range d.order {
		topo := d.graphs[name]

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			return d.write(name, topo)
		})
	}

	return group.Wait()
}

func (d *DOTDrawer) write(name string, topo *topology.Topology) error {
	path := d.Path(name)

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}
	defer file.Close()

	stages, err := topo.Stages()
	if err != nil {
		return errors.Wrapf(err, "unable to order stages of %s", name)
	}

	err = dot(topo.Graph, stages, file, GraphAttribute("label", name), GraphAttribute("rankdir", "LR"))
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close file %s", path)
}

// gradient returns the colour of the i-th of n highlighted stages, from red to blue.
func gradient(i, n int) (string, error) {
	fraction := 0.0
	if n > 1 {
		fraction = float64(i) / float64(n-1)
	}

	red := maxRGB * (1 - fraction)
	blue := maxRGB * fraction

	colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return colour.ToHEX().String(), nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	EdgeAttributes   map[string]string
	EdgeWeight       int
}

func dot[T any](g graph.Graph[string, T], order []string, wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, order, options...)
	if err != nil {
		return fmt.Errorf("failed to generate DOT description: %w", err)
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute is a functional option for the DOT description.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

// generateDOT lists vertices in order, each followed by its outgoing edges sorted by the position of
// the target in order.
func generateDOT[T any](
	gra graph.Graph[string, T], order []string, options ...func(*description),
) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	if len(order) != len(adjacencyMap) {
		return desc, errors.Errorf("%d vertices ordered for %d in the graph", len(order), len(adjacencyMap))
	}

	positions := make(map[string]int, len(order))
	for idx, vertex := range order {
		positions[vertex] = idx
	}

	for _, vertex := range order {
		_, properties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(properties.Attributes))
		for key, value := range properties.Attributes {
			attributes[key] = value
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceAttributes: attributes,
		})

		targets := make([]string, 0, len(adjacencyMap[vertex]))
		for target := range adjacencyMap[vertex] {
			targets = append(targets, target)
		}

		sort.Slice(targets, func(i, j int) bool {
			return positions[targets[i]] < positions[targets[j]]
		})

		for _, target := range targets {
			edge := adjacencyMap[vertex][target]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: map[string]string{"label": edge.Properties.Attributes[topology.LanesAttribute]},
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
