// Package topology builds the data flow graph of a pipeline definition from its lanes.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/internal/store"
	"github.com/askiada/sch-migrate/pkg/definition"
)

// LanesAttribute holds the comma separated lanes carried by an edge.
const LanesAttribute = "lanes"

var (
	ErrDuplicateStage = errors.New("duplicate stage instance name")
	ErrWiringChanged  = errors.New("stage wiring changed")
)

// Link is a lane from the stage at position From to the stage at position To.
type Link struct {
	From int
	To   int
	Lane string
}

func (l Link) String() string {
	return fmt.Sprintf("%d-[%s]->%d", l.From, l.Lane, l.To)
}

// Topology is the directed graph of the stages of a definition.
type Topology struct {
	Graph graph.Graph[string, *definition.Stage]

	store store.CustomStore[string, *definition.Stage]
	links []Link
}

func stageHash(stage *definition.Stage) string {
	return stage.InstanceName
}

// New builds the topology of def. Every stage becomes a vertex and every lane consumed by a stage
// becomes an edge from each producer of that lane.
func New(def *definition.Pipeline) (*Topology, error) {
	str := store.NewOrderedStore[string, *definition.Stage]()
	topo := &Topology{
		Graph: graph.NewWithStore(stageHash, str, graph.Directed()),
		store: str,
	}

	producers := make(map[string][]int)

	for idx, stage := range def.Stages {
		err := topo.Graph.AddVertex(stage)
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, errors.Wrap(ErrDuplicateStage, stage.InstanceName)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %s", stage.InstanceName)
		}

		for _, lane := range stage.OutputLanes {
			producers[lane] = append(producers[lane], idx)
		}
	}

	for to, stage := range def.Stages {
		for _, lane := range stage.InputLanes {
			for _, from := range producers[lane] {
				err := topo.link(def, from, to, lane)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	sort.Slice(topo.links, func(i, j int) bool {
		return topo.links[i].String() < topo.links[j].String()
	})

	return topo, nil
}

func (t *Topology) link(def *definition.Pipeline, from, to int, lane string) error {
	source := def.Stages[from].InstanceName
	target := def.Stages[to].InstanceName
	t.links = append(t.links, Link{From: from, To: to, Lane: lane})

	err := t.Graph.AddEdge(source, target, graph.EdgeAttribute(LanesAttribute, lane))
	if errors.Is(err, graph.ErrEdgeAlreadyExists) {
		edge, err := t.Graph.Edge(source, target)
		if err != nil {
			return errors.Wrapf(err, "unable to get edge from %s to %s", source, target)
		}

		lanes := edge.Properties.Attributes[LanesAttribute] + "," + lane

		return errors.Wrap(
			t.Graph.UpdateEdge(source, target, graph.EdgeAttribute(LanesAttribute, lanes)),
			"unable to update edge",
		)
	}

	return errors.Wrapf(err, "unable to add edge from %s to %s", source, target)
}

// Stages returns the instance names of the stages in definition order.
func (t *Topology) Stages() ([]string, error) {
	stages, err := t.store.ListVertices()

	return stages, errors.Wrap(err, "unable to list stages")
}

// Links returns the position keyed links, sorted.
func (t *Topology) Links() []Link {
	out := make([]Link, len(t.links))
	copy(out, t.links)

	return out
}

// Mark sets a vertex attribute on the stage named instanceName.
func (t *Topology) Mark(instanceName, key, value string) error {
	return errors.Wrapf(
		t.store.UpdateVertex(instanceName, graph.VertexAttribute(key, value)),
		"unable to mark stage %s", instanceName,
	)
}

// SameWiring fails with ErrWiringChanged when before and after do not connect the same positions
// through the same lanes.
func SameWiring(before, after *Topology) error {
	missing := diff(before.links, after.links)
	added := diff(after.links, before.links)

	if len(missing) == 0 && len(added) == 0 {
		return nil
	}

	return errors.Wrapf(ErrWiringChanged, "missing [%s], added [%s]", join(missing), join(added))
}

func diff(from, to []Link) []Link {
	seen := make(map[Link]int, len(to))
	for _, l := range to {
		seen[l]++
	}

	out := []Link{}

	for _, l := range from {
		if seen[l] > 0 {
			seen[l]--

			continue
		}

		out = append(out, l)
	}

	return out
}

func join(links []Link) string {
	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = l.String()
	}

	return strings.Join(parts, " ")
}
