package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/sch-migrate/internal/store"
)

func TestOrderedStoreVertices(t *testing.T) {
	t.Parallel()

	str := store.NewOrderedStore[string, int]()
	for i, name := range []string{"c", "a", "b"} {
		require.NoError(t, str.AddVertex(name, i, graph.VertexProperties{}))
	}

	require.ErrorIs(t, str.AddVertex("a", 10, graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	got, err := str.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, got)

	count, err := str.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, str.UpdateVertex("a", graph.VertexAttribute("color", "red")))
	value, properties, err := str.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.Equal(t, "red", properties.Attributes["color"])

	require.ErrorIs(t, str.UpdateVertex("z"), graph.ErrVertexNotFound)

	require.NoError(t, str.RemoveVertex("a"))
	got, err = str.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, got)
}

func TestOrderedStoreEdges(t *testing.T) {
	t.Parallel()

	grp := graph.NewWithStore(graph.StringHash, store.NewOrderedStore[string, string](), graph.Directed())
	for _, name := range []string{"origin", "processor", "destination"} {
		require.NoError(t, grp.AddVertex(name))
	}

	require.NoError(t, grp.AddEdge("processor", "destination"))
	require.NoError(t, grp.AddEdge("origin", "processor", graph.EdgeAttribute("lanes", "l1")))
	require.ErrorIs(t, grp.AddEdge("origin", "processor"), graph.ErrEdgeAlreadyExists)
	require.ErrorIs(t, grp.RemoveVertex("processor"), graph.ErrVertexHasEdges)

	require.NoError(t, grp.UpdateEdge("origin", "processor", graph.EdgeAttribute("lanes", "l1,l2")))

	edges, err := grp.Edges()
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "processor", edges[0].Source)
	assert.Equal(t, "origin", edges[1].Source)
	assert.Equal(t, "l1,l2", edges[1].Properties.Attributes["lanes"])

	require.NoError(t, grp.RemoveEdge("processor", "destination"))
	edges, err = grp.Edges()
	require.NoError(t, err)
	require.Len(t, edges, 1)
}
