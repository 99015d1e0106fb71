package graph

import (
	"encoding/json"
	"testing"

	"ratecard-converter/internal/analyzer"
	"ratecard-converter/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	cat := catalog.Default()
	headers := []string{"Rate", "From City", "Destination", "Price", "xyz123"}

	mapper := analyzer.NewColumnMapper(cat, analyzer.MapperOptions{})
	res := mapper.BuildColumnMapping(headers)
	final := res.ColumnMap.Clone()
	final.Set("lane_origin", "From City")
	evidence := append(res.Evidence, analyzer.MappingEvidence{
		CanonicalField: "lane_origin",
		SourceColumn:   "From City",
		Confidence:     0.615,
		Strategy:       analyzer.StrategyProvider,
	})

	g := Build(headers, cat, evidence, final, nil)

	assert.Len(t, g.NodesOf(NodeTypeColumn), len(headers))
	assert.Len(t, g.NodesOf(NodeTypeField), cat.Len())
	assert.Equal(t, true, g.GetNode(FieldID("lane_origin")).Properties["required"])
	assert.Equal(t, false, g.GetNode(FieldID("carrier_name")).Properties["mapped"])

	rateEdges := g.EdgesTo(FieldID("rate_value"))
	require.Len(t, rateEdges, 2)
	assert.False(t, rateEdges[0].Active, "overwritten mapping is inactive")
	assert.True(t, rateEdges[1].Active)

	suggested := g.EdgesFrom(ColumnID("From City"))
	require.Len(t, suggested, 1)
	assert.Equal(t, EdgeTypeSuggested, suggested[0].Type)

	assert.ElementsMatch(t, []string{"Rate", "xyz123"}, g.UnmappedColumns())

	data, err := g.ToJSON()
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}
