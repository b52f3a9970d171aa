package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hafidzyami/CivilConstructionApp-sub000/graphdb"
	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nationalDoc() *RegulationDocument {
	return &RegulationDocument{
		Name:      "Building Act",
		Level:     "National",
		Authority: "Ministry of Land, Infrastructure and Transport",
		Articles: []DocumentArticle{
			{ID: "article_55", Title: "Building Coverage Ratio", Text: "Subject to Article 56 and Article 55, the ratio shall not exceed 60 percent."},
			{ID: "article_56", Title: "Floor Area Ratio", Text: "The floor area ratio shall not exceed 200 percent."},
		},
		SubArticles: []DocumentArticle{
			{ID: "article_55-1", Title: "Exceptions", Text: "Exceptions.", Level: 1, ParentID: "article_55"},
		},
	}
}

func regionalDoc() *RegulationDocument {
	return &RegulationDocument{
		Name:      "Seoul Building Ordinance",
		Level:     "Regional",
		Authority: "Seoul Metropolitan Government",
		Articles: []DocumentArticle{
			{ID: "article_5", Title: "Coverage in residential zones", Text: "See Article 6.", RelatedTo: []string{"article_55"}},
		},
	}
}

// writesMatching returns the params of every write whose query contains fragment
func writesMatching(client *graphdb.MockClient, fragment string) []map[string]any {
	var out []map[string]any
	for _, c := range client.CallsTo("Write") {
		if strings.Contains(c.Cypher, fragment) {
			out = append(out, c.Params)
		}
	}
	return out
}

func edgeRows(t *testing.T, params []map[string]any) []map[string]any {
	t.Helper()
	var rows []map[string]any
	for _, p := range params {
		batch, ok := p["rows"].([]map[string]any)
		require.True(t, ok)
		rows = append(rows, batch...)
	}
	return rows
}

func TestLoader_Load(t *testing.T) {
	client := graphdb.NewMockClient()
	embedder := &llm.MockProvider{EmbedFunc: func(string) ([]float32, error) { return []float32{0.5, 0.25}, nil }}

	stats, err := NewLoader(client, LoaderWithEmbedder(embedder), LoaderWithConcurrency(2)).
		Load(context.Background(), nationalDoc(), regionalDoc())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Regulations)
	assert.Equal(t, 4, stats.Provisions)
	assert.Equal(t, 4, stats.Contains)
	assert.Equal(t, 1, stats.Mentions)
	assert.Equal(t, 1, stats.RelatedTo)
	assert.Equal(t, 2, stats.Embedded)
	assert.Zero(t, stats.EmbedFailures)

	regs := writesMatching(client, "MERGE (r:Regulation")
	require.Len(t, regs, 2)
	assert.Equal(t, "building_act", regs[0]["id"])
	assert.Equal(t, "national", regs[0]["level"])
	assert.Equal(t, "seoul_ordinance", regs[1]["id"])

	regional := edgeRows(t, writesMatching(client, "MERGE (n:RegionalArticle"))
	require.Len(t, regional, 1)
	assert.Equal(t, "seoul_article_5", regional[0]["id"])
	assert.Equal(t, "Article 5", regional[0]["name"])

	subs := edgeRows(t, writesMatching(client, "MERGE (n:SubArticle"))
	require.Len(t, subs, 1)
	assert.Equal(t, 1, subs[0]["level"])
	assert.Equal(t, "55-1", subs[0]["articleNumber"])

	related := edgeRows(t, writesMatching(client, "MERGE (a)-[:RELATED_TO]->(b)"))
	require.Len(t, related, 1)
	assert.Equal(t, map[string]any{"from": "seoul_article_5", "to": "article_55"}, related[0])

	mentions := edgeRows(t, writesMatching(client, "MERGE (a)-[:MENTIONS]->(b)"))
	require.Len(t, mentions, 1)
	assert.Equal(t, map[string]any{"from": "article_55", "to": "article_56"}, mentions[0])

	nested := writesMatching(client, "MATCH (b:SubArticle {id: row.to})")
	require.Len(t, nested, 1)

	embeddings := writesMatching(client, "SET n.embedding")
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float64{0.5, 0.25}, embeddings[0]["embedding"])
	assert.Equal(t, 2, embedder.EmbedCalls())
	assert.Equal(t, 2, embedder.DocumentEmbedCalls(), "articles are embedded as documents")
}

func TestLoader_DerivesParentFromArticleNumber(t *testing.T) {
	doc := nationalDoc()
	doc.SubArticles = append(doc.SubArticles, DocumentArticle{ID: "article_56-3", Title: "Bonus", Text: "Bonus floor area."})

	client := graphdb.NewMockClient()
	stats, err := NewLoader(client).Load(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Contains)

	nested := edgeRows(t, writesMatching(client, "MATCH (b:SubArticle {id: row.to})"))
	assert.ElementsMatch(t, []map[string]any{
		{"from": "article_55", "to": "article_55-1"},
		{"from": "article_56", "to": "article_56-3"},
	}, nested)

	top := edgeRows(t, writesMatching(client, "MATCH (b:Article {id: row.to})"))
	for _, row := range top {
		assert.NotEqual(t, "article_56-3", row["to"])
	}
}

func TestLoader_InvalidCorpusWritesNothing(t *testing.T) {
	client := graphdb.NewMockClient()
	bad := regionalDoc()
	bad.Articles[0].RelatedTo = []string{"article_999"}

	_, err := NewLoader(client).Load(context.Background(), nationalDoc(), bad)
	assert.ErrorIs(t, err, ErrInvalidCorpus)
	assert.Empty(t, client.Calls())
}

func TestLoader_EmbeddingFailuresAreCounted(t *testing.T) {
	client := graphdb.NewMockClient()
	embedder := &llm.MockProvider{EmbedFunc: func(text string) ([]float32, error) {
		if strings.Contains(text, "Floor Area Ratio") {
			return nil, errors.New("quota")
		}
		return []float32{1}, nil
	}}

	stats, err := NewLoader(client, LoaderWithEmbedder(embedder)).Load(context.Background(), nationalDoc())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Embedded)
	assert.Equal(t, 1, stats.EmbedFailures)
}

func TestLoader_WriteFailureAborts(t *testing.T) {
	client := graphdb.NewMockClient()
	client.WriteFunc = func(cypher string, _ map[string]any) (graphdb.WriteSummary, error) {
		if strings.Contains(cypher, "SET n.embedding") {
			return graphdb.WriteSummary{}, errors.New("disk full")
		}
		return graphdb.WriteSummary{}, nil
	}
	embedder := &llm.MockProvider{EmbedFunc: func(string) ([]float32, error) { return []float32{1}, nil }}

	_, err := NewLoader(client, LoaderWithEmbedder(embedder)).Load(context.Background(), nationalDoc())
	assert.ErrorContains(t, err, "disk full")
}

func TestLoader_WithoutEmbedder(t *testing.T) {
	client := graphdb.NewMockClient()

	stats, err := NewLoader(client).Load(context.Background(), nationalDoc())
	require.NoError(t, err)
	assert.True(t, stats.EmbeddingsSkipped)
	assert.Empty(t, writesMatching(client, "SET n.embedding"))
}

func TestDocument_Identifiers(t *testing.T) {
	national := nationalDoc()
	assert.Equal(t, "building_act", national.RegulationID())
	assert.Equal(t, "article_55", national.NodeID("article_55"))

	regional := regionalDoc()
	assert.True(t, regional.IsRegional())
	assert.Equal(t, "seoul", regional.RegulationCode())
	assert.Equal(t, "seoul_ordinance", regional.RegulationID())
	assert.Equal(t, "seoul_article_5", regional.NodeID("article_5"))

	regional.Code = "Busan-Metro"
	assert.Equal(t, "busan_metro_article_5", regional.NodeID("article_5"))

	assert.Equal(t, "55-1", DocumentArticle{ID: "article_55-1"}.Number())
}

func TestReadWriteDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, regionalDoc()))
	assert.Contains(t, buf.String(), `"subArticles"`)
	assert.Contains(t, buf.String(), `"relatedTo"`)

	doc, err := ReadDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Seoul Building Ordinance", doc.Name)
	assert.Equal(t, []string{"article_55"}, doc.Articles[0].RelatedTo)

	_, err = ReadDocument(strings.NewReader(`{"name": "X", "level": "Provincial"}`))
	assert.Error(t, err)

	_, err = ReadDocument(strings.NewReader(`{"level": "National"}`))
	assert.Error(t, err)
}

func TestLoader_Reembed(t *testing.T) {
	client := graphdb.NewMockClient()
	client.ReadFunc = func(cypher string, params map[string]any) ([]graphdb.Record, error) {
		assert.Equal(t, true, params["missingOnly"])
		return []graphdb.Record{
			{"id": "article_55", "name": "Article 55", "title": "Building Coverage Ratio", "text": "60 percent"},
			{"id": "article_56", "name": "Article 56", "title": "Floor Area Ratio", "text": "200 percent"},
		}, nil
	}
	embedder := &llm.MockProvider{EmbedFunc: func(text string) ([]float32, error) {
		if strings.Contains(text, "Floor Area Ratio") {
			return nil, errors.New("quota")
		}
		return []float32{1, 0}, nil
	}}

	embedded, failed, err := NewLoader(client, LoaderWithEmbedder(embedder)).Reembed(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, embedded)
	assert.Equal(t, 1, failed)

	writes := writesMatching(client, "SET n.embedding")
	require.Len(t, writes, 1)
	assert.Equal(t, "article_55", writes[0]["id"])
}

func TestLoader_ReembedRequiresEmbedder(t *testing.T) {
	_, _, err := NewLoader(graphdb.NewMockClient()).Reembed(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoEmbedder)
}
