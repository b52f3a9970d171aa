package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/graphdb"
	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultEmbedConcurrency = 4
	embedTextLimit          = 8000
	writeBatchSize          = 200
)

// LoadStats summarises one ingestion run
type LoadStats struct {
	Regulations       int
	Provisions        int
	Contains          int
	Mentions          int
	RelatedTo         int
	Embedded          int
	EmbedFailures     int
	EmbeddingsSkipped bool
	Duration          time.Duration
}

// Loader writes validated regulation documents into the graph
type Loader struct {
	client      graphdb.Client
	embedder    llm.Provider
	concurrency int
}

// LoaderOption is a functional option for Loader
type LoaderOption func(*Loader)

// LoaderWithEmbedder sets the provider used to embed Article nodes
func LoaderWithEmbedder(p llm.Provider) LoaderOption {
	return func(l *Loader) {
		l.embedder = p
	}
}

// LoaderWithConcurrency bounds the number of in-flight embedding calls
func LoaderWithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// NewLoader creates a loader over a graph client
func NewLoader(client graphdb.Client, opts ...LoaderOption) *Loader {
	l := &Loader{client: client, concurrency: DefaultEmbedConcurrency}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// node is one provision ready to be merged
type node struct {
	id    string
	label models.NodeType
	props map[string]any
}

// edge is one relationship between two labelled nodes
type edge struct {
	relType   string
	fromLabel models.NodeType
	toLabel   models.NodeType
	from      string
	to        string
}

// plan is everything a load writes, computed before any write
type plan struct {
	regulations []map[string]any
	nodes       []node
	edges       []edge
}

// Load validates docs and merges them into the graph. Nothing is written when
// validation fails. Re-running with the same documents is idempotent; Article
// embeddings are recomputed every time.
func (l *Loader) Load(ctx context.Context, docs ...*RegulationDocument) (LoadStats, error) {
	start := time.Now()
	var stats LoadStats

	if err := Validate(docs...); err != nil {
		return stats, err
	}

	p := buildPlan(docs)

	for _, reg := range p.regulations {
		_, err := l.client.Write(ctx, `
			MERGE (r:Regulation {id: $id})
			SET r.name = $name, r.level = $level, r.authority = $authority`, reg)
		if err != nil {
			return stats, fmt.Errorf("failed to merge regulation %v: %w", reg["id"], err)
		}
		stats.Regulations++
	}

	if err := l.writeNodes(ctx, p.nodes); err != nil {
		return stats, err
	}
	stats.Provisions = len(p.nodes)

	if err := l.writeEdges(ctx, p.edges); err != nil {
		return stats, err
	}
	for _, e := range p.edges {
		switch e.relType {
		case "CONTAINS":
			stats.Contains++
		case "MENTIONS":
			stats.Mentions++
		case "RELATED_TO":
			stats.RelatedTo++
		}
	}
	log.Printf("✓ Merged %d regulations, %d provisions, %d relationships",
		stats.Regulations, stats.Provisions, len(p.edges))

	if l.embedder == nil {
		log.Printf("Warning: no embedding provider configured, similarity search will return nothing")
		stats.EmbeddingsSkipped = true
	} else {
		embedded, failed, err := l.embedArticles(ctx, p.nodes)
		stats.Embedded, stats.EmbedFailures = embedded, failed
		if err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func buildPlan(docs []*RegulationDocument) plan {
	var p plan

	known := make(map[string]models.NodeType)
	for _, doc := range docs {
		level, _ := doc.JurisdictionLevel()
		for _, a := range doc.AllArticles() {
			number := a.Number()
			known[doc.NodeID(a.ID)] = models.ArticleNodeType(level, models.ArticleDepth(number))
		}
	}

	for _, doc := range docs {
		level, _ := doc.JurisdictionLevel()
		regID := doc.RegulationID()
		p.regulations = append(p.regulations, map[string]any{
			"id":        regID,
			"name":      doc.Name,
			"level":     string(level),
			"authority": doc.Authority,
		})

		for _, a := range doc.AllArticles() {
			number := a.Number()
			id := doc.NodeID(a.ID)
			label := known[id]
			p.nodes = append(p.nodes, node{
				id:    id,
				label: label,
				props: map[string]any{
					"id":            id,
					"name":          "Article " + number,
					"title":         a.Title,
					"text":          a.Text,
					"articleNumber": number,
					"level":         models.ArticleDepth(number),
				},
			})

			if parentID := a.Parent(); parentID == "" {
				p.edges = append(p.edges, edge{"CONTAINS", models.NodeRegulation, label, regID, id})
			} else {
				parent := doc.NodeID(parentID)
				p.edges = append(p.edges, edge{"CONTAINS", known[parent], label, parent, id})
			}

			for _, target := range mentionTargets(doc, a) {
				if target == id {
					continue
				}
				if toLabel, ok := known[target]; ok {
					p.edges = append(p.edges, edge{"MENTIONS", label, toLabel, id, target})
				}
			}

			for _, target := range a.RelatedTo {
				p.edges = append(p.edges, edge{"RELATED_TO", label, known[target], id, target})
			}
		}
	}
	return p
}

// mentionTargets resolves explicit references, or the article numbers named
// in the text, to node ids of the same document
func mentionTargets(doc *RegulationDocument, a DocumentArticle) []string {
	refs := a.References
	if len(refs) == 0 {
		refs = models.ExtractArticleMentions(a.Text)
	}

	seen := make(map[string]bool)
	var out []string
	for _, ref := range refs {
		number, ok := models.NormalizeArticleNumber(ref)
		if !ok {
			continue
		}
		id := doc.NodeID(models.ArticleIDFromNumber(number))
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (l *Loader) writeNodes(ctx context.Context, nodes []node) error {
	byLabel := make(map[models.NodeType][]map[string]any)
	for _, n := range nodes {
		byLabel[n.label] = append(byLabel[n.label], n.props)
	}

	for _, label := range models.ArticleLabels {
		rows := byLabel[label]
		query := fmt.Sprintf(`
			UNWIND $rows AS row
			MERGE (n:%s {id: row.id})
			SET n.name = row.name, n.title = row.title, n.text = row.text,
				n.articleNumber = row.articleNumber, n.level = row.level`, label)
		for start := 0; start < len(rows); start += writeBatchSize {
			end := min(start+writeBatchSize, len(rows))
			if _, err := l.client.Write(ctx, query, map[string]any{"rows": rows[start:end]}); err != nil {
				return fmt.Errorf("failed to merge %s nodes: %w", label, err)
			}
		}
	}
	return nil
}

func (l *Loader) writeEdges(ctx context.Context, edges []edge) error {
	groups := make(map[string][]map[string]any)
	for _, e := range edges {
		key := e.relType + "|" + string(e.fromLabel) + "|" + string(e.toLabel)
		groups[key] = append(groups[key], map[string]any{"from": e.from, "to": e.to})
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts := strings.Split(key, "|")
		query := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (a:%s {id: row.from})
			MATCH (b:%s {id: row.to})
			MERGE (a)-[:%s]->(b)`, parts[1], parts[2], parts[0])

		rows := groups[key]
		for start := 0; start < len(rows); start += writeBatchSize {
			end := min(start+writeBatchSize, len(rows))
			if _, err := l.client.Write(ctx, query, map[string]any{"rows": rows[start:end]}); err != nil {
				return fmt.Errorf("failed to merge %s relationships: %w", parts[0], err)
			}
		}
	}
	return nil
}

// embedArticles embeds every national top-level article, the nodes covered by
// the vector index. Embedding failures are counted and logged; write failures abort.
func (l *Loader) embedArticles(ctx context.Context, nodes []node) (int, int, error) {
	var embedded, failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, n := range nodes {
		if n.label != models.NodeArticle {
			continue
		}
		n := n
		g.Go(func() error {
			text := fmt.Sprintf("%s %s\n%s", n.props["name"], n.props["title"], n.props["text"])
			vec, err := llm.EmbedDocument(gCtx, l.embedder, llm.Truncate(text, embedTextLimit))
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				log.Printf("Warning: failed to embed %s: %v", n.id, err)
				failed.Add(1)
				return nil
			}

			values := make([]float64, len(vec))
			for i, v := range vec {
				values[i] = float64(v)
			}
			_, err = l.client.Write(gCtx, `
				MATCH (n:Article {id: $id})
				SET n.embedding = $embedding`, map[string]any{"id": n.id, "embedding": values})
			if err != nil {
				return fmt.Errorf("failed to store embedding for %s: %w", n.id, err)
			}
			embedded.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if n := embedded.Load(); n > 0 {
		log.Printf("✓ Embedded %d articles", n)
	}
	return int(embedded.Load()), int(failed.Load()), err
}

// ErrNoEmbedder is returned by Reembed when the loader has no embedding provider
var ErrNoEmbedder = errors.New("no embedding provider configured")

// Reembed recomputes Article embeddings already in the graph. With missingOnly
// only nodes without an embedding are touched, which resumes an interrupted run.
func (l *Loader) Reembed(ctx context.Context, missingOnly bool) (embedded, failed int, err error) {
	if l.embedder == nil {
		return 0, 0, ErrNoEmbedder
	}

	rows, err := l.client.Read(ctx, `
		MATCH (n:Article)
		WHERE NOT $missingOnly OR n.embedding IS NULL
		RETURN n.id AS id,
			coalesce(n.name, '') AS name,
			coalesce(n.title, '') AS title,
			coalesce(n.text, '') AS text
		ORDER BY n.id`, map[string]any{"missingOnly": missingOnly})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list articles: %w", err)
	}

	nodes := make([]node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, node{
			id:    row.String("id"),
			label: models.NodeArticle,
			props: map[string]any{
				"name":  row.String("name"),
				"title": row.String("title"),
				"text":  row.String("text"),
			},
		})
	}
	log.Printf("Re-embedding %d articles", len(nodes))

	return l.embedArticles(ctx, nodes)
}
