package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/graphdb"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// ErrArticleNotFound is returned when a lookup matches no provision
var ErrArticleNotFound = errors.New("article not found")

const (
	FullTextIndexName = "article_fulltext"
	VectorIndexName   = "article_embedding"

	defaultLookupLimit   = 5
	defaultFullTextLimit = 10
	defaultVectorTopK    = 10
)

// recordProjection is the uniform record shape returned by every read primitive
const recordProjection = `
	RETURN n.id AS articleId,
		coalesce(n.name, '') AS name,
		coalesce(n.text, '') AS text,
		coalesce(n.title, '') AS title,
		coalesce(regulation, '') AS regulation,
		coalesce(n.level, 0) AS level,
		[l IN labels(n) WHERE l <> 'Regulation'][0] AS nodeType,
		toFloat(score) AS score`

// KnowledgeRepository handles read queries against the regulation graph
type KnowledgeRepository struct {
	client  graphdb.Client
	maxRows int
}

// KnowledgeOption configures a KnowledgeRepository
type KnowledgeOption func(*KnowledgeRepository)

// KnowledgeWithMaxRows caps the rows returned by synthesized queries
func KnowledgeWithMaxRows(n int) KnowledgeOption {
	return func(r *KnowledgeRepository) {
		if n > 0 {
			r.maxRows = n
		}
	}
}

// NewKnowledgeRepository creates a new knowledge repository
func NewKnowledgeRepository(client graphdb.Client, opts ...KnowledgeOption) *KnowledgeRepository {
	r := &KnowledgeRepository{client: client, maxRows: MaxQueryRows}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookupArticle finds a provision by id or raw article number.
// "article_52", "52" and "Article 52" are equivalent; an id match ranks above an
// articleNumber match, which ranks above a name match.
func (r *KnowledgeRepository) LookupArticle(ctx context.Context, ref string) ([]models.ArticleRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty article reference", ErrArticleNotFound)
	}

	id := ref
	number, ok := models.NormalizeArticleNumber(ref)
	switch {
	case !ok:
		number = ref
	case !strings.Contains(strings.ToLower(ref), "article_"):
		id = models.ArticleIDFromNumber(number)
	}

	query := `
		MATCH (n)
		WHERE (n:Article OR n:SubArticle OR n:RegionalArticle OR n:RegionalSubArticle)
			AND (n.id = $ref OR n.id = $id OR n.articleNumber = $number OR n.name =~ $namePattern)
		OPTIONAL MATCH (reg:Regulation)-[:CONTAINS*1..]->(n)
		WITH n, head(collect(reg.name)) AS regulation,
			CASE
				WHEN n.id = $ref OR n.id = $id THEN 3
				WHEN n.articleNumber = $number THEN 2
				ELSE 1
			END AS score` + recordProjection + `
		ORDER BY score DESC, articleId
		LIMIT $limit`

	rows, err := r.client.Read(ctx, query, map[string]any{
		"ref":         ref,
		"id":          id,
		"number":      number,
		"namePattern": namePattern(number),
		"limit":       defaultLookupLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up article %q: %w", ref, err)
	}
	return toArticleRecords(rows), nil
}

// namePattern builds a case-insensitive whole-number regex for display names
func namePattern(number string) string {
	quoted := strings.ReplaceAll(number, `\E`, "")
	return `(?i).*\b\Q` + quoted + `\E\b(?![-\d]).*`
}

// GetArticle returns the best match for ref, or ErrArticleNotFound
func (r *KnowledgeRepository) GetArticle(ctx context.Context, ref string) (*models.ArticleRecord, error) {
	records, err := r.LookupArticle(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, ref)
	}
	return &records[0], nil
}

// FullTextSearch runs a relevance-ranked full-text search over name, text, title and articleNumber
func (r *KnowledgeRepository) FullTextSearch(ctx context.Context, terms string, limit int) ([]models.ArticleRecord, error) {
	q := escapeLucene(strings.TrimSpace(terms))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultFullTextLimit
	}

	query := `
		CALL db.index.fulltext.queryNodes($index, $query) YIELD node AS n, score
		OPTIONAL MATCH (reg:Regulation)-[:CONTAINS*1..]->(n)
		WITH n, score, head(collect(reg.name)) AS regulation` + recordProjection + `
		ORDER BY score DESC
		LIMIT $limit`

	rows, err := r.client.Read(ctx, query, map[string]any{
		"index": FullTextIndexName,
		"query": q,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}
	return toArticleRecords(rows), nil
}

// VectorSearch returns the topK Article nodes nearest to embedding by cosine similarity
func (r *KnowledgeRepository) VectorSearch(ctx context.Context, embedding []float32, topK int) ([]models.ArticleRecord, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = defaultVectorTopK
	}

	vec := make([]float64, len(embedding))
	for i, v := range embedding {
		vec[i] = float64(v)
	}

	query := `
		CALL db.index.vector.queryNodes($index, $topK, $embedding) YIELD node AS n, score
		OPTIONAL MATCH (reg:Regulation)-[:CONTAINS*1..]->(n)
		WITH n, score, head(collect(reg.name)) AS regulation` + recordProjection + `
		ORDER BY score DESC`

	rows, err := r.client.Read(ctx, query, map[string]any{
		"index":     VectorIndexName,
		"topK":      topK,
		"embedding": vec,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return toArticleRecords(rows), nil
}

// ExecuteQuery runs an untrusted read query. The query must pass
// ValidateReadOnlyQuery, is rewritten to carry a row cap, runs in a read
// session, and its result is truncated to the cap.
func (r *KnowledgeRepository) ExecuteQuery(ctx context.Context, query string) ([]models.ArticleRecord, error) {
	if err := ValidateReadOnlyQuery(query); err != nil {
		return nil, err
	}
	capped := EnforceRowCap(query, r.maxRows)

	rows, err := r.client.Read(ctx, capped, nil)
	if err != nil {
		return nil, fmt.Errorf("synthesized query failed: %w", err)
	}
	if len(rows) > r.maxRows {
		rows = rows[:r.maxRows]
	}
	return toArticleRecords(rows), nil
}

// ListRegulations returns every regulation with its provision count
func (r *KnowledgeRepository) ListRegulations(ctx context.Context) ([]models.Regulation, error) {
	query := `
		MATCH (reg:Regulation)
		OPTIONAL MATCH (reg)-[:CONTAINS*1..]->(n)
		RETURN reg.id AS id, reg.name AS name, coalesce(reg.level, 'national') AS level,
			coalesce(reg.authority, '') AS authority, count(DISTINCT n) AS articleCount
		ORDER BY level, name`

	rows, err := r.client.Read(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list regulations: %w", err)
	}

	regs := make([]models.Regulation, 0, len(rows))
	for _, row := range rows {
		level, err := models.ParseJurisdictionLevel(row.String("level"))
		if err != nil {
			level = models.LevelNational
		}
		regs = append(regs, models.Regulation{
			ID:           row.String("id"),
			Name:         row.String("name"),
			Level:        level,
			Authority:    row.String("authority"),
			ArticleCount: row.Int("articleCount"),
		})
	}
	return regs, nil
}

// toArticleRecords maps rows to the uniform record shape; rows without an id are dropped
func toArticleRecords(rows []graphdb.Record) []models.ArticleRecord {
	out := make([]models.ArticleRecord, 0, len(rows))
	for _, row := range rows {
		id := row.String("articleId")
		if id == "" {
			id = row.String("id")
		}
		if id == "" {
			continue
		}
		out = append(out, models.ArticleRecord{
			ArticleID:  id,
			Name:       row.String("name"),
			Text:       row.String("text"),
			Title:      row.String("title"),
			Regulation: row.String("regulation"),
			Level:      row.Int("level"),
			NodeType:   models.NodeType(row.String("nodeType")),
			Score:      row.Float("score"),
		})
	}
	return out
}

// escapeLucene escapes Lucene query syntax so user text is searched literally
func escapeLucene(s string) string {
	const special = `+-&|!(){}[]^"~*?:\/`
	var b strings.Builder
	for _, c := range s {
		if strings.ContainsRune(special, c) {
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
