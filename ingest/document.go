// Package ingest turns regulation documents into the knowledge graph: text
// extraction, corpus validation and graph loading.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// DocumentArticle is one provision as stored in the corpus JSON.
// Top-level articles leave Level and ParentID empty.
type DocumentArticle struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Level      int      `json:"level,omitempty"`
	ParentID   string   `json:"parentId,omitempty"`
	References []string `json:"references,omitempty"`
	RelatedTo  []string `json:"relatedTo,omitempty"`
}

// Number returns the raw dash-delimited article number ("52-3")
func (a DocumentArticle) Number() string {
	if n, ok := models.NormalizeArticleNumber(a.ID); ok {
		return n
	}
	return strings.TrimPrefix(a.ID, "article_")
}

// Parent returns the id of the enclosing provision: ParentID when set,
// otherwise the one implied by the article number ("52-3" -> article_52).
// Top-level articles return "".
func (a DocumentArticle) Parent() string {
	if a.ParentID != "" {
		return a.ParentID
	}
	parent := models.ParentArticleNumber(a.Number())
	if parent == "" {
		return ""
	}
	return models.ArticleIDFromNumber(parent)
}

// RegulationDocument is the extracted form of one regulation
type RegulationDocument struct {
	Name      string `json:"name"`
	Level     string `json:"level"`
	Authority string `json:"authority"`
	// Code prefixes regional ids ("seoul" gives seoul_article_5). Derived from Name when empty.
	Code        string            `json:"code,omitempty"`
	Articles    []DocumentArticle `json:"articles"`
	SubArticles []DocumentArticle `json:"subArticles"`
}

// JurisdictionLevel parses Level, treating an empty value as national
func (d *RegulationDocument) JurisdictionLevel() (models.JurisdictionLevel, error) {
	return models.ParseJurisdictionLevel(d.Level)
}

// IsRegional reports whether the document is a regional ordinance
func (d *RegulationDocument) IsRegional() bool {
	level, err := d.JurisdictionLevel()
	return err == nil && level == models.LevelRegional
}

var codeCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// RegulationCode returns the short code used for the regulation node id and regional prefixes
func (d *RegulationDocument) RegulationCode() string {
	code := d.Code
	if code == "" && d.IsRegional() {
		if fields := strings.Fields(d.Name); len(fields) > 0 {
			code = fields[0]
		}
	}
	if code == "" {
		code = d.Name
	}
	return strings.Trim(codeCleaner.ReplaceAllString(strings.ToLower(code), "_"), "_")
}

// RegulationID returns the graph id of the regulation node
func (d *RegulationDocument) RegulationID() string {
	if d.IsRegional() {
		return d.RegulationCode() + "_ordinance"
	}
	return d.RegulationCode()
}

// NodeID returns the globally unique graph id for an article of this document
func (d *RegulationDocument) NodeID(articleID string) string {
	if d.IsRegional() && strings.HasPrefix(articleID, "article_") {
		return d.RegulationCode() + "_" + articleID
	}
	return articleID
}

// AllArticles returns articles followed by sub-articles
func (d *RegulationDocument) AllArticles() []DocumentArticle {
	out := make([]DocumentArticle, 0, len(d.Articles)+len(d.SubArticles))
	out = append(out, d.Articles...)
	return append(out, d.SubArticles...)
}

// ReadDocument decodes a RegulationDocument from r
func ReadDocument(r io.Reader) (*RegulationDocument, error) {
	var doc RegulationDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode regulation document: %w", err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, fmt.Errorf("regulation document has no name")
	}
	if _, err := doc.JurisdictionLevel(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadDocumentFile loads a RegulationDocument from a JSON file
func ReadDocumentFile(path string) (*RegulationDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}

// WriteDocument encodes doc as indented JSON
func WriteDocument(w io.Writer, doc *RegulationDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
