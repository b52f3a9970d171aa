package models

import (
	"fmt"
	"regexp"
	"strings"
)

// JurisdictionLevel represents the level of a regulation
type JurisdictionLevel string

const (
	LevelNational JurisdictionLevel = "national"
	LevelRegional JurisdictionLevel = "regional"
)

// ParseJurisdictionLevel accepts the capitalised forms produced by the extractor ("National", "Regional")
func ParseJurisdictionLevel(s string) (JurisdictionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "national", "":
		return LevelNational, nil
	case "regional":
		return LevelRegional, nil
	default:
		return "", fmt.Errorf("unknown jurisdiction level: %q", s)
	}
}

// NodeType is the graph label of an article-like node
type NodeType string

const (
	NodeArticle            NodeType = "Article"
	NodeSubArticle         NodeType = "SubArticle"
	NodeRegionalArticle    NodeType = "RegionalArticle"
	NodeRegionalSubArticle NodeType = "RegionalSubArticle"
	NodeRegulation         NodeType = "Regulation"
)

// ArticleLabels lists the four article-like labels in a stable order
var ArticleLabels = []NodeType{NodeArticle, NodeSubArticle, NodeRegionalArticle, NodeRegionalSubArticle}

// IsRegional reports whether the label belongs to a regional provision
func (t NodeType) IsRegional() bool {
	return t == NodeRegionalArticle || t == NodeRegionalSubArticle
}

// IsNational reports whether the label belongs to a national provision
func (t NodeType) IsNational() bool {
	return t == NodeArticle || t == NodeSubArticle
}

// ArticleNodeType returns the label for a provision given its jurisdiction and nesting depth
func ArticleNodeType(level JurisdictionLevel, depth int) NodeType {
	switch {
	case level == LevelRegional && depth > 0:
		return NodeRegionalSubArticle
	case level == LevelRegional:
		return NodeRegionalArticle
	case depth > 0:
		return NodeSubArticle
	default:
		return NodeArticle
	}
}

// Regulation represents a named legal document, the root of a containment tree
type Regulation struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Level        JurisdictionLevel `json:"level"`
	Authority    string            `json:"authority"`
	ArticleCount int               `json:"article_count,omitempty"`
}

// Article represents a numbered provision (top-level or nested)
type Article struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Title         string   `json:"title"`
	Text          string   `json:"text"`
	ArticleNumber string   `json:"article_number"`
	Level         int      `json:"level"`
	ParentID      string   `json:"parent_id,omitempty"`
	NodeType      NodeType `json:"node_type"`
	References    []string `json:"references,omitempty"`
	RelatedTo     []string `json:"related_to,omitempty"`
}

// ArticleRecord is the uniform record shape returned by every knowledge read primitive
type ArticleRecord struct {
	ArticleID  string   `json:"articleId"`
	Name       string   `json:"name"`
	Text       string   `json:"text"`
	Title      string   `json:"title"`
	Regulation string   `json:"regulation"`
	Level      int      `json:"level"`
	NodeType   NodeType `json:"nodeType"`
	Score      float64  `json:"score"`
}

var (
	articleIDPattern     = regexp.MustCompile(`(?i)^(?:[a-z0-9]+_)?article_(\d+(?:-\d+)*)$`)
	articleHeaderPattern = regexp.MustCompile(`(?i)\barticle\s+(\d+(?:-\d+)*)\b`)
	koreanArticlePattern = regexp.MustCompile(`제\s*(\d+)\s*조(?:\s*의\s*(\d+))?`)
	bareNumberPattern    = regexp.MustCompile(`^(\d+(?:-\d+)*)$`)
)

// NormalizeArticleNumber reduces any of the equivalent encodings ("article_52", "52",
// "Article 52", "제52조의2") to the raw dash-delimited number. ok is false when no number is present.
func NormalizeArticleNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := articleIDPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := bareNumberPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := articleHeaderPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := koreanArticlePattern.FindStringSubmatch(s); m != nil {
		if m[2] != "" {
			return m[1] + "-" + m[2], true
		}
		return m[1], true
	}
	return "", false
}

// ArticleIDFromNumber derives the canonical node id for an article number
func ArticleIDFromNumber(number string) string {
	return "article_" + number
}

// ArticleDepth returns the nesting depth of a dash-delimited number ("52-3-1" -> 2)
func ArticleDepth(number string) int {
	return strings.Count(number, "-")
}

// ParentArticleNumber returns the number of the parent provision, or "" for a top-level article
func ParentArticleNumber(number string) string {
	idx := strings.LastIndex(number, "-")
	if idx < 0 {
		return ""
	}
	return number[:idx]
}

// ExtractArticleMentions returns every distinct "Article N" cross-reference found in text
func ExtractArticleMentions(text string) []string {
	seen := make(map[string]bool)
	var numbers []string
	for _, m := range articleHeaderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			numbers = append(numbers, m[1])
		}
	}
	for _, m := range koreanArticlePattern.FindAllStringSubmatch(text, -1) {
		n := m[1]
		if m[2] != "" {
			n += "-" + m[2]
		}
		if !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	return numbers
}
