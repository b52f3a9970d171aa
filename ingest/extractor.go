package ingest

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Header patterns. English headers need "(Title)", ":" or nothing after the
// number so body lines that merely start with "Article 5 of ..." stay text.
var (
	englishHeader = regexp.MustCompile(`(?i)^Article\s+(\d+(?:-\d+)*)\s*(?:\(([^)]*)\)\s*(.*)|[:：]\s*(.*)|$)`)
	koreanSubHdr  = regexp.MustCompile(`^제\s*(\d+)\s*조의\s*(\d+)\s*(.*)$`)
	koreanHeader  = regexp.MustCompile(`^제\s*(\d+)\s*조\s*(.*)$`)
	parenTitle    = regexp.MustCompile(`^\(([^)]*)\)\s*(.*)$`)

	// page lines match within one line so the blank lines around them survive
	pageDashLine = regexp.MustCompile(`(?m)^[ \t]*[-–—]*[ \t]*\d+[ \t]*[-–—]*[ \t]*$`)
	pageWordLine = regexp.MustCompile(`(?mi)^[ \t]*Page[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?[ \t]*$`)
	inlineSpaces = regexp.MustCompile(`[ \t\f\v]+`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"\u00a0", " ",
)

// Extractor parses raw regulation text into articles and sub-articles
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads a PDF or plain-text file and parses it
func (e *Extractor) ExtractFile(path string) (*RegulationDocument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.ExtractPDF(path)
	case ".txt", ".text", ".md", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return e.ExtractText(string(data)), nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
}

// ExtractPDF pulls the plain text out of a PDF and parses it
func (e *Extractor) ExtractPDF(path string) (*RegulationDocument, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	b, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract plain text: %w", err)
	}
	if _, err := buf.ReadFrom(b); err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}

	log.Printf("Extracted %d pages from %s", r.NumPage(), filepath.Base(path))
	return e.ExtractText(buf.String()), nil
}

type header struct {
	number string
	title  string
	rest   string
}

// ExtractText parses articles from raw text. Lines before the first header
// are dropped, as are headers with no body text.
func (e *Extractor) ExtractText(text string) *RegulationDocument {
	doc := &RegulationDocument{Articles: []DocumentArticle{}, SubArticles: []DocumentArticle{}}

	var current *header
	var body []string
	flush := func() {
		if current == nil {
			return
		}
		if text := strings.TrimSpace(strings.Join(body, " ")); text != "" {
			addArticle(doc, *current, text)
		}
	}

	for _, line := range strings.Split(Preprocess(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if h, ok := parseHeader(line); ok {
			flush()
			current = &h
			body = body[:0]
			if h.rest != "" {
				body = append(body, h.rest)
			}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	log.Printf("Parsed %d articles and %d sub-articles", len(doc.Articles), len(doc.SubArticles))
	return doc
}

func addArticle(doc *RegulationDocument, h header, text string) {
	a := DocumentArticle{
		ID:    "article_" + h.number,
		Title: h.title,
		Text:  text,
		Level: strings.Count(h.number, "-"),
	}
	if a.Level == 0 {
		if a.Title == "" {
			a.Title = "Article " + h.number
		}
		doc.Articles = append(doc.Articles, a)
		return
	}
	if a.Title == "" {
		a.Title = "Sub-Article " + h.number
	}
	a.ParentID = "article_" + h.number[:strings.LastIndex(h.number, "-")]
	doc.SubArticles = append(doc.SubArticles, a)
}

func parseHeader(line string) (header, bool) {
	if m := englishHeader.FindStringSubmatch(line); m != nil {
		h := header{number: m[1], title: strings.TrimSpace(m[2]), rest: strings.TrimSpace(m[3])}
		if m[4] != "" {
			h.title = strings.TrimSpace(m[4])
		}
		return h, true
	}
	if m := koreanSubHdr.FindStringSubmatch(line); m != nil {
		h := header{number: m[1] + "-" + m[2]}
		h.title, h.rest = koreanTitle(m[3])
		return h, true
	}
	if m := koreanHeader.FindStringSubmatch(line); m != nil {
		h := header{number: m[1]}
		h.title, h.rest = koreanTitle(m[2])
		return h, true
	}
	return header{}, false
}

// koreanTitle splits "(건폐율) 대지면적에 ..." into the title and the first body text
func koreanTitle(s string) (string, string) {
	s = strings.TrimSpace(s)
	if m := parenTitle.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return s, ""
}

// Preprocess normalises line breaks, collapses inline whitespace, drops
// page-number lines and straightens curly quotes
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = quoteReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = inlineSpaces.ReplaceAllString(line, " ")
	}
	text = strings.Join(lines, "\n")

	text = pageDashLine.ReplaceAllString(text, "")
	text = pageWordLine.ReplaceAllString(text, "")
	return text
}
