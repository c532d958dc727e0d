// Package features implements the cleaning and feature extraction stages
// that turn a raw news dump into the per-article feature table.
package features

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/internal/textclean"
	"github.com/slowdive42/news2alpha/pkg/models"
)

// Scorer maps text to a compound sentiment score in [-1, 1].
type Scorer interface {
	Score(text string) float64
}

// EntityExtractor finds named entities in text.
type EntityExtractor interface {
	Extract(text string) []models.Entity
}

// SchemaError reports columns missing from a stage input.
type SchemaError struct {
	File    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.File, strings.Join(e.Missing, ", "))
}

// SaveRawNews atomically writes a raw news dump as indented JSON.
func SaveRawNews(path string, dump *models.RawNewsDump) error {
	return tabular.WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(dump)
	})
}

// LoadRawNews reads a raw news dump.
func LoadRawNews(path string) (*models.RawNewsDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw news: %w", err)
	}
	var dump models.RawNewsDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("decode raw news %s: %w", path, err)
	}
	return &dump, nil
}

// CleanTable builds the cleaned news table from raw articles.
func CleanTable(name string, articles []models.RawArticle) *tabular.Table {
	t := tabular.New(name, models.CleanedColumns...)
	for _, c := range textclean.CleanArticles(articles) {
		t.Append(c.PublishedAt, c.Title, c.TitleCleaned, c.Content, c.ContentCleaned, c.URL)
	}
	return t
}

// CleanStage reads the raw news dump at rawPath and writes the cleaned
// table to cleanedPath. It returns the number of articles written.
func CleanStage(rawPath, cleanedPath string) (int, error) {
	dump, err := LoadRawNews(rawPath)
	if err != nil {
		return 0, err
	}
	t := CleanTable(cleanedPath, dump.Articles)
	if err := t.WriteFile(cleanedPath); err != nil {
		return 0, err
	}
	return t.Len(), nil
}

// Extractor adds sentiment and entity columns to cleaned articles.
type Extractor struct {
	scorer   Scorer
	entities EntityExtractor
}

// NewExtractor creates an Extractor.
func NewExtractor(scorer Scorer, entities EntityExtractor) *Extractor {
	return &Extractor{scorer: scorer, entities: entities}
}

// Features scores one cleaned article. Sentiment is read from the cleaned
// body, or the cleaned title when the body is empty. Entities are read
// from the original title and body so that amounts and percentages
// survive.
func (x *Extractor) Features(a models.CleanArticle) (float64, []models.Entity) {
	text := a.ContentCleaned
	if strings.TrimSpace(text) == "" {
		text = a.TitleCleaned
	}
	return x.scorer.Score(text), x.entities.Extract(textclean.StripMarkup(a.Title + "\n" + a.Content))
}

// Apply computes the feature table from a cleaned table.
func (x *Extractor) Apply(cleaned *tabular.Table, name string) (*tabular.Table, error) {
	cols, missing := cleaned.Lookup(models.CleanedColumns...)
	if len(missing) > 0 {
		return nil, &SchemaError{File: cleaned.Name, Missing: missing}
	}

	out := tabular.New(name, models.FeatureColumns...)
	for _, row := range cleaned.Rows {
		get := func(c string) string { return row[cols[c]] }
		a := models.CleanArticle{
			PublishedAt:    get("published_at"),
			Title:          get("title"),
			TitleCleaned:   get("title_cleaned"),
			Content:        get("content"),
			ContentCleaned: get("content_cleaned"),
			URL:            get("url"),
		}
		score, ents := x.Features(a)
		encoded, err := EncodeEntities(ents)
		if err != nil {
			return nil, err
		}
		out.Append(a.PublishedAt, a.Title, a.TitleCleaned, a.Content, a.ContentCleaned, a.URL,
			strconv.FormatFloat(score, 'f', 4, 64), encoded)
	}
	return out, nil
}

// FeatureStage reads the cleaned table at cleanedPath and writes the
// feature table to featuresPath. It returns the number of rows written.
func (x *Extractor) FeatureStage(cleanedPath, featuresPath string) (int, error) {
	cleaned, err := tabular.ReadFile(cleanedPath)
	if err != nil {
		return 0, err
	}
	out, err := x.Apply(cleaned, featuresPath)
	if err != nil {
		return 0, err
	}
	if err := out.WriteFile(featuresPath); err != nil {
		return 0, err
	}
	return out.Len(), nil
}

// EncodeEntities renders entities as a JSON array of [text, label] pairs.
func EncodeEntities(ents []models.Entity) (string, error) {
	pairs := make([][2]string, len(ents))
	for i, e := range ents {
		pairs[i] = [2]string{e.Text, e.Label}
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("encode entities: %w", err)
	}
	return string(data), nil
}

// DecodeEntities parses the output of EncodeEntities. An empty string
// decodes to no entities.
func DecodeEntities(s string) ([]models.Entity, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pairs [][2]string
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	out := make([]models.Entity, len(pairs))
	for i, p := range pairs {
		out[i] = models.Entity{Text: p[0], Label: p[1]}
	}
	return out, nil
}
