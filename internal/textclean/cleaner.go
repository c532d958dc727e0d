// Package textclean normalizes article text before feature extraction.
package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/slowdive42/news2alpha/pkg/models"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Clean strips markup, drops everything except ASCII letters and
// whitespace, lowercases and collapses whitespace runs to single spaces.
func Clean(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := StripMarkup(s)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// StripMarkup returns the text content of an HTML fragment.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return tagPattern.ReplaceAllString(s, "")
	}
	return doc.Find("body").Text()
}

// CleanArticle normalizes one raw article. The body is whichever of the
// description and content is longer once trimmed; ties keep the description.
func CleanArticle(a models.RawArticle) models.CleanArticle {
	body := a.Description
	if len(strings.TrimSpace(a.Content)) > len(strings.TrimSpace(body)) {
		body = a.Content
	}
	return models.CleanArticle{
		PublishedAt:    a.PublishedAt,
		Title:          a.Title,
		TitleCleaned:   Clean(a.Title),
		Content:        body,
		ContentCleaned: Clean(body),
		URL:            a.URL,
	}
}

// CleanArticles normalizes a batch of raw articles, preserving order.
func CleanArticles(articles []models.RawArticle) []models.CleanArticle {
	out := make([]models.CleanArticle, len(articles))
	for i, a := range articles {
		out[i] = CleanArticle(a)
	}
	return out
}
