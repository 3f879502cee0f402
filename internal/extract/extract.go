// Package extract fetches live hosts and turns their pages into tokens,
// email addresses and attribute text.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/purehate/wordUP/internal/normalize"
)

// ErrParse is wrapped when a document cannot be parsed or decoded
var ErrParse = errors.New("parse failure")

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// asset names like logo@2x.png look like addresses
var notEmailSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

// hiddenElements never contribute visible text
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// attribute selectors whose values are collected as extra tokens
var attributeNames = []string{"alt", "title", "placeholder", "aria-label"}

// meta tags whose content is configuration rather than prose
var metaSkipNames = map[string]bool{
	"viewport":         true,
	"robots":           true,
	"googlebot":        true,
	"theme-color":      true,
	"format-detection": true,
	"referrer":         true,
	"csrf-token":       true,
}

// Record is everything extracted from one page
type Record struct {
	URL        string
	Text       []string // visible text tokens in page order
	Attributes []string // attribute and meta tokens
	Emails     []string
}

// Extractor turns document bodies into records
type Extractor struct {
	Emails   bool
	Metadata bool
}

// HTML parses body and extracts visible text, emails and attribute text
func (e *Extractor) HTML(pageURL, body string) (Record, error) {
	rec := Record{URL: pageURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return rec, fmt.Errorf("%s: %w: %v", pageURL, ErrParse, err)
	}

	var b strings.Builder
	for _, n := range doc.Nodes {
		visibleText(n, &b)
	}
	rec.Text = tokens(b.String())

	if e.Metadata {
		rec.Attributes = attributeTokens(doc)
	}

	if e.Emails {
		emails := map[string]bool{}
		doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			addr := href[len("mailto:"):]
			if i := strings.IndexAny(addr, "?#"); i >= 0 {
				addr = addr[:i]
			}
			for _, a := range strings.Split(addr, ",") {
				if m := emailRe.FindString(a); m != "" {
					addEmail(emails, m)
				}
			}
		})
		for _, m := range emailRe.FindAllString(body, -1) {
			addEmail(emails, m)
		}
		rec.Emails = sortedKeys(emails)
	}
	return rec, nil
}

// Text extracts tokens and emails from a non-HTML text body
func (e *Extractor) Text(pageURL, body string) Record {
	rec := Record{URL: pageURL, Text: tokens(body)}
	if e.Emails {
		emails := map[string]bool{}
		for _, m := range emailRe.FindAllString(body, -1) {
			addEmail(emails, m)
		}
		rec.Emails = sortedKeys(emails)
	}
	return rec
}

func visibleText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		if hiddenElements[strings.ToLower(n.Data)] {
			return
		}
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, b)
	}
}

func attributeTokens(doc *goquery.Document) []string {
	var out []string
	for _, name := range attributeNames {
		doc.Find("[" + name + "]").Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(name)
			out = append(out, tokens(v)...)
		})
	}
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("http-equiv"); ok {
			return
		}
		key := strings.ToLower(s.AttrOr("name", s.AttrOr("property", "")))
		if metaSkipNames[key] || strings.HasPrefix(key, "msapplication") {
			return
		}
		out = append(out, tokens(s.AttrOr("content", ""))...)
	})
	return out
}

// tokens splits text and transliterates every token
func tokens(text string) []string {
	raw := normalize.Tokenize(text)
	for i, t := range raw {
		raw[i] = Transliterate(t)
	}
	return raw
}

func addEmail(set map[string]bool, m string) {
	m = strings.ToLower(strings.Trim(m, "."))
	for _, suffix := range notEmailSuffixes {
		if strings.HasSuffix(m, suffix) {
			return
		}
	}
	set[m] = true
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
