package lbstat

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/yegors/hamsearch/internal/outcome"
)

var (
	qsoPattern       = regexp.MustCompile(`(\d[\d,]*)[\s\x{00a0}]*QSOs`)
	confirmedPattern = regexp.MustCompile(`(\d[\d,]*)[\s\x{00a0}]*confirmed`)
)

// skippedElements never contribute visible text
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// TextParser finds "<n> QSOs" and "<n> confirmed" in the page's visible text
type TextParser struct{}

// NewTextParser creates the default statistics parser
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse implements Parser
func (p *TextParser) Parse(callsign string, page io.Reader) (*LogbookStats, error) {
	text, err := VisibleText(page)
	if err != nil {
		return nil, outcome.Malformed(fmt.Errorf("failed to parse logbook page: %w", err))
	}

	qsos, okQSOs, err := findCount(qsoPattern, text)
	if err != nil {
		return nil, outcome.Malformed(fmt.Errorf("QSO count: %w", err))
	}
	confirmed, okConfirmed, err := findCount(confirmedPattern, text)
	if err != nil {
		return nil, outcome.Malformed(fmt.Errorf("confirmed count: %w", err))
	}

	if !okQSOs || !okConfirmed {
		return nil, outcome.StatsNotFound(fmt.Sprintf(
			"No logbook statistics found for %s. The callsign may be invalid, or the operator may not use the QRZ Logbook.",
			callsign))
	}

	return &LogbookStats{
		Callsign:  callsign,
		QSOs:      qsos,
		Confirmed: confirmed,
	}, nil
}

// findCount returns the first number matched by pattern with any thousands
// separators removed
func findCount(pattern *regexp.Regexp, text string) (int, bool, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false, fmt.Errorf("invalid number %q: %w", m[1], err)
	}
	return n, true, nil
}

// VisibleText returns the text content of an HTML document, skipping scripts
// and styles. Text nodes are separated by a single space.
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return b.String(), nil
}
