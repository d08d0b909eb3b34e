package crawling

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkPattern describes how detail-page links look on a listing page.
// Selector is tried first; Fallback scans the raw markup only when the
// selector path yields nothing.
type LinkPattern struct {
	Selector string
	Path     *regexp.Regexp
	// Fallback must have one capture group holding the href.
	Fallback *regexp.Regexp
}

// RecipeLinkPattern matches "/recipe/<digits>/" detail links.
var RecipeLinkPattern = LinkPattern{
	Selector: `a[href^="/recipe/"]`,
	Path:     regexp.MustCompile(`/recipe/\d+`),
	Fallback: regexp.MustCompile(`href="(/recipe/\d+/?)"`),
}

// LinkSet is the outcome of link extraction on one page.
type LinkSet struct {
	Links []string
	// FromFallback is true when the links came from the regex scan.
	FromFallback bool
}

// ExtractLinks collects absolute detail-page links from a listing page.
// Both paths resolve hrefs against baseURL, drop fragments and deduplicate
// keeping first-seen document order.
func ExtractLinks(htmlContent string, baseURL string, p LinkPattern) (*LinkSet, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse base URL",
			Cause:   err,
		}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	links := newOrderedSet()
	doc.Find(p.Selector).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || !p.Path.MatchString(href) {
			return
		}
		if abs, ok := resolve(base, href); ok {
			links.add(abs)
		}
	})
	if links.len() > 0 {
		return &LinkSet{Links: links.items}, nil
	}

	// Markup drift: anchors may be missing from the DOM (inlined templates,
	// broken tags) while the hrefs are still in the raw text.
	if p.Fallback == nil {
		return &LinkSet{}, nil
	}
	for _, m := range p.Fallback.FindAllStringSubmatch(htmlContent, -1) {
		if abs, ok := resolve(base, m[1]); ok {
			links.add(abs)
		}
	}
	return &LinkSet{Links: links.items, FromFallback: true}, nil
}

func resolve(base *url.URL, href string) (string, bool) {
	linkURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(linkURL)
	abs.Fragment = ""
	return abs.String(), true
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) len() int {
	return len(s.items)
}

// Dedupe removes repeated links across pages, keeping first-seen order.
func Dedupe(links []string) []string {
	set := newOrderedSet()
	for _, l := range links {
		set.add(l)
	}
	return set.items
}
