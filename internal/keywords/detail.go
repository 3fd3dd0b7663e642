package keywords

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"

	"github.com/hyperifyio/reportindex/internal/report"
)

// Getter fetches a page body and its content type.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, string, error)
}

var (
	headingSel = cascadia.MustCompile("h1, h2, h3, h4, h5, h6")
	classSel   = cascadia.MustCompile("[class]")
	linkSel    = cascadia.MustCompile("a")

	titleClass = regexp.MustCompile(`(?i)title|category|tag|label|name`)
	navClass   = regexp.MustCompile(`(?i)breadcrumb|nav|path`)
	tagClass   = regexp.MustCompile(`(?i)tag|label|badge`)
)

// Text length limits, counted in characters.
const (
	maxClassifiedLen = 100
	maxTitleLen      = 50
	maxTagLen        = 30
	minStockNameLen  = 2
	maxStockNameLen  = 20
)

// FromDetailHTML extracts keywords from the headings, title-like elements,
// breadcrumb links and tag badges of a report detail page.
func FromDetailHTML(body []byte, contentType string) report.Keywords {
	kw := emptyKeywords()
	doc, err := html.Parse(decodePage(body, contentType))
	if err != nil {
		log.Debug().Err(err).Msg("detail page parse failed")
		return kw
	}
	for _, n := range headingSel.MatchAll(doc) {
		classify(strippedText(n), &kw)
	}
	withClass := classSel.MatchAll(doc)
	for _, n := range withClass {
		if titleClass.MatchString(classOf(n)) {
			if t := strippedText(n); utf8.RuneCountInString(t) < maxTitleLen {
				classify(t, &kw)
			}
		}
	}
	for _, n := range withClass {
		if navClass.MatchString(classOf(n)) {
			for _, a := range cascadia.QueryAll(n, linkSel) {
				classify(strippedText(a), &kw)
			}
		}
	}
	for _, n := range withClass {
		if tagClass.MatchString(classOf(n)) {
			if t := strippedText(n); utf8.RuneCountInString(t) < maxTagLen {
				classify(t, &kw)
			}
		}
	}
	return kw
}

// classify adds the keywords found in a short text. A text of moderate
// length carrying a company marker is taken as a stock name.
func classify(text string, kw *report.Keywords) {
	n := utf8.RuneCountInString(text)
	if text == "" || n > maxClassifiedLen {
		return
	}
	matchLists(text, kw)
	if n >= minStockNameLen && n <= maxStockNameLen && containsAny(text, companyMarkers) {
		kw.Stocks = appendUnique(kw.Stocks, text)
	}
}

// DetailEnricher adds keywords taken from each record's detail page.
type DetailEnricher struct {
	Getter Getter
	// Concurrency bounds parallel fetches. Zero means 4.
	Concurrency int
}

// Enrich fetches the http(s) detail page of every tagged record and merges
// its keywords after the title keywords. Links to PDFs and non-HTML
// responses are skipped. Fetch failures are logged and leave the record
// as is.
func (d *DetailEnricher) Enrich(ctx context.Context, records []report.Record) error {
	limit := d.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range records {
		rec := &records[i]
		if rec.Keywords == nil || !fetchable(rec.Info.DetailURL) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			body, ct, err := d.Getter.Get(gctx, rec.Info.DetailURL)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("detail_url", rec.Info.DetailURL).Msg("detail page fetch failed")
				return nil
			}
			if !isHTML(ct) {
				log.Debug().Str("detail_url", rec.Info.DetailURL).Str("content_type", ct).Msg("detail page is not html")
				return nil
			}
			merge(rec.Keywords, FromDetailHTML(body, ct))
			return nil
		})
	}
	return g.Wait()
}

func fetchable(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	if (s != "http" && s != "https") || u.Host == "" {
		return false
	}
	return !strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// isHTML accepts an empty content type, since some servers omit it.
func isHTML(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml")
}

// strippedText joins the trimmed text nodes under n.
func strippedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(cur.Data))
		}
		for ch := cur.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}

func classOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return a.Val
		}
	}
	return ""
}

func decodePage(body []byte, contentType string) io.Reader {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return bytes.NewReader(body)
	}
	return transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
}
