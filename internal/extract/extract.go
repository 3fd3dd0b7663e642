package extract

import (
    "bytes"
    "fmt"
    "io"
    "strings"
    "unicode/utf8"

    "github.com/andybalholm/cascadia"
    "golang.org/x/net/html"
    "golang.org/x/net/html/charset"
    "golang.org/x/text/transform"

    "github.com/hyperifyio/reportindex/internal/report"
)

// Layout names the CSS selectors of the index page structure.
type Layout struct {
    Section string `yaml:"section" json:"section"`
    Heading string `yaml:"heading" json:"heading"`
    Item    string `yaml:"item" json:"item"`
    Title   string `yaml:"title" json:"title"`
    Date    string `yaml:"date" json:"date"`
    Link    string `yaml:"link" json:"link"`
}

// DefaultLayout matches the pages produced by the report index generator.
var DefaultLayout = Layout{
    Section: ".section",
    Heading: ".section-title",
    Item:    ".report-item",
    Title:   ".report-title",
    Date:    ".report-date",
    Link:    ".report-link",
}

// withDefaults fills empty selectors from DefaultLayout.
func (l Layout) withDefaults() Layout {
    pick := func(v, def string) string {
        if strings.TrimSpace(v) == "" {
            return def
        }
        return v
    }
    return Layout{
        Section: pick(l.Section, DefaultLayout.Section),
        Heading: pick(l.Heading, DefaultLayout.Heading),
        Item:    pick(l.Item, DefaultLayout.Item),
        Title:   pick(l.Title, DefaultLayout.Title),
        Date:    pick(l.Date, DefaultLayout.Date),
        Link:    pick(l.Link, DefaultLayout.Link),
    }
}

type compiled struct {
    section, heading, item, title, date, link cascadia.Selector
}

func compile(l Layout) (compiled, error) {
    l = l.withDefaults()
    var c compiled
    for _, s := range []struct {
        dst *cascadia.Selector
        src string
    }{
        {&c.section, l.Section},
        {&c.heading, l.Heading},
        {&c.item, l.Item},
        {&c.title, l.Title},
        {&c.date, l.Date},
        {&c.link, l.Link},
    } {
        sel, err := cascadia.Compile(s.src)
        if err != nil {
            return compiled{}, fmt.Errorf("selector %q: %w", s.src, err)
        }
        *s.dst = sel
    }
    return c, nil
}

var defaultCompiled = func() compiled {
    c, err := compile(DefaultLayout)
    if err != nil {
        panic(err)
    }
    return c
}()

// Records extracts report records from an index page using DefaultLayout.
// Sections without a heading and items without a title or link are omitted.
// The result follows document order and is rebuilt on every call.
func Records(input []byte) []report.Record {
    return records(defaultCompiled, input)
}

// section is a heading-bearing section paired with its classified type.
type section struct {
    node *html.Node
    typ  report.Type
}

func records(c compiled, input []byte) []report.Record {
    root, err := html.Parse(decode(input))
    if err != nil || root == nil {
        return []report.Record{}
    }
    out := []report.Record{}
    for _, s := range classifiedSections(c, root) {
        out = append(out, sectionRecords(c, s)...)
    }
    return out
}

// classifiedSections keeps sections that carry a heading element. Headings,
// items and their fields are looked up among descendants only.
func classifiedSections(c compiled, root *html.Node) []section {
    nodes := c.section.MatchAll(root)
    out := make([]section, 0, len(nodes))
    for _, n := range nodes {
        h := cascadia.Query(n, c.heading)
        if h == nil {
            continue
        }
        out = append(out, section{node: n, typ: report.Classify(textContent(h))})
    }
    return out
}

func sectionRecords(c compiled, s section) []report.Record {
    items := cascadia.QueryAll(s.node, c.item)
    out := make([]report.Record, 0, len(items))
    for _, item := range items {
        if rec, ok := itemRecord(c, item, s.typ); ok {
            out = append(out, rec)
        }
    }
    return out
}

func itemRecord(c compiled, item *html.Node, typ report.Type) (report.Record, bool) {
    titleEl := cascadia.Query(item, c.title)
    linkEl := cascadia.Query(item, c.link)
    if titleEl == nil || linkEl == nil {
        return report.Record{}, false
    }
    title := textContent(titleEl)
    href, _ := attr(linkEl, "href")
    if title == "" || href == "" {
        return report.Record{}, false
    }
    date := report.UnknownDate
    if d := cascadia.Query(item, c.date); d != nil {
        if v := textContent(d); v != "" {
            date = v
        }
    }
    return report.Record{
        URL:         report.Normalize(href),
        OriginalURL: href,
        Filename:    report.FilenameOf(href),
        Info: report.Info{
            Title:      title,
            Date:       date,
            DetailURL:  href,
            ReportType: typ,
        },
    }, true
}

// textContent concatenates descendant text nodes and trims the result.
func textContent(n *html.Node) string {
    var b strings.Builder
    var walk func(*html.Node)
    walk = func(cur *html.Node) {
        if cur.Type == html.TextNode {
            b.WriteString(cur.Data)
        }
        for ch := cur.FirstChild; ch != nil; ch = ch.NextSibling {
            walk(ch)
        }
    }
    walk(n)
    return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) (string, bool) {
    for _, a := range n.Attr {
        if strings.EqualFold(a.Key, key) {
            return a.Val, true
        }
    }
    return "", false
}

// decode converts input to UTF-8 when the page declares or sniffs as another
// charset, e.g. GBK pages saved from older report sites.
func decode(input []byte) io.Reader {
    enc, name, certain := charset.DetermineEncoding(input, "")
    if name == "utf-8" || (!certain && utf8.Valid(input)) {
        return bytes.NewReader(input)
    }
    return transform.NewReader(bytes.NewReader(input), enc.NewDecoder())
}
