package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/reportindex/internal/report"
)

// PDFOptions controls the catalog layout.
type PDFOptions struct {
	// BaseURL prefixes site-relative links so they stay clickable outside
	// the browser, e.g. http://localhost:5001.
	BaseURL string
	// FontPath is an optional UTF-8 TrueType font. Without it the core
	// Helvetica font is used and characters outside cp1252 cannot render.
	FontPath    string
	GeneratedAt time.Time
}

const fontFamily = "catalog"

// PDF writes a catalog of records to outPath: one heading per report type,
// one linked line per record.
func PDF(outPath string, records []report.Record, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	text := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", opts.FontPath)
		pdf.AddUTF8Font(fontFamily, "B", opts.FontPath)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load font: %w", err)
		}
		family = fontFamily
		text = func(s string) string { return s }
	}
	pdf.SetTitle(text("Report index"), opts.FontPath != "")
	pdf.SetFont(family, "", 11)
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, text("Report index"), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 9)
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("%s | %d reports", generated.Format("2006-01-02 15:04:05"), len(records)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, g := range Grouped(records) {
		pdf.SetFont(family, "B", 13)
		pdf.CellFormat(0, 8, text(fmt.Sprintf("%s (%d)", groupLabel(g, opts.FontPath != ""), len(g.Records))), "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", 10)
		for _, r := range g.Records {
			link := absoluteLink(opts.BaseURL, r.URL)
			pdf.Write(5, text(r.Info.Date+"  "))
			pdf.WriteLinkString(5, text(r.Info.Title), link)
			pdf.Ln(6)
		}
		pdf.Ln(3)
	}
	return pdf.OutputFileAndClose(outPath)
}

// groupLabel uses the Chinese heading when a UTF-8 font is available and the
// type tag otherwise.
func groupLabel(g Group, utf8Font bool) string {
	if utf8Font {
		return g.Name
	}
	return string(g.Type)
}

func absoluteLink(base, u string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return u
	}
	return base + u
}
