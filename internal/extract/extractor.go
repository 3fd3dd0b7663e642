package extract

import "github.com/hyperifyio/reportindex/internal/report"

// Extractor turns index page bytes into report records.
// Implementations should be deterministic and avoid side effects.
type Extractor interface {
    Extract(input []byte) []report.Record
}

// SelectorExtractor walks the page with a configurable Layout.
type SelectorExtractor struct {
    c compiled
}

// NewSelectorExtractor compiles layout, filling empty selectors from
// DefaultLayout.
func NewSelectorExtractor(layout Layout) (*SelectorExtractor, error) {
    c, err := compile(layout)
    if err != nil {
        return nil, err
    }
    return &SelectorExtractor{c: c}, nil
}

func (e *SelectorExtractor) Extract(input []byte) []report.Record {
    if e == nil {
        return Records(input)
    }
    return records(e.c, input)
}
