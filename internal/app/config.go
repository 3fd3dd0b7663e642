package app

import (
	"time"

	"github.com/hyperifyio/reportindex/internal/extract"
)

// Keyword tagging modes.
const (
	KeywordsOff    = ""
	KeywordsRules  = "rules"
	KeywordsLLM    = "llm"
	KeywordsDetail = "detail" // rules plus each record's detail page
)

// Config holds runtime configuration for the application.
type Config struct {
	// Source
	BaseURL    string
	Candidates []string
	// IndexPath reads the index from disk instead of the network.
	IndexPath   string
	Interactive bool
	Layout      extract.Layout

	// Fetch
	UserAgent    string
	FetchTimeout time.Duration

	// Outputs
	JSONOut  string
	HTMLOut  string
	PDFOut   string
	FontPath string

	// Serve
	Listen         string
	PDFDir         string
	AllowedOrigins []string

	// Keywords and LLM
	Keywords   string
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	Verbose bool
}

// Defaults applied by DefaultConfig; ApplyFileConfig treats these as unset.
const (
	defaultBaseURL      = "http://localhost:5001/"
	defaultListen       = ":5001"
	defaultPDFDir       = "pdfs"
	defaultUserAgent    = "reportindex/1.0 (+https://github.com/hyperifyio/reportindex)"
	defaultFetchTimeout = 15 * time.Second
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		Listen:       defaultListen,
		PDFDir:       defaultPDFDir,
		UserAgent:    defaultUserAgent,
		FetchTimeout: defaultFetchTimeout,
		Layout:       extract.DefaultLayout,
	}
}
