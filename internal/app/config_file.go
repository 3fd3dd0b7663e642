package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"

    "github.com/hyperifyio/reportindex/internal/extract"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Source struct {
        BaseURL     string   `yaml:"baseURL" json:"baseURL"`
        Candidates  []string `yaml:"candidates" json:"candidates"`
        Index       string   `yaml:"index" json:"index"`
        Interactive bool     `yaml:"interactive" json:"interactive"`
    } `yaml:"source" json:"source"`

    Layout *extract.Layout `yaml:"layout" json:"layout"`

    Fetch struct {
        UserAgent string        `yaml:"userAgent" json:"userAgent"`
        Timeout   time.Duration `yaml:"timeout" json:"timeout"`
    } `yaml:"fetch" json:"fetch"`

    Output struct {
        JSON string `yaml:"json" json:"json"`
        HTML string `yaml:"html" json:"html"`
        PDF  string `yaml:"pdf" json:"pdf"`
        Font string `yaml:"font" json:"font"`
    } `yaml:"output" json:"output"`

    Serve struct {
        Listen  string   `yaml:"listen" json:"listen"`
        PDFDir  string   `yaml:"pdfDir" json:"pdfDir"`
        Origins []string `yaml:"origins" json:"origins"`
    } `yaml:"serve" json:"serve"`

    Keywords string `yaml:"keywords" json:"keywords"`

    LLM struct {
        BaseURL string `yaml:"base" json:"base"`
        Model   string `yaml:"model" json:"model"`
        APIKey  string `yaml:"key" json:"key"`
    } `yaml:"llm" json:"llm"`

    Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from fc onto cfg wherever cfg still holds
// its zero or default value, so explicit flags keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if (cfg.BaseURL == "" || cfg.BaseURL == defaultBaseURL) && fc.Source.BaseURL != "" { cfg.BaseURL = fc.Source.BaseURL }
    if len(cfg.Candidates) == 0 && len(fc.Source.Candidates) > 0 { cfg.Candidates = append([]string{}, fc.Source.Candidates...) }
    if cfg.IndexPath == "" && fc.Source.Index != "" { cfg.IndexPath = fc.Source.Index }
    if !cfg.Interactive && fc.Source.Interactive { cfg.Interactive = true }
    if fc.Layout != nil && cfg.Layout == extract.DefaultLayout { cfg.Layout = *fc.Layout }

    if (cfg.UserAgent == "" || cfg.UserAgent == defaultUserAgent) && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == defaultFetchTimeout) && fc.Fetch.Timeout > 0 { cfg.FetchTimeout = fc.Fetch.Timeout }

    if cfg.JSONOut == "" && fc.Output.JSON != "" { cfg.JSONOut = fc.Output.JSON }
    if cfg.HTMLOut == "" && fc.Output.HTML != "" { cfg.HTMLOut = fc.Output.HTML }
    if cfg.PDFOut == "" && fc.Output.PDF != "" { cfg.PDFOut = fc.Output.PDF }
    if cfg.FontPath == "" && fc.Output.Font != "" { cfg.FontPath = fc.Output.Font }

    if (cfg.Listen == "" || cfg.Listen == defaultListen) && fc.Serve.Listen != "" { cfg.Listen = fc.Serve.Listen }
    if (cfg.PDFDir == "" || cfg.PDFDir == defaultPDFDir) && fc.Serve.PDFDir != "" { cfg.PDFDir = fc.Serve.PDFDir }
    if len(cfg.AllowedOrigins) == 0 && len(fc.Serve.Origins) > 0 { cfg.AllowedOrigins = append([]string{}, fc.Serve.Origins...) }

    if cfg.Keywords == "" && fc.Keywords != "" { cfg.Keywords = fc.Keywords }
    if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if cfg.LLMModel == "" && fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
    if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }

    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig performs minimal validation of the settings every command
// relies on.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.BaseURL) == "" && strings.TrimSpace(cfg.IndexPath) == "" && !cfg.Interactive {
        return errors.New("config: a base URL, an index file or interactive mode is required")
    }
    if b := strings.TrimSpace(cfg.BaseURL); b != "" {
        u, err := url.Parse(b)
        if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
            return fmt.Errorf("config: invalid base URL %q", cfg.BaseURL)
        }
    }
    switch cfg.Keywords {
    case KeywordsOff, KeywordsRules, KeywordsDetail:
    case KeywordsLLM:
        if strings.TrimSpace(cfg.LLMModel) == "" {
            return errors.New("config: llm.model is required for llm keywords (or set LLM_MODEL)")
        }
    default:
        return fmt.Errorf("config: unknown keywords mode %q", cfg.Keywords)
    }
    if cfg.FetchTimeout < 0 {
        return errors.New("config: negative fetch timeout is not allowed")
    }
    return nil
}
