package app

import (
    "os"
    "strings"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Env takes precedence over the config file; flags are applied later
// and stay highest.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("REPORTS_BASE_URL"); v != "" { cfg.BaseURL = v }
    if v := os.Getenv("REPORTS_INDEX"); v != "" { cfg.IndexPath = v }
    if v := os.Getenv("REPORTS_PDF_DIR"); v != "" { cfg.PDFDir = v }
    if v := os.Getenv("REPORTS_LISTEN"); v != "" { cfg.Listen = v }

    if v := os.Getenv("LLM_BASE_URL"); v != "" { cfg.LLMBaseURL = v }
    if v := os.Getenv("LLM_MODEL"); v != "" { cfg.LLMModel = v }
    if v := os.Getenv("LLM_API_KEY"); v != "" { cfg.LLMAPIKey = v }

    if s := strings.ToLower(strings.TrimSpace(os.Getenv("VERBOSE"))); s != "" {
        switch s {
        case "1", "true", "yes", "on":
            cfg.Verbose = true
        case "0", "false", "no", "off":
            cfg.Verbose = false
        }
    }
}
