package report

import "strings"

// Type is the coarse category assigned to a report from its section heading.
type Type string

const (
	TypeStrategy Type = "strategy"
	TypeIndustry Type = "industry"
	TypeMacro    Type = "macro"
	TypeStock    Type = "stock"
	TypeUnknown  Type = "unknown"
)

// UnknownDate is used when an item carries no date element.
const UnknownDate = "未知日期"

// Info describes the report itself, independent of how it is served.
type Info struct {
	Title      string `json:"title"`
	Date       string `json:"date"`
	DetailURL  string `json:"detail_url"`
	ReportType Type   `json:"report_type"`
}

// Keywords groups title keywords by category. Populated only by a tagger.
type Keywords struct {
	Stocks     []string `json:"stocks"`
	Industries []string `json:"industries"`
	Strategies []string `json:"strategies"`
	Macro      []string `json:"macro"`
}

// Record is one parsed entry of a report index.
type Record struct {
	// URL is the normalized, browser-accessible link. Never empty.
	URL string `json:"url"`
	// OriginalURL is the link exactly as found in the source document.
	OriginalURL string    `json:"originalUrl"`
	Filename    string    `json:"filename"`
	Info        Info      `json:"report_info"`
	Keywords    *Keywords `json:"keywords,omitempty"`
	// Summary is the title shortened for listings. Set with Keywords.
	Summary string `json:"summary,omitempty"`
}

// Rule maps a heading substring to a report type.
type Rule struct {
	Substring string
	Type      Type
}

// rules are evaluated top to bottom; headings often contain more than one
// keyword, so order decides the tag.
var rules = []Rule{
	{Substring: "策略", Type: TypeStrategy},
	{Substring: "行业", Type: TypeIndustry},
	{Substring: "宏观", Type: TypeMacro},
	{Substring: "个股", Type: TypeStock},
}

// ClassificationRules returns a copy of the ordered classification table.
func ClassificationRules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the type of the first rule whose substring occurs in
// heading, or TypeUnknown.
func Classify(heading string) Type {
	for _, r := range rules {
		if strings.Contains(heading, r.Substring) {
			return r.Type
		}
	}
	return TypeUnknown
}

// Types lists every report type in display order.
func Types() []Type {
	return []Type{TypeStrategy, TypeIndustry, TypeMacro, TypeStock, TypeUnknown}
}

// ParseType maps a tag such as "macro" to its Type. Unrecognized tags map
// to TypeUnknown.
func ParseType(s string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeStrategy, TypeIndustry, TypeMacro, TypeStock:
		return t
	}
	return TypeUnknown
}

// LookupType is ParseType that also reports whether s names a type,
// "unknown" included.
func LookupType(s string) (Type, bool) {
	t := ParseType(s)
	if t == TypeUnknown && Type(strings.ToLower(strings.TrimSpace(s))) != TypeUnknown {
		return TypeUnknown, false
	}
	return t, true
}

// DisplayName is the section heading used when generating an index page.
// Each name classifies back to its own type.
func DisplayName(t Type) string {
	switch t {
	case TypeStrategy:
		return "策略报告"
	case TypeIndustry:
		return "行业研报"
	case TypeMacro:
		return "宏观研究"
	case TypeStock:
		return "个股研报"
	}
	return "其他报告"
}

// Filter returns the records tagged with t, preserving order.
func Filter(records []Record, t Type) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Info.ReportType == t {
			out = append(out, r)
		}
	}
	return out
}
