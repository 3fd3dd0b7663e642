package keywords

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/reportindex/internal/report"
)

// Tagger derives keywords from a report title.
type Tagger interface {
	Tag(ctx context.Context, title string) (report.Keywords, error)
}

var (
	industryKeywords = []string{
		"银行", "证券", "保险", "金融", "地产", "房地产", "建筑", "建材",
		"钢铁", "有色", "煤炭", "石油", "化工", "电力", "新能源", "光伏",
		"风电", "核电", "汽车", "新能源车", "电动车", "医药", "生物", "医疗",
		"消费", "食品", "饮料", "白酒", "零售", "电商", "互联网", "科技",
		"电子", "半导体", "芯片", "通信", "5G", "人工智能", "AI", "大数据",
		"云计算", "软件", "游戏", "传媒", "教育", "旅游", "航空", "物流",
		"农业", "养殖", "环保", "公用事业", "交通运输", "机械", "军工",
	}
	strategyKeywords = []string{
		"配置", "估值", "投资", "策略", "配置建议", "投资策略", "市场",
		"行情", "趋势", "展望", "预测", "分析", "研究", "报告", "观点",
		"机会", "风险", "建议", "推荐", "评级", "目标价", "买入", "卖出",
		"持有", "增持", "减持", "中性", "看好", "看空",
	}
	macroKeywords = []string{
		"GDP", "CPI", "PPI", "通胀", "通缩", "利率", "汇率", "货币政策",
		"财政政策", "经济", "宏观", "宏观研究", "宏观经济", "经济数据",
		"PMI", "就业", "失业", "消费", "投资", "出口", "进口", "贸易",
		"财政", "债务", "赤字", "流动性", "信贷", "M2", "社融",
	}
	// Markers that make the text before a colon look like a company name.
	companyMarkers = []string{
		"股份", "集团", "公司", "有限", "科技", "发展", "实业", "投资",
		"控股", "股份公司", "A股", "H股",
	}
	digitRun = regexp.MustCompile(`[0-9]+`)
)

// RuleTagger matches titles against fixed keyword lists.
type RuleTagger struct{}

func (RuleTagger) Tag(_ context.Context, title string) (report.Keywords, error) {
	return FromTitle(title), nil
}

// FromTitle extracts six-digit stock codes, industry, strategy and macro
// keywords in list order, and a company name preceding a colon.
func FromTitle(title string) report.Keywords {
	kw := emptyKeywords()
	if title == "" {
		return kw
	}
	matchLists(title, &kw)
	if i := strings.IndexAny(title, ":："); i >= 0 {
		name := strings.TrimSpace(title[:i])
		if name != "" && containsAny(name, companyMarkers) {
			kw.Stocks = appendUnique(kw.Stocks, name)
		}
	}
	return kw
}

// matchLists adds stock codes and list keywords found in text to kw.
func matchLists(text string, kw *report.Keywords) {
	for _, run := range digitRun.FindAllString(text, -1) {
		if len(run) == 6 {
			kw.Stocks = appendUnique(kw.Stocks, run)
		}
	}
	for _, k := range industryKeywords {
		if strings.Contains(text, k) {
			kw.Industries = appendUnique(kw.Industries, k)
		}
	}
	for _, k := range strategyKeywords {
		if strings.Contains(text, k) {
			kw.Strategies = appendUnique(kw.Strategies, k)
		}
	}
	lower := strings.ToLower(text)
	for _, k := range macroKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			kw.Macro = appendUnique(kw.Macro, k)
		}
	}
}

// Summarize shortens a title to at most 100 characters plus an ellipsis.
func Summarize(title string) string {
	const max = 100
	r := []rune(title)
	if len(r) <= max {
		return title
	}
	return string(r[:max]) + "..."
}

// Annotate tags every record in place and sets its summary. A tagging
// failure leaves that record without keywords; records are never dropped.
func Annotate(ctx context.Context, t Tagger, records []report.Record) error {
	if t == nil {
		return nil
	}
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		records[i].Summary = Summarize(records[i].Info.Title)
		kw, err := t.Tag(ctx, records[i].Info.Title)
		if err != nil {
			log.Warn().Err(err).Str("title", records[i].Info.Title).Msg("keyword tagging failed")
			continue
		}
		records[i].Keywords = &kw
	}
	return nil
}

func emptyKeywords() report.Keywords {
	return report.Keywords{Stocks: []string{}, Industries: []string{}, Strategies: []string{}, Macro: []string{}}
}

// merge appends the entries of extra missing from kw, keeping kw's order.
func merge(kw *report.Keywords, extra report.Keywords) {
	for _, s := range extra.Stocks {
		kw.Stocks = appendUnique(kw.Stocks, s)
	}
	for _, s := range extra.Industries {
		kw.Industries = appendUnique(kw.Industries, s)
	}
	for _, s := range extra.Strategies {
		kw.Strategies = appendUnique(kw.Strategies, s)
	}
	for _, s := range extra.Macro {
		kw.Macro = appendUnique(kw.Macro, s)
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
