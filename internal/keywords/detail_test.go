package keywords

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/reportindex/internal/fetch"
	"github.com/hyperifyio/reportindex/internal/report"
)

const detailPage = `<html><body>
<div class="breadcrumb"><a href="/">首页</a><a href="/hy">半导体</a><a href="/gg">中芯国际集团</a></div>
<h1>芯片行业深度</h1>
<h2>` + "\n  " + `CPI 与 PMI 展望  </h2>
<div class="report-title">估值修复：688981</div>
<div class="stock-name">这是一段超过五十个字符的说明文字，它不应该被当作标题处理，银行证券保险都在这里面出现了一次又一次的说明</div>
<span class="badge">光伏</span>
<p>医药 不在标题元素中</p>
</body></html>`

func TestFromDetailHTML(t *testing.T) {
	got := FromDetailHTML([]byte(detailPage), "text/html; charset=utf-8")
	want := report.Keywords{
		Stocks:     []string{"688981", "中芯国际集团"},
		Industries: []string{"芯片", "半导体", "光伏"},
		Strategies: []string{"展望", "估值"},
		Macro:      []string{"CPI", "PMI"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_LengthGates(t *testing.T) {
	kw := emptyKeywords()
	classify(strings.Repeat("银", 101), &kw)
	if len(kw.Industries) != 0 {
		t.Fatalf("text over 100 characters must be skipped, got %+v", kw)
	}
	classify("某某科技有限公司年度经营情况与未来三年发展规划说明", &kw)
	if len(kw.Stocks) != 0 {
		t.Fatalf("name over 20 characters is not a stock name, got %v", kw.Stocks)
	}
	classify("科技", &kw)
	if diff := cmp.Diff([]string{"科技"}, kw.Stocks); diff != "" {
		t.Fatalf("stocks mismatch (-want +got):\n%s", diff)
	}
}

func TestFromDetailHTML_GBK(t *testing.T) {
	// "<h1>银行</h1>" in GBK.
	body := []byte{'<', 'h', '1', '>', 0xd2, 0xf8, 0xd0, 0xd0, '<', '/', 'h', '1', '>'}
	got := FromDetailHTML(body, "text/html; charset=gbk")
	if diff := cmp.Diff([]string{"银行"}, got.Industries); diff != "" {
		t.Fatalf("industries mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	short := "半导体周报"
	if got := Summarize(short); got != short {
		t.Fatalf("short title changed: %q", got)
	}
	long := strings.Repeat("长", 120)
	got := Summarize(long)
	if got != strings.Repeat("长", 100)+"..." {
		t.Fatalf("unexpected summary %q", got)
	}
}

type mapGetter struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (g *mapGetter) Get(_ context.Context, u string) ([]byte, string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, u)
	g.mu.Unlock()
	p, ok := g.pages[u]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return []byte(p), "text/html", nil
}

func TestDetailEnricher_MergesAfterTitleKeywords(t *testing.T) {
	g := &mapGetter{pages: map[string]string{
		"https://r.example/1": `<h1>白酒 估值</h1><span class="tag">通胀</span>`,
	}}
	recs := []report.Record{
		{Info: report.Info{Title: "贵州茅台：估值展望", DetailURL: "https://r.example/1"}},
		{Info: report.Info{Title: "无详情", DetailURL: "https://r.example/missing"}},
		{Info: report.Info{Title: "本地页", DetailURL: "detail/3.html"}},
		{Info: report.Info{Title: "未标注", DetailURL: "https://r.example/1"}},
	}
	if err := Annotate(context.Background(), RuleTagger{}, recs[:3]); err != nil {
		t.Fatal(err)
	}
	d := &DetailEnricher{Getter: g}
	if err := d.Enrich(context.Background(), recs); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	want := report.Keywords{
		Stocks:     []string{},
		Industries: []string{"白酒"},
		Strategies: []string{"估值", "展望"},
		Macro:      []string{"通胀"},
	}
	if diff := cmp.Diff(want, *recs[0].Keywords); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
	if recs[3].Keywords != nil {
		t.Fatalf("untagged record must stay untagged")
	}
	if len(g.calls) != 2 {
		t.Fatalf("expected 2 fetches (relative and untagged skipped), got %v", g.calls)
	}
	if recs[0].Summary != "贵州茅台：估值展望" {
		t.Fatalf("unexpected summary %q", recs[0].Summary)
	}
}

func TestDetailEnricher_WithFetchClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<ul class="nav"><li><a>医药</a></li></ul>`))
	}))
	defer srv.Close()

	recs := []report.Record{{Info: report.Info{Title: "周报", DetailURL: srv.URL + "/d/1"}}}
	if err := Annotate(context.Background(), RuleTagger{}, recs); err != nil {
		t.Fatal(err)
	}
	d := &DetailEnricher{Getter: &fetch.Client{HTTPClient: srv.Client()}}
	if err := d.Enrich(context.Background(), recs); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if diff := cmp.Diff([]string{"医药"}, recs[0].Keywords.Industries); diff != "" {
		t.Fatalf("industries mismatch (-want +got):\n%s", diff)
	}
}

func TestDetailEnricher_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs := []report.Record{{Keywords: &report.Keywords{}, Info: report.Info{DetailURL: "https://r.example/1"}}}
	d := &DetailEnricher{Getter: &mapGetter{}}
	if err := d.Enrich(ctx, recs); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type typedGetter struct{ contentType string }

func (g typedGetter) Get(context.Context, string) ([]byte, string, error) {
	return []byte(`<h1>银行</h1>`), g.contentType, nil
}

func TestDetailEnricher_SkipsNonHTML(t *testing.T) {
	for name, tc := range map[string]struct {
		url, contentType string
	}{
		"pdf link":     {"https://r.example/a.PDF", "text/html"},
		"pdf response": {"https://r.example/d/1", "application/pdf"},
	} {
		t.Run(name, func(t *testing.T) {
			recs := []report.Record{{Keywords: &report.Keywords{}, Info: report.Info{DetailURL: tc.url}}}
			d := &DetailEnricher{Getter: typedGetter{contentType: tc.contentType}}
			if err := d.Enrich(context.Background(), recs); err != nil {
				t.Fatalf("enrich: %v", err)
			}
			if len(recs[0].Keywords.Industries) != 0 {
				t.Fatalf("expected no detail keywords, got %+v", recs[0].Keywords)
			}
		})
	}
}
