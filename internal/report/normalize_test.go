package report

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"http passthrough", "http://x/a.pdf", "http://x/a.pdf"},
		{"https passthrough keeps query", "https://x/a.pdf?v=1", "https://x/a.pdf?v=1"},
		{"site relative passthrough", "/a/b.pdf", "/a/b.pdf"},
		{"protocol relative treated as site relative", "//cdn/a.pdf", "//cdn/a.pdf"},
		{"windows path", `C:\reports\q3.pdf`, "/pdfs/q3.pdf"},
		{"unix relative path", "downloads/2024/q3.pdf", "/pdfs/q3.pdf"},
		{"mixed separators", `C:\data/reports\x.pdf`, "/pdfs/x.pdf"},
		{"separator strips query", "dir/report.pdf?v=2", "/pdfs/report.pdf"},
		{"bare filename", "q3.pdf", "/pdfs/q3.pdf"},
		{"trailing separator", "dir/", "/pdfs/"},
		{"uppercase scheme is not a network url", "HTTP://x/a.pdf", "/pdfs/a.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// A bare filename keeps its query string while a path with separators loses
// it. Existing index pages depend on this, so it is pinned here.
func TestNormalize_QueryAsymmetry(t *testing.T) {
	if got := Normalize("report.pdf?v=2"); got != "/pdfs/report.pdf?v=2" {
		t.Fatalf("bare filename: got %q", got)
	}
	if got := Normalize("x/report.pdf?v=2"); got != "/pdfs/report.pdf" {
		t.Fatalf("with separator: got %q", got)
	}
	if got := Normalize(`x\report.pdf?v=2`); got != "/pdfs/report.pdf" {
		t.Fatalf("with backslash: got %q", got)
	}
}

func TestFilenameOf(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://host/path/file.pdf?x=1", "file.pdf"},
		{"http://host/a%20b.pdf", "a%20b.pdf"},
		{"https://host/", DefaultFilename},
		{"https://host", DefaultFilename},
		{"rel/dir/doc.pdf", "doc.pdf"},
		{"rel/dir/", "dir"},
		{`C:\reports\q3.pdf`, "q3.pdf"},
		{"C:/reports/q3.pdf", "q3.pdf"},
		{"plain.pdf", "plain.pdf"},
		{"", DefaultFilename},
		{"///", DefaultFilename},
		{"javascript:alert(1)", "alert(1)"},
		{"mailto:desk@example.com", "desk@example.com"},
		{"data:application/pdf;base64,JVBE", "pdf;base64,JVBE"},
		{"urn:x:", "x:"},
		{`D:reports\q3.pdf`, "q3.pdf"},
	}
	for _, tc := range cases {
		if got := FilenameOf(tc.in); got != tc.want {
			t.Fatalf("FilenameOf(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	inputs := []string{"", "https://x/a.pdf", "/a/b.pdf", `C:\r\q.pdf?v=1`, "q.pdf"}
	for i := 0; i < b.N; i++ {
		_ = Normalize(inputs[i%len(inputs)])
	}
}
