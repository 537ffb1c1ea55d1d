package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"reforma/internal/domain"
)

func paragraph(n int) string {
	return fmt.Sprintf("Parágrafo %d %s", n, strings.TrimSpace(strings.Repeat("palavra ", 48)))
}

func longText(words int) string {
	return strings.TrimSpace(strings.Repeat("texto ", words))
}

func testFrontMatter() domain.FrontMatter {
	return domain.FrontMatter{
		Title:      "Guia",
		Category:   "ibs-cbs",
		Difficulty: "basico",
		Tags:       []string{"cbs", "ibs"},
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"ção!", 1},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSectionedDocumentRespectsTokenBudget(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Guia da reforma\n\n")
	n := 0
	for s := 0; s < 6; s++ {
		if s > 0 {
			fmt.Fprintf(&b, "## Seção %d\n\n", s)
		}
		for p := 0; p < 10; p++ {
			b.WriteString(paragraph(n))
			b.WriteString("\n\n")
			n++
		}
	}
	content := b.String()
	if words := len(strings.Fields(content)); words < 3000 {
		t.Fatalf("fixture too small: %d words", words)
	}

	opts := domain.DefaultChunkOptions()
	chunks := ChunkContent(content, testFrontMatter(), "ibs-cbs/guia.md", "h1", opts)
	if len(chunks) < 6 {
		t.Fatalf("expected long sections to split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.TokenEstimate > opts.MaxTokens {
			t.Errorf("chunk %d has %d tokens, over %d", i, c.TokenEstimate, opts.MaxTokens)
		}
		if c.ContentHash != "h1" || c.SourcePath != "ibs-cbs/guia.md" {
			t.Errorf("chunk %d lost source identity: %+v", i, c)
		}
	}
	if chunks[1].SectionTitle != "Guia da reforma (part 2)" {
		t.Errorf("unexpected part title %q", chunks[1].SectionTitle)
	}

	again := ChunkContent(content, testFrontMatter(), "ibs-cbs/guia.md", "h1", opts)
	if !reflect.DeepEqual(chunks, again) {
		t.Error("re-chunking the same document changed the result")
	}
}

func TestSplitReconstructsSection(t *testing.T) {
	var paras []string
	for i := 0; i < 8; i++ {
		paras = append(paras, paragraph(i))
	}
	body := strings.Join(paras, "\n\n")
	opts := domain.ChunkOptions{MaxTokens: 250, OverlapTokens: 20, PreserveSections: true}

	chunks := ChunkContent(body, testFrontMatter(), "doc.md", "h", opts)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	if chunks[0].OverlapChars != 0 {
		t.Errorf("first chunk should carry no overlap, got %d", chunks[0].OverlapChars)
	}

	var parts []string
	for i, c := range chunks {
		r := []rune(c.Content)
		if i > 0 {
			if c.OverlapChars != 20*4+2 {
				t.Errorf("chunk %d overlap = %d", i, c.OverlapChars)
			}
			prev := []rune(chunks[i-1].Content)
			want := string(prev[len(prev)-80:]) + "\n\n"
			if string(r[:c.OverlapChars]) != want {
				t.Errorf("chunk %d overlap is not the previous suffix", i)
			}
		}
		parts = append(parts, string(r[c.OverlapChars:]))
	}
	if got := strings.Join(parts, "\n\n"); got != body {
		t.Errorf("reconstruction mismatch:\n%s\n---\n%s", got, body)
	}
}

func TestSplitDropsOverlapThatDoesNotFit(t *testing.T) {
	big := strings.TrimSpace(strings.Repeat("grande ", 60))
	body := big + "\n\n" + big
	opts := domain.ChunkOptions{MaxTokens: 110, OverlapTokens: 20}
	chunks := ChunkContent(body, testFrontMatter(), "doc.md", "h", opts)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].OverlapChars != 0 || chunks[1].Content != big {
		t.Errorf("expected overlap dropped for oversized paragraph, got %d", chunks[1].OverlapChars)
	}
}

func TestMergeShortSubsection(t *testing.T) {
	content := "# A\n" + longText(100) + "\n## B\ncurto\n## C\n" + longText(100)
	chunks := ChunkContent(content, testFrontMatter(), "doc.md", "h", domain.DefaultChunkOptions())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, "\n\n## B\ncurto") {
		t.Errorf("expected B merged into A, got %q", chunks[0].Content)
	}
	if chunks[0].SectionTitle != "A" || chunks[1].SectionTitle != "C" {
		t.Errorf("unexpected titles %q, %q", chunks[0].SectionTitle, chunks[1].SectionTitle)
	}
}

func TestMergeDoesNotPromoteShortHeading(t *testing.T) {
	content := "## A\n" + longText(100) + "\n# B\ncurto"
	chunks := ChunkContent(content, testFrontMatter(), "doc.md", "h", domain.DefaultChunkOptions())
	if len(chunks) != 2 {
		t.Fatalf("expected promotion to start a new chunk, got %d", len(chunks))
	}
	if chunks[1].SectionTitle != "B" || chunks[1].Content != "curto" {
		t.Errorf("unexpected second chunk %+v", chunks[1])
	}
}

func TestMergeShortAccumulatorAbsorbsAnyLevel(t *testing.T) {
	content := "## A\ncurto\n# B\n" + longText(100)
	chunks := ChunkContent(content, testFrontMatter(), "doc.md", "h", domain.DefaultChunkOptions())
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
	if chunks[0].SectionTitle != "A" {
		t.Errorf("accumulator should keep its title, got %q", chunks[0].SectionTitle)
	}
	if !strings.HasPrefix(chunks[0].Content, "curto\n\n# B\n") {
		t.Errorf("unexpected merged content %q", chunks[0].Content[:20])
	}

	untitled := "introdução curta\n# B\n" + longText(100)
	chunks = ChunkContent(untitled, testFrontMatter(), "doc.md", "h", domain.DefaultChunkOptions())
	if len(chunks) != 1 || chunks[0].SectionTitle != "B" {
		t.Errorf("untitled accumulator should adopt the next title, got %+v", chunks)
	}
}

func TestWithoutPreserveSectionsNothingMerges(t *testing.T) {
	content := "# A\ncurto\n## B\ntambém curto"
	opts := domain.ChunkOptions{MaxTokens: 500, OverlapTokens: 50}
	chunks := ChunkContent(content, testFrontMatter(), "doc.md", "h", opts)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	stats := GetChunkingStats(content, opts)
	if stats.Merged != 0 || stats.Sections != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestChunkMetadataFromFrontMatter(t *testing.T) {
	fm := testFrontMatter()
	chunks := ChunkContent("# A\n"+longText(150)+"\n# B\n"+longText(150), fm, "doc.md", "h", domain.DefaultChunkOptions())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.Title != "Guia" || c.Category != "ibs-cbs" || c.Difficulty != "basico" {
			t.Errorf("front matter not inherited: %+v", c)
		}
		if !reflect.DeepEqual(c.Metadata, fm.Metadata()) {
			t.Errorf("metadata mismatch: %v", c.Metadata)
		}
	}
	chunks[0].Metadata["tags"].([]string)[0] = "alterado"
	if chunks[1].Metadata["tags"].([]string)[0] != "cbs" {
		t.Error("chunks share metadata slices")
	}
}

func TestEmptyDocumentHasNoChunks(t *testing.T) {
	for _, content := range []string{"", "   \n\n", "# Só título"} {
		if chunks := ChunkContent(content, testFrontMatter(), "doc.md", "h", domain.DefaultChunkOptions()); len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %d", content, len(chunks))
		}
	}
}

func TestStatsMatchChunking(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		if i%4 == 0 {
			fmt.Fprintf(&b, "## Parte %d\n", i)
		}
		b.WriteString(paragraph(i) + "\n\n")
	}
	content := b.String()
	opts := domain.ChunkOptions{MaxTokens: 300, OverlapTokens: 30, PreserveSections: true}

	chunks := ChunkContent(content, testFrontMatter(), "doc.md", "h", opts)
	stats := GetChunkingStats(content, opts)

	if stats.Chunks != len(chunks) {
		t.Fatalf("stats report %d chunks, chunking produced %d", stats.Chunks, len(chunks))
	}
	total, lo, hi := 0, chunks[0].TokenEstimate, 0
	for _, c := range chunks {
		total += c.TokenEstimate
		if c.TokenEstimate < lo {
			lo = c.TokenEstimate
		}
		if c.TokenEstimate > hi {
			hi = c.TokenEstimate
		}
	}
	if stats.TotalTokens != total || stats.MinTokens != lo || stats.MaxTokens != hi {
		t.Errorf("stats %+v disagree with chunks (total %d, min %d, max %d)", stats, total, lo, hi)
	}
	if stats.Sections != 3 {
		t.Errorf("expected 3 sections, got %d", stats.Sections)
	}
}

func TestNewMarkdownChunkerValidatesOptions(t *testing.T) {
	bad := []domain.ChunkOptions{
		{MaxTokens: 0},
		{MaxTokens: 100, OverlapTokens: -1},
		{MaxTokens: 100, OverlapTokens: 100},
	}
	for _, opts := range bad {
		if _, err := NewMarkdownChunker(opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}

	c, err := NewMarkdownChunker(domain.DefaultChunkOptions())
	if err != nil {
		t.Fatal(err)
	}
	doc := domain.Document{RelPath: "faq/x.md", Hash: "abc", FrontMatter: testFrontMatter(), Body: longText(50)}
	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].SourcePath != "faq/x.md" || chunks[0].ContentHash != "abc" {
		t.Errorf("unexpected chunks %+v", chunks)
	}
	if c.Stats(doc).Chunks != 1 {
		t.Error("stats disagree with chunk")
	}
}
