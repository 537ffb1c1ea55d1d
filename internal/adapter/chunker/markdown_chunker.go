package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"reforma/internal/domain"
)

// minSectionTokens is the size below which a section is merged into a neighbour.
const minSectionTokens = 100

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	paragraphRe = regexp.MustCompile(`\n[ \t]*\n`)
)

// EstimateTokens approximates the token count as ceil(chars / 4).
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

type section struct {
	title   string
	level   int
	content string
}

type piece struct {
	title   string
	content string
	overlap int
}

// MarkdownChunker splits knowledge-base documents along their heading structure.
type MarkdownChunker struct {
	opts domain.ChunkOptions
}

func NewMarkdownChunker(opts domain.ChunkOptions) (*MarkdownChunker, error) {
	if opts.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", opts.MaxTokens)
	}
	if opts.OverlapTokens < 0 || opts.OverlapTokens >= opts.MaxTokens {
		return nil, fmt.Errorf("overlap tokens must be in [0, %d), got %d", opts.MaxTokens, opts.OverlapTokens)
	}
	return &MarkdownChunker{opts: opts}, nil
}

func (c *MarkdownChunker) Options() domain.ChunkOptions {
	return c.opts
}

func (c *MarkdownChunker) Chunk(doc domain.Document) ([]domain.ContentChunk, error) {
	return ChunkContent(doc.Body, doc.FrontMatter, doc.RelPath, doc.Hash, c.opts), nil
}

func (c *MarkdownChunker) Stats(doc domain.Document) domain.ChunkingStats {
	return GetChunkingStats(doc.Body, c.opts)
}

// ChunkContent splits a document body into chunks. Every chunk carries the
// source hash and the front-matter metadata unchanged.
func ChunkContent(content string, fm domain.FrontMatter, filePath, contentHash string, opts domain.ChunkOptions) []domain.ContentChunk {
	pieces, _, _ := pipeline(content, fm.Title, opts)

	chunks := make([]domain.ContentChunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, domain.ContentChunk{
			SourcePath:    filePath,
			Title:         fm.Title,
			SectionTitle:  p.title,
			Category:      fm.Category,
			Content:       p.content,
			ChunkIndex:    i,
			ContentHash:   contentHash,
			Difficulty:    fm.Difficulty,
			Metadata:      fm.Metadata(),
			OverlapChars:  p.overlap,
			TokenEstimate: EstimateTokens(p.content),
		})
	}
	return chunks
}

// GetChunkingStats runs the chunking pipeline and reports sizes only.
func GetChunkingStats(content string, opts domain.ChunkOptions) domain.ChunkingStats {
	pieces, sections, merged := pipeline(content, "", opts)

	stats := domain.ChunkingStats{Sections: sections, Merged: merged, Chunks: len(pieces)}
	for i, p := range pieces {
		n := EstimateTokens(p.content)
		stats.TotalTokens += n
		if i == 0 || n < stats.MinTokens {
			stats.MinTokens = n
		}
		if n > stats.MaxTokens {
			stats.MaxTokens = n
		}
	}
	if len(pieces) > 0 {
		stats.AvgTokens = float64(stats.TotalTokens) / float64(len(pieces))
	}
	return stats
}

// pipeline returns the final pieces plus the parsed and merged section
// counts. Untitled sections take docTitle.
func pipeline(content, docTitle string, opts domain.ChunkOptions) ([]piece, int, int) {
	sections := parseSections(content)
	parsed := len(sections)
	merged := 0
	if opts.PreserveSections {
		sections, merged = mergeSections(sections)
	}

	var pieces []piece
	for _, s := range sections {
		if s.title == "" {
			s.title = docTitle
		}
		for i, p := range splitSection(s, opts) {
			if i > 0 {
				p.title = fmt.Sprintf("%s (part %d)", p.title, i+1)
			}
			pieces = append(pieces, p)
		}
	}
	return pieces, parsed, merged
}

func parseSections(content string) []section {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var sections []section
	current := section{}
	var lines []string

	flush := func() {
		current.content = strings.TrimSpace(strings.Join(lines, "\n"))
		if current.title != "" || current.content != "" {
			sections = append(sections, current)
		}
		lines = lines[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = section{title: strings.TrimSpace(m[2]), level: len(m[1])}
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return sections
}

// mergeSections folds short sections into the previous accumulated one in a
// single pass. A short section merges when its level is not a promotion; a
// short accumulator absorbs the next section regardless of level and takes
// its title only when it had none.
func mergeSections(sections []section) ([]section, int) {
	var out []section
	merged := 0
	for _, s := range sections {
		if len(out) == 0 {
			out = append(out, s)
			continue
		}
		prev := &out[len(out)-1]
		if EstimateTokens(s.content) < minSectionTokens && s.level >= prev.level {
			prev.content = appendSection(prev.content, s)
			merged++
			continue
		}
		if EstimateTokens(prev.content) < minSectionTokens {
			prev.content = appendSection(prev.content, s)
			if prev.title == "" {
				prev.title = s.title
			}
			merged++
			continue
		}
		out = append(out, s)
	}
	return out, merged
}

func appendSection(acc string, s section) string {
	text := s.content
	if s.title != "" {
		heading := strings.Repeat("#", s.level) + " " + s.title
		if text == "" {
			text = heading
		} else {
			text = heading + "\n" + text
		}
	}
	switch {
	case acc == "":
		return text
	case text == "":
		return acc
	default:
		return acc + "\n\n" + text
	}
}

func splitSection(s section, opts domain.ChunkOptions) []piece {
	if s.content == "" {
		return nil
	}
	if EstimateTokens(s.content) <= opts.MaxTokens {
		return []piece{{title: s.title, content: s.content}}
	}

	var out []piece
	acc, overlap, hasBody := "", 0, false
	for _, para := range splitParagraphs(s.content) {
		if !hasBody {
			acc, hasBody = para, true
			continue
		}
		candidate := acc + "\n\n" + para
		if EstimateTokens(candidate) <= opts.MaxTokens {
			acc = candidate
			continue
		}
		out = append(out, piece{title: s.title, content: acc, overlap: overlap})

		acc, overlap = para, 0
		if opts.OverlapTokens > 0 {
			prefix := tail(out[len(out)-1].content, opts.OverlapTokens*4) + "\n\n"
			if EstimateTokens(prefix+para) <= opts.MaxTokens {
				acc, overlap = prefix+para, utf8.RuneCountInString(prefix)
			}
		}
	}
	if hasBody {
		out = append(out, piece{title: s.title, content: acc, overlap: overlap})
	}
	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
