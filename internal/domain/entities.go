package domain

// Category is the closed set of knowledge-base categories.
var Categories = []string{
	"fundamentos",
	"ibs-cbs",
	"regimes",
	"setores",
	"transicao",
	"incentivos",
	"faq",
}

// LegalCategories require legal citations in published documents.
var LegalCategories = map[string]bool{
	"ibs-cbs":   true,
	"regimes":   true,
	"transicao": true,
}

// IsCategory reports whether c belongs to the closed category set.
func IsCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusPublished = "published"
)

// FrontMatter is the YAML header of a knowledge-base document.
type FrontMatter struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Category     string   `yaml:"category" json:"category"`
	Tags         []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Sources      []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	LastVerified string   `yaml:"lastVerified,omitempty" json:"lastVerified,omitempty"`
	Status       string   `yaml:"status,omitempty" json:"status,omitempty"`
	Difficulty   string   `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Keywords     []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Related      []string `yaml:"related,omitempty" json:"related,omitempty"`
}

// EffectiveStatus returns the document status, treating an empty status as published.
func (f FrontMatter) EffectiveStatus() string {
	if f.Status == "" {
		return StatusPublished
	}
	return f.Status
}

// Metadata returns the front-matter fields copied onto every chunk.
func (f FrontMatter) Metadata() map[string]any {
	m := map[string]any{
		"description": f.Description,
		"status":      f.EffectiveStatus(),
	}
	if len(f.Tags) > 0 {
		m["tags"] = append([]string(nil), f.Tags...)
	}
	if len(f.Sources) > 0 {
		m["sources"] = append([]string(nil), f.Sources...)
	}
	if f.LastVerified != "" {
		m["lastVerified"] = f.LastVerified
	}
	if len(f.Keywords) > 0 {
		m["keywords"] = append([]string(nil), f.Keywords...)
	}
	if len(f.Related) > 0 {
		m["related"] = append([]string(nil), f.Related...)
	}
	return m
}

// Document is a parsed knowledge-base source file.
type Document struct {
	Path        string      `json:"path"`
	RelPath     string      `json:"relPath"`
	Category    string      `json:"category"`
	FrontMatter FrontMatter `json:"frontMatter"`
	Body        string      `json:"body"`
	Hash        string      `json:"hash"`
}

// ContentChunk is a retrieval-sized segment of a source document.
type ContentChunk struct {
	SourcePath    string         `json:"sourcePath"`
	Title         string         `json:"title"`
	SectionTitle  string         `json:"sectionTitle,omitempty"`
	Category      string         `json:"category"`
	Content       string         `json:"content"`
	ChunkIndex    int            `json:"chunkIndex"`
	ContentHash   string         `json:"contentHash"`
	Difficulty    string         `json:"difficulty,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	OverlapChars  int            `json:"overlapChars,omitempty"`
	TokenEstimate int            `json:"tokenEstimate"`
	Embedding     []float32      `json:"embedding,omitempty"`
}

// ChunkOptions controls chunk sizing.
type ChunkOptions struct {
	MaxTokens        int  `json:"maxTokens"`
	OverlapTokens    int  `json:"overlapTokens"`
	PreserveSections bool `json:"preserveSections"`
}

// DefaultChunkOptions returns the standard chunking options.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxTokens:        500,
		OverlapTokens:    50,
		PreserveSections: true,
	}
}

// ChunkingStats summarizes a chunking pass without building chunks.
type ChunkingStats struct {
	Sections    int     `json:"sections"`
	Merged      int     `json:"merged"`
	Chunks      int     `json:"chunks"`
	MinTokens   int     `json:"minTokens"`
	MaxTokens   int     `json:"maxTokens"`
	AvgTokens   float64 `json:"avgTokens"`
	TotalTokens int     `json:"totalTokens"`
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one problem found in a document.
type ValidationIssue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult groups hard errors and soft warnings for a document.
type ValidationResult struct {
	Path     string            `json:"path"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Valid reports whether the document has no hard errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}
