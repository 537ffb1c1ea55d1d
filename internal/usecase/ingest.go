package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"reforma/internal/adapter/frontmatter"
	"reforma/internal/adapter/fs"
	"reforma/internal/adapter/validator"
	"reforma/internal/domain"
	"reforma/internal/port"
)

var (
	// ErrValidationFailed is reported when at least one document was blocked by
	// validation errors.
	ErrValidationFailed = errors.New("content validation failed")

	// ErrNoEmbedder is returned when embeddings are required but no provider
	// is configured.
	ErrNoEmbedder = errors.New("no embedding provider configured")
)

// FileStatus is the outcome of ingesting one document.
type FileStatus string

const (
	StatusCreated   FileStatus = "created"
	StatusUpdated   FileStatus = "updated"
	StatusUnchanged FileStatus = "unchanged"
	StatusError     FileStatus = "error"
	StatusDeleted   FileStatus = "deleted"
)

// FileResult reports what happened to one document.
type FileResult struct {
	Path       string                   `json:"path"`
	Status     FileStatus               `json:"status"`
	Chunks     int                      `json:"chunks"`
	Message    string                   `json:"message,omitempty"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
}

// IngestOptions controls a single ingestion run.
type IngestOptions struct {
	DryRun bool
	Force  bool

	// Categories restricts the run to documents under these top-level
	// directories. Empty means all.
	Categories []string

	// Prune deletes stored sources whose file no longer exists.
	Prune bool

	// RequireEmbeddings fails the run up front when no embedder is set.
	RequireEmbeddings bool
}

// IngestResult aggregates the per-file outcomes of a run.
type IngestResult struct {
	Files            []FileResult `json:"files"`
	Created          int          `json:"created"`
	Updated          int          `json:"updated"`
	Unchanged        int          `json:"unchanged"`
	Errors           int          `json:"errors"`
	Deleted          int          `json:"deleted"`
	ValidationFailed int          `json:"validationFailed"`
	Warnings         int          `json:"warnings"`
	Chunks           int          `json:"chunks"`
	DryRun           bool         `json:"dryRun"`
}

// Err returns ErrValidationFailed when any document was blocked.
func (r *IngestResult) Err() error {
	if r.ValidationFailed > 0 {
		return fmt.Errorf("%w: %d document(s)", ErrValidationFailed, r.ValidationFailed)
	}
	return nil
}

func (r *IngestResult) add(f FileResult) {
	r.Files = append(r.Files, f)
	switch f.Status {
	case StatusCreated:
		r.Created++
	case StatusUpdated:
		r.Updated++
	case StatusUnchanged:
		r.Unchanged++
	case StatusError:
		r.Errors++
	case StatusDeleted:
		r.Deleted++
	}
	if f.Validation != nil {
		r.Warnings += len(f.Validation.Warnings)
	}
	if f.Status == StatusCreated || f.Status == StatusUpdated {
		r.Chunks += f.Chunks
	}
}

// ProgressFunc is called after each file with the number of files done so far.
type ProgressFunc func(done, total int, r FileResult)

// IngestUseCase walks a content tree and keeps the chunk store in sync with it.
type IngestUseCase struct {
	store      port.ChunkStore
	walker     port.FileWalker
	chunker    port.Chunker
	embedder   port.Embedder
	batchSize  int
	validation []validator.Option
	progress   ProgressFunc
	logger     *zap.Logger
}

type IngestOption func(*IngestUseCase)

func WithLogger(logger *zap.Logger) IngestOption {
	return func(u *IngestUseCase) { u.logger = logger }
}

// WithEmbedder sets the provider used for chunk embeddings. Without one,
// chunks are stored without vectors.
func WithEmbedder(e port.Embedder) IngestOption {
	return func(u *IngestUseCase) { u.embedder = e }
}

func WithBatchSize(n int) IngestOption {
	return func(u *IngestUseCase) {
		if n > 0 {
			u.batchSize = n
		}
	}
}

func WithValidatorOptions(opts ...validator.Option) IngestOption {
	return func(u *IngestUseCase) { u.validation = append(u.validation, opts...) }
}

func WithProgress(fn ProgressFunc) IngestOption {
	return func(u *IngestUseCase) { u.progress = fn }
}

// NewIngestUseCase creates a new ingestion use case.
func NewIngestUseCase(store port.ChunkStore, walker port.FileWalker, chunker port.Chunker, opts ...IngestOption) *IngestUseCase {
	u := &IngestUseCase{
		store:     store,
		walker:    walker,
		chunker:   chunker,
		batchSize: 20,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type parsedFile struct {
	info fs.FileInfo
	doc  domain.Document
	err  error
}

// Ingest processes every document under root, one file at a time.
func (u *IngestUseCase) Ingest(ctx context.Context, root string, opts IngestOptions) (*IngestResult, error) {
	if opts.RequireEmbeddings && u.embedder == nil && !opts.DryRun {
		return nil, ErrNoEmbedder
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })

	// Related references are checked against the whole tree, not the filtered set.
	known := make([]string, 0, len(files))
	for _, f := range files {
		known = append(known, f.RelPath)
	}
	v := validator.New(append(append([]validator.Option(nil), u.validation...), validator.WithKnownPaths(known))...)

	selected := categorySet(opts.Categories)
	var work []parsedFile
	for _, f := range files {
		if selected != nil && !selected[f.Category] {
			continue
		}
		work = append(work, u.parse(f))
	}

	result := &IngestResult{DryRun: opts.DryRun}
	seen := make(map[string]bool, len(work))
	for i, pf := range work {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		seen[pf.info.RelPath] = true
		fr := u.ingestFile(ctx, pf, v, opts)
		if fr.Status == StatusError && fr.Validation != nil && !fr.Validation.Valid() {
			result.ValidationFailed++
		}
		result.add(fr)
		if u.progress != nil {
			u.progress(i+1, len(work), fr)
		}
	}

	if opts.Prune && !opts.DryRun {
		if err := u.prune(ctx, seen, selected, result); err != nil {
			return result, err
		}
	}

	u.logger.Info("ingestion finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("errors", result.Errors),
		zap.Int("deleted", result.Deleted),
		zap.Bool("dry_run", opts.DryRun),
	)
	return result, nil
}

func (u *IngestUseCase) parse(f fs.FileInfo) parsedFile {
	raw, err := fs.ReadFile(f.Path)
	if err != nil {
		return parsedFile{info: f, err: fmt.Errorf("failed to read file: %w", err)}
	}
	doc, err := frontmatter.ParseDocument(f.Path, f.RelPath, f.Category, raw)
	return parsedFile{info: f, doc: doc, err: err}
}

func (u *IngestUseCase) ingestFile(ctx context.Context, pf parsedFile, v *validator.Validator, opts IngestOptions) FileResult {
	path := pf.info.RelPath
	log := u.logger.With(zap.String("path", path))

	if pf.err != nil {
		log.Error("unreadable document", zap.Error(pf.err))
		return FileResult{
			Path:    path,
			Status:  StatusError,
			Message: pf.err.Error(),
			Validation: &domain.ValidationResult{
				Path: path,
				Errors: []domain.ValidationIssue{{
					Field: "frontmatter", Message: pf.err.Error(), Severity: domain.SeverityError,
				}},
			},
		}
	}
	doc := pf.doc

	existing, found, err := u.store.GetExistingHash(ctx, path)
	if err != nil {
		log.Error("hash lookup failed", zap.Error(err))
		return FileResult{Path: path, Status: StatusError, Message: err.Error()}
	}
	if found && existing == doc.Hash && !opts.Force {
		log.Debug("unchanged")
		return FileResult{Path: path, Status: StatusUnchanged}
	}

	vr := v.Validate(doc)
	fr := FileResult{Path: path, Validation: &vr}
	if !vr.Valid() {
		if !opts.Force {
			log.Warn("validation failed", zap.Int("errors", len(vr.Errors)))
			fr.Status = StatusError
			fr.Message = fmt.Sprintf("validation failed: %s", joinIssues(vr.Errors))
			return fr
		}
		log.Warn("ingesting despite validation errors", zap.Int("errors", len(vr.Errors)))
	}

	chunks, err := u.chunker.Chunk(doc)
	if err != nil {
		fr.Status, fr.Message = StatusError, fmt.Sprintf("chunking failed: %v", err)
		return fr
	}
	if len(chunks) == 0 {
		fr.Status, fr.Message = StatusError, "document has no content to chunk"
		return fr
	}
	fr.Chunks = len(chunks)
	status := StatusCreated
	if found {
		status = StatusUpdated
	}

	if opts.DryRun {
		fr.Status = status
		return fr
	}

	if u.embedder != nil {
		if err := u.embed(ctx, chunks); err != nil {
			log.Error("embedding failed", zap.Error(err))
			fr.Status, fr.Message = StatusError, fmt.Sprintf("embedding failed: %v", err)
			return fr
		}
	}

	removed, err := u.replace(ctx, path, chunks)
	if err != nil {
		log.Error("store failed", zap.Error(err))
		fr.Status, fr.Message = StatusError, fmt.Sprintf("store failed: %v", err)
		return fr
	}
	log.Debug("stored", zap.Int("chunks", len(chunks)), zap.Int("replaced", removed))
	fr.Status = status
	return fr
}

// embed requests embeddings in sequential batches and attaches them in place.
func (u *IngestUseCase) embed(ctx context.Context, chunks []domain.ContentChunk) error {
	for start := 0; start < len(chunks); start += u.batchSize {
		end := min(start+u.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, embeddingText(c))
		}
		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("provider returned %d embeddings for %d texts", len(vectors), len(texts))
		}
		for i, vec := range vectors {
			chunks[start+i].Embedding = vec
		}
	}
	return nil
}

// embeddingText prefixes the chunk with its titles so short sections keep
// their context.
func embeddingText(c domain.ContentChunk) string {
	var b strings.Builder
	b.WriteString(c.Title)
	if c.SectionTitle != "" && c.SectionTitle != c.Title {
		b.WriteString(" > ")
		b.WriteString(c.SectionTitle)
	}
	b.WriteString("\n\n")
	b.WriteString(c.Content)
	return b.String()
}

func (u *IngestUseCase) replace(ctx context.Context, path string, chunks []domain.ContentChunk) (int, error) {
	if r, ok := u.store.(port.ChunkReplacer); ok {
		return r.ReplaceChunks(ctx, path, chunks)
	}
	n, err := u.store.DeleteChunks(ctx, path)
	if err != nil {
		return 0, err
	}
	return n, u.store.InsertChunks(ctx, chunks)
}

func (u *IngestUseCase) prune(ctx context.Context, seen, selected map[string]bool, result *IngestResult) error {
	lister, ok := u.store.(port.SourceLister)
	if !ok {
		u.logger.Debug("store cannot list sources, skipping prune")
		return nil
	}
	paths, err := lister.SourcePaths(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored sources: %w", err)
	}
	for _, p := range paths {
		if seen[p] {
			continue
		}
		if selected != nil && !selected[firstSegment(p)] {
			continue
		}
		n, err := u.store.DeleteChunks(ctx, p)
		if err != nil {
			result.add(FileResult{Path: p, Status: StatusError, Message: fmt.Sprintf("delete failed: %v", err)})
			continue
		}
		u.logger.Info("pruned vanished source", zap.String("path", p), zap.Int("chunks", n))
		result.add(FileResult{Path: p, Status: StatusDeleted, Chunks: n})
	}
	return nil
}

func categorySet(categories []string) map[string]bool {
	if len(categories) == 0 {
		return nil
	}
	m := make(map[string]bool, len(categories))
	for _, c := range categories {
		m[c] = true
	}
	return m
}

func firstSegment(p string) string {
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

func joinIssues(issues []domain.ValidationIssue) string {
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = is.Field + ": " + is.Message
	}
	return strings.Join(parts, "; ")
}
