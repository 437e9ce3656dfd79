package prefixindex

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/gcbaptista/go-prefix-index/config"
	"github.com/gcbaptista/go-prefix-index/internal/errors"
	"github.com/gcbaptista/go-prefix-index/internal/persistence"
	"github.com/gcbaptista/go-prefix-index/model"
)

// ProgressFunc receives the share of the corpus scanned so far, 0 to 100.
type ProgressFunc func(percent int)

// Option configures a Builder.
type Option func(*Builder)

// WithProgress replaces the default progress reporter. A nil fn disables reporting.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) {
		b.progress = fn
	}
}

// WithSizeHint preallocates the corpus buffer.
func WithSizeHint(n int) Option {
	return func(b *Builder) {
		b.corpus = NewCorpus(n)
	}
}

// Builder accumulates documents and produces the fulltext, index and suffixes outputs.
// AddDocument calls must all happen before the single Finish call.
type Builder struct {
	settings config.BuildSettings
	corpus   *Corpus
	progress ProgressFunc
	finished bool
}

// NewBuilder creates a Builder. Defaults are applied to a copy of settings before validation.
func NewBuilder(settings config.BuildSettings, opts ...Option) (*Builder, error) {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, errors.NewValidationError("settings", fmt.Sprintf("%v", problems))
	}

	b := &Builder{
		settings: settings,
		corpus:   NewCorpus(0),
		progress: logProgress,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func logProgress(percent int) {
	log.Printf("Extracting suffixes: %3d%%", percent)
}

// Settings returns the effective settings.
func (b *Builder) Settings() config.BuildSettings {
	return b.settings
}

// Corpus exposes the underlying corpus, mainly for inspection after Finish.
func (b *Builder) Corpus() *Corpus {
	return b.corpus
}

// AddDocument appends one document to the corpus.
func (b *Builder) AddDocument(name, text string) error {
	if b.finished {
		return errors.ErrCorpusFrozen
	}
	return b.corpus.Append(name, text)
}

// Finish freezes the corpus and writes all three outputs. Outputs are staged and
// moved into place as one unit once every one of them has been written. If
// writing or moving any of them fails, the previous outputs are left in place.
func (b *Builder) Finish(ctx context.Context) (*model.BuildStats, error) {
	if b.finished {
		return nil, errors.ErrCorpusFrozen
	}
	b.finished = true
	b.corpus.Freeze()

	start := time.Now()
	buf := b.corpus.Bytes()
	if uint64(len(buf)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", errors.ErrCorpusTooLarge, len(buf))
	}

	fulltext, err := persistence.Stage(b.settings.FulltextPath())
	if err != nil {
		return nil, errors.NewOutputError(b.settings.FulltextPath(), err)
	}
	staged := []*persistence.StagedFile{fulltext}
	committed := false
	defer func() {
		if committed {
			return
		}
		for _, s := range staged {
			s.Abort()
		}
	}()

	if err := WriteFulltext(fulltext, buf); err != nil {
		return nil, errors.NewOutputError(fulltext.Path(), err)
	}

	offsets, stats, err := b.extract(ctx, buf)
	if err != nil {
		return nil, err
	}
	log.Printf("Suffixes: %d", len(offsets))

	sortStart := time.Now()
	SortSuffixes(buf, offsets, b.settings.MaxPrefix)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index, err := persistence.Stage(b.settings.IndexPath())
	if err != nil {
		return nil, errors.NewOutputError(b.settings.IndexPath(), err)
	}
	staged = append(staged, index)
	if err := WriteIndex(index, offsets, b.settings.BatchSize); err != nil {
		return nil, errors.NewOutputError(index.Path(), err)
	}

	suffixes, err := persistence.Stage(b.settings.SuffixesPath())
	if err != nil {
		return nil, errors.NewOutputError(b.settings.SuffixesPath(), err)
	}
	staged = append(staged, suffixes)
	if err := WriteSuffixes(suffixes, buf, offsets, b.settings.MaxPrefix); err != nil {
		return nil, errors.NewOutputError(suffixes.Path(), err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// CommitAll cleans up every temporary itself, on success and on failure.
	committed = true
	if err := persistence.CommitAll(staged...); err != nil {
		var commitErr *persistence.CommitError
		if stderrors.As(err, &commitErr) {
			return nil, errors.NewOutputError(commitErr.Path, commitErr.Err)
		}
		return nil, errors.NewOutputError(b.settings.OutputDir, err)
	}

	stats.Suffixes = len(offsets)
	stats.SortTime = time.Since(sortStart)
	stats.Elapsed = time.Since(start)
	log.Printf("Processed in %.3f seconds", stats.SortTime.Seconds())
	return stats, nil
}

// extract re-scans the frozen corpus and collects the anchors of every segment.
func (b *Builder) extract(ctx context.Context, buf []byte) ([]uint32, *model.BuildStats, error) {
	stats := &model.BuildStats{
		Documents:   b.corpus.Documents(),
		CorpusBytes: len(buf),
	}

	var offsets []uint32
	scanner := NewSegmentScanner(buf)
	count := 0
	for scanner.Scan() {
		seg := scanner.Segment()
		for _, off := range FindSuffixes(seg.Text, seg.Start) {
			offsets = append(offsets, uint32(off))
		}
		stats.Segments++

		count++
		if b.settings.ProgressEvery > 0 && count == b.settings.ProgressEvery {
			count = 0
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if b.progress != nil {
				b.progress(100 * scanner.Pos() / len(buf))
			}
		}
	}

	if trailing := scanner.Trailing(); len(trailing) > 0 {
		stats.TrailingBytes = len(trailing)
		log.Printf("Warning: %d bytes after the last boundary marker at offset %d have no marker; their suffixes are dropped", len(trailing), scanner.Pos())
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return offsets, stats, nil
}
