package service

import (
	"context"
	"errors"
	"io"
	"qdrt_backend/internal/repository"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFile struct {
	name    string
	content string
	err     error
}

func (f memFile) Name() string { return f.name }

func (f memFile) Open() (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func newTestCorpusService(t *testing.T, maxBytes int64) (*CorpusService, *repository.CorpusRepository) {
	t.Helper()
	ctx := context.Background()
	corpus := repository.NewCorpusRepository(ctx, repository.NewMemoryStateStore(), "qdrt")
	return NewCorpusService(corpus, maxBytes), corpus
}

func TestIngest_TextAndPlaceholder(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 1<<20)

	result := svc.Ingest(context.Background(), []SourceFile{
		memFile{name: "notes.txt", content: "hello"},
		memFile{name: "report.pdf", content: "%PDF-1.7 binary"},
	})

	want := "hello\n\n[PDF file: report.pdf - please convert to text manually]"
	assert.Equal(t, want, result.Appended)
	assert.Equal(t, want, corpus.Text())
	require.Len(t, result.Files, 2)
	assert.Equal(t, StrategyText, result.Files[0].Strategy)
	assert.Equal(t, StrategyPlaceholder, result.Files[1].Strategy)
}

func TestIngest_AppendsToExistingCorpus(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 1<<20)
	ctx := context.Background()
	corpus.Replace(ctx, "existing")

	svc.Ingest(ctx, []SourceFile{memFile{name: "more.md", content: "# Heading"}})

	assert.Equal(t, "existing\n\n# Heading", corpus.Text())
}

func TestIngest_FailingFileDoesNotStopBatch(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 1<<20)

	result := svc.Ingest(context.Background(), []SourceFile{
		memFile{name: "broken.txt", err: errors.New("disk gone")},
		memFile{name: "ok.txt", content: "kept"},
		memFile{name: "proposal.docx", content: "PK"},
	})

	assert.Equal(t, "kept\n\n[DOCX file: proposal.docx - please convert to text manually]", corpus.Text())
	require.Len(t, result.Files, 3)
	assert.Equal(t, StrategySkipped, result.Files[0].Strategy)
	assert.Contains(t, result.Files[0].Error, "disk gone")
}

func TestIngest_HTMLBecomesMarkdown(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 1<<20)

	svc.Ingest(context.Background(), []SourceFile{
		memFile{name: "page.html", content: "<html><body><h1>Overview</h1><p>Some <strong>bold</strong> text.</p></body></html>"},
	})

	text := corpus.Text()
	assert.Contains(t, text, "# Overview")
	assert.Contains(t, text, "**bold**")
	assert.NotContains(t, text, "<p>")
}

func TestIngest_SniffsUnknownExtensions(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 1<<20)

	result := svc.Ingest(context.Background(), []SourceFile{
		memFile{name: "README", content: "plain words"},
		memFile{name: "image.bin", content: "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"},
	})

	assert.Equal(t, "plain words", corpus.Text())
	require.Len(t, result.Files, 2)
	assert.Equal(t, StrategySniffedText, result.Files[0].Strategy)
	assert.Equal(t, StrategySkipped, result.Files[1].Strategy)
}

func TestIngest_OversizedFileSkipped(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 4)

	result := svc.Ingest(context.Background(), []SourceFile{
		memFile{name: "big.txt", content: "too long"},
		memFile{name: "tiny.txt", content: "ok"},
	})

	assert.Equal(t, "ok", corpus.Text())
	assert.Equal(t, StrategySkipped, result.Files[0].Strategy)
}

func TestIngest_NothingExtractedLeavesCorpusAlone(t *testing.T) {
	svc, corpus := newTestCorpusService(t, 1<<20)
	ctx := context.Background()
	corpus.Replace(ctx, "existing")

	result := svc.Ingest(ctx, []SourceFile{memFile{name: "empty.txt", content: ""}})

	assert.Equal(t, "", result.Appended)
	assert.Equal(t, "existing", corpus.Text())
	assert.Equal(t, len("existing"), result.CorpusChars)
}

func TestCorpusService_ReplaceAndClear(t *testing.T) {
	svc, _ := newTestCorpusService(t, 1<<20)
	ctx := context.Background()

	svc.Replace(ctx, "edited by hand")
	assert.Equal(t, "edited by hand", svc.Text())

	svc.Clear(ctx)
	assert.Equal(t, "", svc.Text())
}
