package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"
	"qdrt_backend/pkg/monitoring"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Extraction strategies reported per ingested file.
const (
	StrategyText        = "text"
	StrategyHTML        = "html"
	StrategyPlaceholder = "placeholder"
	StrategySniffedText = "sniffed_text"
	StrategySkipped     = "skipped"
)

var errFileTooLarge = errors.New("file exceeds upload limit")

// SourceFile is one uploaded reference document.
type SourceFile interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// CorpusStore is the accumulating reference text.
type CorpusStore interface {
	Text() string
	Append(ctx context.Context, text string) string
	Replace(ctx context.Context, text string)
}

type IngestedFile struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Chars    int    `json:"chars"`
	Error    string `json:"error,omitempty"`
}

type IngestResult struct {
	Appended    string         `json:"appended"`
	CorpusChars int            `json:"corpusChars"`
	Files       []IngestedFile `json:"files"`
}

type CorpusService struct {
	corpus       CorpusStore
	maxFileBytes int64
	html         *md.Converter
}

func NewCorpusService(corpus CorpusStore, maxFileBytes int64) *CorpusService {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &CorpusService{
		corpus:       corpus,
		maxFileBytes: maxFileBytes,
		html:         converter,
	}
}

func (s *CorpusService) Text() string {
	return s.corpus.Text()
}

// Replace stores a manually edited corpus.
func (s *CorpusService) Replace(ctx context.Context, text string) {
	s.corpus.Replace(ctx, text)
}

func (s *CorpusService) Clear(ctx context.Context) {
	s.corpus.Replace(ctx, "")
}

// Ingest extracts text from every file, joins the pieces with a blank line in input order
// and appends them to the corpus. A file that cannot be read is skipped; it never fails the batch.
// PDF and word-processor files contribute a placeholder asking for manual conversion.
func (s *CorpusService) Ingest(ctx context.Context, files []SourceFile) IngestResult {
	result := IngestResult{Files: make([]IngestedFile, 0, len(files))}
	var pieces []string

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			result.Files = append(result.Files, IngestedFile{Name: f.Name(), Strategy: StrategySkipped, Error: err.Error()})
			continue
		}

		text, strategy, err := s.extract(f)
		entry := IngestedFile{Name: f.Name(), Strategy: strategy, Chars: len([]rune(text))}
		if err != nil {
			entry.Strategy = StrategySkipped
			entry.Error = err.Error()
			logger.Log.Warn("Failed to extract uploaded file",
				zap.String("file", f.Name()), zap.String("strategy", strategy), zap.Error(err))
		} else if text != "" {
			pieces = append(pieces, text)
		}
		monitoring.IngestedFiles.WithLabelValues(entry.Strategy).Inc()
		result.Files = append(result.Files, entry)
	}

	result.Appended = strings.Join(pieces, "\n\n")
	corpus := s.corpus.Text()
	if result.Appended != "" {
		corpus = s.corpus.Append(ctx, result.Appended)
	}
	result.CorpusChars = len([]rune(corpus))
	return result
}

func (s *CorpusService) extract(f SourceFile) (string, string, error) {
	name := f.Name()

	if util.HasExt(name, util.PlaceholderExtensions) {
		logger.Log.Info("No text extraction for this format, inserting placeholder", zap.String("file", name))
		return placeholderFor(name), StrategyPlaceholder, nil
	}

	data, err := s.read(f)
	if err != nil {
		return "", StrategySkipped, err
	}

	switch {
	case util.HasExt(name, util.PlainTextExtensions):
		return decodeText(data), StrategyText, nil
	case util.HasExt(name, util.HTMLExtensions):
		markdown, err := s.html.ConvertString(string(data))
		if err != nil {
			return "", StrategyHTML, fmt.Errorf("convert HTML: %w", err)
		}
		return strings.TrimSpace(markdown), StrategyHTML, nil
	}

	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return decodeText(data), StrategySniffedText, nil
		}
	}
	return "", StrategySkipped, fmt.Errorf("unsupported content type %s", mimetype.Detect(data).String())
}

func (s *CorpusService) read(f SourceFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if s.maxFileBytes <= 0 {
		return io.ReadAll(rc)
	}
	data, err := io.ReadAll(io.LimitReader(rc, s.maxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxFileBytes {
		return nil, errFileTooLarge
	}
	return data, nil
}

func placeholderFor(name string) string {
	kind := strings.ToUpper(strings.TrimPrefix(util.Ext(name), "."))
	return fmt.Sprintf("[%s file: %s - please convert to text manually]", kind, name)
}

func decodeText(data []byte) string {
	return strings.TrimPrefix(string(data), "\ufeff")
}
