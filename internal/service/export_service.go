package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"qdrt_backend/internal/checklist"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"
	"strconv"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Sheet1"

// Artifact is a rendered export ready for download.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

type PublishedArtifact struct {
	FileName string `json:"fileName"`
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int    `json:"size"`
}

type ExportService struct {
	schema  *checklist.Schema
	answers AnswerStore
	storage *StorageService
}

func NewExportService(schema *checklist.Schema, answers AnswerStore, storage *StorageService) *ExportService {
	return &ExportService{schema: schema, answers: answers, storage: storage}
}

// TabularRows is the header row followed by one row per question in ascending id order.
// Each answer column holds the stored value, else the default, else "".
func (s *ExportService) TabularRows() [][]string {
	questions := s.schema.QuestionsByID()
	answers := s.answers.All()

	rows := make([][]string, 0, len(questions)+1)
	rows = append(rows, append([]string(nil), s.schema.Columns...))
	for _, q := range questions {
		row := []string{strconv.Itoa(q.ID), q.Prompt}
		row = append(row, model.ResolveAnswer(q, answers[q.ID]).Values()...)
		rows = append(rows, row)
	}
	return rows
}

func (s *ExportService) Export(format string) (*Artifact, error) {
	switch format {
	case util.FormatXLSX:
		data, err := s.XLSX()
		if err != nil {
			return nil, err
		}
		return &Artifact{FileName: util.TabularFileBase + ".xlsx", ContentType: util.MimeXLSX, Data: data}, nil
	case util.FormatCSV:
		data, err := s.CSV()
		if err != nil {
			return nil, err
		}
		return &Artifact{FileName: util.TabularFileBase + ".csv", ContentType: util.MimeCSV, Data: data}, nil
	case util.FormatJSON:
		data, err := s.JSON()
		if err != nil {
			return nil, err
		}
		return &Artifact{FileName: util.InterchangeFile, ContentType: util.MimeJSON, Data: data}, nil
	}
	return nil, fmt.Errorf("%w: %q", util.ErrUnknownFormat, format)
}

// XLSX renders the tabular export as a single-sheet workbook. The id column is numeric.
func (s *ExportService) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range s.TabularRows() {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if i > 0 {
			if id, err := strconv.Atoi(row[0]); err == nil {
				cells[0] = id
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(exportSheet, "B", "B", 80); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "C", "H", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(s.TabularRows()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSON is the interchange export: the raw stored records keyed by question id, no defaults applied.
func (s *ExportService) JSON() ([]byte, error) {
	return json.MarshalIndent(s.answers.All(), "", "  ")
}

// Import replaces the whole answer set with an interchange document. Keys must be ids of known
// questions and records may only use answer field names. Enumerated values are normalized.
func (s *ExportService) Import(ctx context.Context, data []byte) (int, error) {
	var doc map[string]map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", util.ErrInvalidImport, err)
	}

	answers := make(model.Answers, len(doc))
	for key, fields := range doc {
		id, err := strconv.Atoi(key)
		if err != nil {
			return 0, fmt.Errorf("%w: key %q is not a question id", util.ErrInvalidImport, key)
		}
		if _, ok := s.schema.Question(id); !ok {
			return 0, fmt.Errorf("%w: question %d does not exist", util.ErrInvalidImport, id)
		}

		var rec model.AnswerRecord
		for name, raw := range fields {
			f, err := model.ParseField(name)
			if err != nil {
				return 0, fmt.Errorf("%w: question %d: %v", util.ErrInvalidImport, id, err)
			}
			if raw == nil {
				continue
			}
			value := coerceText(raw)
			if f.IsEnumerated() {
				value = NormalizeToOption(value, s.schema.Options(f))
			}
			rec = rec.With(f, value)
		}
		answers[id] = rec
	}

	s.answers.Replace(ctx, answers)
	logger.Log.Info("Imported answers", zap.Int("records", len(answers)))
	return len(answers), nil
}

// Publish renders an export and uploads it under a fresh directory of the artifact store.
func (s *ExportService) Publish(ctx context.Context, format string) (*PublishedArtifact, error) {
	artifact, err := s.Export(format)
	if err != nil {
		return nil, err
	}

	key, url, err := s.storage.Publish(ctx, uuid.NewString(), artifact.FileName, artifact.Data, artifact.ContentType)
	if err != nil {
		logger.Log.Error("Failed to publish export", zap.String("format", format), zap.Error(err))
		return nil, fmt.Errorf("publish export: %w", err)
	}

	return &PublishedArtifact{
		FileName: artifact.FileName,
		Key:      key,
		URL:      url,
		Size:     len(artifact.Data),
	}, nil
}
