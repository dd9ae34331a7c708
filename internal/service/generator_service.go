package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"qdrt_backend/internal/checklist"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"
	"qdrt_backend/pkg/monitoring"
	"qdrt_backend/pkg/tracing"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// maxFallbackAttempts bounds how many '{' positions are tried when the reply is not pure JSON.
const maxFallbackAttempts = 64

// AnswerStore is the answer set the generator and the review endpoints write to.
type AnswerStore interface {
	Get(id int) model.AnswerRecord
	Set(ctx context.Context, id int, patch model.AnswerRecord)
	Clear(ctx context.Context, id int)
	All() model.Answers
	Replace(ctx context.Context, answers model.Answers)
}

// Completer is a chat completion backend.
type Completer interface {
	Configured() bool
	Model() string
	Complete(ctx context.Context, messages []AIChatMessage, temperature float64) (string, error)
}

type GeneratorService struct {
	// mu serializes generation so at most one completion request is in flight.
	mu sync.Mutex

	schema          *checklist.Schema
	answers         AnswerStore
	corpus          CorpusStore
	ai              Completer
	maxContextChars int
}

func NewGeneratorService(schema *checklist.Schema, answers AnswerStore, corpus CorpusStore, ai Completer, maxContextChars int) *GeneratorService {
	return &GeneratorService{
		schema:          schema,
		answers:         answers,
		corpus:          corpus,
		ai:              ai,
		maxContextChars: maxContextChars,
	}
}

// QuestionFailure is one failed item of a batch.
type QuestionFailure struct {
	QuestionID int    `json:"questionId"`
	Error      string `json:"error"`
}

// BatchReport summarizes a GenerateAll run.
type BatchReport struct {
	Total     int               `json:"total"`
	Succeeded []int             `json:"succeeded"`
	Failed    []QuestionFailure `json:"failed"`
	Cancelled bool              `json:"cancelled"`
	Aborted   string            `json:"aborted,omitempty"`
}

// GenerateOne asks the completion service to answer one question and stores the normalized result.
func (s *GeneratorService) GenerateOne(ctx context.Context, questionID int) (model.AnswerRecord, error) {
	q, ok := s.schema.Question(questionID)
	if !ok {
		return model.AnswerRecord{}, util.ErrQuestionNotFound
	}
	if !s.ai.Configured() {
		return model.AnswerRecord{}, util.ErrAIKeyMissing
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generate(ctx, q)
}

// GenerateAll answers every question in declared order, one request at a time.
// A failed question is recorded and the batch moves on. A missing API key aborts before any request;
// a key removed by a config reload mid-batch stops the run with Aborted set.
// Cancelling ctx stops the batch between questions; answers already written are kept.
func (s *GeneratorService) GenerateAll(ctx context.Context) (*BatchReport, error) {
	if !s.ai.Configured() {
		return nil, util.ErrAIKeyMissing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracing.Tracer.Start(ctx, "qdrt.generate_all")
	defer span.End()

	questions := s.schema.Questions()
	report := runSequential(ctx, questions, func(ctx context.Context, q model.Question) error {
		_, err := s.generate(ctx, q)
		return err
	})

	span.SetAttributes(
		attribute.Int("qdrt.total", report.Total),
		attribute.Int("qdrt.failed", len(report.Failed)),
		attribute.Bool("qdrt.cancelled", report.Cancelled),
	)
	logger.Log.Info("Batch generation finished",
		zap.String("model", s.ai.Model()),
		zap.Int("total", report.Total),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
		zap.Bool("cancelled", report.Cancelled),
		zap.String("aborted", report.Aborted))

	return report, nil
}

// runSequential drives one task per question, strictly in order and never overlapping.
// Failures are isolated to their own question. Only the batch context cancels the run;
// a request that timed out on its own is an ordinary failure. A missing API key aborts the rest.
func runSequential(ctx context.Context, questions []model.Question, run func(context.Context, model.Question) error) *BatchReport {
	report := &BatchReport{
		Total:     len(questions),
		Succeeded: []int{},
		Failed:    []QuestionFailure{},
	}

	for _, q := range questions {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		err := run(ctx, q)
		if err == nil {
			report.Succeeded = append(report.Succeeded, q.ID)
			continue
		}
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if errors.Is(err, util.ErrAIKeyMissing) {
			report.Aborted = err.Error()
			break
		}
		report.Failed = append(report.Failed, QuestionFailure{QuestionID: q.ID, Error: err.Error()})
	}

	return report
}

func (s *GeneratorService) generate(ctx context.Context, q model.Question) (model.AnswerRecord, error) {
	ctx, span := tracing.Tracer.Start(ctx, "qdrt.generate_one")
	defer span.End()
	span.SetAttributes(attribute.Int("qdrt.question_id", q.ID))

	messages := []AIChatMessage{
		{Role: "system", Content: s.systemPrompt()},
		{Role: "user", Content: s.userPrompt(q.Prompt)},
	}

	start := time.Now()
	content, err := s.ai.Complete(ctx, messages, 0)
	monitoring.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "ai_error"
		if ctx.Err() != nil {
			outcome = "cancelled"
		}
		monitoring.GenerationCounter.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Warn("Completion request failed", zap.Int("question", q.ID), zap.Error(err))
		return model.AnswerRecord{}, err
	}

	fields, err := parseCompletion(content)
	if err != nil {
		monitoring.GenerationCounter.WithLabelValues("parse_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Warn("Completion was not JSON", zap.Int("question", q.ID), zap.Error(err))
		return model.AnswerRecord{}, err
	}

	rec := s.toRecord(q, fields)
	s.answers.Set(ctx, q.ID, rec)
	monitoring.GenerationCounter.WithLabelValues("success").Inc()
	return rec, nil
}

func (s *GeneratorService) systemPrompt() string {
	opts := func(f model.Field) string {
		b, _ := json.Marshal(s.schema.Options(f))
		return string(b)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are assisting with a Quality Document Review Template (QDRT) for a %s.\n\n", s.schema.DocumentType)
	b.WriteString("Return STRICT JSON ONLY. No prose.\n")
	b.WriteString("Fields:\n")
	fmt.Fprintf(&b, "- original_finding: one of %s\n", opts(model.FieldOriginalFinding))
	fmt.Fprintf(&b, "- final_finding: one of %s\n", opts(model.FieldFinalFinding))
	b.WriteString("- itemized_concerns: up to 5 bullet lines starting with \"INITIALS:\" or \"-\"\n")
	fmt.Fprintf(&b, "- original_risk: one of %s\n", opts(model.FieldOriginalRisk))
	fmt.Fprintf(&b, "- final_risk: one of %s\n", opts(model.FieldFinalRisk))
	b.WriteString("- comments: short sentence(s).")
	return b.String()
}

func (s *GeneratorService) userPrompt(prompt string) string {
	name := s.schema.ShortName()
	return fmt.Sprintf("Given the following %s content, answer the specific QDRT check.\n\nQDRT Check:\n%s\n\n%s Content:\n%s\n\nReturn JSON with keys: original_finding, final_finding, itemized_concerns, original_risk, final_risk, comments.",
		name, prompt, name, truncateRunes(s.corpus.Text(), s.maxContextChars))
}

// toRecord builds the full six-field answer. Enumerated fields are snapped to their option sets;
// free text falls back to the question default when the reply leaves it empty.
func (s *GeneratorService) toRecord(q model.Question, fields map[string]interface{}) model.AnswerRecord {
	var rec model.AnswerRecord
	for _, f := range model.AnswerFields {
		text := coerceText(fields[string(f)])
		if f.IsEnumerated() {
			rec = rec.With(f, NormalizeToOption(text, s.schema.Options(f)))
			continue
		}
		if text == "" {
			text, _ = q.Defaults.Value(f)
		}
		rec = rec.With(f, text)
	}
	return rec
}

// parseCompletion reads the reply as a JSON object. When the whole reply does not parse, every '{'
// is tried as the start of an object, up to maxFallbackAttempts, and the first complete object wins.
func parseCompletion(content string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(content)

	var obj map[string]interface{}
	strictErr := json.Unmarshal([]byte(trimmed), &obj)
	if strictErr == nil && obj != nil {
		return obj, nil
	}

	attempts := 0
	for i := 0; i < len(trimmed) && attempts < maxFallbackAttempts; i++ {
		if trimmed[i] != '{' {
			continue
		}
		attempts++

		var candidate map[string]interface{}
		dec := json.NewDecoder(strings.NewReader(trimmed[i:]))
		if err := dec.Decode(&candidate); err == nil && candidate != nil {
			return candidate, nil
		}
	}

	if strictErr == nil {
		strictErr = errors.New("reply is not a JSON object")
	}
	return nil, &ParseError{Content: content, Err: strictErr}
}

// coerceText turns a JSON value into field text. Arrays become one line per element.
func coerceText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			if line := coerceText(item); line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	case float64, bool:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
