// Package checklist holds the compiled-in QDRT review catalog: questions, option sets and defaults.
package checklist

import (
	"fmt"
	"qdrt_backend/internal/model"
	"sort"
	"strconv"
	"strings"
)

// Schema is a read-only checklist catalog.
type Schema struct {
	Title        string
	DocumentType string
	Columns      []string

	options   map[model.Field][]string
	questions []model.Question
	byID      map[int]int
}

// New validates and builds a schema. Every enumerated field needs a non-empty option set,
// question ids must be positive and unique, and enumerated defaults must be declared options.
func New(title, documentType string, columns []string, options map[model.Field][]string, questions []model.Question) (*Schema, error) {
	if len(columns) != 2+len(model.AnswerFields) {
		return nil, fmt.Errorf("checklist %q: want %d columns, got %d", title, 2+len(model.AnswerFields), len(columns))
	}

	s := &Schema{
		Title:        title,
		DocumentType: documentType,
		Columns:      append([]string(nil), columns...),
		options:      make(map[model.Field][]string, len(model.EnumeratedFields)),
		byID:         make(map[int]int, len(questions)),
	}

	for _, f := range model.EnumeratedFields {
		opts := options[f]
		if len(opts) == 0 {
			return nil, fmt.Errorf("checklist %q: no options declared for %s", title, f)
		}
		s.options[f] = append([]string(nil), opts...)
	}

	for i, q := range questions {
		if q.ID <= 0 {
			return nil, fmt.Errorf("checklist %q: question id %d is not positive", title, q.ID)
		}
		if _, dup := s.byID[q.ID]; dup {
			return nil, fmt.Errorf("checklist %q: duplicate question id %d", title, q.ID)
		}
		for _, f := range model.EnumeratedFields {
			if v, ok := q.Defaults.Value(f); ok && !s.IsOption(f, v) {
				return nil, fmt.Errorf("checklist %q: question %d default %s=%q is not a declared option", title, q.ID, f, v)
			}
		}
		q.Defaults = q.Defaults.Clone()
		s.questions = append(s.questions, q)
		s.byID[q.ID] = i
	}

	return s, nil
}

func MustNew(title, documentType string, columns []string, options map[model.Field][]string, questions []model.Question) *Schema {
	s, err := New(title, documentType, columns, options, questions)
	if err != nil {
		panic(err)
	}
	return s
}

// Questions returns the questions in declared order.
func (s *Schema) Questions() []model.Question {
	out := make([]model.Question, len(s.questions))
	for i, q := range s.questions {
		q.Defaults = q.Defaults.Clone()
		out[i] = q
	}
	return out
}

// QuestionsByID returns the questions ordered by ascending id.
func (s *Schema) QuestionsByID() []model.Question {
	out := s.Questions()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Schema) Len() int {
	return len(s.questions)
}

func (s *Schema) Question(id int) (model.Question, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Question{}, false
	}
	q := s.questions[i]
	q.Defaults = q.Defaults.Clone()
	return q, true
}

// Options returns the ordered option set of an enumerated field, or nil for free-text fields.
func (s *Schema) Options(f model.Field) []string {
	opts, ok := s.options[f]
	if !ok {
		return nil
	}
	return append([]string(nil), opts...)
}

func (s *Schema) AllOptions() map[model.Field][]string {
	out := make(map[model.Field][]string, len(s.options))
	for f := range s.options {
		out[f] = s.Options(f)
	}
	return out
}

func (s *Schema) IsOption(f model.Field, value string) bool {
	for _, o := range s.options[f] {
		if o == value {
			return true
		}
	}
	return false
}

// Filter matches the term against the question id digits or, case-insensitively, the prompt.
// An empty term returns every question.
func (s *Schema) Filter(term string) []model.Question {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return s.Questions()
	}
	var out []model.Question
	for _, q := range s.Questions() {
		if strings.Contains(strconv.Itoa(q.ID), t) || strings.Contains(strings.ToLower(q.Prompt), t) {
			out = append(out, q)
		}
	}
	return out
}

// ShortName is the parenthesized abbreviation of the document type, e.g. "SAD",
// or the whole document type when it has none.
func (s *Schema) ShortName() string {
	open := strings.LastIndex(s.DocumentType, "(")
	end := strings.LastIndex(s.DocumentType, ")")
	if open >= 0 && end > open+1 {
		return s.DocumentType[open+1 : end]
	}
	return s.DocumentType
}
