package service

import (
	"context"
	"fmt"
	"qdrt_backend/internal/checklist"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/util"
)

// QuestionView is a question with its answer resolved against the defaults.
type QuestionView struct {
	ID       int                  `json:"id"`
	Prompt   string               `json:"prompt"`
	Answer   model.ResolvedAnswer `json:"answer"`
	Stored   model.AnswerRecord   `json:"stored"`
	Defaults model.AnswerRecord   `json:"defaults"`
}

// ReviewService backs the manual side of a review: browsing questions and editing answers.
type ReviewService struct {
	schema  *checklist.Schema
	answers AnswerStore
}

func NewReviewService(schema *checklist.Schema, answers AnswerStore) *ReviewService {
	return &ReviewService{schema: schema, answers: answers}
}

func (s *ReviewService) Schema() *checklist.Schema {
	return s.schema
}

// List returns the questions matching term, all of them when term is empty.
func (s *ReviewService) List(term string) []QuestionView {
	questions := s.schema.Filter(term)
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, s.view(q))
	}
	return views
}

func (s *ReviewService) Get(id int) (*QuestionView, error) {
	q, ok := s.schema.Question(id)
	if !ok {
		return nil, util.ErrQuestionNotFound
	}
	v := s.view(q)
	return &v, nil
}

// Update applies a manual edit. Keys must be answer field names and enumerated
// fields only accept their declared options.
func (s *ReviewService) Update(ctx context.Context, id int, fields map[string]string) (*QuestionView, error) {
	q, ok := s.schema.Question(id)
	if !ok {
		return nil, util.ErrQuestionNotFound
	}

	var patch model.AnswerRecord
	for name, value := range fields {
		f, err := model.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", util.ErrUnknownField, name)
		}
		if f.IsEnumerated() && !s.schema.IsOption(f, value) {
			return nil, fmt.Errorf("%w: %s=%q", util.ErrInvalidOption, f, value)
		}
		patch = patch.With(f, value)
	}

	if !patch.IsEmpty() {
		s.answers.Set(ctx, id, patch)
	}
	v := s.view(q)
	return &v, nil
}

// Clear drops the stored answer so every field shows its default again.
func (s *ReviewService) Clear(ctx context.Context, id int) (*QuestionView, error) {
	q, ok := s.schema.Question(id)
	if !ok {
		return nil, util.ErrQuestionNotFound
	}
	s.answers.Clear(ctx, id)
	v := s.view(q)
	return &v, nil
}

// Answers returns the raw stored answer set.
func (s *ReviewService) Answers() model.Answers {
	return s.answers.All()
}

func (s *ReviewService) view(q model.Question) QuestionView {
	stored := s.answers.Get(q.ID)
	return QuestionView{
		ID:       q.ID,
		Prompt:   q.Prompt,
		Answer:   model.ResolveAnswer(q, stored),
		Stored:   stored,
		Defaults: q.Defaults,
	}
}
