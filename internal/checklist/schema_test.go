package checklist

import (
	"qdrt_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sadOptions() map[model.Field][]string {
	return map[model.Field][]string{
		model.FieldOriginalFinding: FindingOptions,
		model.FieldFinalFinding:    FindingOptions,
		model.FieldOriginalRisk:    RiskOptions,
		model.FieldFinalRisk:       RiskOptions,
	}
}

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, 24, s.Len())
	assert.Equal(t, SADColumns, s.Columns)
	assert.Equal(t, "SAD", s.ShortName())

	seen := map[int]bool{}
	for _, q := range s.Questions() {
		assert.Positive(t, q.ID)
		assert.False(t, seen[q.ID], "duplicate id %d", q.ID)
		seen[q.ID] = true
		assert.NotEmpty(t, q.Prompt)
		for _, f := range model.EnumeratedFields {
			v, ok := q.Defaults.Value(f)
			require.True(t, ok)
			assert.True(t, s.IsOption(f, v))
		}
	}

	assert.Equal(t, FindingOptions, s.Options(model.FieldFinalFinding))
	assert.Equal(t, RiskOptions, s.Options(model.FieldOriginalRisk))
	assert.Nil(t, s.Options(model.FieldComments))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		columns   []string
		options   map[model.Field][]string
		questions []model.Question
	}{
		{"too few columns", SADColumns[:7], sadOptions(), nil},
		{"missing option set", SADColumns, map[model.Field][]string{model.FieldOriginalFinding: FindingOptions}, nil},
		{"non positive id", SADColumns, sadOptions(), []model.Question{{ID: 0, Prompt: "x"}}},
		{"duplicate id", SADColumns, sadOptions(), []model.Question{{ID: 1, Prompt: "a"}, {ID: 1, Prompt: "b"}}},
		{"default outside options", SADColumns, sadOptions(), []model.Question{
			{ID: 1, Prompt: "a", Defaults: model.AnswerRecord{}.With(model.FieldFinalRisk, "CRITICAL")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", "Doc", tt.columns, tt.options, tt.questions)
			assert.Error(t, err)
		})
	}
}

func TestQuestionsByID(t *testing.T) {
	s := MustNew("t", "Doc", SADColumns, sadOptions(), []model.Question{
		{ID: 30, Prompt: "c"}, {ID: 4, Prompt: "a"}, {ID: 12, Prompt: "b"},
	})

	var ids []int
	for _, q := range s.QuestionsByID() {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []int{4, 12, 30}, ids)
	assert.Equal(t, 30, s.Questions()[0].ID)
}

func TestQuestion_ReturnsCopy(t *testing.T) {
	s := Default()
	q, ok := s.Question(3)
	require.True(t, ok)
	q.Defaults = q.Defaults.With(model.FieldFinalRisk, "HIGH")

	again, _ := s.Question(3)
	v, _ := again.Defaults.Value(model.FieldFinalRisk)
	assert.Equal(t, "Make Selection", v)

	_, ok = s.Question(1)
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	s := Default()

	assert.Len(t, s.Filter(""), s.Len())
	assert.Len(t, s.Filter("   "), s.Len())

	byPrompt := s.Filter("SECURITY REQUIREMENTS")
	require.NotEmpty(t, byPrompt)
	for _, q := range byPrompt {
		assert.Contains(t, q.Prompt, "ecurity")
	}

	byID := s.Filter("26")
	require.NotEmpty(t, byID)
	assert.Equal(t, 26, byID[0].ID)

	assert.Empty(t, s.Filter("zzzz-no-such-text"))
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "Plain Doc", MustNew("t", "Plain Doc", SADColumns, sadOptions(), nil).ShortName())
	assert.Equal(t, "BRD", MustNew("t", "Business Requirements (BRD)", SADColumns, sadOptions(), nil).ShortName())
}
