package service

import (
	"context"
	"qdrt_backend/internal/checklist"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/repository"
	"qdrt_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReviewService() (*ReviewService, *repository.AnswerRepository) {
	answers := repository.NewAnswerRepository(context.Background(), repository.NewMemoryStateStore(), "qdrt")
	return NewReviewService(checklist.Default(), answers), answers
}

func TestReviewService_ListResolvesDefaults(t *testing.T) {
	svc, answers := newTestReviewService()
	answers.Set(context.Background(), 3, model.AnswerRecord{}.With(model.FieldFinalRisk, "LOW"))

	views := svc.List("")
	require.Len(t, views, 24)

	v := views[0]
	assert.Equal(t, 3, v.ID)
	assert.Equal(t, "LOW", v.Answer.FinalRisk)
	assert.Equal(t, "Make Selection", v.Answer.OriginalRisk)
	assert.Equal(t, "TBD", v.Answer.OriginalFinding)
	assert.Equal(t, "", v.Answer.Comments)

	_, present := v.Stored.Value(model.FieldOriginalRisk)
	assert.False(t, present)
}

func TestReviewService_Update(t *testing.T) {
	svc, answers := newTestReviewService()
	ctx := context.Background()

	v, err := svc.Update(ctx, 5, map[string]string{"final_finding": "Mostly No", "comments": "needs work"})
	require.NoError(t, err)
	assert.Equal(t, "Mostly No", v.Answer.FinalFinding)
	assert.Equal(t, "needs work", v.Answer.Comments)

	got, _ := answers.Get(5).Value(model.FieldFinalFinding)
	assert.Equal(t, "Mostly No", got)
}

func TestReviewService_UpdateRejects(t *testing.T) {
	svc, answers := newTestReviewService()
	ctx := context.Background()

	_, err := svc.Update(ctx, 5, map[string]string{"final_risk": "SEVERE"})
	assert.ErrorIs(t, err, util.ErrInvalidOption)

	_, err = svc.Update(ctx, 5, map[string]string{"severity": "HIGH"})
	assert.ErrorIs(t, err, util.ErrUnknownField)

	_, err = svc.Update(ctx, 2, map[string]string{"comments": "x"})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	assert.Empty(t, answers.All())
}

func TestReviewService_Clear(t *testing.T) {
	svc, answers := newTestReviewService()
	ctx := context.Background()
	answers.Set(ctx, 8, model.AnswerRecord{}.With(model.FieldOriginalFinding, "No"))

	v, err := svc.Clear(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "TBD", v.Answer.OriginalFinding)
	assert.True(t, answers.Get(8).IsEmpty())

	_, err = svc.Clear(ctx, 1000)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestReviewService_FilterAndGet(t *testing.T) {
	svc, _ := newTestReviewService()

	views := svc.List("CUTOVER")
	require.Len(t, views, 1)
	assert.Equal(t, 25, views[0].ID)

	v, err := svc.Get(25)
	require.NoError(t, err)
	assert.Equal(t, views[0].Prompt, v.Prompt)

	_, err = svc.Get(0)
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}
