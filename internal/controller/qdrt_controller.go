package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"qdrt_backend/internal/model"
	"qdrt_backend/internal/service"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QDRTController struct {
	Review    *service.ReviewService
	Corpus    *service.CorpusService
	Generator *service.GeneratorService
	Export    *service.ExportService
}

func NewQDRTController(review *service.ReviewService, corpus *service.CorpusService, generator *service.GeneratorService, export *service.ExportService) *QDRTController {
	return &QDRTController{
		Review:    review,
		Corpus:    corpus,
		Generator: generator,
		Export:    export,
	}
}

type SchemaResponse struct {
	Title        string                   `json:"title"`
	DocumentType string                   `json:"documentType"`
	Columns      []string                 `json:"columns"`
	Options      map[model.Field][]string `json:"options"`
	Questions    []model.Question         `json:"questions"`
}

type CorpusRequest struct {
	Text string `json:"text"`
}

type CorpusResponse struct {
	Text  string `json:"text"`
	Chars int    `json:"chars"`
}

// respondError maps service errors onto HTTP statuses.
func respondError(ctx *gin.Context, err error) {
	var statusErr *service.AIStatusError
	var parseErr *service.ParseError

	switch {
	case errors.Is(err, util.ErrAIKeyMissing):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, util.ErrQuestionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrInvalidOption),
		errors.Is(err, util.ErrUnknownField),
		errors.Is(err, util.ErrInvalidImport),
		errors.Is(err, util.ErrUnknownFormat):
		util.BadRequest(ctx, err.Error())
	case errors.As(err, &statusErr), errors.As(err, &parseErr):
		util.Error(ctx, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		util.Error(ctx, http.StatusGatewayTimeout, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseID(ctx *gin.Context) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return 0, false
	}
	return id, true
}

// @Summary Checklist schema
// @Description Questions, column labels and the option set of every enumerated field
// @Tags qdrt
// @Produce json
// @Success 200 {object} util.Response{data=SchemaResponse}
// @Router /qdrt/schema [get]
func (c *QDRTController) GetSchema(ctx *gin.Context) {
	s := c.Review.Schema()
	util.Success(ctx, SchemaResponse{
		Title:        s.Title,
		DocumentType: s.DocumentType,
		Columns:      s.Columns,
		Options:      s.AllOptions(),
		Questions:    s.Questions(),
	})
}

// @Summary List questions
// @Description Questions with answers resolved against defaults, optionally filtered by id or prompt text
// @Tags qdrt
// @Produce json
// @Param q query string false "Filter text"
// @Success 200 {object} util.Response
// @Router /qdrt/questions [get]
func (c *QDRTController) ListQuestions(ctx *gin.Context) {
	util.Success(ctx, c.Review.List(ctx.Query("q")))
}

// @Summary Get question
// @Tags qdrt
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /qdrt/questions/{id} [get]
func (c *QDRTController) GetQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	v, err := c.Review.Get(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary Raw answers
// @Description Stored answer records keyed by question id, without defaults
// @Tags qdrt
// @Produce json
// @Success 200 {object} util.Response
// @Router /qdrt/answers [get]
func (c *QDRTController) GetAnswers(ctx *gin.Context) {
	util.Success(ctx, c.Review.Answers())
}

// @Summary Edit answer
// @Description Sets one or more fields of a question's answer. Enumerated fields must use a declared option.
// @Tags qdrt
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param body body map[string]string true "Field values"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /qdrt/answers/{id} [patch]
func (c *QDRTController) UpdateAnswer(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var fields map[string]string
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	v, err := c.Review.Update(ctx.Request.Context(), id, fields)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary Clear answer
// @Description Drops the stored answer so every field falls back to its default
// @Tags qdrt
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /qdrt/answers/{id} [delete]
func (c *QDRTController) ClearAnswer(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	v, err := c.Review.Clear(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary Get corpus
// @Tags qdrt
// @Produce json
// @Success 200 {object} util.Response{data=CorpusResponse}
// @Router /qdrt/corpus [get]
func (c *QDRTController) GetCorpus(ctx *gin.Context) {
	text := c.Corpus.Text()
	util.Success(ctx, CorpusResponse{Text: text, Chars: len([]rune(text))})
}

// @Summary Replace corpus
// @Tags qdrt
// @Accept json
// @Produce json
// @Param body body CorpusRequest true "Corpus text"
// @Success 200 {object} util.Response{data=CorpusResponse}
// @Router /qdrt/corpus [put]
func (c *QDRTController) ReplaceCorpus(ctx *gin.Context) {
	var req CorpusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.Corpus.Replace(ctx.Request.Context(), req.Text)
	util.Success(ctx, CorpusResponse{Text: req.Text, Chars: len([]rune(req.Text))})
}

// @Summary Clear corpus
// @Tags qdrt
// @Produce json
// @Success 200 {object} util.Response
// @Router /qdrt/corpus [delete]
func (c *QDRTController) ClearCorpus(ctx *gin.Context) {
	c.Corpus.Clear(ctx.Request.Context())
	util.Success(ctx, CorpusResponse{})
}

type uploadedFile struct {
	header *multipart.FileHeader
}

func (f uploadedFile) Name() string { return f.header.Filename }

func (f uploadedFile) Open() (io.ReadCloser, error) { return f.header.Open() }

// @Summary Upload reference documents
// @Description Extracts text from each file and appends it to the corpus. PDF and Word files add a placeholder.
// @Tags qdrt
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Documents"
// @Success 200 {object} util.Response{data=service.IngestResult}
// @Router /qdrt/corpus/upload [post]
func (c *QDRTController) UploadCorpus(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		util.BadRequest(ctx, "multipart form with files is required")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		util.BadRequest(ctx, "no files uploaded")
		return
	}

	files := make([]service.SourceFile, 0, len(headers))
	for _, h := range headers {
		files = append(files, uploadedFile{header: h})
	}

	util.Success(ctx, c.Corpus.Ingest(ctx.Request.Context(), files))
}

// @Summary Generate one answer
// @Description Asks the completion service to answer one question from the corpus and stores the normalized answer
// @Tags qdrt
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} util.Response
// @Failure 502 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /qdrt/questions/{id}/generate [post]
func (c *QDRTController) GenerateOne(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if _, err := c.Generator.GenerateOne(ctx.Request.Context(), id); err != nil {
		logger.Log.Warn("Generation failed", zap.Int("question_id", id), zap.Error(err))
		respondError(ctx, err)
		return
	}

	v, err := c.Review.Get(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary Generate all answers
// @Description Answers every question in order. Failed questions are listed in the report and do not stop the batch.
// @Tags qdrt
// @Produce json
// @Success 200 {object} util.Response{data=service.BatchReport}
// @Failure 503 {object} util.Response
// @Router /qdrt/generate-all [post]
func (c *QDRTController) GenerateAll(ctx *gin.Context) {
	report, err := c.Generator.GenerateAll(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary Download export
// @Tags qdrt
// @Produce octet-stream
// @Param format path string true "xlsx, csv or json"
// @Success 200 {file} file
// @Failure 400 {object} util.Response
// @Router /qdrt/export/{format} [get]
func (c *QDRTController) Download(ctx *gin.Context) {
	artifact, err := c.Export.Export(ctx.Param("format"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	ctx.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// @Summary Publish export
// @Description Renders an export and uploads it to the configured storage
// @Tags qdrt
// @Produce json
// @Param format path string true "xlsx, csv or json"
// @Success 201 {object} util.Response{data=service.PublishedArtifact}
// @Router /qdrt/export/{format}/publish [post]
func (c *QDRTController) Publish(ctx *gin.Context) {
	published, err := c.Export.Publish(ctx.Request.Context(), ctx.Param("format"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, published)
}

// @Summary Import answers
// @Description Replaces all answers with a previously exported JSON document, sent as the body or as a "file" form field
// @Tags qdrt
// @Accept json
// @Produce json
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /qdrt/import [post]
func (c *QDRTController) Import(ctx *gin.Context) {
	var data []byte
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	} else {
		raw, err := ctx.GetRawData()
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		data = raw
	}

	n, err := c.Export.Import(ctx.Request.Context(), data)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"imported": n})
}
