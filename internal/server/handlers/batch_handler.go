package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/batches"
)

// BatchService is the batch lifecycle surface used by BatchHandler.
type BatchService interface {
	Create(ctx context.Context, req batches.CreateBatchRequest) (models.Batch, error)
	Get(ctx context.Context, id string) (models.Batch, error)
	List(ctx context.Context, status string) ([]models.Batch, error)
	Finalize(ctx context.Context, id string) (models.Batch, error)
	SubmitWeek(ctx context.Context, batchID string, req batches.WeeklySubmissionRequest) (models.WeeklySubmission, error)
	Weeks(ctx context.Context, batchID string) ([]models.WeeklyRecord, error)
	WeekHistory(ctx context.Context, batchID string, week int) ([]models.WeeklySubmission, error)
	FormDefaults(ctx context.Context, batchID string) (models.WeeklyFormDefaults, error)
}

// SubmissionRecorder counts accepted weekly submissions.
type SubmissionRecorder interface {
	WeeklySubmitted()
}

// BatchHandler exposes batches and their weekly records.
type BatchHandler struct {
	svc      BatchService
	recorder SubmissionRecorder
	logger   *zap.Logger
}

// NewBatchHandler constructs the batch HTTP adapter. recorder may be nil.
func NewBatchHandler(svc BatchService, recorder SubmissionRecorder, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{svc: svc, recorder: recorder, logger: logger}
}

// Create houses a new batch.
func (h *BatchHandler) Create(c *gin.Context) {
	var req batches.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	batch, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// List returns batches, optionally filtered by ?status=.
func (h *BatchHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.Batch{}
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one batch.
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Finalize closes a batch.
func (h *BatchHandler) Finalize(c *gin.Context) {
	batch, err := h.svc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// SubmitWeek records a new revision of one week.
func (h *BatchHandler) SubmitWeek(c *gin.Context) {
	var req batches.WeeklySubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	submission, err := h.svc.SubmitWeek(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if h.recorder != nil {
		h.recorder.WeeklySubmitted()
	}
	c.JSON(http.StatusCreated, submission)
}

// Weeks returns the current record of every submitted week.
func (h *BatchHandler) Weeks(c *gin.Context) {
	records, err := h.svc.Weeks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if records == nil {
		records = []models.WeeklyRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// WeekHistory returns every revision submitted for one week.
func (h *BatchHandler) WeekHistory(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		badRequest(c, "week must be a positive integer")
		return
	}

	history, err := h.svc.WeekHistory(c.Request.Context(), c.Param("id"), week)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if history == nil {
		history = []models.WeeklySubmission{}
	}
	c.JSON(http.StatusOK, history)
}

// FormDefaults pre-fills the weekly entry form.
func (h *BatchHandler) FormDefaults(c *gin.Context) {
	defaults, err := h.svc.FormDefaults(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, defaults)
}
