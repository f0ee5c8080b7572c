package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/finance"
)

// FinanceService is the batch ledger surface.
type FinanceService interface {
	AddCost(ctx context.Context, batchID string, req finance.EntryRequest) (models.FinanceEntry, error)
	AddRevenue(ctx context.Context, batchID string, req finance.EntryRequest) (models.FinanceEntry, error)
	Entries(ctx context.Context, batchID string, kind models.EntryKind) ([]models.FinanceEntry, error)
	Summary(ctx context.Context, batchID string) (models.FinanceSummary, error)
}

// FinanceHandler exposes batch costs and revenues.
type FinanceHandler struct {
	svc    FinanceService
	logger *zap.Logger
}

// NewFinanceHandler constructs the finance HTTP adapter.
func NewFinanceHandler(svc FinanceService, logger *zap.Logger) *FinanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceHandler{svc: svc, logger: logger}
}

// AddCost records an expense.
func (h *FinanceHandler) AddCost(c *gin.Context) {
	h.add(c, h.svc.AddCost)
}

// AddRevenue records an income.
func (h *FinanceHandler) AddRevenue(c *gin.Context) {
	h.add(c, h.svc.AddRevenue)
}

func (h *FinanceHandler) add(c *gin.Context, record func(context.Context, string, finance.EntryRequest) (models.FinanceEntry, error)) {
	var req finance.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	entry, err := record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Summary returns the totals and the ledger, optionally filtered by ?kind=.
func (h *FinanceHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	batchID := c.Param("id")

	summary, err := h.svc.Summary(ctx, batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries, err := h.svc.Entries(ctx, batchID, models.EntryKind(c.Query("kind")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if entries == nil {
		entries = []models.FinanceEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary, "entries": entries})
}
