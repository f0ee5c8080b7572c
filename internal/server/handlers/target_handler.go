package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/targets"
)

// TargetService maintains breed standards.
type TargetService interface {
	Upsert(ctx context.Context, req targets.UpsertRequest) (models.TargetRecord, error)
	List(ctx context.Context, breed string) ([]models.TargetRecord, error)
	Delete(ctx context.Context, id string) error
	Breeds(ctx context.Context) ([]models.Breed, error)
	ImportSheet(ctx context.Context) (int, error)
}

// TargetHandler exposes the breed target table.
type TargetHandler struct {
	svc    TargetService
	logger *zap.Logger
}

// NewTargetHandler constructs the targets HTTP adapter.
func NewTargetHandler(svc TargetService, logger *zap.Logger) *TargetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TargetHandler{svc: svc, logger: logger}
}

// Upsert creates or replaces the target of one (breed, week).
func (h *TargetHandler) Upsert(c *gin.Context) {
	var req targets.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	target, err := h.svc.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// List returns targets, optionally for one ?breed=.
func (h *TargetHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("breed"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if list == nil {
		list = []models.TargetRecord{}
	}
	c.JSON(http.StatusOK, list)
}

// Delete removes one target row.
func (h *TargetHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Breeds lists the breeds that have targets.
func (h *TargetHandler) Breeds(c *gin.Context) {
	breeds, err := h.svc.Breeds(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if breeds == nil {
		breeds = []models.Breed{}
	}
	c.JSON(http.StatusOK, breeds)
}

// Import pulls the target table from the configured spreadsheet.
func (h *TargetHandler) Import(c *gin.Context) {
	n, err := h.svc.ImportSheet(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}
