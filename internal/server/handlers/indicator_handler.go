package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/mongodb"
	"github.com/mamadbah2/aviario/internal/service/indicators"
)

// IndicatorService computes batch indicators.
type IndicatorService interface {
	ForBatch(ctx context.Context, batchID string) (indicators.BatchIndicators, error)
}

// SnapshotReader reads archived weekly report snapshots.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, batchID string) (mongodb.IndicatorSnapshot, error)
}

// IndicatorHandler serves chart data, its CSV export and archived snapshots.
type IndicatorHandler struct {
	svc       IndicatorService
	snapshots SnapshotReader
	logger    *zap.Logger
}

// NewIndicatorHandler constructs the indicators HTTP adapter. snapshots may be
// nil when no archive is configured.
func NewIndicatorHandler(svc IndicatorService, snapshots SnapshotReader, logger *zap.Logger) *IndicatorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndicatorHandler{svc: svc, snapshots: snapshots, logger: logger}
}

// Get returns the aligned indicator series of a batch.
func (h *IndicatorHandler) Get(c *gin.Context) {
	result, err := h.svc.ForBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CSV downloads the indicator series as a spreadsheet-friendly file.
func (h *IndicatorHandler) CSV(c *gin.Context) {
	result, err := h.svc.ForBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := indicators.WriteCSV(&buf, result.Indicators); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-indicators.csv"`, result.Batch.Code))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// LatestSnapshot returns the indicators archived by the last weekly report.
func (h *IndicatorHandler) LatestSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		respondError(c, h.logger, fmt.Errorf("snapshot archive: %w", models.ErrDisabled))
		return
	}

	snapshot, err := h.snapshots.LatestSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
