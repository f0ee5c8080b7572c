package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/husbandry"
)

// HusbandryService records eggs, water quality and treatments.
type HusbandryService interface {
	AddEggs(ctx context.Context, batchID string, req husbandry.EggRequest) (models.EggProduction, error)
	RecentEggs(ctx context.Context, batchID string) ([]models.EggProduction, error)
	MonthlyEggs(ctx context.Context, batchID string) ([]models.MonthlyEggSummary, error)
	AddWater(ctx context.Context, batchID string, req husbandry.WaterRequest) (models.WaterQuality, error)
	Water(ctx context.Context, batchID string) ([]models.WaterQuality, error)
	AddTreatment(ctx context.Context, batchID string, req husbandry.TreatmentRequest) (models.Treatment, error)
	Treatments(ctx context.Context, batchID string) ([]models.Treatment, error)
}

// HusbandryHandler exposes day-to-day flock records.
type HusbandryHandler struct {
	svc    HusbandryService
	logger *zap.Logger
}

// NewHusbandryHandler constructs the husbandry HTTP adapter.
func NewHusbandryHandler(svc HusbandryService, logger *zap.Logger) *HusbandryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HusbandryHandler{svc: svc, logger: logger}
}

// AddEggs records an egg collection.
func (h *HusbandryHandler) AddEggs(c *gin.Context) {
	var req husbandry.EggRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := h.svc.AddEggs(c.Request.Context(), c.Param("id"), req)
	h.created(c, created, err)
}

// Eggs lists the most recent collections.
func (h *HusbandryHandler) Eggs(c *gin.Context) {
	rows, err := h.svc.RecentEggs(c.Request.Context(), c.Param("id"))
	if rows == nil {
		rows = []models.EggProduction{}
	}
	h.ok(c, rows, err)
}

// MonthlyEggs summarizes the last closed months.
func (h *HusbandryHandler) MonthlyEggs(c *gin.Context) {
	rows, err := h.svc.MonthlyEggs(c.Request.Context(), c.Param("id"))
	if rows == nil {
		rows = []models.MonthlyEggSummary{}
	}
	h.ok(c, rows, err)
}

// AddWater records a water measurement.
func (h *HusbandryHandler) AddWater(c *gin.Context) {
	var req husbandry.WaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := h.svc.AddWater(c.Request.Context(), c.Param("id"), req)
	h.created(c, created, err)
}

// Water lists water measurements.
func (h *HusbandryHandler) Water(c *gin.Context) {
	rows, err := h.svc.Water(c.Request.Context(), c.Param("id"))
	if rows == nil {
		rows = []models.WaterQuality{}
	}
	h.ok(c, rows, err)
}

// AddTreatment records a medication course.
func (h *HusbandryHandler) AddTreatment(c *gin.Context) {
	var req husbandry.TreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := h.svc.AddTreatment(c.Request.Context(), c.Param("id"), req)
	h.created(c, created, err)
}

// Treatments lists medication courses with their withdrawal end dates.
func (h *HusbandryHandler) Treatments(c *gin.Context) {
	rows, err := h.svc.Treatments(c.Request.Context(), c.Param("id"))
	if rows == nil {
		rows = []models.Treatment{}
	}
	h.ok(c, rows, err)
}

func (h *HusbandryHandler) created(c *gin.Context, body interface{}, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *HusbandryHandler) ok(c *gin.Context, body interface{}, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
