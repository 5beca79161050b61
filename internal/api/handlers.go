package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/services"
	"github.com/surgestack/surgecast-engine/internal/store"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// Handlers exposes the pipeline service over HTTP.
type Handlers struct {
	svc    *services.PipelineService
	logger *slog.Logger
}

// NewHandlers constructs the HTTP handler set.
func NewHandlers(svc *services.PipelineService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// Register mounts all routes on the engine.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)

	v1 := r.Group("/api/v1")
	v1.POST("/pipeline/run/:city", h.runPipeline)
	v1.GET("/cities", h.listCities)
	v1.GET("/cities/:city/baseline", h.cityBaseline)
	v1.GET("/cities/:city/signal", h.latestSignal)
	v1.GET("/cities/:city/prediction", h.latestPrediction)
	v1.GET("/cities/:city/predictions", h.listPredictions)
	v1.GET("/cities/:city/alerts", h.listAlerts)
	v1.GET("/cities/:city/recommendations", h.listRecommendations)
	v1.GET("/cities/:city/advisories", h.listAdvisories)
	v1.GET("/cities/:city/archive/predictions", h.archivedPredictions)
	v1.POST("/alerts/:id/acknowledge", h.acknowledgeAlert)
	v1.POST("/recommendations/:id/acknowledge", h.acknowledgeRecommendation)
	v1.POST("/recommendations/:id/status", h.updateRecommendationStatus)
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) runPipeline(c *gin.Context) {
	result, err := h.svc.RunPipeline(c.Request.Context(), c.Param("city"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (h *Handlers) listCities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": h.svc.Cities()})
}

func (h *Handlers) cityBaseline(c *gin.Context) {
	base, err := h.svc.CityBaseline(c.Param("city"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, base)
}

func (h *Handlers) latestSignal(c *gin.Context) {
	signal, err := h.svc.LatestSignal(c.Request.Context(), c.Param("city"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, signal)
}

func (h *Handlers) latestPrediction(c *gin.Context) {
	prediction, err := h.svc.LatestPrediction(c.Request.Context(), c.Param("city"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (h *Handlers) listPredictions(c *gin.Context) {
	predictions, err := h.svc.ListPredictions(c.Request.Context(), c.Param("city"), queryLimit(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

func (h *Handlers) listAlerts(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"
	alerts, err := h.svc.ListAlerts(c.Request.Context(), c.Param("city"), activeOnly)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handlers) listRecommendations(c *gin.Context) {
	recs, err := h.svc.ListRecommendations(c.Request.Context(), c.Param("city"), queryLimit(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (h *Handlers) listAdvisories(c *gin.Context) {
	advisories, err := h.svc.ListAdvisories(c.Request.Context(), c.Param("city"), queryLimit(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advisories": advisories})
}

func (h *Handlers) archivedPredictions(c *gin.Context) {
	predictions, err := h.svc.ArchivedPredictions(c.Request.Context(), c.Param("city"), queryLimit(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

type acknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by" binding:"required"`
}

func (h *Handlers) acknowledgeAlert(c *gin.Context) {
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "acknowledged_by required", "kind": "validation_failed"})
		return
	}
	alert, err := h.svc.AcknowledgeAlert(c.Request.Context(), c.Param("id"), req.AcknowledgedBy)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handlers) acknowledgeRecommendation(c *gin.Context) {
	rec, err := h.svc.UpdateRecommendationStatus(c.Request.Context(), c.Param("id"), models.StatusAcknowledged)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type statusUpdateRequest struct {
	Status models.RecommendationStatus `json:"status" binding:"required"`
}

func (h *Handlers) updateRecommendationStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required", "kind": "validation_failed"})
		return
	}
	rec, err := h.svc.UpdateRecommendationStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// renderError maps domain error kinds onto HTTP statuses.
func (h *Handlers) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := utils.Kind(err)
	switch {
	case errors.Is(err, utils.ErrValidationFailed):
		status = http.StatusBadRequest
	case errors.Is(err, utils.ErrRunInProgress):
		status = http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		kind = "not_found"
	case errors.Is(err, utils.ErrOracleUnavailable), errors.Is(err, utils.ErrOracleMalformed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		return 20
	}
	return limit
}
