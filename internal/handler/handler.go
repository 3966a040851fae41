package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/BarkinBalci/lifecycle-analytics-service/docs"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/dto"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/service"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	tracker  service.Tracker
	reporter service.Reporter
	health   HealthChecker
	router   *gin.Engine
	log      *zap.Logger
}

func NewHandler(tracker service.Tracker, reporter service.Reporter, health HealthChecker, log *zap.Logger) *Handler {
	h := &Handler{
		tracker:  tracker,
		reporter: reporter,
		health:   health,
		router:   gin.Default(),
		log:      log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)

	track := h.router.Group("/track")
	track.POST("/acquisition", h.trackAcquisition)
	track.POST("/activation", h.trackActivation)
	track.POST("/conversion", h.trackConversion)
	track.POST("/engagement", h.trackEngagement)

	h.router.POST("/reports", h.requestReport)
	h.router.GET("/reports/:id", h.getReport)
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service and its profile store are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"store":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// trackAcquisition handles POST /track/acquisition
// @Summary Track an acquisition
// @Description Record how a visitor arrived and forward it to the analytics sinks
// @Tags tracking
// @Accept json
// @Produce json
// @Param event body dto.TrackAcquisitionRequest true "Acquisition data"
// @Success 200 {object} dto.TrackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /track/acquisition [post]
func (h *Handler) trackAcquisition(c *gin.Context) {
	var req dto.TrackAcquisitionRequest
	if !h.bind(c, &req) {
		return
	}
	h.writeResult(c, h.tracker.TrackAcquisition(c.Request.Context(), req.ToDomain()))
}

// trackActivation handles POST /track/activation
// @Summary Track an activation
// @Description Score a value-signaling action and add it to the user's lifecycle profile
// @Tags tracking
// @Accept json
// @Produce json
// @Param event body dto.TrackActivationRequest true "Activation data"
// @Success 200 {object} dto.TrackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /track/activation [post]
func (h *Handler) trackActivation(c *gin.Context) {
	var req dto.TrackActivationRequest
	if !h.bind(c, &req) {
		return
	}
	h.writeResult(c, h.tracker.TrackActivation(c.Request.Context(), req.ToDomain()))
}

// trackConversion handles POST /track/conversion
// @Summary Track a conversion
// @Description Record revenue from a conversion
// @Tags tracking
// @Accept json
// @Produce json
// @Param event body dto.TrackConversionRequest true "Conversion data"
// @Success 200 {object} dto.TrackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /track/conversion [post]
func (h *Handler) trackConversion(c *gin.Context) {
	var req dto.TrackConversionRequest
	if !h.bind(c, &req) {
		return
	}
	h.writeResult(c, h.tracker.TrackConversion(c.Request.Context(), req.ToDomain()))
}

// trackEngagement handles POST /track/engagement
// @Summary Track an engagement
// @Description Score an engagement interaction and append it to the user's history
// @Tags tracking
// @Accept json
// @Produce json
// @Param event body dto.TrackEngagementRequest true "Engagement data"
// @Success 200 {object} dto.TrackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /track/engagement [post]
func (h *Handler) trackEngagement(c *gin.Context) {
	var req dto.TrackEngagementRequest
	if !h.bind(c, &req) {
		return
	}
	h.writeResult(c, h.tracker.TrackEngagement(c.Request.Context(), req.ToDomain()))
}

// requestReport handles POST /reports
// @Summary Request a report
// @Description Queue generation of a funnel report for a window
// @Tags reports
// @Accept json
// @Produce json
// @Param request body dto.GenerateReportRequest true "Report window"
// @Success 202 {object} dto.ReportRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reports [post]
func (h *Handler) requestReport(c *gin.Context) {
	var req dto.GenerateReportRequest
	if !h.bind(c, &req) {
		return
	}

	requestID, err := h.reporter.RequestReport(c.Request.Context(), req.StartDate, req.EndDate, req.Recipients)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.ReportRequestResponse{
		RequestID: requestID,
		ReportID:  domain.ReportID(req.StartDate.UTC(), req.EndDate.UTC()),
		Status:    "queued",
	})
}

// getReport handles GET /reports/{id}
// @Summary Get a report
// @Description Retrieve a stored report snapshot
// @Tags reports
// @Produce json
// @Param id path string true "Report ID" example:"2026-03-02T00:00:00Z_2026-03-09T00:00:00Z"
// @Success 200 {object} domain.WeeklyReport
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reports/{id} [get]
func (h *Handler) getReport(c *gin.Context) {
	report, err := h.reporter.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Warn("Invalid request",
			zap.Error(err),
			zap.String("path", c.FullPath()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) writeResult(c *gin.Context, res service.Result) {
	if res.Err != nil {
		h.writeError(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTrackResponse(res))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	var pErr *domain.PersistenceError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: vErr.Error(),
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.As(err, &pErr):
		h.log.Error("Persistence failure", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "persistence_error",
			Message: err.Error(),
		})
	default:
		h.log.Error("Request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}
