package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Couks/projeto-tfc-sub000/docs"
	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/dto"
	"github.com/Couks/projeto-tfc-sub000/internal/metrics"
	"github.com/Couks/projeto-tfc-sub000/internal/service"
)

type Handler struct {
	ingest    service.IngestServicer
	analytics service.AnalyticsServicer
	rollups   service.RollupServicer
	router    *gin.Engine
	log       *zap.Logger
}

func NewHandler(ingest service.IngestServicer, analytics service.AnalyticsServicer, rollups service.RollupServicer, log *zap.Logger) *Handler {
	h := &Handler{
		ingest:    ingest,
		analytics: analytics,
		rollups:   rollups,
		router:    gin.Default(),
		log:       log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// requestID tags each request with an X-Request-ID header, generating
// one when the client did not send its own.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func (h *Handler) registerRoutes() {
	h.router.Use(requestID())

	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sites := h.router.Group("/sites/:siteKey")
	sites.POST("/events", h.trackEvent)
	sites.POST("/events/batch", h.trackEventsBatch)

	analytics := sites.Group("/analytics")
	analytics.GET("/conversions", h.conversions)
	analytics.GET("/devices", h.devices)
	analytics.GET("/bounce", h.bounce)
	analytics.GET("/search-profile", h.searchProfile)
	analytics.GET("/filters", h.filters)
	analytics.GET("/funnel", h.funnel)
	analytics.GET("/top-converting-filters", h.topConvertingFilters)
	analytics.GET("/leads", h.leadProfile)

	h.router.POST("/admin/rollups/refresh", h.refreshRollups)
}

// respondError maps domain errors to HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSiteNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "site_not_found",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidBatchSize), errors.Is(err, domain.ErrMissingEventName):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
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

// bindQuery parses the shared analyzer query selector.
func bindQuery(c *gin.Context) (dto.AnalyticsQuery, bool) {
	var q dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return q, false
	}
	return q, true
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// trackEvent handles POST /sites/{siteKey}/events
// @Summary Track a single event
// @Description Accept a behavioral event and publish it to the ingestion queue
// @Tags events
// @Accept json
// @Produce json
// @Param siteKey path string true "Site key"
// @Param event body dto.TrackEventRequest true "Event data"
// @Success 202 {object} dto.TrackEventResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/events [post]
func (h *Handler) trackEvent(c *gin.Context) {
	var req dto.TrackEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	siteKey := c.Param("siteKey")
	eventID, err := h.ingest.TrackEvent(c.Request.Context(), siteKey, &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.EventsPublished.WithLabelValues(siteKey).Inc()
	c.JSON(http.StatusAccepted, dto.TrackEventResponse{
		EventID: eventID,
		Status:  "accepted",
	})
}

// trackEventsBatch handles POST /sites/{siteKey}/events/batch
// @Summary Track a batch of events
// @Description Accept up to 500 behavioral events and publish them to the ingestion queue
// @Tags events
// @Accept json
// @Produce json
// @Param siteKey path string true "Site key"
// @Param events body dto.TrackEventsBatchRequest true "Batch of events"
// @Success 202 {object} dto.TrackEventsBatchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/events/batch [post]
func (h *Handler) trackEventsBatch(c *gin.Context) {
	var req dto.TrackEventsBatchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	siteKey := c.Param("siteKey")
	resp, err := h.ingest.TrackEventsBatch(c.Request.Context(), siteKey, &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.respondError(c, err)
		return
	}

	metrics.EventsPublished.WithLabelValues(siteKey).Add(float64(resp.Accepted))
	h.log.Info("Batch events processed",
		zap.String("site_key", siteKey),
		zap.Int("accepted", resp.Accepted),
		zap.Int("rejected", resp.Rejected))

	c.JSON(http.StatusAccepted, resp)
}

// observe records the analyzer latency metric.
func observe(analyzer string, start time.Time) {
	metrics.AnalyzerDuration.WithLabelValues(analyzer).Observe(time.Since(start).Seconds())
}

// conversions handles GET /sites/{siteKey}/analytics/conversions
// @Summary Conversion totals
// @Description Converted event totals split by conversion type and source
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Param startDate query string false "Custom range start (RFC3339)"
// @Param endDate query string false "Custom range end (RFC3339)"
// @Param limit query int false "Maximum rows per dimension"
// @Success 200 {object} dto.ConversionsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/conversions [get]
func (h *Handler) conversions(c *gin.Context) {
	defer observe("conversions", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.Conversions(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// devices handles GET /sites/{siteKey}/analytics/devices
// @Summary Device distribution
// @Description Page view counts grouped by device, OS and browser
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.DevicesResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/devices [get]
func (h *Handler) devices(c *gin.Context) {
	defer observe("devices", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.Devices(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bounce handles GET /sites/{siteKey}/analytics/bounce
// @Summary Bounce distribution
// @Description Bounced session counts grouped by bounce type
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.BounceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/bounce [get]
func (h *Handler) bounce(c *gin.Context) {
	defer observe("bounce", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.Bounce(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// searchProfile handles GET /sites/{siteKey}/analytics/search-profile
// @Summary Search profile
// @Description Search dimension distributions, amenity flags and price/area buckets
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.SearchProfileResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/search-profile [get]
func (h *Handler) searchProfile(c *gin.Context) {
	defer observe("search_profile", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.SearchProfile(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// filters handles GET /sites/{siteKey}/analytics/filters
// @Summary Filter usage
// @Description Per-field filter usage and most frequent filter combinations
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.FiltersResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/filters [get]
func (h *Handler) filters(c *gin.Context) {
	defer observe("filters", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.Filters(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// funnel handles GET /sites/{siteKey}/analytics/funnel
// @Summary Conversion funnel
// @Description Stage counts, dropoff rates and overall conversion rate
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.FunnelResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/funnel [get]
func (h *Handler) funnel(c *gin.Context) {
	defer observe("funnel", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.Funnel(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// topConvertingFilters handles GET /sites/{siteKey}/analytics/top-converting-filters
// @Summary Top converting filters
// @Description Filter combinations ranked by the converting sessions they appeared in
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.TopConvertingFiltersResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/top-converting-filters [get]
func (h *Handler) topConvertingFilters(c *gin.Context) {
	defer observe("top_converting_filters", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.TopConvertingFilters(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// leadProfile handles GET /sites/{siteKey}/analytics/leads
// @Summary Lead profile
// @Description Declared lead interests and average intended budgets
// @Tags analytics
// @Produce json
// @Param siteKey path string true "Site key"
// @Param period query string false "Period selector (day, week, month, year, custom)"
// @Success 200 {object} dto.LeadProfileResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sites/{siteKey}/analytics/leads [get]
func (h *Handler) leadProfile(c *gin.Context) {
	defer observe("leads", time.Now())
	q, ok := bindQuery(c)
	if !ok {
		return
	}

	resp, err := h.analytics.LeadProfile(c.Request.Context(), c.Param("siteKey"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// refreshRollups handles POST /admin/rollups/refresh
// @Summary Refresh daily rollups
// @Description Recompute the daily rollup aggregates for a window, defaulting to the last 90 days
// @Tags admin
// @Accept json
// @Produce json
// @Param window body dto.RollupRefreshRequest false "Refresh window"
// @Success 200 {object} dto.RollupRefreshResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/rollups/refresh [post]
func (h *Handler) refreshRollups(c *gin.Context) {
	var req dto.RollupRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var from, to time.Time
	if req.FromDate != "" {
		parsed, err := time.Parse("2006-01-02", req.FromDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: "fromDate must be formatted as YYYY-MM-DD",
			})
			return
		}
		from = parsed
	}
	if req.ToDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ToDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: "toDate must be formatted as YYYY-MM-DD",
			})
			return
		}
		to = parsed
	}

	if err := h.rollups.Refresh(c.Request.Context(), from, to); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RollupRefreshResponse{
		Status: "refreshed",
		From:   req.FromDate,
		To:     req.ToDate,
	})
}
