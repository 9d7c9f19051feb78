// Package httpapi exposes the REST surface of the alert engine: detection
// ingest, alert queries, and the alert-management status transitions.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/store"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/ws"
)

// DetectionProcessor logs a detection event as an alert.
type DetectionProcessor interface {
	HandleDetection(ctx context.Context, msg *models.DetectionMessage) (*models.AlertRecord, error)
}

// AlertReader is the alert-management side of the store the API needs.
type AlertReader interface {
	GetByID(ctx context.Context, alertID string) (*models.AlertRecord, error)
	List(ctx context.Context, filter store.AlertFilter) ([]*models.AlertRecord, error)
	Acknowledge(ctx context.Context, alertID, assignedTo string) (*models.AlertRecord, error)
	Resolve(ctx context.Context, alertID, notes string, falsePositive bool) (*models.AlertRecord, error)
}

// ActiveAlertLister reports the currently open alert IDs for a car, backed
// by the Redis active-alert sets.
type ActiveAlertLister interface {
	ActiveAlerts(ctx context.Context, carID string) ([]string, error)
}

// HealthChecker reports readiness of a backing service.
type HealthChecker func(ctx context.Context) error

// Server is the HTTP API server.
type Server struct {
	processor DetectionProcessor
	alerts    AlertReader
	active    ActiveAlertLister
	hub       *ws.Hub
	checks    map[string]HealthChecker

	httpServer *http.Server
}

// NewServer builds the API server. hub may be nil when the WebSocket feed
// is disabled.
func NewServer(processor DetectionProcessor, alerts AlertReader, hub *ws.Hub) *Server {
	return &Server{
		processor: processor,
		alerts:    alerts,
		hub:       hub,
		checks:    make(map[string]HealthChecker),
	}
}

// SetActiveAlerts enables the per-car active-alert endpoint. Without it the
// route is not registered.
func (s *Server) SetActiveAlerts(active ActiveAlertLister) {
	s.active = active
}

// AddHealthCheck registers a named readiness check reported by /health.
func (s *Server) AddHealthCheck(name string, check HealthChecker) {
	s.checks[name] = check
}

// Start runs the HTTP server on addr. Blocks until shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}

	log.Printf("HTTP API listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/detections", s.handleIngestDetection)

		alertRoutes := api.Group("/alerts")
		{
			alertRoutes.GET("", s.handleListAlerts)
			alertRoutes.GET("/:id", s.handleGetAlert)
			alertRoutes.POST("/:id/acknowledge", s.handleAcknowledge)
			alertRoutes.POST("/:id/resolve", s.handleResolve)
		}

		if s.active != nil {
			api.GET("/cars/:id/alerts/active", s.handleActiveAlerts)
		}
	}

	if s.hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			s.hub.ServeWS(c.Writer, c.Request)
		})
	}

	return router
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

type ingestRequest struct {
	CarID     string                    `json:"car_id" binding:"required"`
	Primary   models.DetectionCandidate `json:"primary"`
	Secondary models.DetectionCandidate `json:"secondary"`
}

// handleIngestDetection accepts a detection event over HTTP. Same contract
// as the MQTT detection topic, for callers without broker access.
func (s *Server) handleIngestDetection(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return
	}

	msg := &models.DetectionMessage{
		CarID:     req.CarID,
		Primary:   req.Primary,
		Secondary: req.Secondary,
		Timestamp: time.Now().Unix(),
	}

	record, err := s.processor.HandleDetection(c.Request.Context(), msg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log detection: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleListAlerts(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)

	filter := store.AlertFilter{
		CarID:    c.Query("car_id"),
		Status:   models.AlertStatus(c.Query("status")),
		Severity: models.Severity(c.Query("severity")),
		Limit:    limit,
	}

	records, err := s.alerts.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": records, "count": len(records)})
}

func (s *Server) handleGetAlert(c *gin.Context) {
	record, err := s.alerts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) handleActiveAlerts(c *gin.Context) {
	carID := c.Param("id")

	ids, err := s.active.ActiveAlerts(c.Request.Context(), carID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list active alerts: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"car_id": carID, "alert_ids": ids, "count": len(ids)})
}

type acknowledgeRequest struct {
	AssignedTo string `json:"assigned_to"`
}

func (s *Server) handleAcknowledge(c *gin.Context) {
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return
	}

	record, err := s.alerts.Acknowledge(c.Request.Context(), c.Param("id"), req.AssignedTo)
	if err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

type resolveRequest struct {
	Notes         string `json:"notes"`
	FalsePositive bool   `json:"false_positive"`
}

func (s *Server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return
	}

	record, err := s.alerts.Resolve(c.Request.Context(), c.Param("id"), req.Notes, req.FalsePositive)
	if err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	result := gin.H{"status": "healthy"}

	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			result["status"] = "unhealthy"
			result[name] = err.Error()
		} else {
			result[name] = "ok"
		}
	}

	c.JSON(status, result)
}

func statusForStoreError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start))
	}
}
