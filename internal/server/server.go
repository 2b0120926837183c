// Package server exposes the HTTP API: document upload, report polling,
// medications, timeline, sharing and export. Uploads are accepted with 202
// and processed by the background queue; clients observe progress by
// polling the report.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carelens/carelens/internal/async"
	"github.com/carelens/carelens/internal/common"
	"github.com/carelens/carelens/internal/export"
	"github.com/carelens/carelens/internal/repository"
	"github.com/carelens/carelens/internal/share"
	"github.com/carelens/carelens/internal/storage"
)

type Server struct {
	logger  *slog.Logger
	cfg     *common.Config
	stores  repository.Stores
	blobs   storage.BlobStore
	queue   async.Enqueuer
	sharing *share.Service
	export  *export.Service
}

func NewServer(
	logger *slog.Logger,
	cfg *common.Config,
	stores repository.Stores,
	blobs storage.BlobStore,
	queue async.Enqueuer,
	sharing *share.Service,
	exporter *export.Service,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:  logger,
		cfg:     cfg,
		stores:  stores,
		blobs:   blobs,
		queue:   queue,
		sharing: sharing,
		export:  exporter,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// Shared views are the one surface without a user header.
	api.GET("/shared/:token", s.resolveShare)

	authed := api.Group("", s.requireUser())
	{
		authed.POST("/reports", s.uploadReport)
		authed.GET("/reports", s.listReports)
		authed.GET("/reports/:id", s.getReport)
		authed.GET("/reports/:id/file", s.downloadReportFile)

		authed.GET("/medications", s.listMedications)
		authed.PATCH("/medications/:id", s.setMedicationActive)

		authed.GET("/timeline", s.listTimeline)

		authed.POST("/share", s.createShare)
		authed.GET("/export/xlsx", s.exportXLSX)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireUser reads the authenticated user id from the X-User-ID header.
// Upstream auth terminates the session; this service only needs the id.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
			return
		}
		c.Set(string(common.ContextKeyUserID), userID)
		c.Next()
	}
}

func userID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(string(common.ContextKeyUserID))
	id, _ := v.(uuid.UUID)
	return id
}

// fail maps application errors onto HTTP statuses. Unknown errors become
// opaque 500s; the detail stays in the log.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "expired"})
	case errors.Is(err, common.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("http.internal_error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
