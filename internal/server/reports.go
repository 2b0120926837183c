package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/async"
	"github.com/carelens/carelens/internal/entity"
)

// uploadReport accepts a multipart document, persists the blob and the
// processing-state report row, enqueues the pipeline job and returns 202.
// The response carries the report id the client polls.
func (s *Server) uploadReport(c *gin.Context) {
	uid := userID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxUploadBytes),
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if _, ok := constants.AllowedContentTypes[strings.ToLower(contentType)]; !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": fmt.Sprintf("unsupported content type %q", contentType),
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		s.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxUploadBytes),
		})
		return
	}

	reportID := uuid.New()
	key := fmt.Sprintf("%s/%s%s", uid, reportID, strings.ToLower(filepath.Ext(header.Filename)))
	fileURL, err := s.blobs.Put(c.Request.Context(), key, data, contentType)
	if err != nil {
		s.fail(c, fmt.Errorf("store upload: %w", err))
		return
	}

	rep := &entity.Report{
		ID:         reportID,
		UserID:     uid,
		FileName:   filepath.Base(header.Filename),
		FileURL:    fileURL,
		ReportType: constants.TypeGeneral,
		Status:     constants.StatusProcessing,
	}
	if _, err := s.stores.Reports.Create(c.Request.Context(), rep); err != nil {
		s.fail(c, fmt.Errorf("create report: %w", err))
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		ReportID:    reportID,
		Data:        data,
		ContentType: contentType,
	}); err != nil {
		s.fail(c, fmt.Errorf("enqueue report: %w", err))
		return
	}

	s.logger.Info("report.accepted",
		"report_id", reportID, "user_id", uid,
		"file_name", rep.FileName, "bytes", len(data))
	c.JSON(http.StatusAccepted, gin.H{
		"id":     reportID,
		"status": constants.StatusProcessing,
	})
}

func (s *Server) getReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	rep, err := s.stores.Reports.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if rep == nil || rep.UserID != userID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) listReports(c *gin.Context) {
	reps, err := s.stores.Reports.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reps})
}

// downloadReportFile streams the originally uploaded blob back.
func (s *Server) downloadReportFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	rep, err := s.stores.Reports.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if rep == nil || rep.UserID != userID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	key := fmt.Sprintf("%s/%s%s", rep.UserID, rep.ID, strings.ToLower(filepath.Ext(rep.FileName)))
	data, err := s.blobs.Get(c.Request.Context(), key)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName))
	c.Data(http.StatusOK, "application/octet-stream", data)
}
