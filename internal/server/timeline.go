package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listTimeline(c *gin.Context) {
	entries, err := s.stores.Timeline.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeline": entries})
}
