package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createShare(c *gin.Context) {
	link, err := s.sharing.Issue(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      link.Token,
		"url":        "/api/v1/shared/" + link.Token,
		"expires_at": link.ExpiresAt,
	})
}

// resolveShare is unauthenticated: the token is the capability.
func (s *Server) resolveShare(c *gin.Context) {
	view, err := s.sharing.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
