package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) listMedications(c *gin.Context) {
	meds, err := s.stores.Medications.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": meds})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// setMedicationActive toggles a medication on or off without deleting its
// history.
func (s *Server) setMedicationActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid medication id"})
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}

	med, err := s.stores.Medications.SetActive(c.Request.Context(), id, userID(c), *req.IsActive)
	if err != nil {
		s.fail(c, err)
		return
	}
	if med == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, med)
}
