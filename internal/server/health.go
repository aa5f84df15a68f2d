package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showkit/showrunner"
	"github.com/showkit/showrunner/pkg/api"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: showrunner.Name,
		Status:  "ok",
	})
}
