package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/showkit/showrunner/internal/journal"
	"github.com/showkit/showrunner/internal/run"
	"github.com/showkit/showrunner/pkg/api"
)

var (
	ErrInvalidJSON = errors.New("invalid JSON payload")
	ErrStartRun    = errors.New("failed to start run")
	ErrListRuns    = errors.New("failed to list runs")
	ErrGetRun      = errors.New("failed to get run")
)

func (s *Server) startRun(c *gin.Context) {
	var req api.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	runID, err := s.runner.Start(req.Steps, req.Settings)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, run.ErrNoSteps) ||
			errors.Is(err, run.ErrInvalidStep) {
			status = http.StatusBadRequest
		}
		c.JSON(status, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrStartRun, err),
			Status: status,
		})
		return
	}

	c.JSON(http.StatusAccepted, api.RunStartedResponse{
		RunID: runID,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.journal.ListRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrListRuns, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	digests := make([]*api.RunDigest, 0, len(runs))
	for _, rec := range runs {
		digests = append(digests, rec.Digest())
	}

	c.JSON(http.StatusOK, api.RunsListResponse{
		Runs:  digests,
		Count: len(digests),
	})
}

func (s *Server) getRun(c *gin.Context) {
	id := api.RunID(c.Param("runID"))

	rec, err := s.journal.GetRun(c.Request.Context(), id)
	if errors.Is(err, journal.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrGetRun, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}
