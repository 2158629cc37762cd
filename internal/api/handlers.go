package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cineboard/internal/logging"
	"cineboard/internal/session"
	"cineboard/internal/storyboard"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Session: s.orch.Status()})
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	mode := s.orch.Snapshot().Mode
	if req.Mode != "" {
		parsed, err := storyboard.ParseMode(req.Mode)
		if err != nil {
			abortError(c, http.StatusBadRequest, "invalid_mode", err)
			return
		}
		mode = parsed
	}
	if _, err := s.orch.StartGenerationAsync(req.Story, mode); err != nil {
		s.abortSession(c, err)
		return
	}
	state := s.orch.Snapshot()
	logging.WithContext(c.Request.Context(), s.logger).Info("story submitted",
		logging.String(logging.FieldStoryboardID, state.StoryboardID),
		logging.String("mode", string(mode)),
	)
	c.JSON(http.StatusAccepted, AcceptedResponse{StoryboardID: state.StoryboardID, Phase: state.Phase})
}

func (s *Server) handleRetry(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortError(c, http.StatusBadRequest, "bad_request", errors.New("scene index must be an integer"))
		return
	}
	if _, err := s.orch.RetrySceneAsync(index); err != nil {
		s.abortSession(c, err)
		return
	}
	state := s.orch.Snapshot()
	c.JSON(http.StatusAccepted, AcceptedResponse{StoryboardID: state.StoryboardID, SceneIndex: &index, Phase: state.Phase})
}

func (s *Server) handleReset(c *gin.Context) {
	s.orch.Reset(c.Request.Context())
	c.JSON(http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	mode, err := storyboard.ParseMode(req.Mode)
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_mode", err)
		return
	}
	if err := s.orch.SelectMode(mode); err != nil {
		s.abortSession(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.orch.SetInput(req.Story); err != nil {
		s.abortSession(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orch.Snapshot())
}

// abortSession maps orchestrator precondition errors to HTTP statuses.
func (s *Server) abortSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrBlankStory):
		abortError(c, http.StatusBadRequest, "blank_story", err)
	case errors.Is(err, session.ErrInvalidMode):
		abortError(c, http.StatusBadRequest, "invalid_mode", err)
	case errors.Is(err, session.ErrBusy):
		abortError(c, http.StatusConflict, "busy", err)
	case errors.Is(err, session.ErrSceneBusy):
		abortError(c, http.StatusConflict, "scene_busy", err)
	case errors.Is(err, session.ErrNoStoryboard):
		abortError(c, http.StatusNotFound, "no_storyboard", err)
	case errors.Is(err, session.ErrSceneOutOfRange):
		abortError(c, http.StatusNotFound, "scene_out_of_range", err)
	default:
		logging.WithContext(c.Request.Context(), s.logger).Error("api request failed", logging.Error(err))
		abortError(c, http.StatusInternalServerError, "internal", err)
	}
}

func abortError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
