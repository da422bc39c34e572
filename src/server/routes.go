package server

import (
	"net/http"
	"strconv"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Session control
// -----------------------------------------------------------------------------

func (s *ViewerServer) sessionCommand(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd models.MControlCommand
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&cmd); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "invalid_argument"})
				return
			}
		}
		cmd.Command = name
		s.respond(c, cmd)
	}
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) putView(c *gin.Context) {
	var cmd models.MControlCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "invalid_argument"})
		return
	}
	cmd.Command = "view"
	s.respond(c, cmd)
}

// -----------------------------------------------------------------------------

// respond runs cmd and answers with the resulting session status.
func (s *ViewerServer) respond(c *gin.Context, cmd models.MControlCommand) {
	ctx, cancel := s.commandContext(c.Request.Context())
	defer cancel()

	err := s.executeCommand(ctx, cmd)
	st, statusErr := s.control.Status(ctx)

	if err != nil {
		s.errHandler.Handle(err, "command "+cmd.Command)
		c.JSON(statusFor(err), gin.H{
			"error":  err.Error(),
			"kind":   kindOf(err),
			"status": st,
		})
		return
	}
	if statusErr != nil {
		c.JSON(statusFor(statusErr), gin.H{"error": statusErr.Error(), "kind": kindOf(statusErr)})
		return
	}
	c.JSON(http.StatusOK, st)
}

// -----------------------------------------------------------------------------
// Read only
// -----------------------------------------------------------------------------

func (s *ViewerServer) getStatus(c *gin.Context) {
	st, err := s.control.Status(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": kindOf(err)})
		return
	}
	c.JSON(http.StatusOK, st)
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getFrame(c *gin.Context) {
	frame, err := s.control.Frame(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": kindOf(err)})
		return
	}
	c.JSON(http.StatusOK, frame)
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getConfig(c *gin.Context) {
	v := s.Config.Viewer
	c.JSON(http.StatusOK, gin.H{
		"topic":            v.Topic,
		"max_series":       v.MaxSeries,
		"max_points":       v.MaxPoints,
		"baseline_samples": v.BaselineSamples,
		"gain_min":         v.GainMin,
		"gain_max":         v.GainMax,
		"default_mode":     v.DefaultMode,
		"default_gain":     v.DefaultGain,
		"message_log_size": v.MessageLogSize,
		"presign_mode":     s.Config.Presign.Mode,
	})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getHealth(c *gin.Context) {
	s.frameMutex.RLock()
	var timestamp int64
	if s.latestFrame != nil {
		timestamp = s.latestFrame.Timestamp
	}
	s.frameMutex.RUnlock()

	state := ""
	if st, err := s.control.Status(c.Request.Context()); err == nil {
		state = string(st.State)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   s.connections.Load(),
		"latest_update": timestamp,
		"state":         state,
	})
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) getJournal(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500", "kind": "invalid_argument"})
			return
		}
		limit = n
	}

	if s.journal == nil {
		c.JSON(http.StatusOK, []models.MTransition{})
		return
	}

	transitions, err := s.journal.Recent(limit)
	if err != nil {
		s.errHandler.Handle(err, "journal")
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": kindOf(err)})
		return
	}
	if transitions == nil {
		transitions = []models.MTransition{}
	}
	c.JSON(http.StatusOK, transitions)
}

// -----------------------------------------------------------------------------

// getMessages lists the raw message log, newest first.
func (s *ViewerServer) getMessages(c *gin.Context) {
	size := s.Config.Viewer.MessageLogSize
	if size <= 0 {
		size = utils.DefaultMessageLogSize
	}

	limit := utils.DefaultMessageView
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > size {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(size), "kind": "invalid_argument"})
			return
		}
		limit = n
	}

	msgs, err := s.control.Messages(c.Request.Context(), limit)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": kindOf(err)})
		return
	}
	if msgs == nil {
		msgs = []models.MMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

// -----------------------------------------------------------------------------

// getPresign issues a signed URL for browser clients. Failures carry only
// an error message, never a partial URL.
func (s *ViewerServer) getPresign(c *gin.Context) {
	presigned, err := s.authority.Presign(c.Request.Context(), c.Query("clientId"))
	if s.metrics != nil {
		s.metrics.Presign(err)
	}
	if err != nil {
		s.errHandler.Handle(err, "presign route")
		c.JSON(http.StatusInternalServerError, models.MPresignResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.MPresignResponse{URL: presigned.URL, ClientID: presigned.ClientID})
}

// -----------------------------------------------------------------------------

func kindOf(err error) string {
	if isUnknownCommand(err) {
		return "invalid_argument"
	}
	return helpers.Kind(err)
}
