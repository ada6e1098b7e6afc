package handlers

import (
	"errors"
	"net/http"

	"fieldly/models"
	"fieldly/services/lifecycle"
	"fieldly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobHandler exposes the job lifecycle to the mobile UI.
type JobHandler struct {
	Sessions *lifecycle.SessionManager
	Logger   *zap.Logger
}

func NewJobHandler(sessions *lifecycle.SessionManager, logger *zap.Logger) *JobHandler {
	return &JobHandler{Sessions: sessions, Logger: logger}
}

// SubmitBooking validates and submits a booking, opening a job session on
// success.
func (h *JobHandler) SubmitBooking(c *gin.Context) {
	var booking models.Booking
	if err := c.ShouldBindJSON(&booking); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := h.Sessions.Submit(c.Request.Context(), booking)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// JobStatus returns the session's current view: phase, stage, snapshot,
// elapsed counter.
func (h *JobHandler) JobStatus(c *gin.Context) {
	view, err := h.Sessions.Status(c.Param("jobID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApproveProvider accepts the pending provider proposal.
func (h *JobHandler) ApproveProvider(c *gin.Context) {
	if err := h.Sessions.Approve(c.Request.Context(), c.Param("jobID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// RejectProvider declines the pending provider proposal. The body must carry
// confirmed:true; rejection re-queues matching server-side.
func (h *JobHandler) RejectProvider(c *gin.Context) {
	var input struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Sessions.Reject(c.Request.Context(), c.Param("jobID"), input.Confirmed); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// PendingProvider returns the provider awaiting the customer's decision.
func (h *JobHandler) PendingProvider(c *gin.Context) {
	info, err := h.Sessions.PendingProvider(c.Request.Context(), c.Param("jobID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// KeepWaiting re-queues a timed-out search for one more budget.
func (h *JobHandler) KeepWaiting(c *gin.Context) {
	if err := h.Sessions.KeepWaiting(c.Request.Context(), c.Param("jobID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "searching"})
}

// CancelJob cancels the job and disposes its session.
func (h *JobHandler) CancelJob(c *gin.Context) {
	if err := h.Sessions.Cancel(c.Request.Context(), c.Param("jobID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// SendChat posts a message on the job thread; the response carries the
// delivery state of the optimistic entry.
func (h *JobHandler) SendChat(c *gin.Context) {
	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	msg, err := h.Sessions.SendChat(c.Request.Context(), c.Param("jobID"), input.Body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ChatMessages returns the job thread in insertion order.
func (h *JobHandler) ChatMessages(c *gin.Context) {
	msgs, err := h.Sessions.ChatMessages(c.Param("jobID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// writeError maps the lifecycle error taxonomy onto HTTP statuses.
func (h *JobHandler) writeError(c *gin.Context, err error) {
	switch {
	case lifecycle.IsValidation(err):
		utils.JSONError(c, http.StatusBadRequest, "validation failed", err.Error())
	case lifecycle.IsAuth(err):
		utils.JSONError(c, http.StatusUnauthorized, "session expired", err.Error())
	case errors.Is(err, lifecycle.ErrUnknownSession):
		utils.JSONError(c, http.StatusNotFound, "no active session for job", err.Error())
	case errors.Is(err, lifecycle.ErrActionInFlight):
		utils.JSONError(c, http.StatusConflict, "action already in flight", err.Error())
	default:
		var svcErr *lifecycle.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode >= 400 {
			utils.JSONError(c, svcErr.StatusCode, "upstream request failed", svcErr.Message)
			return
		}
		h.Logger.Error("Unexpected lifecycle error", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "upstream request failed", err.Error())
	}
}
