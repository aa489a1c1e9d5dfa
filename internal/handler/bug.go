package handler

import (
	"net/http"
	"strconv"

	"github.com/bugboard/api/internal/middleware"
	"github.com/bugboard/api/internal/service"
	"github.com/bugboard/api/internal/store"
	"github.com/gin-gonic/gin"
)

type BugHandler struct {
	service *service.BugService
}

func NewBugHandler(svc *service.BugService) *BugHandler {
	return &BugHandler{service: svc}
}

type SubmitBugRequest struct {
	Username    string `json:"username" binding:"required,max=20"`
	Email       string `json:"email" binding:"required,max=50"`
	Description string `json:"description" binding:"required,max=800"`
	Flair       string `json:"flair" binding:"max=20"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,max=20"`
}

// Submit creates a new bug report. The reporter fields are taken from the
// request body, not the session: anyone authenticated can report on behalf of
// a known username/email.
func (h *BugHandler) Submit(c *gin.Context) {
	var req SubmitBugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and description (max 800) are required"})
		return
	}

	bug, err := h.service.Submit(c.Request.Context(), store.CreateBugParams{
		ReporterUsername: req.Username,
		ReporterEmail:    req.Email,
		Description:      req.Description,
		Flair:            req.Flair,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bug)
}

// List returns all bug reports for the dashboard.
func (h *BugHandler) List(c *gin.Context) {
	bugs, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bugs, "count": len(bugs)})
}

func (h *BugHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bug id"})
		return
	}

	bug, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bug)
}

// UpdateStatus transitions the bug to a caller-supplied status label.
func (h *BugHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bug id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required (max 20 characters)"})
		return
	}

	bug, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.RecordBugTransition(bug.Status)
	c.JSON(http.StatusOK, bug)
}

// Close removes the bug report entirely.
func (h *BugHandler) Close(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bug id"})
		return
	}

	if err := h.service.Close(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	middleware.RecordBugClosed()
	c.JSON(http.StatusOK, gin.H{"message": "bug closed"})
}
