package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/forum"
	"github.com/campusnest/forum/internal/middleware"
	"github.com/campusnest/forum/internal/moderation"
)

// MaxCheckLength bounds the text accepted by the moderation check endpoint.
const MaxCheckLength = forum.MaxContentLength

type ModerationHandler struct {
	mod      moderation.Moderator
	screener *forum.Screener
	reviews  forum.ReviewQueue
	decided  func(*forum.Record)
}

// NewModerationHandler creates the handler. reviews may be nil when no
// record store is configured; the admin queue routes then answer 503.
// decided, if set, is called after an admin settles a held post.
func NewModerationHandler(mod moderation.Moderator, screener *forum.Screener, reviews forum.ReviewQueue, decided func(*forum.Record)) *ModerationHandler {
	return &ModerationHandler{mod: mod, screener: screener, reviews: reviews, decided: decided}
}

type checkRequest struct {
	Text string `json:"text" binding:"required"`
}

// Check runs the cascade over arbitrary text.
func (h *ModerationHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "text is required")
		return
	}
	if len([]rune(req.Text)) > MaxCheckLength {
		ErrorResponse(c, http.StatusBadRequest, "text is too long")
		return
	}
	c.JSON(http.StatusOK, h.mod.Moderate(c.Request.Context(), req.Text))
}

type screenRequest struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
}

// Screen decides whether a new post is published or held.
func (h *ModerationHandler) Screen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	category, err := forum.ParseCategory(req.Category)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.screener.Screen(c.Request.Context(), forum.Submission{
		AuthorID: middleware.UserID(c),
		Category: category,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
	})
	if err != nil {
		writeForumError(c, err)
		return
	}

	status := http.StatusCreated
	if rec.Status == forum.StatusPendingReview {
		status = http.StatusAccepted
	}
	c.JSON(status, rec)
}

// Pending lists held posts for admins.
func (h *ModerationHandler) Pending(c *gin.Context) {
	if h.reviews == nil {
		ErrorResponse(c, http.StatusServiceUnavailable, "Review queue unavailable")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		ErrorResponse(c, http.StatusBadRequest, "limit must be between 1 and 200")
		return
	}

	records, err := h.reviews.PendingRecords(c.Request.Context(), limit)
	if err != nil {
		writeForumError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

type decisionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Decide publishes or rejects a held post.
func (h *ModerationHandler) Decide(c *gin.Context) {
	if h.reviews == nil {
		ErrorResponse(c, http.StatusServiceUnavailable, "Review queue unavailable")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid record id")
		return
	}
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "status is required")
		return
	}
	status, err := forum.ParseDecision(req.Status)
	if err != nil {
		writeForumError(c, err)
		return
	}

	rec, err := h.reviews.Decide(c.Request.Context(), id, status)
	if err != nil {
		writeForumError(c, err)
		return
	}
	if h.decided != nil {
		h.decided(rec)
	}
	c.JSON(http.StatusOK, rec)
}

// Categories lists the forum categories and reactions.
func (h *ModerationHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": forum.AllCategories(),
		"reactions":  forum.AllReactions(),
	})
}
