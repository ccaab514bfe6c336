package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusnest/forum/internal/calendar"
	"github.com/campusnest/forum/internal/middleware"
	"github.com/campusnest/forum/internal/wordle"
)

type WordleHandler struct {
	svc *wordle.Service
}

func NewWordleHandler(svc *wordle.Service) *WordleHandler {
	return &WordleHandler{svc: svc}
}

// Today returns the hint and the caller's progress on today's word.
func (h *WordleHandler) Today(c *gin.Context) {
	view, err := h.svc.TodayFor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type guessRequest struct {
	Guess string `json:"guess" binding:"required"`
}

func (h *WordleHandler) Guess(c *gin.Context) {
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "guess is required")
		return
	}

	out, err := h.svc.SubmitGuess(c.Request.Context(), middleware.UserID(c), req.Guess)
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *WordleHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *WordleHandler) Leaderboard(c *gin.Context) {
	entries, err := h.svc.Leaderboard(c.Request.Context())
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type setWordRequest struct {
	Date string `json:"date"`
	Word string `json:"word" binding:"required"`
	Hint string `json:"hint"`
}

// SetWord stores the word for a date (today when omitted).
func (h *WordleHandler) SetWord(c *gin.Context) {
	var req setWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "word is required")
		return
	}
	var day calendar.Day
	if req.Date != "" {
		d, err := calendar.Parse(req.Date)
		if err != nil {
			writeWordleError(c, wordle.ErrInvalidDay)
			return
		}
		day = d
	}

	w, err := h.svc.SetWord(c.Request.Context(), middleware.UserID(c), day, req.Word, req.Hint)
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WordleHandler) ListWords(c *gin.Context) {
	words, err := h.svc.ListWords(c.Request.Context())
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, words)
}

func (h *WordleHandler) DeleteWord(c *gin.Context) {
	day, err := calendar.Parse(c.Param("date"))
	if err != nil {
		writeWordleError(c, wordle.ErrInvalidDay)
		return
	}
	if err := h.svc.DeleteWord(c.Request.Context(), day); err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Word deleted"})
}

func (h *WordleHandler) Regenerate(c *gin.Context) {
	w, err := h.svc.Regenerate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeWordleError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
