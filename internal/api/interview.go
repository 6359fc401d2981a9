package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type startRequest struct {
	InterviewType string `json:"interviewType" binding:"required"`
}

type respondRequest struct {
	SessionID int64  `json:"sessionId" binding:"required,gt=0"`
	Answer    string `json:"answer" binding:"required"`
}

type endRequest struct {
	SessionID int64 `json:"sessionId" binding:"required,gt=0"`
}

func (h *Handler) startInterview(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req startRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.interviews.Start(c.Request.Context(), userID, req.InterviewType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"sessionId":        res.SessionID,
		"question":         res.Question,
		"analysis":         res.Analysis,
		"difficulty_level": res.DifficultyLevel,
	})
}

func (h *Handler) respondInterview(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req respondRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.interviews.Respond(c.Request.Context(), userID, req.SessionID, req.Answer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"nextQuestion":     res.NextQuestion,
		"analysis":         res.Analysis,
		"difficulty_level": res.DifficultyLevel,
	})
}

func (h *Handler) endInterview(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req endRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.interviews.End(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"feedback":         res.Feedback,
		"duration_minutes": res.DurationMinutes,
	})
}

func (h *Handler) getSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		fail(c, http.StatusBadRequest, "Invalid session id")
		return
	}
	detail, err := h.interviews.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"session":       detail.Session,
		"conversations": detail.Messages,
		"feedback":      detail.Feedback,
	})
}

func (h *Handler) listHistory(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit")
	offset := queryInt(c, "offset")
	entries, err := h.interviews.ListHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"interviews": entries,
	})
}

// queryInt reads an integer query parameter; missing or malformed values yield 0,
// which the manager replaces with its defaults.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
