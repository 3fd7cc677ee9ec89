package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmhodges/clock"

	apperrors "dashboard/backend/internal/errors"
	"dashboard/backend/internal/middleware"
	"dashboard/backend/internal/model"
	"dashboard/backend/internal/service"
	"dashboard/backend/internal/widget"
)

type TimerHandler struct {
	timerService   *service.TimerService
	clock          clock.Clock
	summaryMaxRows int
}

type createTimerRequest struct {
	Name                  string  `json:"name"`
	DurationSeconds       int     `json:"durationSeconds"`
	EnableCompletionColor bool    `json:"enableCompletionColor"`
	CompletionColor       *string `json:"completionColor"`
	EnableAlarm           bool    `json:"enableAlarm"`
	AlarmSound            *string `json:"alarmSound"`
	DisplayOrder          *int    `json:"displayOrder"`
}

// updateTimerRequest keeps endTime raw so an explicit null can clear it.
type updateTimerRequest struct {
	Name                  *string           `json:"name"`
	DurationSeconds       *int              `json:"durationSeconds"`
	RemainingSeconds      *int              `json:"remainingSeconds"`
	State                 *model.TimerState `json:"state"`
	EndTime               json.RawMessage   `json:"endTime"`
	EnableCompletionColor *bool             `json:"enableCompletionColor"`
	CompletionColor       *string           `json:"completionColor"`
	EnableAlarm           *bool             `json:"enableAlarm"`
	AlarmSound            *string           `json:"alarmSound"`
	DisplayOrder          *int              `json:"displayOrder"`
}

type pauseRequest struct {
	RemainingSeconds *int `json:"remainingSeconds"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func NewTimerHandler(timerService *service.TimerService, clk clock.Clock, summaryMaxRows int) *TimerHandler {
	return &TimerHandler{timerService: timerService, clock: clk, summaryMaxRows: summaryMaxRows}
}

func (h *TimerHandler) List(c *gin.Context) {
	timers, apiErr := h.timerService.ListTimers(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if timers == nil {
		timers = []model.Timer{}
	}
	writeSuccess(c, http.StatusOK, gin.H{"timers": timers})
}

func (h *TimerHandler) Summary(c *gin.Context) {
	timers, apiErr := h.timerService.ListTimers(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"summary": widget.Summarize(timers, h.clock.Now(), h.summaryMaxRows)})
}

func (h *TimerHandler) Create(c *gin.Context) {
	var req createTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	id, apiErr := h.timerService.CreateTimer(c.Request.Context(), middleware.UserID(c), service.CreateTimerInput{
		Name:                  req.Name,
		DurationSeconds:       req.DurationSeconds,
		EnableCompletionColor: req.EnableCompletionColor,
		CompletionColor:       req.CompletionColor,
		EnableAlarm:           req.EnableAlarm,
		AlarmSound:            req.AlarmSound,
		DisplayOrder:          req.DisplayOrder,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusCreated, gin.H{"id": id})
}

func (h *TimerHandler) Get(c *gin.Context) {
	t, apiErr := h.timerService.GetTimer(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"timer": t})
}

func (h *TimerHandler) Update(c *gin.Context) {
	var req updateTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	patch, apiErr := req.patch()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	t, apiErr := h.timerService.UpdateTimer(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"timer": t})
}

func (h *TimerHandler) Delete(c *gin.Context) {
	if apiErr := h.timerService.DeleteTimer(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, nil)
}

func (h *TimerHandler) Start(c *gin.Context) {
	t, apiErr := h.timerService.StartTimer(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"timer": t})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if req.RemainingSeconds == nil {
		writeError(c, apperrors.Validation("remainingSeconds is required"))
		return
	}

	t, apiErr := h.timerService.PauseTimer(c.Request.Context(), middleware.UserID(c), c.Param("id"), *req.RemainingSeconds)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"timer": t})
}

func (h *TimerHandler) Reset(c *gin.Context) {
	t, apiErr := h.timerService.ResetTimer(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"timer": t})
}

func (h *TimerHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if apiErr := h.timerService.ReorderTimers(c.Request.Context(), middleware.UserID(c), req.IDs); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeSuccess(c, http.StatusOK, nil)
}

func (r updateTimerRequest) patch() (model.TimerPatch, *apperrors.APIError) {
	patch := model.TimerPatch{
		Name:                  r.Name,
		DurationSeconds:       r.DurationSeconds,
		RemainingSeconds:      r.RemainingSeconds,
		State:                 r.State,
		EnableCompletionColor: r.EnableCompletionColor,
		CompletionColor:       r.CompletionColor,
		EnableAlarm:           r.EnableAlarm,
		AlarmSound:            r.AlarmSound,
		DisplayOrder:          r.DisplayOrder,
	}

	raw := bytes.TrimSpace(r.EndTime)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		patch.ClearEndTime = true
	default:
		var end time.Time
		if err := json.Unmarshal(raw, &end); err != nil {
			return model.TimerPatch{}, apperrors.Validation("endTime must be an RFC 3339 timestamp or null")
		}
		patch.EndTime = &end
	}
	return patch, nil
}
