package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dashboard/backend/internal/alert"
	apperrors "dashboard/backend/internal/errors"
	"dashboard/backend/internal/model"
)

// AlarmSound serves the synthesized tone sequence for a sound as a WAV file.
func AlarmSound(c *gin.Context) {
	sound := c.Param("sound")
	if !model.IsAlarmSound(sound) {
		writeError(c, apperrors.NotFound("sound_not_found", "Alarm sound not found"))
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "audio/wav", alert.EncodeWAV(alert.Synthesize(sound), alert.DefaultSampleRate))
}
