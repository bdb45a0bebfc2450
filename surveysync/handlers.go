package surveysync

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/clinic_backend/models"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
	"github.com/gin-gonic/gin"
)

// RunHandler triggers a manual run and returns the summary synchronously.
func RunHandler(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "survey sync is not configured"})
			return
		}

		summary, err := engine.Run(c.Request.Context(), TriggerManual)
		if err != nil {
			switch {
			case errors.Is(err, ErrRunInProgress):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, ErrNoFormSources):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func RecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := parseStatusFilter(c.Query("status"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		limit := parseLimit(c.Query("limit"), 20, 100)

		records, err := models.ListRecentSurveySyncRecords(c.Request.Context(), status, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": records})
	}
}

// parseStatusFilter maps the optional status query value to a ledger
// status. Empty defaults to SYNCED (the patient-bearing view); "all"
// disables the filter.
func parseStatusFilter(raw string) (models.SurveySyncStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return models.SurveySyncStatusSynced, true
	case "ALL":
		return "", true
	case string(models.SurveySyncStatusSynced):
		return models.SurveySyncStatusSynced, true
	case string(models.SurveySyncStatusFailed):
		return models.SurveySyncStatusFailed, true
	default:
		return "", false
	}
}

func parseLimit(raw string, def int, max int) int {
	if v := strings.TrimSpace(raw); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}

func RecordDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
			return
		}

		detail, err := models.GetSurveySyncRecordDetail(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

type followUpRequest struct {
	Status models.SurveyFollowUpStatus `json:"status" binding:"required"`
}

func FollowUpHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
			return
		}

		var req followUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.Status != models.SurveyFollowUpContacted && req.Status != models.SurveyFollowUpNotContacted {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid follow-up status"})
			return
		}

		record, err := models.SetSurveyFollowUpStatus(c.Request.Context(), uint(id), req.Status)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}
