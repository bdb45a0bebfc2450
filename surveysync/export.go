package surveysync

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/models"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler streams the recent ledger rows as an xlsx workbook.
func ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Export defaults to every row; FAILED rows carry the error column.
		status := models.SurveySyncStatus("")
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			s, ok := parseStatusFilter(raw)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			status = s
		}
		limit := parseLimit(c.Query("limit"), 100, 1000)

		records, err := models.ListRecentSurveySyncRecords(c.Request.Context(), status, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		f := excelize.NewFile()
		if _, err := f.NewSheet("Sheet1"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Add headers
		f.SetCellValue("Sheet1", "A1", "FormTitle")
		f.SetCellValue("Sheet1", "B1", "FormId")
		f.SetCellValue("Sheet1", "C1", "ResponseId")
		f.SetCellValue("Sheet1", "D1", "SubmittedAt")
		f.SetCellValue("Sheet1", "E1", "Status")
		f.SetCellValue("Sheet1", "F1", "FollowUp")
		f.SetCellValue("Sheet1", "G1", "Error")

		// Add data
		for i, d := range records {
			row := fmt.Sprint(i + 2)
			f.SetCellValue("Sheet1", "A"+row, d.FormTitle)
			f.SetCellValue("Sheet1", "B"+row, d.FormID)
			f.SetCellValue("Sheet1", "C"+row, d.ResponseID)
			if d.SubmittedAt != nil {
				f.SetCellValue("Sheet1", "D"+row, d.SubmittedAt.Format(time.RFC3339))
			}
			f.SetCellValue("Sheet1", "E"+row, string(d.SyncStatus))
			f.SetCellValue("Sheet1", "F"+row, string(d.FollowUpStatus))
			f.SetCellValue("Sheet1", "G"+row, utils.DereferencePtr(d.ErrorMessage, ""))
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=survey-sync-records.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}
