package surveysync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/models"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
)

// Report is the synthesized snapshot this package writes per response.
type Report struct {
	ID         int
	PatientID  int
	ReportDate time.Time
	Title      string
	Content    string
	Notes      string
}

// ReportStore persists synthesized reports.
type ReportStore interface {
	Create(ctx context.Context, report *Report) (*Report, error)
}

// buildReport assembles the snapshot: reportDate is the submission time
// in the configured zone (now when unavailable), content is a bullet
// per answered question in extraction order, notes carry provenance.
func (e *Engine) buildReport(patient *Patient, def *FormDefinition, responseID string, entries []AnswerEntry, submittedAt *time.Time) *Report {
	reportDate := utils.ConvertToLocalTime(time.Now(), e.cfg.Timezone)
	if submittedAt != nil {
		reportDate = utils.ConvertToLocalTime(*submittedAt, e.cfg.Timezone)
	}

	var content strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&content, "- %s: %s\n", entry.Label, entry.Value)
	}

	return &Report{
		PatientID:  patient.ID,
		ReportDate: reportDate,
		Title:      e.cfg.ReportTitle,
		Content:    content.String(),
		Notes: fmt.Sprintf("Synced from form %q (id=%s, response=%s)",
			def.Title, def.FormID, responseID),
	}
}

type gormReportStore struct{}

// NewReportStore returns the models-backed ReportStore.
func NewReportStore() ReportStore {
	return &gormReportStore{}
}

func (s *gormReportStore) Create(ctx context.Context, report *Report) (*Report, error) {
	created, err := models.CreateMedicalReport(ctx, &models.MedicalReport{
		PatientID:  report.PatientID,
		ReportDate: report.ReportDate,
		Title:      report.Title,
		Content:    report.Content,
		Notes:      report.Notes,
	})
	if err != nil {
		return nil, err
	}
	report.ID = created.ID
	return report, nil
}
