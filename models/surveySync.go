package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
	"gorm.io/gorm"
)

type SurveySyncStatus string

const (
	SurveySyncStatusSynced SurveySyncStatus = "SYNCED"
	SurveySyncStatusFailed SurveySyncStatus = "FAILED"
)

type SurveyFollowUpStatus string

const (
	SurveyFollowUpNotContacted SurveyFollowUpStatus = "NOT_CONTACTED"
	SurveyFollowUpContacted    SurveyFollowUpStatus = "CONTACTED"
)

// SurveySyncRecord is the ledger row for one external form response.
// (form_id, response_id) is the idempotency key; a SYNCED row is never
// reprocessed even if the upstream answers change later.
type SurveySyncRecord struct {
	ID             uint                 `gorm:"primary_key" json:"id"`
	FormID         string               `gorm:"uniqueIndex:idx_survey_sync_form_response,priority:1;size:128;not null" json:"form_id"`
	ResponseID     string               `gorm:"uniqueIndex:idx_survey_sync_form_response,priority:2;size:128;not null" json:"response_id"`
	FormTitle      string               `gorm:"size:255" json:"form_title"`
	SubmittedAt    *time.Time           `json:"submitted_at"`
	PatientID      *int                 `gorm:"index" json:"patient_id"`
	ReportID       *int                 `gorm:"index" json:"report_id"`
	SyncStatus     SurveySyncStatus     `gorm:"size:20;not null" json:"sync_status"`
	ErrorMessage   *string              `gorm:"size:1000" json:"error_message"`
	FollowUpStatus SurveyFollowUpStatus `gorm:"size:20;not null;default:NOT_CONTACTED" json:"follow_up_status"`
	FollowUpAt     *time.Time           `json:"follow_up_at"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindSurveySyncRecord returns (nil, nil) when no ledger row exists for
// the pair.
func FindSurveySyncRecord(ctx context.Context, formId string, responseId string) (*SurveySyncRecord, error) {

	db := config.GetDB()
	var result SurveySyncRecord

	err := db.WithContext(ctx).
		Where("form_id = ? AND response_id = ?", formId, responseId).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// UpsertSurveySyncRecord writes the ledger row for (form_id, response_id).
// A fresh pair inserts; a retried FAILED pair updates the existing row in
// place. The unique index backstops concurrent runs: a duplicate-key insert
// falls back to find-and-save.
func UpsertSurveySyncRecord(ctx context.Context, record *SurveySyncRecord) error {

	db := config.GetDB()

	record.ErrorMessage = truncateErrorMessage(record.ErrorMessage)

	existing, err := FindSurveySyncRecord(ctx, record.FormID, record.ResponseID)
	if err != nil {
		return err
	}
	if existing != nil {
		record.ID = existing.ID
		record.FollowUpStatus = existing.FollowUpStatus
		record.FollowUpAt = existing.FollowUpAt
		record.CreatedAt = existing.CreatedAt
		return db.WithContext(ctx).Save(record).Error
	}

	if record.FollowUpStatus == "" {
		record.FollowUpStatus = SurveyFollowUpNotContacted
	}

	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		// lost the race against a concurrent run; update the winner's row
		existing, ferr := FindSurveySyncRecord(ctx, record.FormID, record.ResponseID)
		if ferr != nil || existing == nil {
			return err
		}
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		return db.WithContext(ctx).Save(record).Error
	}
	return nil
}

func truncateErrorMessage(msg *string) *string {
	if msg == nil {
		return nil
	}
	truncated := utils.TruncateString(*msg, 1000)
	return &truncated
}

// ListRecentSurveySyncRecords returns the newest ledger rows first,
// optionally filtered by status. A SYNCED query returns only
// patient-bearing rows; an empty status returns every row.
func ListRecentSurveySyncRecords(ctx context.Context, status SurveySyncStatus, limit int) ([]*SurveySyncRecord, error) {

	db := config.GetDB()
	var results []*SurveySyncRecord

	query := db.WithContext(ctx).Order("id DESC").Limit(limit)
	if status != "" {
		query = query.Where("sync_status = ?", status)
	}
	if status == SurveySyncStatusSynced {
		query = query.Where("patient_id IS NOT NULL")
	}

	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SetSurveyFollowUpStatus marks a ledger row contacted or not contacted
// and stamps follow_up_at on the transition to CONTACTED.
func SetSurveyFollowUpStatus(ctx context.Context, id uint, status SurveyFollowUpStatus) (*SurveySyncRecord, error) {

	db := config.GetDB()
	var record SurveySyncRecord

	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{"follow_up_status": status}
	if status == SurveyFollowUpContacted {
		now := time.Now()
		updates["follow_up_at"] = &now
	} else {
		updates["follow_up_at"] = nil
	}

	if err := db.WithContext(ctx).Model(&record).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// SurveySyncRecordDetail joins the ledger row with its linked patient
// and report for the detail endpoint.
type SurveySyncRecordDetail struct {
	Record  SurveySyncRecord `json:"record"`
	Patient *User            `json:"patient"`
	Report  *MedicalReport   `json:"report"`
}

func GetSurveySyncRecordDetail(ctx context.Context, id uint) (*SurveySyncRecordDetail, error) {

	db := config.GetDB()
	var record SurveySyncRecord

	if err := db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	detail := SurveySyncRecordDetail{Record: record}

	if record.PatientID != nil {
		patient, err := GetUser(ctx, *record.PatientID)
		if err == nil {
			detail.Patient = patient
		}
	}
	if record.ReportID != nil {
		report, err := GetMedicalReport(ctx, *record.ReportID)
		if err == nil {
			detail.Report = report
		}
	}

	return &detail, nil
}
