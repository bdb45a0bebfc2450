package surveysync

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/models"
)

// LedgerRecord mirrors the persisted sync ledger row for the engine's
// purposes.
type LedgerRecord struct {
	FormID       string
	ResponseID   string
	FormTitle    string
	SubmittedAt  *time.Time
	PatientID    *int
	ReportID     *int
	SyncStatus   models.SurveySyncStatus
	ErrorMessage *string
}

// LedgerStore is the idempotency ledger keyed by (formId, responseId).
// FindByKey returns (nil, nil) for an unseen pair.
type LedgerStore interface {
	FindByKey(ctx context.Context, formID string, responseID string) (*LedgerRecord, error)
	Upsert(ctx context.Context, record *LedgerRecord) error
}

type gormLedgerStore struct{}

// NewLedgerStore returns the models-backed LedgerStore.
func NewLedgerStore() LedgerStore {
	return &gormLedgerStore{}
}

func (s *gormLedgerStore) FindByKey(ctx context.Context, formID string, responseID string) (*LedgerRecord, error) {
	record, err := models.FindSurveySyncRecord(ctx, formID, responseID)
	if err != nil || record == nil {
		return nil, err
	}
	return &LedgerRecord{
		FormID:       record.FormID,
		ResponseID:   record.ResponseID,
		FormTitle:    record.FormTitle,
		SubmittedAt:  record.SubmittedAt,
		PatientID:    record.PatientID,
		ReportID:     record.ReportID,
		SyncStatus:   record.SyncStatus,
		ErrorMessage: record.ErrorMessage,
	}, nil
}

func (s *gormLedgerStore) Upsert(ctx context.Context, record *LedgerRecord) error {
	return models.UpsertSurveySyncRecord(ctx, &models.SurveySyncRecord{
		FormID:       record.FormID,
		ResponseID:   record.ResponseID,
		FormTitle:    record.FormTitle,
		SubmittedAt:  record.SubmittedAt,
		PatientID:    record.PatientID,
		ReportID:     record.ReportID,
		SyncStatus:   record.SyncStatus,
		ErrorMessage: record.ErrorMessage,
	})
}
