package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
	"gorm.io/gorm"
)

// MedicalReport is an immutable snapshot attached to a patient record.
// Survey ingestion writes one per synced response; clinicians can also
// create them by hand.
type MedicalReport struct {
	ID         int       `gorm:"primary_key" json:"id"`
	PatientID  int       `gorm:"index;not null" json:"patient_id"`
	ReportDate time.Time `gorm:"not null" json:"report_date"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateMedicalReport(ctx context.Context, report *MedicalReport) (*MedicalReport, error) {

	db := config.GetDB()

	if report.PatientID == 0 {
		return nil, errors.New("patient id is required")
	}

	if err := db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func GetMedicalReport(ctx context.Context, id int) (*MedicalReport, error) {

	db := config.GetDB()
	var result MedicalReport

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func GetMedicalReportsByPatient(ctx context.Context, patientId int) ([]*MedicalReport, error) {

	db := config.GetDB()
	var results []*MedicalReport

	if err := db.WithContext(ctx).
		Where("patient_id = ?", patientId).
		Order("report_date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
