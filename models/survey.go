package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
	"bitbucket.org/mmdatafocus/clinic_backend/utils"
)

// Survey is a stored link to an external form the clinic shares with
// patients. Active surveys are picked up by the ingestion run.
type Survey struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	URL         string    `gorm:"size:500;not null" json:"url" binding:"required"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSurvey struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	URL         string `json:"url" binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

func CreateSurvey(ctx context.Context, input *NewSurvey) (*Survey, error) {

	db := config.GetDB()

	if strings.TrimSpace(input.URL) == "" {
		return nil, errors.New("url is required")
	}
	if err := utils.ValidateUnique[Survey](ctx, "url", strings.TrimSpace(input.URL), 0); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	survey := Survey{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		URL:         strings.TrimSpace(input.URL),
		IsActive:    isActive,
	}

	if err := db.WithContext(ctx).Create(&survey).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

func GetAllSurveys(ctx context.Context) ([]*Survey, error) {

	db := config.GetDB()
	var results []*Survey

	if err := db.WithContext(ctx).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListActiveSurveyURLs returns the stored links of active surveys,
// oldest first so the run order is stable.
func ListActiveSurveyURLs(ctx context.Context) ([]string, error) {

	db := config.GetDB()
	var urls []string

	if err := db.WithContext(ctx).Model(&Survey{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("url", &urls).Error; err != nil {
		return nil, err
	}
	return urls, nil
}
