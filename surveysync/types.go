package surveysync

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

var (
	// ErrNoFormSources means neither static config nor stored surveys
	// yielded a form id. Fatal to the run; no summary is produced.
	ErrNoFormSources = errors.New("no survey form sources configured")

	// ErrRunInProgress means another run holds the advisory lock.
	ErrRunInProgress = errors.New("a survey sync run is already in progress")

	errIdentityMissing = errors.New("no phone or email found in answers")
)

// Config carries every knob the engine and scheduler read. Nothing in
// this package reads env vars at run time; everything flows through here.
type Config struct {
	StaticFormIDs      []string
	PageSize           int64
	CountryCallingCode string
	CountryRegion      string
	Timezone           string
	ReportTitle        string
	Enabled            bool
	ScheduleEnabled    bool
	CronSpec           string
	SummaryTopic       string
	PublishSummary     bool
	CreateTopic        bool
}

// LoadConfigFromEnv builds a Config from SURVEY_SYNC_* env vars.
func LoadConfigFromEnv() Config {
	cfg := Config{
		PageSize:           200,
		CountryCallingCode: "84",
		CountryRegion:      "VN",
		Timezone:           "Asia/Ho_Chi_Minh",
		ReportTitle:        "Survey Response",
		Enabled:            config.EnvBool("SURVEY_SYNC_ENABLED", true),
		ScheduleEnabled:    config.EnvBool("SURVEY_SYNC_SCHEDULE_ENABLED", false),
		CronSpec:           strings.TrimSpace(os.Getenv("SURVEY_SYNC_CRON")),
		SummaryTopic:       strings.TrimSpace(os.Getenv("SURVEY_SYNC_SUMMARY_TOPIC")),
		PublishSummary:     config.EnvBool("SURVEY_SYNC_PUBLISH_SUMMARY", false),
		CreateTopic:        config.EnvBool("SURVEY_SYNC_CREATE_TOPIC", false),
	}

	if v := strings.TrimSpace(os.Getenv("SURVEY_SYNC_FORM_IDS")); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.StaticFormIDs = append(cfg.StaticFormIDs, id)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("SURVEY_SYNC_PAGE_SIZE")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.PageSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SURVEY_SYNC_COUNTRY_CODE")); v != "" {
		cfg.CountryCallingCode = v
	}
	if v := strings.TrimSpace(os.Getenv("SURVEY_SYNC_COUNTRY_REGION")); v != "" {
		cfg.CountryRegion = v
	}
	if v := strings.TrimSpace(os.Getenv("SURVEY_SYNC_TIMEZONE")); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("SURVEY_SYNC_REPORT_TITLE")); v != "" {
		cfg.ReportTitle = v
	}

	return cfg
}

// RunSummary is returned from every completed run.
type RunSummary struct {
	Trigger          string `json:"trigger"`
	TotalForms       int    `json:"total_forms"`
	SyncedCount      int    `json:"synced_count"`
	SkippedDuplicate int    `json:"skipped_duplicate"`
	SkippedInvalid   int    `json:"skipped_invalid"`
	FailedCount      int    `json:"failed_count"`
}

// responseOutcome is the per-response result variant the orchestrator
// switches on to update counters and the ledger.
type responseOutcome int

const (
	outcomeSynced responseOutcome = iota
	outcomeFailed
	outcomeSkippedDuplicate
	outcomeSkippedInvalid
)
