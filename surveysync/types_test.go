package surveysync

import (
	"reflect"
	"testing"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"SURVEY_SYNC_ENABLED", "SURVEY_SYNC_SCHEDULE_ENABLED", "SURVEY_SYNC_FORM_IDS",
		"SURVEY_SYNC_PAGE_SIZE", "SURVEY_SYNC_COUNTRY_CODE", "SURVEY_SYNC_COUNTRY_REGION",
		"SURVEY_SYNC_TIMEZONE", "SURVEY_SYNC_REPORT_TITLE", "SURVEY_SYNC_CRON",
		"SURVEY_SYNC_SUMMARY_TOPIC", "SURVEY_SYNC_PUBLISH_SUMMARY", "SURVEY_SYNC_CREATE_TOPIC",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfigFromEnv()
	if !cfg.Enabled {
		t.Error("Enabled should default to true")
	}
	if cfg.ScheduleEnabled {
		t.Error("ScheduleEnabled should default to false")
	}
	if cfg.PageSize != 200 {
		t.Errorf("PageSize = %d, want 200", cfg.PageSize)
	}
	if cfg.CountryCallingCode != "84" || cfg.CountryRegion != "VN" {
		t.Errorf("country defaults = %q/%q", cfg.CountryCallingCode, cfg.CountryRegion)
	}
	if cfg.Timezone != "Asia/Ho_Chi_Minh" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.ReportTitle != "Survey Response" {
		t.Errorf("ReportTitle = %q", cfg.ReportTitle)
	}
	if len(cfg.StaticFormIDs) != 0 {
		t.Errorf("StaticFormIDs = %v, want empty", cfg.StaticFormIDs)
	}
	if cfg.PublishSummary || cfg.CreateTopic {
		t.Errorf("publish flags = %v/%v, want both off", cfg.PublishSummary, cfg.CreateTopic)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SURVEY_SYNC_ENABLED", "false")
	t.Setenv("SURVEY_SYNC_SCHEDULE_ENABLED", "true")
	t.Setenv("SURVEY_SYNC_FORM_IDS", " formA, formB ,,formC ")
	t.Setenv("SURVEY_SYNC_PAGE_SIZE", "50")
	t.Setenv("SURVEY_SYNC_COUNTRY_CODE", "1")
	t.Setenv("SURVEY_SYNC_COUNTRY_REGION", "US")
	t.Setenv("SURVEY_SYNC_TIMEZONE", "UTC")
	t.Setenv("SURVEY_SYNC_REPORT_TITLE", "Intake")
	t.Setenv("SURVEY_SYNC_CRON", "@every 5m")
	t.Setenv("SURVEY_SYNC_SUMMARY_TOPIC", "sync-events")
	t.Setenv("SURVEY_SYNC_PUBLISH_SUMMARY", "true")
	t.Setenv("SURVEY_SYNC_CREATE_TOPIC", "true")

	cfg := LoadConfigFromEnv()
	if cfg.Enabled || !cfg.ScheduleEnabled {
		t.Errorf("flags = enabled:%v scheduled:%v", cfg.Enabled, cfg.ScheduleEnabled)
	}
	if want := []string{"formA", "formB", "formC"}; !reflect.DeepEqual(cfg.StaticFormIDs, want) {
		t.Errorf("StaticFormIDs = %v, want %v", cfg.StaticFormIDs, want)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.CountryCallingCode != "1" || cfg.CountryRegion != "US" {
		t.Errorf("country = %q/%q", cfg.CountryCallingCode, cfg.CountryRegion)
	}
	if cfg.Timezone != "UTC" || cfg.ReportTitle != "Intake" {
		t.Errorf("timezone/title = %q/%q", cfg.Timezone, cfg.ReportTitle)
	}
	if cfg.CronSpec != "@every 5m" || cfg.SummaryTopic != "sync-events" {
		t.Errorf("cron/topic = %q/%q", cfg.CronSpec, cfg.SummaryTopic)
	}
	if !cfg.PublishSummary || !cfg.CreateTopic {
		t.Errorf("publish flags = %v/%v, want both on", cfg.PublishSummary, cfg.CreateTopic)
	}
}

func TestLoadConfigFromEnvIgnoresBadPageSize(t *testing.T) {
	t.Setenv("SURVEY_SYNC_PAGE_SIZE", "-3")
	if cfg := LoadConfigFromEnv(); cfg.PageSize != 200 {
		t.Errorf("PageSize = %d, want default kept", cfg.PageSize)
	}
	t.Setenv("SURVEY_SYNC_PAGE_SIZE", "abc")
	if cfg := LoadConfigFromEnv(); cfg.PageSize != 200 {
		t.Errorf("PageSize = %d, want default kept", cfg.PageSize)
	}
}
