package utils

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestProcessValidationErrors(t *testing.T) {
	type form struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	v := validator.New()
	err := v.Struct(form{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation errors")
	}

	got := ProcessValidationErrors(err)
	if got["Name"] != "required" {
		t.Errorf("Name tag = %q, want required", got["Name"])
	}
	if got["Email"] != "email" {
		t.Errorf("Email tag = %q, want email", got["Email"])
	}
}

func TestConvertToLocalTime(t *testing.T) {
	utc := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	local := ConvertToLocalTime(utc, "Asia/Ho_Chi_Minh")
	if local.Hour() != 17 {
		t.Errorf("hour = %d, want 17 (UTC+7)", local.Hour())
	}
	if !local.Equal(utc) {
		t.Error("conversion must not shift the instant")
	}
}

func TestConvertToLocalTimeBadZone(t *testing.T) {
	utc := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	got := ConvertToLocalTime(utc, "Not/AZone")
	if !got.Equal(utc) || got.Location() != time.UTC {
		t.Errorf("got %v in %v, want UTC fallback", got, got.Location())
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("a@b.com") {
		t.Error("a@b.com should be valid")
	}
	if IsValidEmail("not-an-email") {
		t.Error("not-an-email should be invalid")
	}
}
