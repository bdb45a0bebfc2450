package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateErrorMessageNil(t *testing.T) {
	if got := truncateErrorMessage(nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestTruncateErrorMessageShort(t *testing.T) {
	msg := "connection refused"
	got := truncateErrorMessage(&msg)
	if got == nil || *got != msg {
		t.Errorf("got %v, want unchanged message", got)
	}
}

func TestTruncateErrorMessageLong(t *testing.T) {
	msg := strings.Repeat("x", 2000)
	got := truncateErrorMessage(&msg)
	if got == nil || len(*got) > 1000 {
		t.Errorf("len = %d, want <= 1000", len(*got))
	}
}

func TestTruncateErrorMessageKeepsValidUTF8(t *testing.T) {
	// multi-byte runes straddling the byte limit must not be split
	msg := strings.Repeat("lỗi kết nối ", 100)
	got := truncateErrorMessage(&msg)
	if got == nil {
		t.Fatal("got nil")
	}
	if len(*got) > 1000 {
		t.Errorf("len = %d, want <= 1000", len(*got))
	}
	if !utf8.ValidString(*got) {
		t.Error("truncated message is not valid UTF-8")
	}
}
