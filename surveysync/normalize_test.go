package surveysync

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Họ và Tên *", "ho va ten"},
		{"Số điện thoại", "so dien thoai"},
		{"  EMAIL  ", "email"},
		{"Triệu chứng?", "trieu chung"},
		{"Đau đầu", "dau dau"},
		{"a   b\t c", "a b c"},
		{"", ""},
		{"***", ""},
	}
	for _, tc := range cases {
		if got := NormalizeKey(tc.in); got != tc.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveAliasField(t *testing.T) {
	entries := []AnswerEntry{
		{Label: "Triệu chứng", Value: "đau đầu"},
		{Label: "Họ và Tên *", Value: "Nguyễn A"},
		{Label: "Số điện thoại", Value: "0901234567"},
	}

	if got := ResolveAliasField(entries, fullNameAliases); got != "Nguyễn A" {
		t.Errorf("full name = %q, want %q", got, "Nguyễn A")
	}
	if got := ResolveAliasField(entries, phoneAliases); got != "0901234567" {
		t.Errorf("phone = %q, want %q", got, "0901234567")
	}
	if got := ResolveAliasField(entries, emailAliases); got != "" {
		t.Errorf("email = %q, want empty", got)
	}
}

func TestResolveAliasFieldFirstMatchWins(t *testing.T) {
	entries := []AnswerEntry{
		{Label: "Điện thoại nhà", Value: "028123456"},
		{Label: "Số điện thoại di động", Value: "0901234567"},
	}
	if got := ResolveAliasField(entries, phoneAliases); got != "028123456" {
		t.Errorf("got %q, want first matching label's value", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+84987654321", "0987654321"},
		{"84987654321", "0987654321"},
		{"0987654321", "0987654321"},
		{"090 123 4567", "0901234567"},
		{"(84) 98-765-4321", "0987654321"},
		{"841234", "841234"}, // too short after the calling code, kept as-is
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in, "84"); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
