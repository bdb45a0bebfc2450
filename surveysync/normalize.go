package surveysync

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey folds a question label into a matching key: diacritics
// stripped, lowercased, anything outside [a-z0-9 ] becomes a space,
// whitespace collapsed. Total; never fails.
func NormalizeKey(label string) string {
	// U+0111/U+0110 carry no combining mark so NFD leaves them alone
	label = strings.NewReplacer("đ", "d", "Đ", "D").Replace(label)

	stripped, _, err := transform.String(stripMarks, label)
	if err != nil {
		stripped = label
	}
	stripped = strings.ToLower(stripped)

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var (
	fullNameAliases = []string{"họ và tên", "ho va ten", "họ tên", "ho ten", "full name", "ten benh nhan", "tên bệnh nhân"}
	phoneAliases    = []string{"số điện thoại", "so dien thoai", "điện thoại", "dien thoai", "phone", "sdt", "sđt"}
	emailAliases    = []string{"email", "thư điện tử", "thu dien tu", "e mail"}
)

// ResolveAliasField scans labels in order and returns the text of the
// first label whose normalized form contains any normalized alias as a
// substring. Empty string when nothing matches.
func ResolveAliasField(entries []AnswerEntry, aliases []string) string {
	normalized := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		if n := NormalizeKey(alias); n != "" {
			normalized = append(normalized, n)
		}
	}

	for _, entry := range entries {
		key := NormalizeKey(entry.Label)
		if key == "" {
			continue
		}
		for _, alias := range normalized {
			if strings.Contains(key, alias) {
				return entry.Value
			}
		}
	}
	return ""
}

// NormalizePhone strips non-digits, then rewrites a leading country
// calling code into the national "0" prefix when at least 9 digits
// follow it. "+84987654321" and "84987654321" both become "0987654321".
func NormalizePhone(raw string, countryCallingCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if countryCallingCode != "" &&
		strings.HasPrefix(digits, countryCallingCode) &&
		len(digits)-len(countryCallingCode) >= 9 {
		return "0" + digits[len(countryCallingCode):]
	}
	return digits
}
