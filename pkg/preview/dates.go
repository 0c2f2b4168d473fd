package preview

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat applies when a date field has no configured format.
const DefaultDateFormat = "dd/mm/yyyy"

// BuddhistEraOffset converts a Gregorian year to the Thai solar calendar.
const BuddhistEraOffset = 543

var thaiMonths = [12]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

var thaiMonthsShort = [12]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

var inputLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ordered longest first so "dd" wins over "d"
var dateTokens = []string{"yyyy", "bbbb", "MMMM", "MMM", "yy", "bb", "dd", "mm", "d", "m"}

// FormatDate reformats an ISO-like date value using format. Values that do
// not parse are returned unchanged.
//
// Supported tokens: dd, d, mm, m, MMMM (Thai month), MMM (short Thai month),
// yyyy, yy, bbbb and bb (Buddhist era year).
func FormatDate(value, format string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	parsed, ok := parseDate(trimmed)
	if !ok {
		return value
	}
	if strings.TrimSpace(format) == "" {
		format = DefaultDateFormat
	}

	var out strings.Builder
	rest := format
	for rest != "" {
		token := matchDateToken(rest)
		if token == "" {
			out.WriteByte(rest[0])
			rest = rest[1:]
			continue
		}
		out.WriteString(renderDateToken(token, parsed))
		rest = rest[len(token):]
	}
	return out.String()
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range inputLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func matchDateToken(s string) string {
	for _, token := range dateTokens {
		if strings.HasPrefix(s, token) {
			return token
		}
	}
	return ""
}

func renderDateToken(token string, t time.Time) string {
	switch token {
	case "yyyy":
		return pad(t.Year(), 4)
	case "yy":
		return pad(t.Year()%100, 2)
	case "bbbb":
		return pad(t.Year()+BuddhistEraOffset, 4)
	case "bb":
		return pad((t.Year()+BuddhistEraOffset)%100, 2)
	case "MMMM":
		return thaiMonths[t.Month()-1]
	case "MMM":
		return thaiMonthsShort[t.Month()-1]
	case "mm":
		return pad(int(t.Month()), 2)
	case "m":
		return strconv.Itoa(int(t.Month()))
	case "dd":
		return pad(t.Day(), 2)
	case "d":
		return strconv.Itoa(t.Day())
	}
	return token
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
