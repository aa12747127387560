package batch

import (
	"fmt"
	"strings"
)

// MaxLabelLength is the number of characters kept from a sanitized label.
const MaxLabelLength = 50

// EntryName returns the archive entry name for an item:
// "007_<sanitized label>.png", or "007_qr.png" without a label.
func EntryName(row int, label string) string {
	if label == "" {
		return fmt.Sprintf("%03d_qr.png", row)
	}
	return fmt.Sprintf("%03d_%s.png", row, SanitizeLabel(label))
}

// SanitizeLabel maps label to a portable file name fragment. ASCII letters,
// digits, '-', '_' and '.' are kept; every other character, path separators
// and reserved punctuation included, becomes '_'. The result is cut to
// MaxLabelLength characters.
func SanitizeLabel(label string) string {
	var b strings.Builder
	n := 0
	for _, r := range label {
		if n == MaxLabelLength {
			break
		}
		b.WriteRune(sanitizeRune(r))
		n++
	}
	return b.String()
}

func sanitizeRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '-' || r == '_' || r == '.':
		return r
	default:
		return '_'
	}
}
