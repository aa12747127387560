package core

import (
	"github.com/JonMunkholm/qrforge/internal/batch"
	"github.com/JonMunkholm/qrforge/internal/qr"
)

// Report states for ValidateSingle.
const (
	StatePass = "pass"
	StateWarn = "warn"
	StateFail = "fail"
)

// ValidationReport is the single-image check shown while designing a code.
// Unlike batch records it grades the result and suggests fixes.
type ValidationReport struct {
	State          string   `json:"state" yaml:"state"`
	DecodedContent *string  `json:"decodedContent" yaml:"decodedContent"`
	ContentMatch   bool     `json:"contentMatch" yaml:"contentMatch"`
	Message        string   `json:"message" yaml:"message"`
	Suggestions    []string `json:"suggestions" yaml:"suggestions"`
}

// ScanResult is the outcome of reading a code from an arbitrary image.
type ScanResult struct {
	Success bool    `json:"success" yaml:"success"`
	Content *string `json:"content" yaml:"content,omitempty"`
	QRType  *string `json:"qrType" yaml:"qrType,omitempty"`
	Error   *string `json:"error" yaml:"error,omitempty"`
}

// ValidateSingle decodes imageData with d and grades it against expected.
func ValidateSingle(d qr.Decoder, imageData, expected string) ValidationReport {
	return gradeOutcome(d.Decode(imageData), expected)
}

func gradeOutcome(out qr.Outcome, expected string) ValidationReport {
	switch out := out.(type) {
	case qr.Decoded:
		text := out.Text
		if batch.ContentMatches(text, expected) {
			return ValidationReport{
				State:          StatePass,
				DecodedContent: &text,
				ContentMatch:   true,
				Message:        "QR code scans correctly",
				Suggestions:    []string{},
			}
		}
		return ValidationReport{
			State:          StateWarn,
			DecodedContent: &text,
			Message:        "Decoded content differs from expected",
			Suggestions:    []string{"Verify the QR content is correct"},
		}
	case qr.Undecodable:
		return ValidationReport{
			State:   StateWarn,
			Message: "QR code detected but decode was unreliable",
			Suggestions: []string{
				"Increase error correction level",
				"Reduce customization complexity",
				"Ensure logo doesn't cover critical areas",
			},
		}
	case qr.NoSymbolFound:
		return ValidationReport{
			State:   StateFail,
			Message: "No QR code detected in image",
			Suggestions: []string{
				"Increase error correction level to H",
				"Reduce logo size if using one",
				"Ensure sufficient contrast between colors",
			},
		}
	case qr.MalformedEncoding:
		return ValidationReport{
			State:       StateFail,
			Message:     "Failed to decode base64: " + out.Reason,
			Suggestions: []string{"Send the image as base64 or a data URL"},
		}
	case qr.MalformedImage:
		return ValidationReport{
			State:       StateFail,
			Message:     "Failed to decode image: " + out.Reason,
			Suggestions: []string{"Export the code as PNG and try again"},
		}
	default:
		return ValidationReport{State: StateFail, Message: "Unexpected decode result", Suggestions: []string{}}
	}
}

// Scan reads a code from base64 or data-URL image data.
func Scan(d qr.Decoder, imageData string) ScanResult {
	return scanOutcome(d.Decode(imageData))
}

// ScanBytes reads a code from raw image file bytes.
func ScanBytes(d qr.Decoder, raw []byte) ScanResult {
	return scanOutcome(d.DecodeImage(raw))
}

func scanOutcome(out qr.Outcome) ScanResult {
	fail := func(msg string) ScanResult {
		return ScanResult{Error: &msg}
	}
	switch out := out.(type) {
	case qr.Decoded:
		text := out.Text
		kind := string(qr.Classify(text))
		return ScanResult{Success: true, Content: &text, QRType: &kind}
	case qr.NoSymbolFound:
		return fail("No QR code found in image")
	case qr.Undecodable:
		return fail("Failed to decode QR code: " + out.Reason)
	case qr.MalformedEncoding:
		return fail("Failed to decode base64: " + out.Reason)
	case qr.MalformedImage:
		return fail("Failed to decode image: " + out.Reason)
	default:
		return fail("Unexpected decode result")
	}
}

// ValidateSingle grades one image with the service's decoder.
func (s *Service) ValidateSingle(imageData, expected string) ValidationReport {
	return ValidateSingle(s.validator.Decoder, imageData, expected)
}

// Scan reads one code with the service's decoder.
func (s *Service) Scan(imageData string) ScanResult {
	return Scan(s.validator.Decoder, imageData)
}

// ScanBytes reads one code from raw bytes with the service's decoder.
func (s *Service) ScanBytes(raw []byte) ScanResult {
	return ScanBytes(s.validator.Decoder, raw)
}
