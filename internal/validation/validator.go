// Package validation holds the pure input checks for ticket creation and file
// uploads. Functions accumulate every violation instead of failing fast so the
// caller can report all of them at once.
package validation

import (
	"regexp"
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// FieldError scopes one violation to the field that caused it.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// TicketInput carries the raw fields of a ticket creation request.
type TicketInput struct {
	Kind          domain.TicketKind
	ContactNumber string
	Region        string
	Category      string
	Device        string
	AppVersion    string
	Description   string
	ProductCode   string
}

// Leading +, first digit 1-9, 8-17 characters total.
var contactNumberPattern = regexp.MustCompile(`^\+[1-9][0-9]{6,15}$`)

// sensitiveKeywords are rejected anywhere in free text, case-insensitively
// and on word boundaries. Complaint descriptions must never carry credentials.
var sensitiveKeywords = []string{
	"password",
	"kata sandi",
	"pin",
	"otp",
	"cvv",
	"seed phrase",
	"private key",
	"secret key",
}

var sensitivePattern = regexp.MustCompile(`(?i)\b(` + strings.Join(sensitiveKeywords, "|") + `)\b`)

// Categories is the closed set of accepted issue categories.
var Categories = map[string]struct{}{
	"ACCOUNT_BANNED":   {},
	"ACCOUNT_HACKED":   {},
	"PAYMENT_ISSUE":    {},
	"MESSAGE_FAILURE":  {},
	"VERIFICATION":     {},
	"OTHER":            {},
	"ACCOUNT_PURCHASE": {},
}

const (
	// MaxAttachmentBytes is the per-file size ceiling.
	MaxAttachmentBytes = 5 << 20
	// MaxAttachmentsPerTicket bounds attachment records per ticket.
	MaxAttachmentsPerTicket = 5
)

// allowedMimeTypes is the closed upload allowlist.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
	"video/mp4":       {},
}

// ValidateTicketInput checks every rule and returns all violations found.
// A nil slice means the input is acceptable.
func ValidateTicketInput(input TicketInput) []FieldError {
	var violations []FieldError

	required := []struct {
		field string
		value string
	}{
		{"contact_number", input.ContactNumber},
		{"region", input.Region},
		{"category", input.Category},
		{"description", input.Description},
	}
	if input.Kind == domain.TicketKindComplaint {
		required = append(required,
			struct {
				field string
				value string
			}{"device", input.Device},
			struct {
				field string
				value string
			}{"app_version", input.AppVersion},
		)
	}
	if input.Kind == domain.TicketKindAccountPurchase {
		required = append(required, struct {
			field string
			value string
		}{"product_code", input.ProductCode})
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			violations = append(violations, FieldError{Field: req.field, Reason: "required"})
		}
	}

	if number := strings.TrimSpace(input.ContactNumber); number != "" {
		if !contactNumberPattern.MatchString(number) {
			violations = append(violations, FieldError{
				Field:  "contact_number",
				Reason: "must start with + followed by 7-16 digits, no leading zero",
			})
		}
	}

	if keyword := findSensitiveKeyword(input.Description); keyword != "" {
		violations = append(violations, FieldError{
			Field:  "description",
			Reason: "contains sensitive term: " + keyword,
		})
	}

	if category := strings.TrimSpace(input.Category); category != "" {
		if _, ok := Categories[category]; !ok {
			violations = append(violations, FieldError{Field: "category", Reason: "unknown category"})
		}
	}

	return violations
}

// ValidateFileUpload checks MIME type and size for one file, independent of
// how many attachments the ticket already has.
func ValidateFileUpload(mimeType string, sizeBytes int64) []FieldError {
	var violations []FieldError
	if _, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]; !ok {
		violations = append(violations, FieldError{Field: "mime_type", Reason: "file type not allowed"})
	}
	if sizeBytes <= 0 || sizeBytes > MaxAttachmentBytes {
		violations = append(violations, FieldError{Field: "size_bytes", Reason: "file size out of bounds"})
	}
	return violations
}

// ValidateAttachmentCount is the ticket-level count check, kept separate from
// the per-file checks so the three failure reasons stay distinguishable.
func ValidateAttachmentCount(existing int) []FieldError {
	if existing >= MaxAttachmentsPerTicket {
		return []FieldError{{Field: "attachments", Reason: "attachment limit reached"}}
	}
	return nil
}

func findSensitiveKeyword(text string) string {
	match := sensitivePattern.FindString(text)
	return strings.ToLower(match)
}
