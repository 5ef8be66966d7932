package validation

import (
	"testing"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func validComplaint() TicketInput {
	return TicketInput{
		Kind:          domain.TicketKindComplaint,
		ContactNumber: "+6281234567",
		Region:        "Jakarta",
		Category:      "ACCOUNT_HACKED",
		Device:        "Pixel 8",
		AppVersion:    "2.4.1",
		Description:   "cannot log in since yesterday",
	}
}

func hasViolation(violations []FieldError, field string) bool {
	for _, v := range violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func TestValidateTicketInputAccepts(t *testing.T) {
	if got := ValidateTicketInput(validComplaint()); len(got) != 0 {
		t.Fatalf("valid input rejected: %v", got)
	}
}

func TestValidateTicketInputAccumulatesAll(t *testing.T) {
	input := TicketInput{Kind: domain.TicketKindComplaint, Description: "my password is hunter2"}
	got := ValidateTicketInput(input)
	for _, field := range []string{"contact_number", "region", "category", "device", "app_version", "description"} {
		if !hasViolation(got, field) {
			t.Errorf("missing violation for %s in %v", field, got)
		}
	}
}

func TestContactNumberShapes(t *testing.T) {
	cases := []struct {
		number string
		ok     bool
	}{
		{"+6281234567", true},
		{"+12025550101", true},
		{"+1234567", true},             // 7 digits, minimum
		{"+1234567890123456", true},    // 16 digits, maximum
		{"+123456", false},             // too short
		{"+12345678901234567", false},  // too long
		{"+0812345678", false},         // leading zero
		{"0812345678", false},          // missing plus
		{"+62 812 345 678", false},     // spaces
		{"+62-812-345-678", false},     // dashes
	}
	for _, tc := range cases {
		input := validComplaint()
		input.ContactNumber = tc.number
		got := ValidateTicketInput(input)
		if tc.ok && hasViolation(got, "contact_number") {
			t.Errorf("%q rejected: %v", tc.number, got)
		}
		if !tc.ok && !hasViolation(got, "contact_number") {
			t.Errorf("%q accepted", tc.number)
		}
	}
}

func TestSensitiveKeywordDetection(t *testing.T) {
	cases := []struct {
		description string
		ok          bool
	}{
		{"app crashes on startup", true},
		{"my PASSWORD was leaked", false},
		{"the otp never arrives", false},
		{"lupa kata sandi saya", false},
		{"someone asked for my seed phrase", false},
		// Substrings of ordinary words must not trip the check.
		{"the shopping cart is broken", true},
		{"spinning wheel forever", true},
	}
	for _, tc := range cases {
		input := validComplaint()
		input.Description = tc.description
		got := ValidateTicketInput(input)
		if tc.ok && hasViolation(got, "description") {
			t.Errorf("%q rejected: %v", tc.description, got)
		}
		if !tc.ok && !hasViolation(got, "description") {
			t.Errorf("%q accepted", tc.description)
		}
	}
}

func TestCategoryClosedSet(t *testing.T) {
	input := validComplaint()
	input.Category = "SOMETHING_ELSE"
	if got := ValidateTicketInput(input); !hasViolation(got, "category") {
		t.Error("unknown category accepted")
	}
}

func TestAccountPurchaseRequirements(t *testing.T) {
	input := TicketInput{
		Kind:          domain.TicketKindAccountPurchase,
		ContactNumber: "+6281234567",
		Region:        "Jakarta",
		Category:      "ACCOUNT_PURCHASE",
		Description:   "premium account please",
	}
	got := ValidateTicketInput(input)
	if !hasViolation(got, "product_code") {
		t.Error("purchase without product_code accepted")
	}
	if hasViolation(got, "device") || hasViolation(got, "app_version") {
		t.Error("purchase should not require complaint-only fields")
	}

	input.ProductCode = "PREMIUM-1M"
	if got := ValidateTicketInput(input); len(got) != 0 {
		t.Errorf("valid purchase rejected: %v", got)
	}
}

func TestValidateFileUpload(t *testing.T) {
	if got := ValidateFileUpload("image/png", 1024); len(got) != 0 {
		t.Errorf("valid file rejected: %v", got)
	}
	if got := ValidateFileUpload("Image/PNG", 1024); len(got) != 0 {
		t.Errorf("mime check should be case insensitive: %v", got)
	}
	if got := ValidateFileUpload("application/zip", 1024); !hasViolation(got, "mime_type") {
		t.Error("disallowed mime accepted")
	}
	if got := ValidateFileUpload("video/mp4", MaxAttachmentBytes+1); !hasViolation(got, "size_bytes") {
		t.Error("oversize file accepted")
	}
	if got := ValidateFileUpload("video/mp4", MaxAttachmentBytes); len(got) != 0 {
		t.Errorf("file at exact size limit rejected: %v", got)
	}
	if got := ValidateFileUpload("video/mp4", 0); !hasViolation(got, "size_bytes") {
		t.Error("empty file accepted")
	}
}

func TestValidateAttachmentCount(t *testing.T) {
	if got := ValidateAttachmentCount(MaxAttachmentsPerTicket - 1); got != nil {
		t.Errorf("count below limit rejected: %v", got)
	}
	if got := ValidateAttachmentCount(MaxAttachmentsPerTicket); got == nil {
		t.Error("count at limit accepted")
	}
}
