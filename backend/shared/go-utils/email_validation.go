package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
)

// NormalizeEmail trims and lower-cases an address. Both member and lead
// uniqueness are keyed on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the substring before the first "@" (or the whole
// string when there is none).
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// isValidEmailSyntax does RFC-5322-*ish* syntax only (no DNS)
func isValidEmailSyntax(e string) bool {
	addr, err := mail.ParseAddress(e)
	return err == nil && addr.Address == e
}

func hasMX(ctx context.Context, domain string) bool {
	mx, err := net.DefaultResolver.LookupMX(ctx, domain)
	return err == nil && len(mx) > 0
}

// ValidateEmail returns true if:
//
//   - the string parses as a bare email address, AND
//   - checkMX == false, or the domain has an MX record, AND
//   - validateWithSendGrid == false, or SendGrid's deliverability verdict is
//     "Valid" or "Risky".
//
// Any SendGrid/network error is returned so the caller can decide.
func ValidateEmail(ctx context.Context, apiKey string, email string, checkMX, validateWithSendGrid bool) (bool, error) {
	if !isValidEmailSyntax(email) {
		return false, nil
	}

	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 || !strings.Contains(parts[1], ".") {
		return false, nil
	}
	if checkMX && !hasMX(ctx, parts[1]) {
		return false, nil
	}

	if validateWithSendGrid && apiKey != "" {
		req := sendgrid.GetRequest(apiKey, "/v3/validations/email", "https://api.sendgrid.com")
		req.Method = "POST"
		body, err := json.Marshal(map[string]string{"email": email})
		if err != nil {
			return false, err
		}
		req.Body = body

		resp, err := sendgrid.MakeRequestWithContext(ctx, req)
		if err != nil {
			return false, fmt.Errorf("%w: sendgrid validation: %v", ErrExternalServiceFailure, err)
		}

		switch resp.StatusCode {
		case 200:
			var sg struct {
				Result struct {
					Verdict string `json:"verdict"`
				} `json:"result"`
			}
			if jsonErr := json.Unmarshal([]byte(resp.Body), &sg); jsonErr != nil {
				return false, fmt.Errorf("sendgrid JSON decode: %w", jsonErr)
			}
			verdict := strings.ToLower(sg.Result.Verdict)
			return verdict == "valid" || verdict == "risky", nil

		case 400:
			return false, nil
		default:
			return false, fmt.Errorf("%w: sendgrid validation status %d", ErrExternalServiceFailure, resp.StatusCode)
		}
	}

	return true, nil
}
