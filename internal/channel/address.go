package channel

import (
	"net/mail"
	"strings"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

// NormalizePhone reduces a phone number to a single leading "+" followed by
// digits. A "00" international prefix is treated as "+".
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var sb strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	digits := sb.String()
	if !strings.HasPrefix(raw, "+") && strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func normalizeRecipient(ch model.Channel, raw string) (string, *appErrors.DeliveryError) {
	switch ch {
	case model.ChannelSMS, model.ChannelWhatsApp:
		phone := NormalizePhone(raw)
		// E.164 allows at most 15 digits; anything under 8 is not dialable
		if n := len(phone) - 1; n < 8 || n > 15 {
			return "", appErrors.NewDeliveryError(appErrors.KindValidation, "invalid phone number "+quote(raw), nil)
		}
		return phone, nil
	case model.ChannelEmail:
		addr, err := mail.ParseAddress(strings.TrimSpace(raw))
		if err != nil || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
			return "", appErrors.NewDeliveryError(appErrors.KindValidation, "invalid email address "+quote(raw), err)
		}
		return addr.Address, nil
	}
	return "", appErrors.NewDeliveryError(appErrors.KindConfiguration, "unknown channel "+quote(string(ch)), nil)
}

func quote(s string) string { return `"` + s + `"` }
