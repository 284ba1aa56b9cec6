package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	appErrors "github.com/unclebandit/outreach-pipeline/internal/errors"
	"github.com/unclebandit/outreach-pipeline/internal/provider"
)

type rule struct {
	kind   appErrors.Kind
	reason string
}

var (
	invalidDestination = rule{appErrors.KindPermanent, "invalid destination"}
	unsubscribed       = rule{appErrors.KindPermanent, "recipient opted out"}
	badSender          = rule{appErrors.KindPermanent, "sender not authorized"}
	rateLimited        = rule{appErrors.KindTransient, "rate limited"}
	serviceError       = rule{appErrors.KindTransient, "provider service error"}
	rejected           = rule{appErrors.KindPermanent, "rejected by provider"}
)

// provider error codes, keyed by provider then code
var codeRules = map[provider.Name]map[string]rule{
	provider.Twilio: {
		"21211": invalidDestination,
		"21614": invalidDestination,
		"21612": invalidDestination,
		"21408": invalidDestination,
		"30003": invalidDestination,
		"30005": invalidDestination,
		"21610": unsubscribed,
		"20003": badSender,
		"20404": badSender,
		"21606": badSender,
		"21659": badSender,
		"20429": rateLimited,
		"14107": rateLimited,
		"30001": rateLimited,
		"20500": serviceError,
		"30008": serviceError,
	},
	provider.WhatsApp: {
		"131026": invalidDestination,
		"131030": invalidDestination,
		"131009": invalidDestination,
		"131050": unsubscribed,
		"190":    badSender,
		"10":     badSender,
		"200":    badSender,
		"131031": badSender,
		"130429": rateLimited,
		"131048": rateLimited,
		"131056": rateLimited,
		"80007":  rateLimited,
		"4":      rateLimited,
		"1":      serviceError,
		"2":      serviceError,
		"131000": serviceError,
		"131016": serviceError,
	},
}

// classify converts any provider error into the delivery taxonomy. It is the
// only place that knows provider error formats.
func classify(name provider.Name, err error) *appErrors.DeliveryError {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.NewDeliveryError(appErrors.KindTransient, fmt.Sprintf("timeout calling %s", name), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return appErrors.NewDeliveryError(appErrors.KindTransient, fmt.Sprintf("timeout calling %s", name), err)
	}
	if errors.Is(err, context.Canceled) {
		return appErrors.NewDeliveryError(appErrors.KindTransient, fmt.Sprintf("call to %s cancelled", name), err)
	}

	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		return appErrors.NewDeliveryError(appErrors.KindTransient, fmt.Sprintf("%s unavailable: %v", name, err), err)
	}

	r, ok := codeRules[apiErr.Provider][apiErr.Code]
	if !ok {
		r = statusRule(apiErr.StatusCode)
	}
	detail := apiErr.Message
	if apiErr.Code != "" {
		detail = apiErr.Code + ": " + detail
	}
	return appErrors.NewDeliveryError(r.kind, fmt.Sprintf("%s (%s %s)", r.reason, apiErr.Provider, detail), err)
}

// statusRule is the fallback when a provider gave no recognised code.
func statusRule(status int) rule {
	switch {
	case status == http.StatusTooManyRequests:
		return rateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return badSender
	case status >= 500 || status == http.StatusRequestTimeout:
		return serviceError
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return invalidDestination
	}
	return rejected
}
