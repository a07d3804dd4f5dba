package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/samvad-headlines/internal/domain"
	"github.com/Adda-Baaj/samvad-headlines/pkg/providers"
)

// User-facing messages of terminal failures.
const (
	MessageCredentialMissing = "Please configure your NewsAPI key to fetch real news."
	MessageInvalidCredential = "Invalid API key. Please check your NewsAPI key."
	MessageRateLimited       = "API rate limit exceeded."
	messageUnknownFormat     = "Failed to load real-time news: %s."
	messageUnknownNoCause    = "Failed to load real-time news."
)

// Upstream error codes that identify a rejected or rate limited key.
var (
	invalidKeyCodes = []string{"apikeyinvalid", "apikeymissing", "apikeydisabled"}
	rateLimitCodes  = []string{"ratelimited"}
)

// Classify maps the direct upstream failure onto a terminal reason and its message.
func Classify(cause error) (domain.Reason, string) {
	if cause == nil {
		return domain.ReasonUnknown, messageUnknownNoCause
	}
	if errors.Is(cause, providers.ErrCredentialMissing) {
		return domain.ReasonCredentialMissing, MessageCredentialMissing
	}

	// Request URLs are kept out of the text search: ports and query values can contain 401 or 429.
	text := cause.Error()
	if fe, ok := providers.AsFetchError(cause); ok {
		code := strings.ToLower(fe.Code)
		switch {
		case fe.StatusCode == 401 || containsAny(code, invalidKeyCodes):
			return domain.ReasonInvalidCredential, MessageInvalidCredential
		case fe.StatusCode == 429 || containsAny(code, rateLimitCodes):
			return domain.ReasonRateLimited, MessageRateLimited
		}
		text = fe.Message + " " + fe.Body
	}

	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "401") || strings.Contains(text, "unauthorized") ||
		strings.Contains(text, "invalid api key") || strings.Contains(text, "api key is invalid"):
		return domain.ReasonInvalidCredential, MessageInvalidCredential
	case strings.Contains(text, "429") || strings.Contains(text, "too many requests"):
		return domain.ReasonRateLimited, MessageRateLimited
	}

	return domain.ReasonUnknown, fmt.Sprintf(messageUnknownFormat, strings.TrimSuffix(cause.Error(), "."))
}

func containsAny(s string, subs []string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
