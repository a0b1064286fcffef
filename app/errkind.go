package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorKind is the structured classification of an upstream model/gateway
// error. The client picks a UI treatment from the kind instead of matching
// substrings on the message text itself.
type ErrorKind string

const (
	ErrorKindQuotaTier      ErrorKind = "quota_tier"
	ErrorKindRateLimited    ErrorKind = "rate_limited"
	ErrorKindMissingProKey  ErrorKind = "missing_pro_key"
	ErrorKindBudgetExceeded ErrorKind = "budget_exceeded"
	ErrorKindUnknown        ErrorKind = "unknown"
)

// ClassifyUpstreamError maps free-form upstream error text onto an
// ErrorKind. The quota-tier check runs first: rate-limit errors embed the
// same documentation URL the quota message carries.
func ClassifyUpstreamError(message string) ErrorKind {
	switch {
	case strings.Contains(message, "doesn't have a free quota tier"):
		return ErrorKindQuotaTier
	case strings.Contains(message, "Resource has been exhausted"),
		strings.Contains(message, "https://ai.google.dev/gemini-api/docs/rate-limits"):
		return ErrorKindRateLimited
	case strings.Contains(message, "LiteLLM Virtual Key expected"):
		return ErrorKindMissingProKey
	case strings.Contains(message, "ExceededBudget:"):
		return ErrorKindBudgetExceeded
	default:
		return ErrorKindUnknown
	}
}

// TrimFallbacks cuts the model-fallback tail that clutters gateway error
// messages.
func TrimFallbacks(message string) string {
	if idx := strings.Index(message, "Fallbacks="); idx >= 0 {
		return strings.TrimSpace(message[:idx])
	}
	return message
}

type chatErrorRequest struct {
	Message string `json:"message"`
}

// ChatErrorHandler classifies a reported upstream error so the client can
// choose a treatment without its own string matching.
func ChatErrorHandler(c *gin.Context) {
	var req chatErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":    ClassifyUpstreamError(req.Message),
		"message": TrimFallbacks(req.Message),
	})
}
