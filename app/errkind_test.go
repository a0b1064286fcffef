package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestClassifyUpstreamError(t *testing.T) {
	cases := []struct {
		message string
		want    ErrorKind
	}{
		{"model gemini-2.5 doesn't have a free quota tier", ErrorKindQuotaTier},
		{"Resource has been exhausted (e.g. check quota).", ErrorKindRateLimited},
		{"429 see https://ai.google.dev/gemini-api/docs/rate-limits", ErrorKindRateLimited},
		{"LiteLLM Virtual Key expected", ErrorKindMissingProKey},
		{"ExceededBudget: monthly limit reached", ErrorKindBudgetExceeded},
		{"connection reset by peer", ErrorKindUnknown},
		{"", ErrorKindUnknown},
	}

	for _, tc := range cases {
		if got := ClassifyUpstreamError(tc.message); got != tc.want {
			t.Fatalf("ClassifyUpstreamError(%q) = %s, want %s", tc.message, got, tc.want)
		}
	}
}

func TestClassifyQuotaTierBeforeRateLimit(t *testing.T) {
	// The quota message embeds the rate-limit docs URL; the quota check must
	// win.
	message := "model doesn't have a free quota tier, see https://ai.google.dev/gemini-api/docs/rate-limits"
	if got := ClassifyUpstreamError(message); got != ErrorKindQuotaTier {
		t.Fatalf("expected quota_tier, got %s", got)
	}
}

func TestTrimFallbacks(t *testing.T) {
	message := "upstream exploded Fallbacks=[model-a, model-b, model-c]"
	if got := TrimFallbacks(message); got != "upstream exploded" {
		t.Fatalf("TrimFallbacks = %q", got)
	}
	if got := TrimFallbacks("plain error"); got != "plain error" {
		t.Fatalf("TrimFallbacks should pass through, got %q", got)
	}
}

func TestChatErrorHandler(t *testing.T) {
	router := gin.New()
	router.POST("/api/chat/error", ChatErrorHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/error",
		strings.NewReader(`{"message":"ExceededBudget: limit Fallbacks=[a]"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"kind":"budget_exceeded"`) {
		t.Fatalf("expected budget_exceeded kind, got %s", body)
	}
	if strings.Contains(body, "Fallbacks=") {
		t.Fatalf("expected fallback tail trimmed, got %s", body)
	}
}
