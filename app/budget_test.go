package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drewsephski/Dream/app/config"
	"github.com/drewsephski/Dream/app/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

func testParams(userID string) models.CreateSubscriptionParams {
	return models.CreateSubscriptionParams{
		UserID:    userID,
		UserEmail: "a@b.com",
		PriceID:   "price_pro_monthly",
	}
}

func TestGetUserBudgetSubscribed(t *testing.T) {
	t.Setenv("PRO_GATEWAY_API_KEY", "")

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db = mockDB
	t.Cleanup(func() { db = nil; mockDB.Close() })

	mock.ExpectQuery("SELECT id, name, auth_subject").
		WithArgs(int64(1)).
		WillReturnRows(appRows("active", "pro"))

	budget := GetUserBudget(context.Background(), testConfig(t), "1")
	if budget == nil {
		t.Fatalf("expected budget for subscriber")
	}
	if budget.TotalCredits != UnlimitedCredits || budget.UsedCredits != 0 {
		t.Fatalf("expected unlimited budget, got %+v", budget)
	}
	if budget.BudgetResetDate.IsZero() {
		t.Fatalf("expected a reset date")
	}
}

func TestGetUserBudgetFreeDefaults(t *testing.T) {
	t.Setenv("PRO_GATEWAY_API_KEY", "")
	db = nil

	budget := GetUserBudget(context.Background(), testConfig(t), "1")
	if budget == nil {
		t.Fatalf("expected free-tier defaults")
	}
	if budget.TotalCredits != FreeTierCredits || budget.UsedCredits != 0 {
		t.Fatalf("expected free defaults, got %+v", budget)
	}
}

func TestGetUserBudgetGatewayFailSoft(t *testing.T) {
	db = nil

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	t.Setenv("PRO_GATEWAY_URL", server.URL)
	t.Setenv("PRO_GATEWAY_API_KEY", "sk-pro-test")

	if budget := GetUserBudget(context.Background(), testConfig(t), "1"); budget != nil {
		t.Fatalf("expected nil budget on gateway failure, got %+v", budget)
	}
}

func TestGetUserBudgetGatewaySuccess(t *testing.T) {
	db = nil

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-pro-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_info":{"spend":0.2,"max_budget":1,"budget_reset_at":"2026-09-30T00:00:00Z"}}`))
	}))
	t.Cleanup(server.Close)

	t.Setenv("PRO_GATEWAY_URL", server.URL)
	t.Setenv("PRO_GATEWAY_API_KEY", "sk-pro-test")

	budget := GetUserBudget(context.Background(), testConfig(t), "1")
	if budget == nil {
		t.Fatalf("expected budget from gateway")
	}
	if budget.UsedCredits != 3 || budget.TotalCredits != 15 {
		t.Fatalf("expected converted credits 3/15, got %+v", budget)
	}
	if budget.BudgetResetDate.Year() != 2026 {
		t.Fatalf("expected parsed reset date, got %v", budget.BudgetResetDate)
	}
}

func TestMeClampsRemaining(t *testing.T) {
	db = nil

	// Gateway reports more spend than allotment; remaining must clamp to 0.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_info":{"spend":2,"max_budget":1,"budget_reset_at":"2026-09-30T00:00:00Z"}}`))
	}))
	t.Cleanup(server.Close)

	t.Setenv("PRO_GATEWAY_URL", server.URL)
	t.Setenv("PRO_GATEWAY_API_KEY", "sk-pro-test")

	router := gin.New()
	router.Use(withClaims("user-123"))
	router.GET("/me", Me)

	req := httptest.NewRequest(http.MethodGet, "/me?user_id=1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Remaining    float64 `json:"remaining"`
		UsedCredits  float64 `json:"usedCredits"`
		TotalCredits float64 `json:"totalCredits"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Remaining != 0 {
		t.Fatalf("expected remaining clamped to 0, got %v", body.Remaining)
	}
	if body.UsedCredits <= body.TotalCredits {
		t.Fatalf("test setup should overrun the allotment, got %+v", body)
	}
}
