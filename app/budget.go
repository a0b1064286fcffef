// Package app projects subscription state and gateway usage into a credit
// budget. Budget information is advisory; when it cannot be fetched the
// caller gets nil and falls back to defaults instead of an error.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/drewsephski/Dream/app/config"
	"github.com/drewsephski/Dream/app/models"

	"github.com/gin-gonic/gin"
)

var gatewayClient = &http.Client{Timeout: 15 * time.Second}

const (
	// FreeTierCredits is the monthly allotment assumed for anyone without
	// an active pro subscription.
	FreeTierCredits = 5

	// UnlimitedCredits is the effectively-unlimited total reported for
	// active pro subscribers.
	UnlimitedCredits = 999999

	// creditConversionRatio converts gateway dollar spend into credits.
	creditConversionRatio = (10.0 * 3.0) / 2.0

	budgetResetPeriod = 30 * 24 * time.Hour
)

// GetUserBudget computes the budget projection for a user id. An active pro
// subscription wins outright; otherwise the gateway is consulted when a
// credential is configured. Gateway failures return nil, never an error.
func GetUserBudget(ctx context.Context, cfg *config.Config, userID string) *models.UserBudget {
	return budgetForStatus(ctx, cfg, userID, GetSubscriptionStatus(ctx, userID).IsSubscribed)
}

// budgetForStatus is the projection body for callers that already resolved
// the subscription state, so status is not looked up twice per request.
func budgetForStatus(ctx context.Context, cfg *config.Config, userID string, subscribed bool) *models.UserBudget {
	if subscribed {
		return &models.UserBudget{
			UsedCredits:     0,
			TotalCredits:    UnlimitedCredits,
			BudgetResetDate: time.Now().Add(budgetResetPeriod),
		}
	}

	if cfg.Gateway.APIKey == "" {
		return &models.UserBudget{
			UsedCredits:     0,
			TotalCredits:    FreeTierCredits,
			BudgetResetDate: time.Now().Add(budgetResetPeriod),
		}
	}

	budget, err := fetchGatewayBudget(ctx, cfg)
	if err != nil {
		log.Printf("budget fetch failed user=%s err=%v", userID, err)
		return nil
	}
	return budget
}

type gatewayUserInfo struct {
	UserInfo struct {
		Spend         float64   `json:"spend"`
		MaxBudget     float64   `json:"max_budget"`
		BudgetResetAt time.Time `json:"budget_reset_at"`
	} `json:"user_info"`
}

func fetchGatewayBudget(ctx context.Context, cfg *config.Config) (*models.UserBudget, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Gateway.URL+"/user/info", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Gateway.APIKey)

	resp, err := gatewayClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gateway status %d: %s", resp.StatusCode, body)
	}

	var info gatewayUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	return &models.UserBudget{
		UsedCredits:     info.UserInfo.Spend * creditConversionRatio,
		TotalCredits:    info.UserInfo.MaxBudget * creditConversionRatio,
		BudgetResetDate: info.UserInfo.BudgetResetAt,
	}, nil
}

// UserBudgetHandler returns the caller's budget projection, or null when it
// is unavailable, so the client can fall back to defaults without failing
// the render.
func UserBudgetHandler(c *gin.Context) {
	app, ok := requestApp(c, c.Query("user_id"))
	if !ok {
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("budget config load failed: %v", err)
		c.JSON(http.StatusOK, nil)
		return
	}

	budget := budgetForStatus(c.Request.Context(), cfg, itoa64(app.ID), app.IsSubscribed())
	if budget == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, budget)
}
