// Package app provides public health and authenticated identity endpoints.
package app

import (
	"log"
	"net/http"

	"github.com/drewsephski/Dream/app/config"

	"github.com/gin-gonic/gin"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Me returns subscription status and credit usage for the caller's own app
// record, resolved from the verified claims. Remaining credits are clamped
// at zero even if upstream data reports more spend than allotment.
func Me(c *gin.Context) {
	app, ok := requestApp(c, c.Query("user_id"))
	if !ok {
		return
	}
	status := statusResult(app)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("me config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}

	budget := budgetForStatus(c.Request.Context(), cfg, itoa64(app.ID), status.IsSubscribed)

	var usedCredits, totalCredits, remaining float64
	totalCredits = FreeTierCredits
	if budget != nil {
		usedCredits = budget.UsedCredits
		totalCredits = budget.TotalCredits
		remaining = budget.RemainingCredits()
	} else {
		remaining = totalCredits
	}

	resp := gin.H{
		"isSubscribed": status.IsSubscribed,
		"tier":         status.Tier,
		"usedCredits":  usedCredits,
		"totalCredits": totalCredits,
		"remaining":    remaining,
	}
	if status.IsSubscribed {
		// Pro accounts are unbudgeted; the meter is not rendered.
		resp["usedCredits"] = 0.0
		resp["remaining"] = float64(UnlimitedCredits)
		resp["totalCredits"] = float64(UnlimitedCredits)
	}
	if budget != nil && !budget.BudgetResetDate.IsZero() {
		resp["budgetResetDate"] = budget.BudgetResetDate
	}

	c.JSON(http.StatusOK, resp)
}
