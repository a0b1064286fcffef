package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/drewsephski/Dream/app/config"
	"github.com/drewsephski/Dream/app/models"

	_ "github.com/lib/pq"
)

var db *sql.DB

// MustInitDB initializes the global db and panics/logs fatally on error.
func MustInitDB() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.URL,
		cfg.DB.Port,
	)

	d, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}

	if err := d.Ping(); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}

	if err := ensureSchema(d); err != nil {
		log.Fatalf("ensureSchema: %v", err)
	}

	log.Println("Connected to Postgres")
	db = d
}

func ensureSchema(d *sql.DB) error {
	_, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS apps (
			id                  BIGSERIAL PRIMARY KEY,
			name                TEXT,
			auth_subject        TEXT UNIQUE,
			email               TEXT,
			stripe_customer_id  TEXT,
			subscription_id     TEXT,
			subscription_status TEXT,
			subscription_tier   TEXT,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS webhook_events (
			event_id    TEXT PRIMARY KEY,
			event_type  TEXT NOT NULL,
			received_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

func getAppByID(ctx context.Context, id int64) (models.App, error) {
	return scanApp(db.QueryRowContext(ctx, `
		SELECT id, name, auth_subject, email, stripe_customer_id,
		       subscription_id, subscription_status, subscription_tier, created_at
		FROM apps
		WHERE id = $1;
	`, id))
}

func getAppByAuthSubject(ctx context.Context, subject string) (models.App, error) {
	return scanApp(db.QueryRowContext(ctx, `
		SELECT id, name, auth_subject, email, stripe_customer_id,
		       subscription_id, subscription_status, subscription_tier, created_at
		FROM apps
		WHERE auth_subject = $1;
	`, subject))
}

func scanApp(row *sql.Row) (models.App, error) {
	var (
		a           models.App
		name        sql.NullString
		authSubject sql.NullString
		email       sql.NullString
		customerID  sql.NullString
		subID       sql.NullString
		subStatus   sql.NullString
		subTier     sql.NullString
	)

	err := row.Scan(&a.ID, &name, &authSubject, &email, &customerID, &subID, &subStatus, &subTier, &a.CreatedAt)
	if err != nil {
		return models.App{}, err
	}

	a.Name = name.String
	a.AuthSubject = authSubject.String
	a.Email = email.String
	a.StripeCustomerID = customerID.String
	a.SubscriptionID = subID.String
	a.Status = models.SubscriptionStatus(subStatus.String)
	a.Tier = models.Tier(subTier.String)
	return a, nil
}

func setAppStripeCustomer(ctx context.Context, id int64, customerID string) error {
	if db == nil {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE apps
		SET stripe_customer_id = $1
		WHERE id = $2;
	`, customerID, id)
	return err
}

// setAppSubscription records a checkout/webhook result in one atomic row
// update: subscription id, status, and tier together.
func setAppSubscription(ctx context.Context, id int64, subscriptionID string, status models.SubscriptionStatus, tier models.Tier) error {
	if db == nil {
		// Allow test runs without a backing DB.
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE apps
		SET subscription_id = $1, subscription_status = $2, subscription_tier = $3
		WHERE id = $4;
	`, subscriptionID, status, tier, id)
	return err
}

func setAppCancelled(ctx context.Context, id int64) error {
	if db == nil {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE apps
		SET subscription_status = $1, subscription_tier = $2
		WHERE id = $3;
	`, models.StatusCancelled, models.TierFree, id)
	return err
}

// setAppPastDue leaves the tier untouched.
func setAppPastDue(ctx context.Context, id int64) error {
	if db == nil {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE apps
		SET subscription_status = $1
		WHERE id = $2;
	`, models.StatusPastDue, id)
	return err
}

// markWebhookEvent records a processed provider event id. It reports false
// when the id was already present, which signals a duplicate delivery.
func markWebhookEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	if db == nil {
		// Allow test runs without a backing DB.
		return true, nil
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING;
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
