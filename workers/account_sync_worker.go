// workers/account_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"recycle-reward-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteAccount matches one entry of the account service's change feed.
type RemoteAccount struct {
	ExternalID    string    `json:"external_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AccountStatus string    `json:"account_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetAccountChangesResponse is the top-level structure of the change feed.
type GetAccountChangesResponse struct {
	Users []RemoteAccount `json:"users"`
}

// AccountSyncWorker mirrors accounts from the account service into the local
// users table. It only writes profile columns; points and totals belong to
// the claim path.
type AccountSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client

	mu       sync.Mutex
	lastSync time.Time
}

func NewAccountSyncWorker(db *gorm.DB, baseURL, endpointPath, serviceToken string, interval time.Duration) *AccountSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AccountSyncWorker{
		db:           db,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *AccountSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Account Sync Worker (account service → users)…")
	go w.run(ctx)
}

func (w *AccountSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.SyncOnce(ctx); err != nil {
		log.Printf("⚠️ [SYNC] Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				log.Printf("❌ [SYNC] Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Account Sync Worker stopped")
			return
		}
	}
}

// SyncOnce fetches changes since the newest remote updated_at seen so far and
// upserts them. The cursor only advances after a fully successful batch.
func (w *AccountSyncWorker) SyncOnce(ctx context.Context) error {
	w.mu.Lock()
	since := w.lastSync
	w.mu.Unlock()

	accounts, err := w.fetch(ctx, since)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	latest := since
	var upserted int
	for _, acct := range accounts {
		if acct.ExternalID == "" {
			continue
		}
		user := models.User{
			ID:    acct.ExternalID,
			Name:  acct.Username,
			Email: acct.Email,
		}
		err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
		}).Create(&user).Error
		if err != nil {
			return fmt.Errorf("upsert user %q: %w", acct.ExternalID, err)
		}
		upserted++
		if acct.UpdatedAt.After(latest) {
			latest = acct.UpdatedAt
		}
	}

	w.mu.Lock()
	w.lastSync = latest
	w.mu.Unlock()

	log.Printf("[SYNC] ✅ Synced %d user(s). Cursor: %s", upserted, latest.UTC().Format(time.RFC3339))
	return nil
}

func (w *AccountSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteAccount, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid account service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to account service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("account service returned %d: %s", resp.StatusCode, string(body))
	}

	var response GetAccountChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode account service response: %w", err)
	}
	return response.Users, nil
}
