package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
)

// ObjectPutter is the slice of an object store the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// LedgerArchiver exports ledger windows as JSON lines to object storage.
type LedgerArchiver struct {
	Ledger *RewardLedger
	Store  ObjectPutter
	Clock  clockwork.Clock
	Window time.Duration
}

func NewLedgerArchiver(ledger *RewardLedger, store ObjectPutter, clock clockwork.Clock, window time.Duration) *LedgerArchiver {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &LedgerArchiver{Ledger: ledger, Store: store, Clock: clock, Window: window}
}

// Run archives the last complete window.
func (a *LedgerArchiver) Run(ctx context.Context) error {
	to := a.Clock.Now().UTC().Truncate(a.Window)
	from := to.Add(-a.Window)
	_, _, err := a.ArchiveWindow(ctx, from, to)
	return err
}

// ArchiveWindow uploads entries scanned in [from, to). Empty windows upload nothing.
func (a *LedgerArchiver) ArchiveWindow(ctx context.Context, from, to time.Time) (key string, count int, err error) {
	entries, err := a.Ledger.Between(ctx, from, to)
	if err != nil {
		return "", 0, fmt.Errorf("load ledger window: %w", err)
	}
	if len(entries) == 0 {
		return "", 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return "", 0, fmt.Errorf("encode ledger entry %s: %w", e.ID, err)
		}
	}

	key = ArchiveKey(from)
	if err := a.Store.PutObject(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return "", 0, err
	}
	log.Printf("🗄️ [ARCHIVE] Uploaded %d ledger entries to %s", len(entries), key)
	return key, len(entries), nil
}

// ArchiveKey is the object key for a window starting at from.
func ArchiveKey(from time.Time) string {
	from = from.UTC()
	return fmt.Sprintf("recycle-log/%s/%d.jsonl", from.Format("2006/01/02"), from.Unix())
}
