package domain

import (
	"context"
	"time"
)

// Audit event names for the trading write path.
const (
	AuditPlaceLimitOrder  = "place_limit_order"
	AuditPlaceMarketOrder = "place_market_order"
	AuditCancelOrder      = "cancel_order"
	AuditRedeemPosition   = "redeem_position"
)

// AuditEntry is a single append-only journal row recording one trading
// action that crossed the tool surface.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditJournal persists trading actions. It is write-only from the serving
// path; reads exist solely for retention archival.
type AuditJournal interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	ListBefore(ctx context.Context, cutoff time.Time) ([]AuditEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
