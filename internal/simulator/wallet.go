// Package simulator is a development wallet that answers the ERC-7715 and
// EIP-5792 wallet_* methods. It records grants and call bundles but never
// enforces permissions or verifies signatures.
package simulator

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/0xPexy/sentra-wallet/internal/metrics"
	"github.com/0xPexy/sentra-wallet/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence the wallet needs; *store.Repository satisfies it.
type Store interface {
	SaveGrants(ctx context.Context, grants []store.PermissionGrant) error
	ActiveGrants(ctx context.Context, account string, now time.Time) ([]store.PermissionGrant, error)
	GrantContextExists(ctx context.Context, account, grantContext string, now time.Time) (bool, error)
	NextNonce(ctx context.Context, sender string, chainID uint64) (uint64, error)
	SaveBundle(ctx context.Context, b *store.CallBundle) error
	BundleByHash(ctx context.Context, hash string) (*store.CallBundle, error)
	BundleByID(ctx context.Context, bundleID string) (*store.CallBundle, error)
	MarkBundleSent(ctx context.Context, hash, bundleID, signer, signature string, at time.Time) error
}

// Publisher receives wallet events; the websocket hub implements it.
type Publisher interface {
	Publish(v any)
}

type Config struct {
	ChainID uint64
	// PermissionTTL is applied to permissions requested without an expiry.
	PermissionTTL time.Duration
}

type Wallet struct {
	cfg     Config
	repo    Store
	events  Publisher
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	// serializes nonce allocation in prepareCalls
	prepareMu sync.Mutex
}

type Option func(*Wallet)

func WithPublisher(p Publisher) Option { return func(w *Wallet) { w.events = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(w *Wallet) { w.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(w *Wallet) { w.logger = l } }

func WithClock(now func() time.Time) Option { return func(w *Wallet) { w.now = now } }

func NewWallet(cfg Config, repo Store, opts ...Option) *Wallet {
	if cfg.PermissionTTL <= 0 {
		cfg.PermissionTTL = 24 * time.Hour
	}
	w := &Wallet{
		cfg:    cfg,
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wallet) ChainID() uint64 { return w.cfg.ChainID }

func (w *Wallet) publish(e Event) {
	e.At = w.now().Unix()
	if w.events != nil {
		w.events.Publish(e)
	}
}

// newOpaqueID returns a 0x-prefixed random 16-byte identifier.
func newOpaqueID() string {
	id := uuid.New()
	return "0x" + hex.EncodeToString(id[:])
}
