package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *DB) *Repository { return &Repository{db: db.DB} }

func (r *Repository) SaveGrants(ctx context.Context, grants []PermissionGrant) error {
	if len(grants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range grants {
			grants[i].Account = NormalizeAddress(grants[i].Account)
			if grants[i].ExpiresAt != nil {
				utc := grants[i].ExpiresAt.UTC()
				grants[i].ExpiresAt = &utc
			}
		}
		return tx.Create(&grants).Error
	})
}

// ActiveGrants returns the account's grants that have not expired at now,
// oldest first.
func (r *Repository) ActiveGrants(ctx context.Context, account string, now time.Time) ([]PermissionGrant, error) {
	var out []PermissionGrant
	err := r.db.WithContext(ctx).
		Where("account = ?", NormalizeAddress(account)).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		Order("id asc").
		Find(&out).Error
	return out, err
}

func (r *Repository) GrantContextExists(ctx context.Context, account, grantContext string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PermissionGrant{}).
		Where("account = ? AND context = ?", NormalizeAddress(account), grantContext).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		Count(&count).Error
	return count > 0, err
}

// NextNonce is the number of bundles already prepared for sender on chainID.
func (r *Repository) NextNonce(ctx context.Context, sender string, chainID uint64) (uint64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&CallBundle{}).
		Where("sender = ? AND chain_id = ?", NormalizeAddress(sender), chainID).
		Count(&count).Error
	return uint64(count), err
}

func (r *Repository) SaveBundle(ctx context.Context, b *CallBundle) error {
	b.Sender = NormalizeAddress(b.Sender)
	if b.Status == "" {
		b.Status = BundleStatusPrepared
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) BundleByHash(ctx context.Context, hash string) (*CallBundle, error) {
	return r.firstBundle(ctx, "hash = ?", NormalizeAddress(hash))
}

func (r *Repository) BundleByID(ctx context.Context, bundleID string) (*CallBundle, error) {
	return r.firstBundle(ctx, "bundle_id = ?", bundleID)
}

func (r *Repository) firstBundle(ctx context.Context, query string, arg any) (*CallBundle, error) {
	var b CallBundle
	err := r.db.WithContext(ctx).Where(query, arg).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// MarkBundleSent moves a prepared bundle to sent. A bundle can only be sent
// once; a second attempt returns ErrConflict.
func (r *Repository) MarkBundleSent(ctx context.Context, hash, bundleID, signer, signature string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b CallBundle
		if err := tx.Where("hash = ?", NormalizeAddress(hash)).First(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if b.Status != BundleStatusPrepared {
			return ErrConflict
		}
		res := tx.Model(&CallBundle{}).
			Where("id = ? AND status = ?", b.ID, BundleStatusPrepared).
			Updates(map[string]any{
				"bundle_id": bundleID,
				"status":    BundleStatusSent,
				"signer":    NormalizeAddress(signer),
				"signature": signature,
				"sent_at":   at.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}
