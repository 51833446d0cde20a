package store

import "time"

const (
	BundleStatusPrepared = "prepared"
	BundleStatusSent     = "sent"
)

// PermissionGrant is one permission granted by the simulator. Grants issued
// by the same wallet_grantPermissions call share a Context.
type PermissionGrant struct {
	ID      uint   `gorm:"primaryKey"`
	Context string `gorm:"size:66;index;not null"`
	Account string `gorm:"size:66;index;not null"`
	ChainID uint64 `gorm:"index"`
	Type    string `gorm:"size:128;not null"`
	// Payload is the granted permission in wire form.
	Payload   string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

type CallBundle struct {
	ID uint `gorm:"primaryKey"`
	// BundleID is assigned by wallet_sendPreparedCalls.
	BundleID *string `gorm:"size:66;uniqueIndex"`
	// Hash is the signature request hash returned by wallet_prepareCalls.
	Hash               string `gorm:"size:66;uniqueIndex;not null"`
	Sender             string `gorm:"size:66;index;not null"`
	ChainID            uint64 `gorm:"index"`
	Nonce              uint64
	PermissionsContext string `gorm:"size:128"`
	Calls              string `gorm:"type:text"`
	Prepared           string `gorm:"type:text"`
	Status             string `gorm:"size:32;not null"`
	Signer             string `gorm:"size:66"`
	Signature          string `gorm:"size:256"`
	SentAt             *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}
