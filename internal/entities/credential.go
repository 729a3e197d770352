package entities

import (
	"time"

	"gorm.io/gorm"
)

// DefaultAccount is the credential slot used by the single-user client.
const DefaultAccount = "default"

// StoredCredential holds a sealed session token for the remote manga service.
type StoredCredential struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Account names the credential slot
	Account string `gorm:"type:varchar(255);not null;uniqueIndex" json:"account"`

	// Token is the sealed bearer token, base64(nonce || ciphertext)
	Token string `gorm:"type:text;not null" json:"-"`

	// LastUsedAt tracks when the token was last read
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func (StoredCredential) TableName() string {
	return "stored_credentials"
}
