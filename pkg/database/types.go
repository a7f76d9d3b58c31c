package database

import (
	"time"

	"github.com/google/uuid"
)

// Package is the unit of naming. The canonical name is globally unique
// among non-deleted packages.
type Package struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Version is an immutable release of a package. Only IsYanked may change
// after creation.
type Version struct {
	ID        uuid.UUID `json:"id"`
	PackageID uuid.UUID `json:"package_id"`
	Version   string    `json:"version"`
	License   string    `json:"license"`
	Readme    string    `json:"readme,omitempty"`
	// Checksum is 64 lowercase hex characters of SHA-256.
	Checksum  string    `json:"checksum"`
	Size      uint64    `json:"size"`
	IsYanked  bool      `json:"is_yanked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVersion carries the caller-supplied fields of a version row.
type NewVersion struct {
	Version  string
	License  string
	Readme   string
	Checksum string
	Size     uint64
}

// Owner associates an email with a package. Emails are stored lowercased.
type Owner struct {
	ID        uuid.UUID  `json:"id"`
	PackageID uuid.UUID  `json:"package_id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ApiToken is a local bearer credential. The token string is unique.
type ApiToken struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Token     string     `json:"token,omitempty"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
