package models

import (
	"time"

	"github.com/google/uuid"
)

// Resume is an uploaded CV document. The raw bytes live in object storage
// under StorageKey; the row only carries metadata.
type Resume struct {
	ID               uuid.UUID `db:"id"                json:"id"`
	UserID           uuid.UUID `db:"user_id"           json:"user_id"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	StorageKey       string    `db:"storage_key"       json:"storage_key"`
	ViewURL          string    `db:"view_url"          json:"view_url"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"        json:"updated_at"`
}
