package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns resumes and analysis jobs. Session mechanics
// live elsewhere; the API authenticates with per-user API keys.
type User struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Email     string    `db:"email"      json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
