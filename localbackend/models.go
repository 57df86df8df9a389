package localbackend

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRecord is the account row backing the identity service
type UserRecord struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName  string    `bun:"display_name" json:"display_name,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
}

// DocumentRecord is a single document-store entry. One row per
// collection/doc id pair; fields are stored as JSON.
type DocumentRecord struct {
	bun.BaseModel `bun:"table:documents,alias:doc"`

	ID         uuid.UUID      `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Collection string         `bun:"collection,notnull,unique:collection_doc" json:"collection,omitempty"`
	DocID      string         `bun:"doc_id,notnull,unique:collection_doc" json:"doc_id,omitempty"`
	Fields     map[string]any `bun:"fields" json:"fields,omitempty"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}
