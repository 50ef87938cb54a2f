package schema

import "time"

// Audit carries the server-assigned bookkeeping fields. They are nullable
// until the record is persisted and never client-writable.
type Audit struct {
	CreatedBy *int64     `json:"created_by,omitempty"`
	UpdatedBy *int64     `json:"updated_by,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Base is embedded by every entity record.
type Base struct {
	ID     *int64 `json:"id,omitempty"`
	Active bool   `json:"active"`
	Audit
}

func (b *Base) EntityID() *int64 { return b.ID }

func (b *Base) SetEntityID(id int64) { b.ID = &id }

// Persisted reports whether the record has been assigned an id.
func (b *Base) Persisted() bool { return b.ID != nil }
