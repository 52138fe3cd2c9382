package model

import (
	"encoding/json"
	"time"
)

// Record is an owner-scoped JSON document grouped by kind.
type Record struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
