package model

import "time"

// File represents an object uploaded by a user and stored in object storage.
// It carries no persistence tags and is shared across layers.
type File struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	StoragePath  string    `json:"storage_path"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}
