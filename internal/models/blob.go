package models

import "time"

// BlobInfo represents metadata about a stored file (raw upload or rendered report).
type BlobInfo struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"storedAt"`
}
