package backup

import "time"

// Snapshot is a timestamped full copy of one logical table.
type Snapshot struct {
	Name      string    `json:"name"`
	Table     string    `json:"table"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

type RestoreRequest struct {
	Table    string `json:"table" binding:"required"`
	Snapshot string `json:"snapshot" binding:"required"`
}

type SnapshotResult struct {
	Created []Snapshot `json:"created"`
	Pruned  []string   `json:"pruned,omitempty"`
}
