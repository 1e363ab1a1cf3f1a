package workspace

import "time"

// Artifact records one file written into a workspace.
type Artifact struct {
	ID          string    `json:"id"`
	Page        string    `json:"page"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	Source      string    `json:"source,omitempty"`
	Bytes       int       `json:"bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
