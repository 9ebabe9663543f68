package api

import (
	"encoding/json"
	"time"
)

// GalleryView is the external representation of one registered gallery:
// its durable registration merged with live pipeline position.
type GalleryView struct {
	ID                 string            `json:"id"`
	Cron               string            `json:"cron"`
	Stage              string            `json:"stage"`
	Taken              bool              `json:"taken"`
	TakenAt            *time.Time        `json:"taken_at,omitempty"`
	NextFire           *time.Time        `json:"next_fire,omitempty"`
	SearchCriteria     json.RawMessage   `json:"search_criteria,omitempty"`
	EvaluationCriteria json.RawMessage   `json:"evaluation_criteria,omitempty"`
	LastScraped        map[string]string `json:"last_scraped,omitempty"`
	FailureReasons     map[string]string `json:"failure_reasons,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// GalleryRegistration is the request payload for registering or
// updating a gallery.
type GalleryRegistration struct {
	ID                 string          `json:"id,omitempty"`
	Cron               string          `json:"cron"`
	SearchCriteria     json.RawMessage `json:"search_criteria,omitempty"`
	EvaluationCriteria json.RawMessage `json:"evaluation_criteria,omitempty"`
}

// GalleryListResponse contains registered galleries.
type GalleryListResponse struct {
	Galleries []GalleryView `json:"galleries"`
}

// GalleryResponse contains a single gallery.
type GalleryResponse struct {
	Gallery GalleryView `json:"gallery"`
}

// DaemonStatus represents daemon runtime information.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"database_path"`
	LockFilePath string         `json:"lock_file_path"`
	GalleryCount int            `json:"gallery_count"`
	StageCounts  map[string]int `json:"stage_counts,omitempty"`
	TakenCount   int            `json:"taken_count"`
}

// HealthResponse reports daemon and database health.
type HealthResponse struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
