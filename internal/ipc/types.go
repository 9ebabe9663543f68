package ipc

import "galleria/internal/api"

// GalleryView mirrors the HTTP API gallery DTO for internal IPC callers.
type GalleryView = api.GalleryView

// GalleryRegistration mirrors the HTTP API registration payload.
type GalleryRegistration = api.GalleryRegistration

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"database_path"`
	LockPath     string         `json:"lock_path"`
	GalleryCount int            `json:"gallery_count"`
	StageCounts  map[string]int `json:"stage_counts"`
	TakenCount   int            `json:"taken_count"`
}

// HealthRequest fetches daemon health.
type HealthRequest struct{}

// HealthResponse reports daemon and database health.
type HealthResponse struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail"`
}

// GalleryListRequest fetches all registered galleries.
type GalleryListRequest struct{}

// GalleryListResponse contains registered galleries.
type GalleryListResponse struct {
	Galleries []GalleryView `json:"galleries"`
}

// GalleryAddRequest registers a new gallery.
type GalleryAddRequest struct {
	Gallery GalleryRegistration `json:"gallery"`
}

// GalleryAddResponse contains the registered gallery.
type GalleryAddResponse struct {
	Gallery GalleryView `json:"gallery"`
}

// GalleryDescribeRequest fetches a single gallery by id.
type GalleryDescribeRequest struct {
	ID string `json:"id"`
}

// GalleryDescribeResponse contains a single gallery.
type GalleryDescribeResponse struct {
	Gallery GalleryView `json:"gallery"`
}

// GalleryUpdateRequest replaces a gallery's schedule and criteria.
type GalleryUpdateRequest struct {
	ID      string              `json:"id"`
	Gallery GalleryRegistration `json:"gallery"`
}

// GalleryUpdateResponse contains the updated gallery.
type GalleryUpdateResponse struct {
	Gallery GalleryView `json:"gallery"`
}

// GalleryRemoveRequest deletes a gallery by id.
type GalleryRemoveRequest struct {
	ID string `json:"id"`
}

// GalleryRemoveResponse indicates removal result.
type GalleryRemoveResponse struct {
	Removed bool `json:"removed"`
}
