package dto

import "time"

// StatusView reports the planner's last load and store wiring.
type StatusView struct {
	Origin         string     `json:"origin"`
	StoreDriver    string     `json:"storeDriver"`
	StoreKey       string     `json:"storeKey"`
	Loaded         bool       `json:"loaded"`
	LoadStatus     string     `json:"loadStatus,omitempty"`
	LoadError      string     `json:"loadError,omitempty"`
	Seeded         bool       `json:"seeded"`
	LoadedAt       *time.Time `json:"loadedAt,omitempty"`
	ExternalReload *time.Time `json:"externalReloadAt,omitempty"`
	Courses        int        `json:"courses"`
	Today          string     `json:"today"`
}
