package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryCatalog  = "catalog"
	EventCategoryCheckout = "checkout"
	EventCategoryCache    = "cache"
	EventCategorySystem   = "system"
)

// Event represents a local event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
