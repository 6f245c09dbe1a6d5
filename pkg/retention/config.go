package retention

import (
	"time"

	"giftpoints/custodian/pkg/store"
)

// Day is the unit retention ages are configured in.
const Day = 24 * time.Hour

// Class is a set of records sharing one expiry rule.
type Class struct {
	// Name identifies the class in audit entries and summaries.
	Name string

	// Collection holds the records.
	Collection string

	// TimeField is compared against the cutoff.
	// Default: "createdAt"
	TimeField string

	// Statuses restricts candidates to these states. Empty matches any.
	Statuses []string

	// MaxAge is how long a record is kept.
	MaxAge time.Duration
}

// Cutoff returns the newest timestamp that is already expired at now.
func (c Class) Cutoff(now time.Time) time.Time {
	return now.Add(-c.MaxAge)
}

// Filter returns the store filter selecting this class's expired records.
func (c Class) Filter(now time.Time) store.Filter {
	cutoff := c.Cutoff(now)
	return store.Filter{
		TimeField: c.TimeField,
		Before:    &cutoff,
		Statuses:  c.Statuses,
	}
}

// Config contains configuration for the retention pruner and scheduler.
type Config struct {
	// Schedule is a cron expression or descriptor.
	// Default: "@every 168h"
	Schedule string

	// RunOnStart runs once as soon as the scheduler starts.
	// Default: true
	RunOnStart bool

	// Classes lists the record classes subject to retention.
	Classes []Class
}

// DefaultConfig returns the default retention configuration: accepted or
// rejected orders expire 7 days after their last update, attempts 14 days
// after creation.
func DefaultConfig() *Config {
	return &Config{
		Schedule:   "@every 168h",
		RunOnStart: true,
		Classes: []Class{
			{
				Name:       "orders",
				Collection: "orders",
				TimeField:  store.UpdatedAtField,
				Statuses:   []string{"accepted", "rejected"},
				MaxAge:     7 * Day,
			},
			{
				Name:       "attempts",
				Collection: "attempts",
				TimeField:  store.CreatedAtField,
				MaxAge:     14 * Day,
			},
		},
	}
}
