package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Origin tells whether an activity record was entered by hand or synchronized
// from an external health platform.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginSynced Origin = "synced"
)

// Platform identifies the external health platform a synced record came from.
type Platform string

const (
	PlatformAppleHealth Platform = "apple_health"
	PlatformGoogleFit   Platform = "google_fit"
	PlatformFitbit      Platform = "fitbit"
	PlatformGarmin      Platform = "garmin"
)

type ActivityRecord struct {
	bun.BaseModel `bun:"activity_records,alias:ar"`

	ID              string    `bun:",pk" json:"id"`
	Name            string    `json:"name"`
	StartTime       time.Time `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Origin          Origin    `json:"origin"`
	// Platform is set iff Origin == OriginSynced.
	Platform  *Platform `json:"platform,omitempty"`
	Metadata  Metadata  `bun:"type:jsonb" json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EndTime is StartTime advanced by the record's duration.
func (r *ActivityRecord) EndTime() time.Time {
	return r.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Confidence returns the sync-confidence metadata, or def when absent.
func (r *ActivityRecord) Confidence(def float64) float64 {
	if r.Metadata == nil {
		return def
	}
	if v, ok := r.Metadata.GetNumber("confidence"); ok {
		return v
	}
	return def
}

// Clone returns a deep-enough copy: metadata map is copied, platform pointer
// is re-allocated. Resolution paths mutate copies, never their inputs.
func (r *ActivityRecord) Clone() *ActivityRecord {
	out := *r
	out.Metadata = r.Metadata.Clone()
	if r.Platform != nil {
		p := *r.Platform
		out.Platform = &p
	}
	return &out
}
