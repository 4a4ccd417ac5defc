package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAuth carries the fields the auth flow needs. Password holds the
// bcrypt hash, never plain text.
type UserAuth struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinates is a plain lat/lon pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is one immutable row of the primary location store. Updates
// append new rows; existing rows are never mutated or deleted.
type Location struct {
	ID         uuid.UUID `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	City       *string   `json:"city,omitempty"`
	State      *string   `json:"state,omitempty"`
	Country    *string   `json:"country,omitempty"`
	PostalCode *string   `json:"postal_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Address groups the optional address fields of a location update.
type Address struct {
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	Country    *string `json:"country,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// CurrentLocation is the join of a user's current pointer row with its
// location record.
type CurrentLocation struct {
	UserLocationID uuid.UUID `json:"user_location_id"`
	UserID         uuid.UUID `json:"user_id"`
	Location       Location  `json:"location"`
	SetAt          time.Time `json:"set_at"`
}

// Mirror write outcomes reported alongside a successful primary update.
const (
	MirrorSynced = "synced"
	MirrorFailed = "failed"
)

// LocationUpdateResult is the payload of a successful location update.
// MirrorStatus surfaces the secondary-store outcome separately so callers
// and monitoring can detect drift between the two stores.
type LocationUpdateResult struct {
	LocationID     uuid.UUID `json:"location_id"`
	UserLocationID uuid.UUID `json:"user_location_id"`
	MirrorStatus   string    `json:"mirror_status"`
}

// GeoPoint is the single mutable point per user held in the secondary,
// geometry-native store. Upserted in place, no history.
type GeoPoint struct {
	UserID    uuid.UUID `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationSyncStatus compares the authoritative current location against
// the mirrored geometry point.
type LocationSyncStatus struct {
	Primary Coordinates  `json:"primary"`
	Mirror  *Coordinates `json:"mirror,omitempty"`
	DriftKm *float64     `json:"drift_km,omitempty"`
	InSync  bool         `json:"in_sync"`
}

// Business is a catalog entry joined against its location record.
// DistanceKm is populated only by proximity queries.
type Business struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Rating      float64   `json:"rating"`
	ClusterID   int       `json:"cluster_id"`
	LocationID  uuid.UUID `json:"location_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	DistanceKm  *float64  `json:"distance,omitempty"`
}

// BusinessFilter drives the dynamic catalog listing.
type BusinessFilter struct {
	Type      string
	MinRating float64
	Limit     int
	Offset    int
}

// UserPreference is the coarse affinity bucket assigned from a survey
// response; one row per user.
type UserPreference struct {
	UserID    uuid.UUID `json:"user_id"`
	ClusterID int       `json:"cluster_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Friend request lifecycle statuses.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusDeclined = "declined"
)

// FriendRequest tracks the friendship state between two users.
type FriendRequest struct {
	ID          uuid.UUID  `json:"id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	AddresseeID uuid.UUID  `json:"addressee_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Friend is one accepted friendship as seen from a given user.
type Friend struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Since    time.Time `json:"since"`
}

// SurveyQuestion is a static catalog entry delivered to clients.
type SurveyQuestion struct {
	ID       int      `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Position int      `json:"position"`
}

// SurveyAnswer is one answered question in a submission.
type SurveyAnswer struct {
	QuestionID  int `json:"question_id"`
	OptionIndex int `json:"option_index"`
}

// HeatmapPoint is one user position inside a heatmap radius.
type HeatmapPoint struct {
	UserID     uuid.UUID `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	DistanceKm float64   `json:"distance"`
}

// Heatmap is the aggregation result: every other user's current position
// within the radius plus the center, so clients can render in one round
// trip. An empty heatmap (no center on record) is a normal state.
type Heatmap struct {
	Center    *Coordinates   `json:"center,omitempty"`
	Locations []HeatmapPoint `json:"locations"`
	Count     int            `json:"count"`
}

// UserPoint is a user's current position as read from the primary store,
// input to proximity filtering.
type UserPoint struct {
	UserID    uuid.UUID
	Latitude  float64
	Longitude float64
}
