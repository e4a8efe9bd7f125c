package model

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies a social network an event is published to.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
)

// AllPlatforms returns the fixed platform enumeration in display order.
func AllPlatforms() []Platform {
	return []Platform{PlatformInstagram, PlatformFacebook, PlatformLinkedIn, PlatformTwitter}
}

// IsValidPlatform reports whether s names a supported platform.
func IsValidPlatform(s string) bool {
	for _, p := range AllPlatforms() {
		if string(p) == s {
			return true
		}
	}
	return false
}

// ParsePlatform normalizes s and validates it against the enumeration.
func ParsePlatform(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !IsValidPlatform(s) {
		return "", fmt.Errorf("%w: unknown platform %q", ErrValidation, s)
	}
	return Platform(s), nil
}

// CaptionLimit is the maximum caption length a platform accepts.
func (p Platform) CaptionLimit() int {
	switch p {
	case PlatformTwitter:
		return 280
	case PlatformLinkedIn:
		return 3000
	case PlatformFacebook:
		return 63206
	default:
		return 2200
	}
}

// EventType classifies calendar entries.
type EventType string

const (
	TypePost     EventType = "post"
	TypeDraft    EventType = "draft"
	TypeCampaign EventType = "campaign"
	TypeHold     EventType = "hold"
)

func (t EventType) Valid() bool {
	switch t {
	case TypePost, TypeDraft, TypeCampaign, TypeHold:
		return true
	}
	return false
}

// EventStatus is the publishing lifecycle state of an event.
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusPending   EventStatus = "pending"
	StatusPublished EventStatus = "published"
	StatusDraft     EventStatus = "draft"
	StatusFailed    EventStatus = "failed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusPending, StatusPublished, StatusDraft, StatusFailed:
		return true
	}
	return false
}

// Media references a single uploaded asset attached to an event.
type Media struct {
	Thumbnail string `json:"thumbnail" yaml:"thumbnail"`
	Kind      string `json:"type" yaml:"type"`
	Size      string `json:"size,omitempty" yaml:"size,omitempty"`
}

// Frequency is the repeat unit of a recurrence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Recurrence describes a repeating pattern. When both Count and EndDate are
// set, Count wins.
type Recurrence struct {
	Frequency Frequency  `json:"frequency"`
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Count     int        `json:"count,omitempty"`
}

func (r Recurrence) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrValidation, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be positive", ErrValidation)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: count must be positive", ErrValidation)
	}
	return nil
}

// Event is a scheduled or draft social post. An empty ID means the event has
// not been persisted yet.
type Event struct {
	ID             string      `json:"id,omitempty"`
	OrganizationID string      `json:"organizationId,omitempty"`
	AuthorID       string      `json:"authorId,omitempty"`
	Caption        string      `json:"caption"`
	ScheduledDate  time.Time   `json:"scheduledDate"`
	Platforms      []Platform  `json:"platforms"`
	Type           EventType   `json:"type"`
	Status         EventStatus `json:"status"`
	Media          *Media      `json:"media,omitempty"`
	Recurrence     *Recurrence `json:"recurrence,omitempty"`
	ReviewComment  string      `json:"reviewComment,omitempty"`
	CreatedAt      time.Time   `json:"createdAt,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt,omitempty"`
}

func (e Event) IsNew() bool { return e.ID == "" }

// When returns the instant the event is scheduled for.
func (e Event) When() time.Time { return e.ScheduledDate }

// HasPlatform reports whether p is among the event's platforms.
func (e Event) HasPlatform(p Platform) bool {
	for _, x := range e.Platforms {
		if x == p {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing list members.
func (e Event) Clone() Event {
	out := e
	out.Platforms = append([]Platform(nil), e.Platforms...)
	if e.Media != nil {
		m := *e.Media
		out.Media = &m
	}
	if e.Recurrence != nil {
		r := *e.Recurrence
		if r.EndDate != nil {
			end := *r.EndDate
			r.EndDate = &end
		}
		out.Recurrence = &r
	}
	return out
}

// Occurrence represents a single concrete instance of an event after
// recurrence expansion. The embedded Event carries the instance's schedule.
type Occurrence struct {
	Event

	// SeriesID is the ID of the event the occurrence was expanded from.
	SeriesID string `json:"seriesId"`

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string `json:"instanceKey"`

	// Index is the zero-based position within the visible expansion.
	Index int `json:"index"`

	Recurring bool `json:"recurring"`
}
