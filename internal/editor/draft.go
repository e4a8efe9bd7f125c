package editor

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"socialsync/internal/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// RecurrenceDraft holds the recurrence form fields. EndDate is YYYY-MM-DD or
// empty; Count 0 means unset.
type RecurrenceDraft struct {
	Frequency model.Frequency `json:"frequency"`
	Interval  int             `json:"interval"`
	EndDate   string          `json:"endDate,omitempty"`
	Count     int             `json:"count,omitempty"`
}

// Draft is the editable copy of an event shown in the editor.
type Draft struct {
	ID         string            `json:"id,omitempty"`
	Caption    string            `json:"caption"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	Platforms  []model.Platform  `json:"platforms"`
	Type       model.EventType   `json:"type"`
	Status     model.EventStatus `json:"status"`
	Media      *model.Media      `json:"media,omitempty"`
	Repeat     bool              `json:"repeat"`
	Recurrence RecurrenceDraft   `json:"recurrence"`
}

// NewEvent is the template used when a date cell is clicked: an unsaved post
// in draft status with no platforms.
func NewEvent(at time.Time) model.Event {
	return model.Event{
		ScheduledDate: at,
		Platforms:     []model.Platform{},
		Type:          model.TypePost,
		Status:        model.StatusDraft,
	}
}

// FromEvent seeds a draft from ev, rendering date and time in loc.
func FromEvent(ev model.Event, loc *time.Location) Draft {
	if loc == nil {
		loc = time.UTC
	}
	at := ev.ScheduledDate.In(loc)
	d := Draft{
		ID:        ev.ID,
		Caption:   ev.Caption,
		Date:      at.Format(DateLayout),
		Time:      at.Format(TimeLayout),
		Platforms: append([]model.Platform{}, ev.Platforms...),
		Type:      ev.Type,
		Status:    ev.Status,
		Recurrence: RecurrenceDraft{
			Frequency: model.FrequencyDaily,
			Interval:  1,
		},
	}
	if d.Type == "" {
		d.Type = model.TypePost
	}
	if d.Status == "" {
		d.Status = model.StatusScheduled
	}
	if ev.Media != nil {
		m := *ev.Media
		d.Media = &m
	}
	if r := ev.Recurrence; r != nil {
		d.Repeat = true
		d.Recurrence = RecurrenceDraft{
			Frequency: r.Frequency,
			Interval:  max(r.Interval, 1),
			Count:     r.Count,
		}
		if r.EndDate != nil {
			d.Recurrence.EndDate = r.EndDate.In(loc).Format(DateLayout)
		}
	}
	return d
}

// TogglePlatform adds p when absent and removes it otherwise.
func (d *Draft) TogglePlatform(p model.Platform) {
	for i, x := range d.Platforms {
		if x == p {
			d.Platforms = append(d.Platforms[:i:i], d.Platforms[i+1:]...)
			return
		}
	}
	d.Platforms = append(d.Platforms, p)
}

// FieldErrors maps form fields to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets callers match FieldErrors with errors.Is(err, model.ErrValidation).
func (fe FieldErrors) Unwrap() error { return model.ErrValidation }

// Validate checks the draft and returns nil when it can be saved.
func (d Draft) Validate(loc *time.Location) FieldErrors {
	errs := FieldErrors{}

	if len(d.Platforms) == 0 {
		errs["platforms"] = "Please select at least one platform"
	}
	for _, p := range d.Platforms {
		if !model.IsValidPlatform(string(p)) {
			errs["platforms"] = fmt.Sprintf("unknown platform %q", p)
			break
		}
	}

	caption := strings.TrimSpace(d.Caption)
	if caption == "" && d.Media == nil {
		errs["caption"] = "Add a caption or attach media"
	}
	n := utf8.RuneCountInString(d.Caption)
	for _, p := range d.Platforms {
		if limit := p.CaptionLimit(); n > limit {
			errs["caption"] = fmt.Sprintf("caption is %d characters; %s allows %d", n, p, limit)
			break
		}
	}

	if _, err := d.scheduledAt(loc); err != nil {
		errs["scheduledDate"] = "Enter a valid date and time"
	}
	if d.Type != "" && !d.Type.Valid() {
		errs["type"] = fmt.Sprintf("unknown type %q", d.Type)
	}
	if d.Status != "" && !d.Status.Valid() {
		errs["status"] = fmt.Sprintf("unknown status %q", d.Status)
	}

	if d.Repeat {
		if _, err := d.recurrence(loc); err != nil {
			errs["recurrence"] = err.Error()
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Apply merges the draft over original and composes the scheduled instant
// from the date and time fields. It validates first.
func (d Draft) Apply(original model.Event, loc *time.Location) (model.Event, error) {
	if errs := d.Validate(loc); errs != nil {
		return model.Event{}, errs
	}
	out := original.Clone()
	out.ID = d.ID
	if out.ID == "" {
		out.ID = original.ID
	}
	out.Caption = d.Caption
	out.ScheduledDate, _ = d.scheduledAt(loc)
	out.Platforms = append([]model.Platform{}, d.Platforms...)
	out.Type = d.Type
	out.Status = d.Status
	out.Media = nil
	if d.Media != nil {
		m := *d.Media
		out.Media = &m
	}
	out.Recurrence = nil
	if d.Repeat {
		out.Recurrence, _ = d.recurrence(loc)
	}
	return out, nil
}

func (d Draft) scheduledAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, d.Date+" "+d.Time, loc)
}

func (d Draft) recurrence(loc *time.Location) (*model.Recurrence, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &model.Recurrence{
		Frequency: d.Recurrence.Frequency,
		Interval:  d.Recurrence.Interval,
		Count:     d.Recurrence.Count,
	}
	if d.Recurrence.EndDate != "" {
		end, err := time.ParseInLocation(DateLayout, d.Recurrence.EndDate, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q", d.Recurrence.EndDate)
		}
		r.EndDate = &end
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

var suggestedCaptions = []string{
	"🌟 Exciting news! We're thrilled to share this amazing update with our community. What do you think? #Innovation #Community",
	"✨ Behind the scenes magic happening here! Our team has been working hard to bring you something special. Stay tuned! #BehindTheScenes",
	"🚀 Ready to take your experience to the next level? We've got something incredible in store for you! #NextLevel #Excited",
}

// SuggestCaption returns a canned caption. A nil r uses the global source.
func SuggestCaption(r *rand.Rand) string {
	if r == nil {
		return suggestedCaptions[rand.Intn(len(suggestedCaptions))]
	}
	return suggestedCaptions[r.Intn(len(suggestedCaptions))]
}

// SuggestedCaptions lists every canned caption.
func SuggestedCaptions() []string {
	return append([]string(nil), suggestedCaptions...)
}
