package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/aretw0/notebox/pkg/core"
)

const (
	productID = "-//notebox//calendar//EN"

	// maxOccurrences caps the expansion of a single recurring event.
	maxOccurrences = 1000
)

// ICSConfig configures an ICS calendar.
type ICSConfig struct {
	Key      string         // storage key, defaults to core.KeyCalendar
	Location *time.Location // day boundaries for EventsOn, defaults to time.Local
	Logger   *slog.Logger
	Clock    func() time.Time
	NewID    func() string
}

// ICS is a Service that keeps a single iCalendar document in a core.Storage.
type ICS struct {
	storage core.Storage
	key     string
	loc     *time.Location
	logger  *slog.Logger
	clock   func() time.Time
	newID   func() string

	mu sync.Mutex // serializes read-modify-write in AddEvent
}

// NewICS creates an ICS calendar backed by storage.
func NewICS(storage core.Storage, cfg ICSConfig) *ICS {
	if cfg.Key == "" {
		cfg.Key = core.KeyCalendar
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &ICS{
		storage: storage,
		key:     cfg.Key,
		loc:     cfg.Location,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
		newID:   cfg.NewID,
	}
}

// EventsOn implements Service.
func (c *ICS) EventsOn(ctx context.Context, day time.Time) ([]Event, error) {
	start, end := DayRange(day, c.loc)
	return c.EventsBetween(ctx, start, end)
}

// EventsBetween implements Service.
func (c *ICS) EventsBetween(ctx context.Context, start, end time.Time) ([]Event, error) {
	cal, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return []Event{}, nil
	}

	out := []Event{}
	for _, ve := range cal.Events() {
		base, err := parseVEvent(ve)
		if err != nil {
			c.logger.Warn("skipping calendar event", "error", err)
			continue
		}
		occ, err := expand(base, start, end)
		if err != nil {
			c.logger.Warn("failed to expand recurrence", "uid", base.UID, "rrule", base.RRule, "error", err)
			continue
		}
		out = append(out, occ...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].UID < out[j].UID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// AddEvent implements Service.
func (c *ICS) AddEvent(ctx context.Context, in EventInput) (Event, error) {
	if in.End.Before(in.Start) {
		return Event{}, fmt.Errorf("%w: end before start", ErrInvalidEvent)
	}
	in.RRule = strings.TrimPrefix(strings.TrimSpace(in.RRule), "RRULE:")
	if in.RRule != "" {
		if _, err := rrule.StrToRRule(in.RRule); err != nil {
			return Event{}, fmt.Errorf("%w: rrule: %v", ErrInvalidEvent, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load(ctx)
	if err != nil {
		return Event{}, err
	}
	if cal == nil {
		cal = ical.NewCalendar()
		cal.SetProductId(productID)
		cal.SetMethod(ical.MethodPublish)
	}

	ev := Event{
		UID:   c.newID(),
		Title: in.Title,
		Start: in.Start.UTC().Truncate(time.Second),
		End:   in.End.UTC().Truncate(time.Second),
		RRule: in.RRule,
	}

	ve := cal.AddEvent(ev.UID)
	ve.SetDtStampTime(c.clock().UTC())
	ve.SetStartAt(ev.Start)
	ve.SetEndAt(ev.End)
	ve.SetSummary(ev.Title)
	if ev.RRule != "" {
		ve.SetProperty(ical.ComponentPropertyRrule, ev.RRule)
	}

	if err := c.storage.Set(ctx, c.key, []byte(cal.Serialize())); err != nil {
		return Event{}, fmt.Errorf("failed to save calendar: %w", err)
	}
	c.logger.Debug("calendar event added", "uid", ev.UID, "start", ev.Start)
	return ev, nil
}

// load returns nil without error when no calendar was stored yet.
func (c *ICS) load(ctx context.Context) (*ical.Calendar, error) {
	data, err := c.storage.Get(ctx, c.key)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}
	return cal, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("event %s: %w", out.UID, err)
	}
	out.Start = start

	// DTEND is optional; a missing one means a zero-length event.
	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	} else {
		out.End = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	return out, nil
}

// expand returns the occurrences of ev overlapping [start, end).
func expand(ev Event, start, end time.Time) ([]Event, error) {
	if ev.RRule == "" {
		if overlaps(ev.Start, ev.End, start, end) {
			return []Event{ev}, nil
		}
		return nil, nil
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start)

	dur := ev.End.Sub(ev.Start)
	// Occurrences starting before the window may still run into it.
	times := r.Between(start.Add(-dur), end, true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}

	out := make([]Event, 0, len(times))
	for _, t := range times {
		occ := ev
		occ.Start = t
		occ.End = t.Add(dur)
		if overlaps(occ.Start, occ.End, start, end) {
			out = append(out, occ)
		}
	}
	return out, nil
}

// overlaps treats zero-length events as instants inside [start, end).
func overlaps(evStart, evEnd, start, end time.Time) bool {
	if !evEnd.After(evStart) {
		return !evStart.Before(start) && evStart.Before(end)
	}
	return evStart.Before(end) && evEnd.After(start)
}

var _ Service = (*ICS)(nil)
