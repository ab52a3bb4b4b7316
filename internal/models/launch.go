package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNoLaunchTime is returned when a launch record has no usable time field.
var ErrNoLaunchTime = errors.New("launch has no usable time")

// Feed is the launch feed response (e.g. /json/launches/next/5)
type Feed struct {
	Result []Launch `json:"result"`
}

type Named struct {
	Name string `json:"name"`
}

type Pad struct {
	Name     string `json:"name"`
	Location Named  `json:"location"`
}

// Launch represents a single upcoming launch from the feed
type Launch struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider Named  `json:"provider"`
	Vehicle  Named  `json:"vehicle"`
	Pad      Pad    `json:"pad"`
	// SortDate is epoch seconds, sent as a string by the feed but tolerated as a number.
	SortDate json.RawMessage `json:"sort_date,omitempty"`
	// T0 is the ISO-8601 launch time when known, null otherwise.
	T0 *string `json:"t0,omitempty"`
}

// Key returns the identifier used to track reminders for this launch.
func (l Launch) Key() string {
	return strconv.FormatInt(l.ID, 10)
}

// Time returns the launch time in loc. sort_date is preferred; t0 is the fallback.
func (l Launch) Time(loc *time.Location) (time.Time, error) {
	if t, ok := parseEpoch(l.SortDate); ok {
		return t.In(loc), nil
	}
	if l.T0 != nil && *l.T0 != "" {
		t, err := time.Parse(time.RFC3339, *l.T0)
		if err == nil {
			return t.In(loc), nil
		}
		// The feed sometimes drops seconds, e.g. 2024-03-01T14:30Z
		if t, err := time.Parse("2006-01-02T15:04Z07:00", *l.T0); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, ErrNoLaunchTime
}

func parseEpoch(raw json.RawMessage) (time.Time, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, false
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
