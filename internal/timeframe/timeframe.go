package timeframe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RangeLabel names one of the predefined ranges offered by the dashboard.
type RangeLabel string

const (
	RangeLabelLast24Hours RangeLabel = "last_24h"
	RangeLabelLast7Days   RangeLabel = "last_7_days"
	RangeLabelLast30Days  RangeLabel = "last_30_days"
	RangeLabelThisWeek    RangeLabel = "this_week"
	RangeLabelThisMonth   RangeLabel = "this_month"
	RangeLabelCustom      RangeLabel = "custom"
)

// ErrMissingBound is returned when a range bound is required but empty.
var ErrMissingBound = errors.New("missing date bound")

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// TimeFrame is an inclusive range of instants, always held in UTC.
type TimeFrame struct {
	From  time.Time
	To    time.Time
	Label RangeLabel
}

// Contains reports whether t lies inside the inclusive range.
func (tf *TimeFrame) Contains(t time.Time) bool {
	return !t.Before(tf.From) && !t.After(tf.To)
}

func (tf *TimeFrame) String() string {
	return fmt.Sprintf("%s..%s", tf.From.Format(time.RFC3339), tf.To.Format(time.RFC3339))
}

// NewTimeFrame validates the bounds and normalizes them to UTC.
func NewTimeFrame(from, to time.Time, label RangeLabel) (*TimeFrame, error) {
	if from.After(to) {
		return nil, fmt.Errorf("start %s is after end %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return &TimeFrame{From: from.UTC(), To: to.UTC(), Label: label}, nil
}

// boundLayouts lists the accepted textual forms, most specific first.
// Forms without a zone are read as UTC.
var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseBound parses a single date bound. It accepts the same shapes a browser
// sends (ISO strings with or without zone, bare dates) plus epoch milliseconds.
func ParseBound(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrMissingBound
	}

	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", value)
}
