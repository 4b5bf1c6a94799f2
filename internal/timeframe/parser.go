package timeframe

import (
	"fmt"
	"time"
)

type TimeFrameParserParams struct {
	StartDate string
	EndDate   string
	Range     string
}

type TimeFrameParser struct {
	timeProvider TimeProvider
}

func NewTimeFrameParser(timeProvider ...TimeProvider) *TimeFrameParser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}

	return &TimeFrameParser{
		timeProvider: provider,
	}
}

// ParseTimeFrame resolves the request bounds. Explicit start and end dates
// win; a preset is only consulted when both are absent. With neither, the
// missing start bound is reported.
func (p *TimeFrameParser) ParseTimeFrame(params TimeFrameParserParams) (*TimeFrame, error) {
	if params.StartDate == "" && params.EndDate == "" && params.Range != "" {
		return p.presetTimeFrame(RangeLabel(params.Range))
	}

	from, err := ParseBound(params.StartDate)
	if err != nil {
		return nil, &BoundError{Param: "startDate", Value: params.StartDate, Err: err}
	}

	to, err := ParseBound(params.EndDate)
	if err != nil {
		return nil, &BoundError{Param: "endDate", Value: params.EndDate, Err: err}
	}

	return NewTimeFrame(from, to, RangeLabelCustom)
}

// presetTimeFrame mirrors the dashboard's quick ranges. Day boundaries are UTC.
func (p *TimeFrameParser) presetTimeFrame(label RangeLabel) (*TimeFrame, error) {
	now := p.timeProvider.Now(time.UTC)
	today := startOfDay(now)

	switch label {
	case RangeLabelLast24Hours:
		return NewTimeFrame(today.AddDate(0, 0, -1), endOfDay(now), label)
	case RangeLabelLast7Days:
		return NewTimeFrame(today.AddDate(0, 0, -7), endOfDay(now), label)
	case RangeLabelLast30Days:
		return NewTimeFrame(today.AddDate(0, 0, -30), endOfDay(now), label)
	case RangeLabelThisWeek:
		weekStart := today.AddDate(0, 0, -int(today.Weekday()))
		return NewTimeFrame(weekStart, endOfDay(weekStart.AddDate(0, 0, 6)), label)
	case RangeLabelThisMonth:
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return NewTimeFrame(monthStart, endOfDay(monthStart.AddDate(0, 1, -1)), label)
	default:
		return nil, &BoundError{Param: "range", Value: string(label), Err: fmt.Errorf("unknown range preset")}
	}
}

// BoundError identifies which request parameter could not be used.
type BoundError struct {
	Param string
	Value string
	Err   error
}

func (e *BoundError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Err)
}

func (e *BoundError) Unwrap() error {
	return e.Err
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
