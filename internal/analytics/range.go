package analytics

import (
	"errors"

	"sitepulse/internal/events"
	"sitepulse/internal/timeframe"
)

// RangeParams are the query parameters accepted by every range endpoint.
type RangeParams struct {
	StartDate string
	EndDate   string
	Range     string
}

// ResolveTimeFrame turns request parameters into a time frame. Any problem
// with the bounds is reported as a QueryParameterError.
func ResolveTimeFrame(parser *timeframe.TimeFrameParser, params RangeParams) (*timeframe.TimeFrame, error) {
	if parser == nil {
		parser = timeframe.NewTimeFrameParser()
	}

	tf, err := parser.ParseTimeFrame(timeframe.TimeFrameParserParams{
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Range:     params.Range,
	})
	if err == nil {
		return tf, nil
	}

	var boundErr *timeframe.BoundError
	if errors.As(err, &boundErr) {
		return nil, &events.QueryParameterError{Param: boundErr.Param, Value: boundErr.Value, Err: boundErr.Err}
	}
	return nil, &events.QueryParameterError{Param: "startDate", Value: params.StartDate, Err: err}
}
