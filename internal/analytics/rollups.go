package analytics

import (
	"sort"
	"time"

	"sitepulse/internal/events"
	"sitepulse/internal/pkg/referrers"
	"sitepulse/internal/pkg/user_agent"
)

// DateStat is a count for one UTC day.
type DateStat struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// SessionTimeSeries counts sessions per UTC day, oldest first.
func SessionTimeSeries(sessions []events.Session) []DateStat {
	counts := make(map[time.Time]int64)
	for _, s := range sessions {
		ts := s.Timestamp.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		counts[day]++
	}

	series := make([]DateStat, 0, len(counts))
	for day, count := range counts {
		series = append(series, DateStat{Date: day, Count: count})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// ClassifyTrafficSource labels where a session came from.
func ClassifyTrafficSource(referrer, ownHost string) string {
	return referrers.Classify(referrer, ownHost)
}

// TrafficSources counts sessions per traffic source label.
func TrafficSources(sessions []events.Session, ownHost string) []MetricCountResult {
	return countBy(sessions, func(s events.Session) (string, bool) {
		return ClassifyTrafficSource(s.Referrer, ownHost), true
	})
}

// TopPages counts sessions per page.
func TopPages(sessions []events.Session) []MetricCountResult {
	return countBy(sessions, func(s events.Session) (string, bool) {
		return s.Page, true
	})
}

// TopEvents counts events per event name.
func TopEvents(evts []events.Event) []MetricCountResult {
	return countBy(evts, func(e events.Event) (string, bool) {
		return e.EventName, true
	})
}

// Browsers counts sessions per browser parsed from the user agent. Bots are
// left out.
func Browsers(sessions []events.Session) []MetricCountResult {
	return countBy(sessions, func(s events.Session) (string, bool) {
		ua := user_agent.ParseUserAgent(s.UserAgent)
		return ua.Browser, !ua.Bot
	})
}

// OperatingSystems counts sessions per operating system. Bots are left out.
func OperatingSystems(sessions []events.Session) []MetricCountResult {
	return countBy(sessions, func(s events.Session) (string, bool) {
		ua := user_agent.ParseUserAgent(s.UserAgent)
		return ua.OS, !ua.Bot
	})
}

// Devices returns the browser and operating system breakdowns together.
func Devices(sessions []events.Session) (browsers, operatingSystems []MetricCountResult) {
	return Browsers(sessions), OperatingSystems(sessions)
}

// keyEventRule matches either an event (by name and optional params.type)
// or a page view of a given page.
type keyEventRule struct {
	label     string
	eventName string
	paramType string
	page      string
}

var keyEventRules = []keyEventRule{
	{label: "Email Clicks", eventName: "contact_info_click", paramType: "email"},
	{label: "Phone Clicks", eventName: "contact_info_click", paramType: "phone"},
	{label: "LinkedIn Clicks", eventName: "contact_info_click", paramType: "linkedin"},
	{label: "GitHub Clicks", eventName: "contact_info_click", paramType: "github"},
	{label: "Resume Downloads", eventName: "resume_download"},
	{label: "Project Views", eventName: "project_view"},
	{label: "Contact Form Submissions", eventName: "contact_form_submit"},
	{label: "Resume Page Views", page: "/resume"},
}

func (r keyEventRule) matchesEvent(e events.Event) bool {
	if r.eventName == "" || e.EventName != r.eventName {
		return false
	}
	if r.paramType == "" {
		return true
	}
	value, ok := e.Params["type"].(string)
	return ok && value == r.paramType
}

// KeyEvents counts the portfolio conversions in rule order. Only nonzero
// entries are returned.
func KeyEvents(sessions []events.Session, evts []events.Event) []MetricCountResult {
	results := make([]MetricCountResult, 0, len(keyEventRules))
	for _, rule := range keyEventRules {
		var count int64
		if rule.page != "" {
			for _, s := range sessions {
				if s.Page == rule.page {
					count++
				}
			}
		} else {
			for _, e := range evts {
				if rule.matchesEvent(e) {
					count++
				}
			}
		}
		if count > 0 {
			results = append(results, MetricCountResult{Name: rule.label, Count: count})
		}
	}
	return results
}

// countBy tallies items by key, ordered by count and then by name.
func countBy[T any](items []T, key func(T) (string, bool)) []MetricCountResult {
	counts := make(map[string]int64)
	for _, item := range items {
		if name, ok := key(item); ok {
			counts[name]++
		}
	}

	results := make([]MetricCountResult, 0, len(counts))
	for name, count := range counts {
		results = append(results, MetricCountResult{Name: name, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Name < results[j].Name
	})
	return results
}
