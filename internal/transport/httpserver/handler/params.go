package handler

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

func parseDateRequired(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	return parsed, nil
}

func parseDateParam(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := parseDateRequired(field, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseTimeOfDay accepts HH:MM or HH:MM:SS and normalizes to HH:MM:SS.
func parseTimeOfDay(field string, value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}

	for _, layout := range []string{timeLayout, "15:04"} {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			normalized := parsed.Format(timeLayout)
			return &normalized, nil
		}
	}
	return nil, fmt.Errorf("%s must be HH:MM or HH:MM:SS", field)
}

func parseTimeRange(from, to *string) (*string, *string, error) {
	timeFrom, err := parseTimeOfDay("timeFrom", from)
	if err != nil {
		return nil, nil, err
	}
	timeTo, err := parseTimeOfDay("timeTo", to)
	if err != nil {
		return nil, nil, err
	}
	// HH:MM:SS strings order the same way the times do.
	if timeFrom != nil && timeTo != nil && *timeFrom > *timeTo {
		return nil, nil, fmt.Errorf("timeFrom must not be after timeTo")
	}
	return timeFrom, timeTo, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDates(dates []time.Time) []string {
	result := make([]string, 0, len(dates))
	for _, date := range dates {
		result = append(result, formatDate(date))
	}
	return result
}
