package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

const (
	maxSeriesDates = 366
	maxSeriesSpan  = (maxSeriesDates - 1) * 24 * time.Hour
	// Rules may repeat within a day through BYHOUR and friends; expansion
	// stops once this many raw occurrences have been produced.
	maxSeriesOccurrences = maxSeriesDates * 24
)

// ExpandRule lists the calendar days an RFC 5545 RRULE produces between from
// and until, both inclusive. The rule's own COUNT/UNTIL still apply.
func ExpandRule(rule string, from, until time.Time) ([]time.Time, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return nil, ErrInvalidRule
	}

	from = NormalizeDate(from)
	until = NormalizeDate(until)
	if until.Before(from) || until.Sub(from) > maxSeriesSpan {
		return nil, ErrInvalidRange
	}

	option, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	switch option.Freq {
	case rrule.HOURLY, rrule.MINUTELY, rrule.SECONDLY:
		return nil, fmt.Errorf("%w: frequency finer than daily", ErrInvalidRule)
	}

	// The last day counts in full.
	end := until.Add(24*time.Hour - time.Nanosecond)
	option.Dtstart = from
	if option.Until.IsZero() || option.Until.After(end) {
		option.Until = end
	}

	recurrence, err := rrule.NewRRule(*option)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	seen := make(map[string]struct{})
	dates := make([]time.Time, 0)
	next := recurrence.Iterator()
	for produced := 0; ; produced++ {
		occurrence, ok := next()
		if !ok || occurrence.After(end) {
			break
		}
		if produced == maxSeriesOccurrences {
			return nil, ErrTooManyDates
		}
		date := NormalizeDate(occurrence)
		key := dateKey(date)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, date)
	}
	if len(dates) > maxSeriesDates {
		return nil, ErrTooManyDates
	}
	return dates, nil
}

// AddAvailabilitySeries declares availability for every date of a recurrence
// in one transaction and recalculates once. Already declared dates are kept.
func (s *Service) AddAvailabilitySeries(ctx context.Context, input SeriesInput) ([]Availability, error) {
	if _, err := s.participantInMeeting(ctx, input.ParticipantID, input.MeetingID); err != nil {
		return nil, err
	}

	dates, err := ExpandRule(input.Rule, input.From, input.Until)
	if err != nil {
		return nil, err
	}

	result := make([]Availability, 0, len(dates))
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		for _, date := range dates {
			availability := Availability{
				ID:            uuid.NewString(),
				ParticipantID: input.ParticipantID,
				MeetingID:     input.MeetingID,
				Date:          date,
				TimeFrom:      input.TimeFrom,
				TimeTo:        input.TimeTo,
			}
			if _, err := tx.AddAvailability(ctx, &availability); err != nil {
				return err
			}
			result = append(result, availability)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add availability series: %w", err)
	}

	if err := s.recalc.Recalculate(ctx, input.MeetingID); err != nil {
		return result, err
	}
	return result, nil
}
