package scheduling

import (
	"context"
	"sort"
	"time"
)

// RecalculatedEvent is published after every successful recalculation pass.
type RecalculatedEvent struct {
	MeetingID      string        `json:"meetingId" msgpack:"meetingId"`
	CommonDates    []string      `json:"commonDates" msgpack:"commonDates"`
	Statuses       []StatusEntry `json:"statuses" msgpack:"statuses"`
	Changed        int           `json:"changed" msgpack:"changed"`
	RecalculatedAt time.Time     `json:"recalculatedAt" msgpack:"recalculatedAt"`
}

type StatusEntry struct {
	ParticipantID string `json:"participantId" msgpack:"participantId"`
	Status        string `json:"status" msgpack:"status"`
}

type EventPublisher interface {
	PublishRecalculated(ctx context.Context, event RecalculatedEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishRecalculated(context.Context, RecalculatedEvent) error {
	return nil
}

func newRecalculatedEvent(result Recalculation, at time.Time) RecalculatedEvent {
	dates := make([]string, 0, len(result.CommonDates))
	for _, date := range result.CommonDates {
		dates = append(dates, dateKey(date))
	}

	statuses := make([]StatusEntry, 0, len(result.Statuses))
	for participantID, status := range result.Statuses {
		statuses = append(statuses, StatusEntry{ParticipantID: participantID, Status: string(status)})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ParticipantID < statuses[j].ParticipantID })

	return RecalculatedEvent{
		MeetingID:      result.MeetingID,
		CommonDates:    dates,
		Statuses:       statuses,
		Changed:        len(result.Changes),
		RecalculatedAt: at.UTC(),
	}
}
