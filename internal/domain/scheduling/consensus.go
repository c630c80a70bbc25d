package scheduling

import (
	"sort"
	"time"

	"chronos-go/internal/domain/meeting"
)

// DateSet is a set of calendar days.
type DateSet map[string]struct{}

func NewDateSet(dates []time.Time) DateSet {
	set := make(DateSet, len(dates))
	for _, date := range dates {
		set[dateKey(date)] = struct{}{}
	}
	return set
}

func (s DateSet) Contains(date time.Time) bool {
	_, ok := s[dateKey(date)]
	return ok
}

// CommonDates returns, ascending, the dates on which every listed participant
// has declared availability. Availability of anyone not in participants is
// ignored. No participants or no availability yields an empty result.
func CommonDates(participants []meeting.Participant, availabilities []Availability) []time.Time {
	if len(participants) == 0 || len(availabilities) == 0 {
		return []time.Time{}
	}

	members := make(map[string]struct{}, len(participants))
	for _, participant := range participants {
		members[participant.ID] = struct{}{}
	}

	byDate := make(map[string]map[string]struct{})
	days := make(map[string]time.Time)
	for _, availability := range availabilities {
		if _, ok := members[availability.ParticipantID]; !ok {
			continue
		}
		key := dateKey(availability.Date)
		seen, ok := byDate[key]
		if !ok {
			seen = make(map[string]struct{})
			byDate[key] = seen
			days[key] = NormalizeDate(availability.Date)
		}
		seen[availability.ParticipantID] = struct{}{}
	}

	result := make([]time.Time, 0)
	for key, seen := range byDate {
		if len(seen) == len(members) {
			result = append(result, days[key])
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result
}

// ResolveStatus derives a participant's status. Availability gates everything,
// then a vote counts only while its date is still common to all participants.
func ResolveStatus(hasAvailability bool, vote *Vote, common DateSet) meeting.ParticipantStatus {
	if !hasAvailability {
		return meeting.ParticipantThinking
	}
	if vote != nil && common.Contains(vote.VotedDate) {
		return meeting.ParticipantVoted
	}
	return meeting.ParticipantChoosenDate
}
