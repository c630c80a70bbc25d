package scheduling

import (
	"testing"
	"time"

	"chronos-go/internal/domain/meeting"
)

func participants(ids ...string) []meeting.Participant {
	result := make([]meeting.Participant, 0, len(ids))
	for _, id := range ids {
		result = append(result, meeting.Participant{ID: id, MeetingID: "m-1"})
	}
	return result
}

func avail(participantID string, date time.Time) Availability {
	return Availability{ParticipantID: participantID, MeetingID: "m-1", Date: date}
}

func sameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func TestCommonDates(t *testing.T) {
	cases := []struct {
		name           string
		participants   []meeting.Participant
		availabilities []Availability
		expected       []time.Time
	}{
		{
			name:         "no participants",
			participants: nil,
			availabilities: []Availability{
				avail("p-1", day(1)),
			},
			expected: []time.Time{},
		},
		{
			name:           "no availability",
			participants:   participants("p-1", "p-2"),
			availabilities: nil,
			expected:       []time.Time{},
		},
		{
			name:         "single shared date",
			participants: participants("p-1", "p-2"),
			availabilities: []Availability{
				avail("p-1", day(1)), avail("p-1", day(2)),
				avail("p-2", day(2)), avail("p-2", day(3)),
			},
			expected: []time.Time{day(2)},
		},
		{
			name:         "one participant without availability blocks everything",
			participants: participants("p-1", "p-2", "p-3"),
			availabilities: []Availability{
				avail("p-1", day(1)), avail("p-2", day(1)),
			},
			expected: []time.Time{},
		},
		{
			name:         "ascending order",
			participants: participants("p-1", "p-2"),
			availabilities: []Availability{
				avail("p-1", day(9)), avail("p-2", day(9)),
				avail("p-1", day(3)), avail("p-2", day(3)),
				avail("p-1", day(6)), avail("p-2", day(6)),
			},
			expected: []time.Time{day(3), day(6), day(9)},
		},
		{
			name:         "duplicate rows count once",
			participants: participants("p-1", "p-2"),
			availabilities: []Availability{
				avail("p-1", day(4)), avail("p-1", day(4)),
			},
			expected: []time.Time{},
		},
		{
			name:         "rows of former participants are ignored",
			participants: participants("p-1"),
			availabilities: []Availability{
				avail("p-1", day(5)), avail("gone", day(6)),
			},
			expected: []time.Time{day(5)},
		},
		{
			name:         "time of day does not split a date",
			participants: participants("p-1", "p-2"),
			availabilities: []Availability{
				avail("p-1", day(7).Add(9*time.Hour)), avail("p-2", day(7)),
			},
			expected: []time.Time{day(7)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CommonDates(tc.participants, tc.availabilities)
			if got == nil {
				t.Fatalf("expected non-nil result")
			}
			if !sameDates(got, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

// Every returned date is declared by every participant, and every date all
// participants declared is returned.
func TestCommonDatesMatchesDefinition(t *testing.T) {
	people := participants("p-1", "p-2", "p-3")
	var rows []Availability
	for d := 1; d <= 20; d++ {
		for i, participant := range people {
			if (d+i)%3 != 0 || d%4 == 0 {
				rows = append(rows, avail(participant.ID, day(d)))
			}
		}
	}

	got := NewDateSet(CommonDates(people, rows))
	for d := 1; d <= 20; d++ {
		all := true
		for i := range people {
			if !((d+i)%3 != 0 || d%4 == 0) {
				all = false
			}
		}
		if all != got.Contains(day(d)) {
			t.Fatalf("day %d: expected common=%v, got %v", d, all, got.Contains(day(d)))
		}
	}
}

func TestResolveStatus(t *testing.T) {
	common := NewDateSet([]time.Time{day(2)})
	voteCommon := &Vote{VotedDate: day(2)}
	voteElsewhere := &Vote{VotedDate: day(5)}

	cases := []struct {
		name            string
		hasAvailability bool
		vote            *Vote
		expected        meeting.ParticipantStatus
	}{
		{name: "nothing declared", hasAvailability: false, vote: nil, expected: meeting.ParticipantThinking},
		{name: "vote without availability", hasAvailability: false, vote: voteCommon, expected: meeting.ParticipantThinking},
		{name: "availability only", hasAvailability: true, vote: nil, expected: meeting.ParticipantChoosenDate},
		{name: "vote on common date", hasAvailability: true, vote: voteCommon, expected: meeting.ParticipantVoted},
		{name: "vote outside common dates", hasAvailability: true, vote: voteElsewhere, expected: meeting.ParticipantChoosenDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveStatus(tc.hasAvailability, tc.vote, common); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestResolveStatusEmptyCommonSet(t *testing.T) {
	got := ResolveStatus(true, &Vote{VotedDate: day(1)}, NewDateSet(nil))
	if got != meeting.ParticipantChoosenDate {
		t.Fatalf("expected CHOOSEN_DATE, got %s", got)
	}
}
