package scheduling

import (
	"context"
	"time"

	"chronos-go/internal/domain/meeting"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// LockMeeting serializes recalculation passes and vote replacement for one
	// meeting until the surrounding transaction ends.
	LockMeeting(ctx context.Context, meetingID string) error

	GetParticipant(ctx context.Context, participantID string) (*meeting.Participant, error)
	ListParticipants(ctx context.Context, meetingID string) ([]meeting.Participant, error)
	UpdateParticipantStatus(ctx context.Context, participantID string, status meeting.ParticipantStatus) error

	// AddAvailability inserts the row unless (participant, date) already exists,
	// in which case availability is overwritten with the stored row and false is returned.
	AddAvailability(ctx context.Context, availability *Availability) (bool, error)
	DeleteAvailability(ctx context.Context, participantID string, date time.Time) (bool, error)
	ListAvailability(ctx context.Context, meetingID string) ([]Availability, error)
	ListParticipantAvailability(ctx context.Context, participantID string) ([]Availability, error)
	// CommonDates returns the dates every current participant of the meeting
	// is available on, ascending.
	CommonDates(ctx context.Context, meetingID string) ([]time.Time, error)

	GetVote(ctx context.Context, participantID, meetingID string) (*Vote, error)
	CreateVote(ctx context.Context, vote *Vote) error
	DeleteVote(ctx context.Context, participantID, meetingID string) (bool, error)
	ListVotes(ctx context.Context, meetingID string) ([]Vote, error)
}
