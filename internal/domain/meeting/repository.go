package meeting

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateMeeting(ctx context.Context, meeting *Meeting) error
	GetMeeting(ctx context.Context, meetingID string) (*Meeting, error)
	GetMeetingByShareToken(ctx context.Context, token string) (*Meeting, error)
	ListMeetingsByUser(ctx context.Context, userID string) ([]Meeting, error)
	UpdateMeetingStatus(ctx context.Context, meetingID string, status Status, finalDate *time.Time) error
	IsShareTokenTaken(ctx context.Context, token string) (bool, error)
	AddParticipant(ctx context.Context, participant *Participant) error
	GetParticipant(ctx context.Context, participantID string) (*Participant, error)
	GetParticipantByUser(ctx context.Context, meetingID, userID string) (*Participant, error)
	GetGuestByName(ctx context.Context, meetingID, name string) (*Participant, error)
	ListParticipants(ctx context.Context, meetingID string) ([]Participant, error)
	DeleteParticipant(ctx context.Context, participantID string) error
}

// Recalculator refreshes derived participant statuses after membership changes.
type Recalculator interface {
	Recalculate(ctx context.Context, meetingID string) error
}
