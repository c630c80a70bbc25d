package inmemory

import (
	"context"
	"fmt"
	"sort"
	"time"

	meetingdomain "chronos-go/internal/domain/meeting"
)

type MeetingRepository struct {
	session
}

func NewMeetingRepository(store *Store) *MeetingRepository {
	return &MeetingRepository{session{store: store}}
}

func (r *MeetingRepository) Transaction(ctx context.Context, fn func(meetingdomain.Repository) error) error {
	return r.transaction(ctx, func(tx session) error {
		return fn(&MeetingRepository{tx})
	})
}

func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting *meetingdomain.Meeting) error {
	return r.run(ctx, func(t *tables) error {
		if _, ok := t.meetings[meeting.ID]; ok {
			return ErrDuplicate
		}
		for _, existing := range t.meetings {
			if existing.ShareToken == meeting.ShareToken {
				return ErrDuplicate
			}
		}
		now := r.store.now()
		if meeting.CreatedAt.IsZero() {
			meeting.CreatedAt = now
		}
		meeting.UpdatedAt = now
		t.meetings[meeting.ID] = *meeting
		return nil
	})
}

func (r *MeetingRepository) GetMeeting(ctx context.Context, meetingID string) (*meetingdomain.Meeting, error) {
	var result meetingdomain.Meeting
	err := r.run(ctx, func(t *tables) error {
		meeting, ok := t.meetings[meetingID]
		if !ok {
			return meetingdomain.ErrMeetingNotFound
		}
		result = meeting
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *MeetingRepository) GetMeetingByShareToken(ctx context.Context, token string) (*meetingdomain.Meeting, error) {
	var result *meetingdomain.Meeting
	err := r.run(ctx, func(t *tables) error {
		for _, meeting := range t.meetings {
			if meeting.ShareToken == token {
				found := meeting
				result = &found
				return nil
			}
		}
		return meetingdomain.ErrMeetingNotFound
	})
	return result, err
}

func (r *MeetingRepository) ListMeetingsByUser(ctx context.Context, userID string) ([]meetingdomain.Meeting, error) {
	var result []meetingdomain.Meeting
	err := r.run(ctx, func(t *tables) error {
		seen := make(map[string]struct{})
		for _, participant := range t.participants {
			if participant.UserID == nil || *participant.UserID != userID {
				continue
			}
			if _, ok := seen[participant.MeetingID]; ok {
				continue
			}
			if meeting, ok := t.meetings[participant.MeetingID]; ok {
				seen[participant.MeetingID] = struct{}{}
				result = append(result, meeting)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, err
}

func (r *MeetingRepository) UpdateMeetingStatus(ctx context.Context, meetingID string, status meetingdomain.Status, finalDate *time.Time) error {
	return r.run(ctx, func(t *tables) error {
		meeting, ok := t.meetings[meetingID]
		if !ok {
			return meetingdomain.ErrMeetingNotFound
		}
		meeting.Status = status
		meeting.FinalDate = finalDate
		meeting.UpdatedAt = r.store.now()
		t.meetings[meetingID] = meeting
		return nil
	})
}

func (r *MeetingRepository) IsShareTokenTaken(ctx context.Context, token string) (bool, error) {
	taken := false
	err := r.run(ctx, func(t *tables) error {
		for _, meeting := range t.meetings {
			if meeting.ShareToken == token {
				taken = true
				break
			}
		}
		return nil
	})
	return taken, err
}

func (r *MeetingRepository) AddParticipant(ctx context.Context, participant *meetingdomain.Participant) error {
	return r.run(ctx, func(t *tables) error {
		if _, ok := t.meetings[participant.MeetingID]; !ok {
			return meetingdomain.ErrMeetingNotFound
		}
		for _, existing := range t.participants {
			if existing.MeetingID != participant.MeetingID {
				continue
			}
			if participant.UserID != nil && existing.UserID != nil && *existing.UserID == *participant.UserID {
				return fmt.Errorf("%w: user %s: %w", meetingdomain.ErrParticipantExists, *participant.UserID, ErrDuplicate)
			}
			if participant.UserID == nil && existing.UserID == nil && existing.Name == participant.Name {
				return fmt.Errorf("%w: guest %q: %w", meetingdomain.ErrParticipantExists, participant.Name, ErrDuplicate)
			}
		}
		if participant.JoinedAt.IsZero() {
			participant.JoinedAt = r.store.now()
		}
		t.participants[participant.ID] = *participant
		return nil
	})
}

func (r *MeetingRepository) GetParticipant(ctx context.Context, participantID string) (*meetingdomain.Participant, error) {
	var result meetingdomain.Participant
	err := r.run(ctx, func(t *tables) error {
		participant, ok := t.participants[participantID]
		if !ok {
			return meetingdomain.ErrParticipantNotFound
		}
		result = participant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *MeetingRepository) GetParticipantByUser(ctx context.Context, meetingID, userID string) (*meetingdomain.Participant, error) {
	return r.findParticipant(ctx, func(p meetingdomain.Participant) bool {
		return p.MeetingID == meetingID && p.UserID != nil && *p.UserID == userID
	})
}

func (r *MeetingRepository) GetGuestByName(ctx context.Context, meetingID, name string) (*meetingdomain.Participant, error) {
	return r.findParticipant(ctx, func(p meetingdomain.Participant) bool {
		return p.MeetingID == meetingID && p.UserID == nil && p.Name == name
	})
}

func (r *MeetingRepository) findParticipant(ctx context.Context, match func(meetingdomain.Participant) bool) (*meetingdomain.Participant, error) {
	var result *meetingdomain.Participant
	err := r.run(ctx, func(t *tables) error {
		for _, participant := range t.participants {
			if match(participant) {
				found := participant
				result = &found
				return nil
			}
		}
		return meetingdomain.ErrParticipantNotFound
	})
	return result, err
}

func (r *MeetingRepository) ListParticipants(ctx context.Context, meetingID string) ([]meetingdomain.Participant, error) {
	var result []meetingdomain.Participant
	err := r.run(ctx, func(t *tables) error {
		result = participantsOf(t, meetingID)
		return nil
	})
	return result, err
}

func (r *MeetingRepository) DeleteParticipant(ctx context.Context, participantID string) error {
	return r.run(ctx, func(t *tables) error {
		t.deleteParticipant(participantID)
		return nil
	})
}

func participantsOf(t *tables, meetingID string) []meetingdomain.Participant {
	result := make([]meetingdomain.Participant, 0)
	for _, participant := range t.participants {
		if participant.MeetingID == meetingID {
			result = append(result, participant)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].JoinedAt.Before(result[j].JoinedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}
