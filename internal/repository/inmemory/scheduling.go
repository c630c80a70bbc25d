package inmemory

import (
	"context"
	"sort"
	"time"

	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
)

type SchedulingRepository struct {
	session
}

func NewSchedulingRepository(store *Store) *SchedulingRepository {
	return &SchedulingRepository{session{store: store}}
}

func (r *SchedulingRepository) Transaction(ctx context.Context, fn func(schedulingdomain.Repository) error) error {
	return r.transaction(ctx, func(tx session) error {
		return fn(&SchedulingRepository{tx})
	})
}

// LockMeeting is a no-op: transactions already hold the store lock.
func (r *SchedulingRepository) LockMeeting(ctx context.Context, meetingID string) error {
	return ctx.Err()
}

func (r *SchedulingRepository) GetParticipant(ctx context.Context, participantID string) (*meetingdomain.Participant, error) {
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

func (r *SchedulingRepository) ListParticipants(ctx context.Context, meetingID string) ([]meetingdomain.Participant, error) {
	var result []meetingdomain.Participant
	err := r.run(ctx, func(t *tables) error {
		result = participantsOf(t, meetingID)
		return nil
	})
	return result, err
}

func (r *SchedulingRepository) UpdateParticipantStatus(ctx context.Context, participantID string, status meetingdomain.ParticipantStatus) error {
	return r.run(ctx, func(t *tables) error {
		participant, ok := t.participants[participantID]
		if !ok {
			return meetingdomain.ErrParticipantNotFound
		}
		participant.Status = status
		t.participants[participantID] = participant
		return nil
	})
}

func (r *SchedulingRepository) AddAvailability(ctx context.Context, availability *schedulingdomain.Availability) (bool, error) {
	created := false
	err := r.run(ctx, func(t *tables) error {
		if _, ok := t.participants[availability.ParticipantID]; !ok {
			return meetingdomain.ErrParticipantNotFound
		}
		date := schedulingdomain.NormalizeDate(availability.Date)
		for _, existing := range t.availability {
			if existing.ParticipantID == availability.ParticipantID && existing.Date.Equal(date) {
				*availability = existing
				return nil
			}
		}
		availability.Date = date
		if availability.CreatedAt.IsZero() {
			availability.CreatedAt = r.store.now()
		}
		t.availability[availability.ID] = *availability
		created = true
		return nil
	})
	return created, err
}

func (r *SchedulingRepository) DeleteAvailability(ctx context.Context, participantID string, date time.Time) (bool, error) {
	deleted := false
	date = schedulingdomain.NormalizeDate(date)
	err := r.run(ctx, func(t *tables) error {
		for id, row := range t.availability {
			if row.ParticipantID == participantID && row.Date.Equal(date) {
				delete(t.availability, id)
				deleted = true
			}
		}
		return nil
	})
	return deleted, err
}

func (r *SchedulingRepository) ListAvailability(ctx context.Context, meetingID string) ([]schedulingdomain.Availability, error) {
	var result []schedulingdomain.Availability
	err := r.run(ctx, func(t *tables) error {
		result = availabilityWhere(t, func(row schedulingdomain.Availability) bool {
			return row.MeetingID == meetingID
		})
		return nil
	})
	return result, err
}

func (r *SchedulingRepository) ListParticipantAvailability(ctx context.Context, participantID string) ([]schedulingdomain.Availability, error) {
	var result []schedulingdomain.Availability
	err := r.run(ctx, func(t *tables) error {
		result = availabilityWhere(t, func(row schedulingdomain.Availability) bool {
			return row.ParticipantID == participantID
		})
		return nil
	})
	return result, err
}

func (r *SchedulingRepository) CommonDates(ctx context.Context, meetingID string) ([]time.Time, error) {
	var result []time.Time
	err := r.run(ctx, func(t *tables) error {
		rows := availabilityWhere(t, func(row schedulingdomain.Availability) bool {
			return row.MeetingID == meetingID
		})
		result = schedulingdomain.CommonDates(participantsOf(t, meetingID), rows)
		return nil
	})
	return result, err
}

func (r *SchedulingRepository) GetVote(ctx context.Context, participantID, meetingID string) (*schedulingdomain.Vote, error) {
	var result *schedulingdomain.Vote
	err := r.run(ctx, func(t *tables) error {
		for _, vote := range t.votes {
			if vote.ParticipantID == participantID && vote.MeetingID == meetingID {
				found := vote
				result = &found
				return nil
			}
		}
		return schedulingdomain.ErrVoteNotFound
	})
	return result, err
}

func (r *SchedulingRepository) CreateVote(ctx context.Context, vote *schedulingdomain.Vote) error {
	return r.run(ctx, func(t *tables) error {
		if _, ok := t.participants[vote.ParticipantID]; !ok {
			return meetingdomain.ErrParticipantNotFound
		}
		for _, existing := range t.votes {
			if existing.ParticipantID == vote.ParticipantID && existing.MeetingID == vote.MeetingID {
				return ErrDuplicate
			}
		}
		vote.VotedDate = schedulingdomain.NormalizeDate(vote.VotedDate)
		if vote.CreatedAt.IsZero() {
			vote.CreatedAt = r.store.now()
		}
		t.votes[vote.ID] = *vote
		return nil
	})
}

func (r *SchedulingRepository) DeleteVote(ctx context.Context, participantID, meetingID string) (bool, error) {
	deleted := false
	err := r.run(ctx, func(t *tables) error {
		for id, vote := range t.votes {
			if vote.ParticipantID == participantID && vote.MeetingID == meetingID {
				delete(t.votes, id)
				deleted = true
			}
		}
		return nil
	})
	return deleted, err
}

func (r *SchedulingRepository) ListVotes(ctx context.Context, meetingID string) ([]schedulingdomain.Vote, error) {
	result := make([]schedulingdomain.Vote, 0)
	err := r.run(ctx, func(t *tables) error {
		for _, vote := range t.votes {
			if vote.MeetingID == meetingID {
				result = append(result, vote)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, err
}

func availabilityWhere(t *tables, match func(schedulingdomain.Availability) bool) []schedulingdomain.Availability {
	result := make([]schedulingdomain.Availability, 0)
	for _, row := range t.availability {
		if match(row) {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ParticipantID < result[j].ParticipantID
	})
	return result
}
