package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chronos-go/internal/domain/meeting"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	repo   Repository
	recalc *Recalculator
}

func NewService(repo Repository, recalc *Recalculator) *Service {
	return &Service{repo: repo, recalc: recalc}
}

// AddAvailability records that a participant can attend on a date. Adding a
// date the participant already declared is a no-op returning the stored row.
func (s *Service) AddAvailability(ctx context.Context, input AvailabilityInput) (*Availability, error) {
	if _, err := s.participantInMeeting(ctx, input.ParticipantID, input.MeetingID); err != nil {
		return nil, err
	}

	availability := Availability{
		ID:            uuid.NewString(),
		ParticipantID: input.ParticipantID,
		MeetingID:     input.MeetingID,
		Date:          NormalizeDate(input.Date),
		TimeFrom:      input.TimeFrom,
		TimeTo:        input.TimeTo,
	}
	if _, err := s.repo.AddAvailability(ctx, &availability); err != nil {
		return nil, err
	}

	if err := s.recalc.Recalculate(ctx, input.MeetingID); err != nil {
		return &availability, err
	}
	return &availability, nil
}

// RemoveAvailability deletes one declared date and reports whether it existed.
// Statuses are recalculated either way.
func (s *Service) RemoveAvailability(ctx context.Context, participantID, meetingID string, date time.Time) (bool, error) {
	if _, err := s.participantInMeeting(ctx, participantID, meetingID); err != nil {
		return false, err
	}

	removed, err := s.repo.DeleteAvailability(ctx, participantID, NormalizeDate(date))
	if err != nil {
		return false, err
	}

	if err := s.recalc.Recalculate(ctx, meetingID); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *Service) ListAvailability(ctx context.Context, meetingID string) ([]Availability, error) {
	return s.repo.ListAvailability(ctx, meetingID)
}

func (s *Service) ListParticipantAvailability(ctx context.Context, participantID, meetingID string) ([]Availability, error) {
	if _, err := s.participantInMeeting(ctx, participantID, meetingID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipantAvailability(ctx, participantID)
}

func (s *Service) CommonDates(ctx context.Context, meetingID string) ([]time.Time, error) {
	return s.repo.CommonDates(ctx, meetingID)
}

// CastVote replaces any previous vote of the participant in one transaction.
func (s *Service) CastVote(ctx context.Context, participantID, meetingID string, date time.Time) (*Vote, error) {
	if _, err := s.participantInMeeting(ctx, participantID, meetingID); err != nil {
		return nil, err
	}

	vote := Vote{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		MeetingID:     meetingID,
		VotedDate:     NormalizeDate(date),
	}
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockMeeting(ctx, meetingID); err != nil {
			return err
		}
		if _, err := tx.DeleteVote(ctx, participantID, meetingID); err != nil {
			return err
		}
		return tx.CreateVote(ctx, &vote)
	})
	if err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}

	if err := s.recalc.Recalculate(ctx, meetingID); err != nil {
		return &vote, err
	}
	return &vote, nil
}

// RemoveVote deletes the participant's vote and reports whether one existed.
func (s *Service) RemoveVote(ctx context.Context, participantID, meetingID string) (bool, error) {
	if _, err := s.participantInMeeting(ctx, participantID, meetingID); err != nil {
		return false, err
	}

	removed, err := s.repo.DeleteVote(ctx, participantID, meetingID)
	if err != nil {
		return false, err
	}

	if err := s.recalc.Recalculate(ctx, meetingID); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *Service) GetVote(ctx context.Context, participantID, meetingID string) (*Vote, error) {
	return s.repo.GetVote(ctx, participantID, meetingID)
}

func (s *Service) ListVotes(ctx context.Context, meetingID string) ([]Vote, error) {
	return s.repo.ListVotes(ctx, meetingID)
}

// Snapshot loads participants, availability, votes and common dates of a
// meeting concurrently.
func (s *Service) Snapshot(ctx context.Context, meetingID string) (*Snapshot, error) {
	var snapshot Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.repo.ListParticipants(gctx, meetingID)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		snapshot.Participants = participants
		return nil
	})
	g.Go(func() error {
		availabilities, err := s.repo.ListAvailability(gctx, meetingID)
		if err != nil {
			return fmt.Errorf("list availability: %w", err)
		}
		snapshot.Availabilities = availabilities
		return nil
	})
	g.Go(func() error {
		votes, err := s.repo.ListVotes(gctx, meetingID)
		if err != nil {
			return fmt.Errorf("list votes: %w", err)
		}
		snapshot.Votes = votes
		return nil
	})
	g.Go(func() error {
		dates, err := s.repo.CommonDates(gctx, meetingID)
		if err != nil {
			return fmt.Errorf("common dates: %w", err)
		}
		snapshot.CommonDates = dates
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Recalculate runs a pass on demand, e.g. from the operator CLI.
func (s *Service) Recalculate(ctx context.Context, meetingID string) (*Recalculation, error) {
	return s.recalc.Run(ctx, meetingID)
}

func (s *Service) participantInMeeting(ctx context.Context, participantID, meetingID string) (*meeting.Participant, error) {
	participant, err := s.repo.GetParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, meeting.ErrParticipantNotFound) {
			return nil, meeting.ErrParticipantNotFound
		}
		return nil, err
	}
	if participant.MeetingID != meetingID {
		return nil, meeting.ErrParticipantNotFound
	}
	return participant, nil
}
