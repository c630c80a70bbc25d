package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akamensky/base58"
	"github.com/google/uuid"
)

const (
	shareTokenLength   = 12
	shareTokenAttempts = 10
)

type Service struct {
	repo     Repository
	recalc   Recalculator
	cache    Cache
	cacheTTL time.Duration
}

func NewService(repo Repository, recalc Recalculator, cache Cache, cacheTTL time.Duration) *Service {
	if recalc == nil {
		recalc = noopRecalculator{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &Service{repo: repo, recalc: recalc, cache: cache, cacheTTL: cacheTTL}
}

// CreateMeeting stores a new meeting in PLANNING and enrolls the creator as
// its first participant in the same transaction.
func (s *Service) CreateMeeting(ctx context.Context, creator Identity, input CreateMeetingInput) (*Meeting, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if creator.UserID == "" {
		return nil, fmt.Errorf("creator user id is required")
	}

	var result Meeting
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		token, err := generateUniqueShareToken(ctx, tx)
		if err != nil {
			return err
		}

		creatorID := creator.UserID
		meeting := Meeting{
			ID:              uuid.NewString(),
			Title:           title,
			Description:     optionalString(input.Description),
			Status:          StatusPlanning,
			ShareToken:      token,
			CreatedByUserID: &creatorID,
		}
		if err := tx.CreateMeeting(ctx, &meeting); err != nil {
			return err
		}

		participant := Participant{
			ID:        uuid.NewString(),
			MeetingID: meeting.ID,
			UserID:    &creatorID,
			Name:      displayName(creator),
			Email:     optionalString(creator.Email),
			Status:    ParticipantThinking,
		}
		if err := tx.AddParticipant(ctx, &participant); err != nil {
			return err
		}

		result = meeting
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) GetMeeting(ctx context.Context, meetingID string) (*Meeting, error) {
	return s.repo.GetMeeting(ctx, meetingID)
}

func (s *Service) GetMeetingByShareToken(ctx context.Context, token string) (*Meeting, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMeetingNotFound
	}

	if cached, ok := s.cache.GetByShareToken(token); ok {
		return cached, nil
	}

	meeting, err := s.repo.GetMeetingByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	s.cache.SetByShareToken(token, meeting, s.cacheTTL)
	return meeting, nil
}

func (s *Service) ListMeetingsForUser(ctx context.Context, userID string) ([]Meeting, error) {
	return s.repo.ListMeetingsByUser(ctx, userID)
}

// UpdateStatus lets the meeting creator move the meeting between phases.
// Status never changes on its own.
func (s *Service) UpdateStatus(ctx context.Context, caller Identity, meetingID string, input UpdateStatusInput) (*Meeting, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	var result Meeting
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		meeting, err := tx.GetMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		if meeting.CreatedByUserID == nil || *meeting.CreatedByUserID != caller.UserID {
			return ErrNotCreator
		}

		if err := tx.UpdateMeetingStatus(ctx, meetingID, input.Status, input.FinalDate); err != nil {
			return err
		}

		meeting.Status = input.Status
		meeting.FinalDate = input.FinalDate
		result = *meeting
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteByShareToken(result.ShareToken)
	return &result, nil
}

// JoinMeeting adds a participant. An authenticated caller joins as themselves
// and gets their existing participant back on repeat calls. Anonymous callers
// join as guests identified by a name unique within the meeting.
func (s *Service) JoinMeeting(ctx context.Context, meetingID string, caller *Identity, input JoinInput) (*Participant, bool, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if caller != nil && email != "" && !strings.EqualFold(email, caller.Email) {
		return nil, false, ErrEmailMismatch
	}
	if caller == nil && name == "" {
		return nil, false, ErrNameRequired
	}

	var (
		result  Participant
		created bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetMeeting(ctx, meetingID); err != nil {
			return err
		}

		participant := Participant{
			ID:        uuid.NewString(),
			MeetingID: meetingID,
			Status:    ParticipantThinking,
		}

		if caller != nil {
			existing, err := tx.GetParticipantByUser(ctx, meetingID, caller.UserID)
			if err == nil {
				result = *existing
				return nil
			}
			if !errors.Is(err, ErrParticipantNotFound) {
				return err
			}

			userID := caller.UserID
			participant.UserID = &userID
			participant.Name = name
			if participant.Name == "" {
				participant.Name = displayName(*caller)
			}
			participant.Email = optionalString(caller.Email)
		} else {
			_, err := tx.GetGuestByName(ctx, meetingID, name)
			if err == nil {
				return ErrParticipantNameTaken
			}
			if !errors.Is(err, ErrParticipantNotFound) {
				return err
			}

			participant.Name = name
			participant.Email = optionalString(email)
		}

		if err := tx.AddParticipant(ctx, &participant); err != nil {
			return err
		}

		result = participant
		created = true
		return nil
	})
	if errors.Is(err, ErrParticipantExists) {
		// A concurrent join won the unique index.
		if caller == nil {
			return nil, false, ErrParticipantNameTaken
		}
		existing, getErr := s.repo.GetParticipantByUser(ctx, meetingID, caller.UserID)
		if getErr != nil {
			return nil, false, fmt.Errorf("join meeting %s: %w", meetingID, getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		// A new member without availability empties the common-date set.
		if err := s.recalc.Recalculate(ctx, meetingID); err != nil {
			return &result, created, fmt.Errorf("join meeting %s: %w", meetingID, err)
		}
	}

	return &result, created, nil
}

func (s *Service) ListParticipants(ctx context.Context, meetingID string) ([]Participant, error) {
	if _, err := s.repo.GetMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, meetingID)
}

// GetParticipant returns the participant only when it belongs to meetingID.
func (s *Service) GetParticipant(ctx context.Context, meetingID, participantID string) (*Participant, error) {
	participant, err := s.repo.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.MeetingID != meetingID {
		return nil, ErrParticipantNotFound
	}
	return participant, nil
}

// Participation returns the caller's participant row in the meeting, or
// ErrParticipantNotFound when the caller has not joined.
func (s *Service) Participation(ctx context.Context, meetingID, userID string) (*Participant, error) {
	if _, err := s.repo.GetMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.repo.GetParticipantByUser(ctx, meetingID, userID)
}

// LeaveMeeting removes the caller's participant together with its
// availability and vote, then refreshes the remaining statuses.
func (s *Service) LeaveMeeting(ctx context.Context, meetingID, userID string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		participant, err := tx.GetParticipantByUser(ctx, meetingID, userID)
		if err != nil {
			return err
		}
		return tx.DeleteParticipant(ctx, participant.ID)
	})
	if err != nil {
		return err
	}

	if err := s.recalc.Recalculate(ctx, meetingID); err != nil {
		return fmt.Errorf("leave meeting %s: %w", meetingID, err)
	}
	return nil
}

func generateUniqueShareToken(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < shareTokenAttempts; i++ {
		token := generateShareToken()
		taken, err := repo.IsShareTokenTaken(ctx, token)
		if err != nil {
			return "", err
		}
		if !taken {
			return token, nil
		}
	}
	return "", ErrShareTokenGenerationFailed
}

// generateShareToken encodes a random UUID in base58 and keeps the first
// shareTokenLength characters, which avoids look-alike characters in links.
func generateShareToken() string {
	id := uuid.New()
	encoded := base58.Encode(id[:])
	for len(encoded) < shareTokenLength {
		next := uuid.New()
		encoded += base58.Encode(next[:])
	}
	return encoded[:shareTokenLength]
}

func displayName(identity Identity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(identity.Email); email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
		return email
	}
	return "Participant"
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

type noopRecalculator struct{}

func (noopRecalculator) Recalculate(context.Context, string) error {
	return nil
}
