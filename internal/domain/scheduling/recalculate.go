package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chronos-go/internal/domain/meeting"
	"chronos-go/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "chronos-go/internal/domain/scheduling"

// Recalculator is the only writer of participant status. Each pass runs in
// one transaction holding the meeting lock, so concurrent passes for the same
// meeting serialize and every pass sees all mutations committed before it.
type Recalculator struct {
	repo      Repository
	publisher EventPublisher
	log       logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewRecalculator(repo Repository, publisher EventPublisher, log logger.Logger) *Recalculator {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Recalculator{
		repo:      repo,
		publisher: publisher,
		log:       log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// Recalculate implements meeting.Recalculator.
func (r *Recalculator) Recalculate(ctx context.Context, meetingID string) error {
	_, err := r.Run(ctx, meetingID)
	return err
}

// Run performs one pass and returns what it computed. Errors are wrapped
// with ErrRecalculationFailed; mutations that triggered the pass stay committed.
func (r *Recalculator) Run(ctx context.Context, meetingID string) (*Recalculation, error) {
	ctx, span := r.tracer.Start(ctx, "scheduling.recalculate", trace.WithAttributes(
		attribute.String("meeting.id", meetingID),
	))
	defer span.End()

	started := time.Now()
	var result Recalculation
	err := r.repo.Transaction(ctx, func(tx Repository) error {
		pass, err := recalculate(ctx, tx, meetingID)
		if err != nil {
			return err
		}
		result = pass
		return nil
	})
	recalculationDuration.Observe(time.Since(started).Seconds())

	log := r.log.WithContext(ctx)
	if err != nil {
		recalculationsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "recalculation failed")
		if errors.Is(err, ErrInvariantViolation) {
			log.Critical("scheduling.recalculate: invariant violated", "meeting_id", meetingID, "err", err)
		} else {
			log.InternalError("scheduling.recalculate: pass failed", err, "meeting_id", meetingID)
		}
		return nil, fmt.Errorf("%w: meeting %s: %w", ErrRecalculationFailed, meetingID, err)
	}

	recalculationsTotal.WithLabelValues("ok").Inc()
	for _, change := range result.Changes {
		statusChangesTotal.WithLabelValues(string(change.To)).Inc()
	}
	span.SetAttributes(
		attribute.Int("meeting.participants", result.Participants),
		attribute.Int("meeting.common_dates", len(result.CommonDates)),
		attribute.Int("meeting.status_changes", len(result.Changes)),
	)
	log.Debug("scheduling.recalculate: pass done",
		"meeting_id", meetingID,
		"participants", result.Participants,
		"common_dates", len(result.CommonDates),
		"changed", len(result.Changes),
	)

	if result.Participants > 0 {
		event := newRecalculatedEvent(result, r.now())
		if err := r.publisher.PublishRecalculated(ctx, event); err != nil {
			log.Warn("scheduling.recalculate: publish event failed", "meeting_id", meetingID, "err", err)
		}
	}

	return &result, nil
}

func recalculate(ctx context.Context, tx Repository, meetingID string) (Recalculation, error) {
	result := Recalculation{
		MeetingID:   meetingID,
		CommonDates: []time.Time{},
		Statuses:    make(map[string]meeting.ParticipantStatus),
	}

	if err := tx.LockMeeting(ctx, meetingID); err != nil {
		return result, fmt.Errorf("lock meeting: %w", err)
	}

	participants, err := tx.ListParticipants(ctx, meetingID)
	if err != nil {
		return result, fmt.Errorf("list participants: %w", err)
	}
	if len(participants) == 0 {
		return result, nil
	}
	result.Participants = len(participants)

	availabilities, err := tx.ListAvailability(ctx, meetingID)
	if err != nil {
		return result, fmt.Errorf("list availability: %w", err)
	}

	votes, err := tx.ListVotes(ctx, meetingID)
	if err != nil {
		return result, fmt.Errorf("list votes: %w", err)
	}

	votesByParticipant := make(map[string]*Vote, len(votes))
	for i := range votes {
		vote := &votes[i]
		if _, dup := votesByParticipant[vote.ParticipantID]; dup {
			return result, fmt.Errorf("%w: participant %s has more than one vote", ErrInvariantViolation, vote.ParticipantID)
		}
		votesByParticipant[vote.ParticipantID] = vote
	}

	hasAvailability := make(map[string]bool, len(participants))
	for _, availability := range availabilities {
		hasAvailability[availability.ParticipantID] = true
	}

	result.CommonDates = CommonDates(participants, availabilities)
	common := NewDateSet(result.CommonDates)

	for _, participant := range participants {
		status := ResolveStatus(hasAvailability[participant.ID], votesByParticipant[participant.ID], common)
		result.Statuses[participant.ID] = status
		if status == participant.Status {
			continue
		}
		if err := tx.UpdateParticipantStatus(ctx, participant.ID, status); err != nil {
			return result, fmt.Errorf("update participant %s status: %w", participant.ID, err)
		}
		result.Changes = append(result.Changes, StatusChange{
			ParticipantID: participant.ID,
			From:          participant.Status,
			To:            status,
		})
	}

	return result, nil
}
