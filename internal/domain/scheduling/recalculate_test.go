package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"chronos-go/internal/domain/meeting"
	"chronos-go/pkg/logger"
)

func TestRecalculateTwoParticipantsOneVote(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	repo.addParticipant("p-2", "m-1")
	svc := newTestService(repo, nil)

	addAvailability(t, svc, "p-1", "m-1", day(1))
	addAvailability(t, svc, "p-1", "m-1", day(2))
	addAvailability(t, svc, "p-2", "m-1", day(2))
	addAvailability(t, svc, "p-2", "m-1", day(3))

	common, _ := svc.CommonDates(context.Background(), "m-1")
	if !sameDates(common, []time.Time{day(2)}) {
		t.Fatalf("expected common {%s}, got %v", dateKey(day(2)), common)
	}
	for _, id := range []string{"p-1", "p-2"} {
		if got := repo.status(t, id); got != meeting.ParticipantChoosenDate {
			t.Fatalf("participant %s: expected CHOOSEN_DATE, got %s", id, got)
		}
	}

	if _, err := svc.CastVote(context.Background(), "p-1", "m-1", day(2)); err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if got := repo.status(t, "p-1"); got != meeting.ParticipantVoted {
		t.Fatalf("expected p-1 VOTED, got %s", got)
	}
	if got := repo.status(t, "p-2"); got != meeting.ParticipantChoosenDate {
		t.Fatalf("expected p-2 CHOOSEN_DATE, got %s", got)
	}
}

func TestRecalculateNewParticipantDemotesVoter(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	repo.addParticipant("p-2", "m-1")
	svc := newTestService(repo, nil)

	addAvailability(t, svc, "p-1", "m-1", day(2))
	addAvailability(t, svc, "p-2", "m-1", day(2))
	if _, err := svc.CastVote(context.Background(), "p-1", "m-1", day(2)); err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if got := repo.status(t, "p-1"); got != meeting.ParticipantVoted {
		t.Fatalf("expected VOTED, got %s", got)
	}

	repo.addParticipant("p-3", "m-1")
	result, err := svc.Recalculate(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if len(result.CommonDates) != 0 {
		t.Fatalf("expected no common dates, got %v", result.CommonDates)
	}
	if got := repo.status(t, "p-1"); got != meeting.ParticipantChoosenDate {
		t.Fatalf("expected p-1 CHOOSEN_DATE, got %s", got)
	}
	if got := repo.status(t, "p-3"); got != meeting.ParticipantThinking {
		t.Fatalf("expected p-3 THINKING, got %s", got)
	}
}

func TestRecalculateVoteBecomesCommonLater(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	repo.addParticipant("p-2", "m-1")
	svc := newTestService(repo, nil)

	addAvailability(t, svc, "p-1", "m-1", day(1))
	addAvailability(t, svc, "p-1", "m-1", day(2))
	addAvailability(t, svc, "p-2", "m-1", day(2))
	if _, err := svc.CastVote(context.Background(), "p-1", "m-1", day(1)); err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if got := repo.status(t, "p-1"); got != meeting.ParticipantChoosenDate {
		t.Fatalf("expected CHOOSEN_DATE while vote is not common, got %s", got)
	}

	addAvailability(t, svc, "p-2", "m-1", day(1))
	if got := repo.status(t, "p-1"); got != meeting.ParticipantVoted {
		t.Fatalf("expected VOTED once the date is common, got %s", got)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	repo.addParticipant("p-2", "m-1")
	svc := newTestService(repo, nil)

	addAvailability(t, svc, "p-1", "m-1", day(1))
	addAvailability(t, svc, "p-2", "m-1", day(1))
	if _, err := svc.CastVote(context.Background(), "p-2", "m-1", day(1)); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	writes := repo.store.statusWrites
	result, err := svc.Recalculate(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Fatalf("expected no changes on a settled meeting, got %+v", result.Changes)
	}
	if repo.store.statusWrites != writes {
		t.Fatalf("expected no status writes, got %d more", repo.store.statusWrites-writes)
	}
}

func TestRecalculateEmptyMeeting(t *testing.T) {
	repo := newFakeRepo()
	publisher := &recordingPublisher{}
	recalc := NewRecalculator(repo, publisher, logger.Nop())

	result, err := recalc.Run(context.Background(), "m-empty")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Participants != 0 || len(result.Changes) != 0 {
		t.Fatalf("expected no-op, got %+v", result)
	}
	if publisher.count() != 0 {
		t.Fatalf("expected no event for an empty meeting")
	}
}

func TestRecalculateDuplicateVotesIsInvariantViolation(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	repo.store.votes = []Vote{
		{ID: "v-1", ParticipantID: "p-1", MeetingID: "m-1", VotedDate: day(1)},
		{ID: "v-2", ParticipantID: "p-1", MeetingID: "m-1", VotedDate: day(2)},
	}
	recalc := NewRecalculator(repo, nil, logger.Nop())

	err := recalc.Recalculate(context.Background(), "m-1")
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	if !errors.Is(err, ErrRecalculationFailed) {
		t.Fatalf("expected ErrRecalculationFailed, got %v", err)
	}
}

func TestRecalculatePublishesEvent(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	repo.addParticipant("p-2", "m-1")
	publisher := &recordingPublisher{}
	svc := newTestService(repo, publisher)

	addAvailability(t, svc, "p-1", "m-1", day(8))
	addAvailability(t, svc, "p-2", "m-1", day(8))

	if publisher.count() != 2 {
		t.Fatalf("expected one event per pass, got %d", publisher.count())
	}
	last := publisher.events[len(publisher.events)-1]
	if last.MeetingID != "m-1" {
		t.Fatalf("expected meeting m-1, got %s", last.MeetingID)
	}
	if len(last.CommonDates) != 1 || last.CommonDates[0] != "2025-06-08" {
		t.Fatalf("unexpected common dates %v", last.CommonDates)
	}
	if len(last.Statuses) != 2 || last.Statuses[0].ParticipantID != "p-1" || last.Statuses[1].Status != string(meeting.ParticipantChoosenDate) {
		t.Fatalf("unexpected statuses %+v", last.Statuses)
	}
	if last.Changed != 1 {
		t.Fatalf("expected one change in the last pass, got %d", last.Changed)
	}
}

func TestRecalculateIgnoresPublishFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.addParticipant("p-1", "m-1")
	publisher := &recordingPublisher{err: errors.New("nats unavailable")}
	svc := newTestService(repo, publisher)

	if _, err := svc.AddAvailability(context.Background(), AvailabilityInput{ParticipantID: "p-1", MeetingID: "m-1", Date: day(1)}); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if got := repo.status(t, "p-1"); got != meeting.ParticipantChoosenDate {
		t.Fatalf("expected CHOOSEN_DATE, got %s", got)
	}
}
