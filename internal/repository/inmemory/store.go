package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	meetingdomain "chronos-go/internal/domain/meeting"
	schedulingdomain "chronos-go/internal/domain/scheduling"
	userdomain "chronos-go/internal/domain/user"
)

// ErrDuplicate mirrors a unique constraint violation.
var ErrDuplicate = errors.New("duplicate key")

// Store is a process-local database shared by the memory repositories.
// Transactions are serialized and rolled back on error.
type Store struct {
	mu   sync.Mutex
	data tables
	now  func() time.Time
}

type tables struct {
	users        map[string]userdomain.User
	meetings     map[string]meetingdomain.Meeting
	participants map[string]meetingdomain.Participant
	availability map[string]schedulingdomain.Availability
	votes        map[string]schedulingdomain.Vote
}

func NewStore() *Store {
	return &Store{
		data: tables{
			users:        make(map[string]userdomain.User),
			meetings:     make(map[string]meetingdomain.Meeting),
			participants: make(map[string]meetingdomain.Participant),
			availability: make(map[string]schedulingdomain.Availability),
			votes:        make(map[string]schedulingdomain.Vote),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (t tables) clone() tables {
	return tables{
		users:        cloneMap(t.users),
		meetings:     cloneMap(t.meetings),
		participants: cloneMap(t.participants),
		availability: cloneMap(t.availability),
		votes:        cloneMap(t.votes),
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// session is the lock scope a repository call runs in. Calls made inside a
// transaction already hold the store lock.
type session struct {
	store *Store
	inTx  bool
}

func (s session) run(ctx context.Context, fn func(*tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
	}
	return fn(&s.store.data)
}

func (s session) transaction(ctx context.Context, fn func(session) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	backup := s.store.data.clone()
	if err := fn(session{store: s.store, inTx: true}); err != nil {
		s.store.data = backup
		return err
	}
	return nil
}

// deleteParticipant removes the participant with its availability and vote,
// like the ON DELETE CASCADE foreign keys do.
func (t *tables) deleteParticipant(participantID string) {
	delete(t.participants, participantID)
	for id, row := range t.availability {
		if row.ParticipantID == participantID {
			delete(t.availability, id)
		}
	}
	for id, vote := range t.votes {
		if vote.ParticipantID == participantID {
			delete(t.votes, id)
		}
	}
}
