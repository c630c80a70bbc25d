package scheduling

import (
	"context"
	"errors"
	"time"

	"chronos-go/internal/domain/meeting"
	domain "chronos-go/internal/domain/scheduling"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

// LockMeeting takes a transaction-scoped advisory lock keyed by the meeting id.
func (r *PostgresRepository) LockMeeting(ctx context.Context, meetingID string) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", meetingID).Error
}

func (r *PostgresRepository) GetParticipant(ctx context.Context, participantID string) (*meeting.Participant, error) {
	var participant meeting.Participant
	if err := r.db.WithContext(ctx).Where("id = ?", participantID).First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meeting.ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *PostgresRepository) ListParticipants(ctx context.Context, meetingID string) ([]meeting.Participant, error) {
	var participants []meeting.Participant
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("joined_at asc, id asc").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *PostgresRepository) UpdateParticipantStatus(ctx context.Context, participantID string, status meeting.ParticipantStatus) error {
	result := r.db.WithContext(ctx).
		Model(&meeting.Participant{}).
		Where("id = ?", participantID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return meeting.ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresRepository) AddAvailability(ctx context.Context, availability *domain.Availability) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(availability)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var existing domain.Availability
	if err := r.db.WithContext(ctx).
		Where("participant_id = ? AND date = ?", availability.ParticipantID, availability.Date).
		First(&existing).Error; err != nil {
		return false, err
	}
	*availability = existing
	return false, nil
}

func (r *PostgresRepository) DeleteAvailability(ctx context.Context, participantID string, date time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("participant_id = ? AND date = ?", participantID, domain.NormalizeDate(date)).
		Delete(&domain.Availability{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) ListAvailability(ctx context.Context, meetingID string) ([]domain.Availability, error) {
	var rows []domain.Availability
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("date asc, participant_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) ListParticipantAvailability(ctx context.Context, participantID string) ([]domain.Availability, error) {
	var rows []domain.Availability
	if err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

const commonDatesQuery = `
SELECT a.date
FROM availabilities a
JOIN participants p ON p.id = a.participant_id AND p.meeting_id = a.meeting_id
WHERE a.meeting_id = ?
GROUP BY a.date
HAVING COUNT(DISTINCT a.participant_id) = (
	SELECT COUNT(*) FROM participants WHERE meeting_id = ?
)
ORDER BY a.date ASC`

func (r *PostgresRepository) CommonDates(ctx context.Context, meetingID string) ([]time.Time, error) {
	var dates []time.Time
	if err := r.db.WithContext(ctx).Raw(commonDatesQuery, meetingID, meetingID).Scan(&dates).Error; err != nil {
		return nil, err
	}

	result := make([]time.Time, 0, len(dates))
	for _, date := range dates {
		result = append(result, domain.NormalizeDate(date))
	}
	return result, nil
}

func (r *PostgresRepository) GetVote(ctx context.Context, participantID, meetingID string) (*domain.Vote, error) {
	var vote domain.Vote
	if err := r.db.WithContext(ctx).
		Where("participant_id = ? AND meeting_id = ?", participantID, meetingID).
		First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, err
	}
	return &vote, nil
}

func (r *PostgresRepository) CreateVote(ctx context.Context, vote *domain.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *PostgresRepository) DeleteVote(ctx context.Context, participantID, meetingID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("participant_id = ? AND meeting_id = ?", participantID, meetingID).
		Delete(&domain.Vote{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) ListVotes(ctx context.Context, meetingID string) ([]domain.Vote, error) {
	var votes []domain.Vote
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at asc").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}
