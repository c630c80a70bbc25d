package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	meetingdomain "chronos-go/internal/domain/meeting"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(meetingdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateMeeting(ctx context.Context, meeting *meetingdomain.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

func (r *PostgresRepository) GetMeeting(ctx context.Context, meetingID string) (*meetingdomain.Meeting, error) {
	var meeting meetingdomain.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", meetingID).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meetingdomain.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

func (r *PostgresRepository) GetMeetingByShareToken(ctx context.Context, token string) (*meetingdomain.Meeting, error) {
	var meeting meetingdomain.Meeting
	if err := r.db.WithContext(ctx).Where("share_token = ?", token).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meetingdomain.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

func (r *PostgresRepository) ListMeetingsByUser(ctx context.Context, userID string) ([]meetingdomain.Meeting, error) {
	var meetings []meetingdomain.Meeting
	if err := r.db.WithContext(ctx).
		Table("meetings").
		Select("meetings.*").
		Joins("join participants on participants.meeting_id = meetings.id").
		Where("participants.user_id = ?", userID).
		Order("meetings.created_at desc").
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *PostgresRepository) UpdateMeetingStatus(ctx context.Context, meetingID string, status meetingdomain.Status, finalDate *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&meetingdomain.Meeting{}).
		Where("id = ?", meetingID).
		Updates(map[string]interface{}{
			"status":     status,
			"final_date": finalDate,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return meetingdomain.ErrMeetingNotFound
	}
	return nil
}

func (r *PostgresRepository) IsShareTokenTaken(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&meetingdomain.Meeting{}).Where("share_token = ?", token).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) AddParticipant(ctx context.Context, participant *meetingdomain.Participant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", meetingdomain.ErrParticipantExists, err)
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetParticipant(ctx context.Context, participantID string) (*meetingdomain.Participant, error) {
	var participant meetingdomain.Participant
	if err := r.db.WithContext(ctx).Where("id = ?", participantID).First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meetingdomain.ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *PostgresRepository) GetParticipantByUser(ctx context.Context, meetingID, userID string) (*meetingdomain.Participant, error) {
	var participant meetingdomain.Participant
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meetingdomain.ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *PostgresRepository) GetGuestByName(ctx context.Context, meetingID, name string) (*meetingdomain.Participant, error) {
	var participant meetingdomain.Participant
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id IS NULL AND name = ?", meetingID, name).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meetingdomain.ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *PostgresRepository) ListParticipants(ctx context.Context, meetingID string) ([]meetingdomain.Participant, error) {
	var participants []meetingdomain.Participant
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("joined_at asc, id asc").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// DeleteParticipant relies on ON DELETE CASCADE for availability and votes.
func (r *PostgresRepository) DeleteParticipant(ctx context.Context, participantID string) error {
	return r.db.WithContext(ctx).Delete(&meetingdomain.Participant{}, "id = ?", participantID).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
