package scheduling

import (
	"time"

	"chronos-go/internal/domain/meeting"
)

const dateLayout = "2006-01-02"

type Availability struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	ParticipantID string    `gorm:"type:uuid;not null;uniqueIndex:uq_availabilities_participant_date"`
	MeetingID     string    `gorm:"type:uuid;not null;index"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:uq_availabilities_participant_date"`
	TimeFrom      *string   `gorm:"type:varchar(8)"`
	TimeTo        *string   `gorm:"type:varchar(8)"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (Availability) TableName() string {
	return "availabilities"
}

// Vote is a participant's preferred final date. At most one exists per
// participant and meeting.
type Vote struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	ParticipantID string    `gorm:"type:uuid;not null;uniqueIndex:uq_votes_participant_meeting"`
	MeetingID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_votes_participant_meeting"`
	VotedDate     time.Time `gorm:"type:date;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

type AvailabilityInput struct {
	ParticipantID string
	MeetingID     string
	Date          time.Time
	TimeFrom      *string
	TimeTo        *string
}

type SeriesInput struct {
	ParticipantID string
	MeetingID     string
	Rule          string
	From          time.Time
	Until         time.Time
	TimeFrom      *string
	TimeTo        *string
}

// Snapshot is a consistent-enough read of everything a meeting page shows.
type Snapshot struct {
	Participants   []meeting.Participant
	Availabilities []Availability
	Votes          []Vote
	CommonDates    []time.Time
}

// StatusChange records a participant whose status a recalculation rewrote.
type StatusChange struct {
	ParticipantID string
	From          meeting.ParticipantStatus
	To            meeting.ParticipantStatus
}

// Recalculation is the outcome of one orchestrator pass.
type Recalculation struct {
	MeetingID    string
	CommonDates  []time.Time
	Statuses     map[string]meeting.ParticipantStatus
	Changes      []StatusChange
	Participants int
}

// NormalizeDate drops the clock and zone so dates compare as calendar days.
func NormalizeDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format(dateLayout)
}
