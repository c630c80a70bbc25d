package meeting

import "time"

type Status string

const (
	StatusPlanning  Status = "PLANNING"
	StatusVoting    Status = "VOTING"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusVoting, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParticipantStatus is derived from a participant's availability and vote.
// Only the recalculation pass writes it after the participant is created.
type ParticipantStatus string

const (
	ParticipantThinking    ParticipantStatus = "THINKING"
	ParticipantChoosenDate ParticipantStatus = "CHOOSEN_DATE"
	ParticipantVoted       ParticipantStatus = "VOTED"
)

type Meeting struct {
	ID              string     `gorm:"type:uuid;primaryKey"`
	Title           string     `gorm:"not null"`
	Description     *string    `gorm:"type:text"`
	Status          Status     `gorm:"type:varchar(16);not null"`
	FinalDate       *time.Time `gorm:"type:date"`
	ShareToken      string     `gorm:"size:12;not null;uniqueIndex"`
	CreatedByUserID *string    `gorm:"type:uuid;index"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

type Participant struct {
	ID        string            `gorm:"type:uuid;primaryKey"`
	MeetingID string            `gorm:"type:uuid;not null;index"`
	UserID    *string           `gorm:"type:uuid"`
	Name      string            `gorm:"not null"`
	Email     *string           `gorm:"type:text"`
	Status    ParticipantStatus `gorm:"type:varchar(16);not null"`
	JoinedAt  time.Time         `gorm:"autoCreateTime"`
}

// IsGuest reports whether the participant joined without an account.
func (p Participant) IsGuest() bool {
	return p.UserID == nil
}

// ModifiableBy reports whether the caller may change this participant's
// availability or vote. An empty userID means an anonymous caller, who may
// only act on guest participants.
func (p Participant) ModifiableBy(userID string) bool {
	if userID == "" {
		return p.UserID == nil
	}
	return p.UserID != nil && *p.UserID == userID
}

// Identity is the authenticated caller as seen by the meeting service.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

type CreateMeetingInput struct {
	Title       string
	Description string
}

type JoinInput struct {
	Name  string
	Email string
}

type UpdateStatusInput struct {
	Status    Status
	FinalDate *time.Time
}
