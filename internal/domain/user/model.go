package user

import "time"

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	YandexID  string    `gorm:"not null;uniqueIndex"`
	Email     string    `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	AvatarURL *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Profile is what an identity provider tells us about a person.
type Profile struct {
	YandexID  string
	Email     string
	Name      string
	AvatarURL string
}
