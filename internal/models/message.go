package models

import "time"

// Message is the only persisted resource. ID and CreatedAt are assigned on insert and never change.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
