package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	MsgTypeText  = "text"
	MsgTypeVoice = "voice"
)

type Message struct {
	gorm.Model
	ConversationID uint      `gorm:"index;not null"`
	Role           string    `gorm:"size:20;not null"` // "user" or "model"
	Content        string    `gorm:"type:text;not null"`
	MsgType        string    `gorm:"size:10;not null;default:text"` // "text" or "voice"
	Timestamp      time.Time `gorm:"autoCreateTime"`
}
