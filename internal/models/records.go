package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// SessionRecord is the persisted summary of a finished kitchen session
type SessionRecord struct {
	gorm.Model
	SessionID          string `gorm:"unique_index"`
	UserID             string `gorm:"index"`
	StartedAt          time.Time
	EndedAt            time.Time
	Duration           time.Duration
	Score              int
	OrdersGenerated    int
	OrdersCompleted    int
	OrdersFailed       int
	QuestionsAttempted int
	QuestionsCorrect   int
	Accuracy           float64
	Grade              string
	Coins              int
	XP                 int
	DishesServed       StringSlice     `gorm:"type:text"`
	Attempts           []AttemptRecord `gorm:"foreignkey:SessionRecordID"`
}

// TableName sets the table name for SessionRecord
func (SessionRecord) TableName() string {
	return "session_records"
}

// AttemptRecord is one answered question within a session
type AttemptRecord struct {
	gorm.Model
	SessionRecordID uint `gorm:"index"`
	QuestionID      string
	SkillID         string
	StationType     StationType
	ChoiceID        string
	Correct         bool
	TimeTaken       time.Duration
	AnsweredAt      time.Time
}

// TableName sets the table name for AttemptRecord
func (AttemptRecord) TableName() string {
	return "attempt_records"
}

// XPPerLevel is the experience needed for each level
const XPPerLevel = 500

// UserProfile accumulates rewards across sessions
type UserProfile struct {
	gorm.Model
	UserID        string `gorm:"unique_index"`
	Coins         int
	XP            int
	Level         int
	TotalSessions int
	HighScore     int
	LastPlayedAt  time.Time
}

// TableName sets the table name for UserProfile
func (UserProfile) TableName() string {
	return "user_profiles"
}

// Apply folds a finished session into the profile
func (p *UserProfile) Apply(rec *SessionRecord) {
	p.Coins += rec.Coins
	p.XP += rec.XP
	p.Level = 1 + p.XP/XPPerLevel
	p.TotalSessions++
	if rec.Score > p.HighScore {
		p.HighScore = rec.Score
	}
	if rec.EndedAt.After(p.LastPlayedAt) {
		p.LastPlayedAt = rec.EndedAt
	}
}
