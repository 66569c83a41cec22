package database

import (
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"

	"kitchenrush/internal/models"
)

// ErrNilRecord is returned when SaveSession is handed nothing to save
var ErrNilRecord = errors.New("session record is nil")

// SessionStore reads and writes session history and player profiles
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore wraps an open database
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// SaveSession stores a finished session with its attempts and folds its
// rewards into the player's profile in one transaction
func (s *SessionStore) SaveSession(rec *models.SessionRecord) (*models.UserProfile, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Create(rec).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to save session %s: %w", rec.SessionID, err)
	}

	var profile models.UserProfile
	if err := tx.Where(models.UserProfile{UserID: rec.UserID}).FirstOrInit(&profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load profile %s: %w", rec.UserID, err)
	}
	profile.UserID = rec.UserID
	profile.Apply(rec)

	if err := tx.Save(&profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to save profile %s: %w", rec.UserID, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit session %s: %w", rec.SessionID, err)
	}
	return &profile, nil
}

// ListSessions returns a player's sessions, most recent first. limit <= 0 means all.
func (s *SessionStore) ListSessions(userID string, limit int) ([]models.SessionRecord, error) {
	query := s.db.Where("user_id = ?", userID).Order("ended_at desc").Preload("Attempts")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.SessionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions for %s: %w", userID, err)
	}
	return records, nil
}

// GetSession loads one session by its session id
func (s *SessionStore) GetSession(sessionID string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	err := s.db.Where("session_id = ?", sessionID).Preload("Attempts").First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Profile returns a player's profile; players with no history get a fresh level 1 profile
func (s *SessionStore) Profile(userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if gorm.IsRecordNotFoundError(err) {
		return &models.UserProfile{UserID: userID, Level: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	return &profile, nil
}
