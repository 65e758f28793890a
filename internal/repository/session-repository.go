package repository

import (
	"github.com/LusoHub/verification_service/internal/domain"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Save(sess *domain.WorkflowSession) error
	Find(sessionID string) (*domain.WorkflowSession, error)
	Delete(sessionID string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Save upserts the whole snapshot in one write.
func (s *sessionRepository) Save(sess *domain.WorkflowSession) error {
	return s.db.Where("session_id = ?", sess.SessionID).Assign(sess).FirstOrCreate(sess).Error
}

func (s *sessionRepository) Find(sessionID string) (*domain.WorkflowSession, error) {
	var sess domain.WorkflowSession
	if err := s.db.Where("session_id = ?", sessionID).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *sessionRepository) Delete(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&domain.WorkflowSession{}).Error
}
