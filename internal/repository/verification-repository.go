package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationRepository is the persistence side of the verification
// registry. Submit assigns the verification ID (UUIDv7, so IDs are
// time-ordered and independent of record content) and writes the record with
// its documents in one transaction.
type VerificationRepository interface {
	Submit(ctx context.Context, rec *domain.VerificationRecord) (string, error)
	FindByID(id string) (*domain.VerificationRecord, error)
	FindLatestByStudentID(studentID uint) (*domain.VerificationRecord, error)
	ListPending(limit, offset int) ([]domain.VerificationRecord, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (v *verificationRepository) Submit(ctx context.Context, rec *domain.VerificationRecord) (string, error) {
	if rec == nil {
		return "", errors.New("nil verification record")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	rec.ID = id.String()
	rec.Status = domain.VerificationStatusPending
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now()
	}

	err = v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docs := rec.Documents
		rec.Documents = nil
		if err := tx.Create(rec).Error; err != nil {
			return err
		}

		for i := range docs {
			docs[i].VerificationID = rec.ID
		}
		if len(docs) > 0 {
			if err := tx.Create(&docs).Error; err != nil {
				return err
			}
		}
		rec.Documents = docs
		return nil
	})
	if err != nil {
		rec.ID = ""
		return "", err
	}

	return rec.ID, nil
}

func (v *verificationRepository) FindByID(id string) (*domain.VerificationRecord, error) {
	var rec domain.VerificationRecord
	err := v.db.
		Preload("Documents").
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (v *verificationRepository) FindLatestByStudentID(studentID uint) (*domain.VerificationRecord, error) {
	var rec domain.VerificationRecord
	err := v.db.
		Preload("Documents").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListPending serves the external review tooling's queries; this service
// never changes a status itself.
func (v *verificationRepository) ListPending(limit, offset int) ([]domain.VerificationRecord, error) {
	var recs []domain.VerificationRecord

	err := v.db.Where("status = ?", domain.VerificationStatusPending).
		Order("submitted_at ASC").Limit(limit).Offset(offset).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
