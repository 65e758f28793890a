package repository

import (
	"strings"

	"github.com/LusoHub/verification_service/internal/domain"
	"gorm.io/gorm"
)

type UniversityRepository interface {
	FindByID(id uint) (*domain.University, error)
	FindByDomain(emailDomain string) (*domain.University, error)
	List(limit, offset int) ([]domain.University, error)
	ListAll() ([]domain.University, error)
	AddUniversity(university *domain.University) error
}

type universityRepository struct {
	db *gorm.DB
}

func NewUniversityRepository(db *gorm.DB) UniversityRepository {
	return &universityRepository{db: db}
}

func (u *universityRepository) FindByID(id uint) (*domain.University, error) {
	var university domain.University
	if err := u.db.Preload("Domains").First(&university, id).Error; err != nil {
		return nil, err
	}
	return &university, nil
}

func (u *universityRepository) FindByDomain(emailDomain string) (*domain.University, error) {
	emailDomain = strings.ToLower(strings.TrimSpace(emailDomain))

	var link domain.UniversityDomain
	if err := u.db.First(&link, "domain = ?", emailDomain).Error; err != nil {
		return nil, err
	}
	return u.FindByID(link.UniversityID)
}

func (u *universityRepository) List(limit, offset int) ([]domain.University, error) {
	var universities []domain.University

	err := u.db.Preload("Domains").Order("name_en ASC").Limit(limit).Offset(offset).Find(&universities).Error
	if err != nil {
		return nil, err
	}
	return universities, nil
}

// ListAll loads the whole registry with domains, for the directory snapshot
// built at startup.
func (u *universityRepository) ListAll() ([]domain.University, error) {
	var universities []domain.University

	err := u.db.Preload("Domains").Order("id ASC").Find(&universities).Error
	if err != nil {
		return nil, err
	}
	return universities, nil
}

func (u *universityRepository) AddUniversity(university *domain.University) error {
	for i := range university.Domains {
		d := strings.ToLower(strings.TrimSpace(university.Domains[i].Domain))
		university.Domains[i].Domain = strings.TrimPrefix(d, "@")
	}
	return u.db.Create(university).Error
}
