package domain

import "time"

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved" // set by the review system
	VerificationStatusRejected VerificationStatus = "rejected"
)

// VerificationMethodUniversityEmail is the only method this service
// implements: a directory-matched university email plus evidence documents.
const VerificationMethodUniversityEmail = "university_email"

type DocumentType string

const (
	DocumentTypeStudentID        DocumentType = "student_id"
	DocumentTypeEnrollmentLetter DocumentType = "enrollment_letter"
	DocumentTypeTuitionReceipt   DocumentType = "tuition_receipt"
	DocumentTypeTranscript       DocumentType = "transcript"
)

// ParseDocumentType rejects unknown document types at the boundary.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocumentTypeStudentID, DocumentTypeEnrollmentLetter, DocumentTypeTuitionReceipt, DocumentTypeTranscript:
		return DocumentType(s), true
	}
	return "", false
}

// VerificationRecord is the immutable submission handed to the registry.
// The registry assigns ID and owns every status transition after pending.
type VerificationRecord struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"verification_id"`
	StudentID    uint   `gorm:"not null;index" json:"student_id"`
	UniversityID uint   `gorm:"not null;index" json:"university_id"`
	Email        string `gorm:"type:varchar(255);not null" json:"email"`
	Method       string `gorm:"type:varchar(30);not null;column:verification_method" json:"verification_method"`

	FirstName          string  `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName           string  `gorm:"type:varchar(255);not null" json:"last_name"`
	Program            string  `gorm:"type:varchar(255);not null" json:"program"`
	YearOfStudy        string  `gorm:"type:varchar(50);not null" json:"year_of_study"`
	ExpectedGraduation *string `gorm:"type:varchar(50)" json:"expected_graduation,omitempty"`
	StudentNumber      *string `gorm:"type:varchar(100)" json:"student_number,omitempty"`
	PhoneNumber        *string `gorm:"type:varchar(50)" json:"phone_number,omitempty"`

	Status      VerificationStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	SubmittedAt time.Time          `gorm:"not null" json:"submitted_at"`

	Documents []VerificationDocument `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignKey:VerificationID" json:"documents,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type VerificationDocument struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	VerificationID string       `gorm:"type:uuid;not null;index" json:"verification_id"`
	DocType        DocumentType `gorm:"type:varchar(30);not null" json:"doc_type"`
	FileName       string       `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize       int64        `gorm:"not null" json:"file_size"`
	FileURL        string       `gorm:"type:text;not null" json:"file_url"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// WorkflowSession is the persisted form of one workflow instance: the whole
// state snapshot marshalled as a single JSON value, written atomically after
// every mutation.
type WorkflowSession struct {
	SessionID string `gorm:"type:uuid;primaryKey" json:"session_id"`
	StudentID uint   `gorm:"not null;index" json:"student_id"`
	State     []byte `gorm:"type:jsonb;not null" json:"state"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
