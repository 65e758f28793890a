package dto

type StartSessionRequest struct {
	StudentID uint `json:"student_id"`
}

type EmailVerifyRequest struct {
	Email string `json:"email"`
}

type EmailVerifyResponse struct {
	IsValid     bool                `json:"is_valid"`
	Domain      string              `json:"domain"`
	University  *UniversityResponse `json:"university,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
	State       string              `json:"state"`
}

type ProfileRequest struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Program            string `json:"program"`
	YearOfStudy        string `json:"year_of_study"`
	ExpectedGraduation string `json:"expected_graduation,omitempty"`
	StudentNumber      string `json:"student_number,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty"`
}

type DocumentResponse struct {
	ID             string `json:"id"`
	DocType        string `json:"doc_type"`
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	UploadProgress int    `json:"upload_progress"`
	Verified       bool   `json:"verified"`
	Error          string `json:"error,omitempty"`
}

type SessionStateResponse struct {
	SessionID      string              `json:"session_id"`
	StudentID      uint                `json:"student_id"`
	State          string              `json:"state"`
	Progress       int                 `json:"progress"`
	Errors         map[string]string   `json:"errors,omitempty"`
	University     *UniversityResponse `json:"university,omitempty"`
	Documents      []DocumentResponse  `json:"documents"`
	PendingUploads int                 `json:"pending_uploads"`
	Result         *SubmitResponse     `json:"result,omitempty"`
}

type SubmitResponse struct {
	VerificationID string `json:"verification_id"`
	Status         string `json:"status"`
	SubmittedAt    string `json:"submitted_at"`
	DocumentCount  int    `json:"document_count"`
}
