package verification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/LusoHub/verification_service/internal/interfaces"
)

type State string

const (
	StateEmailEntry     State = "email_entry"
	StateProfileEntry   State = "profile_entry"
	StateDocumentUpload State = "document_upload"
	StateReviewSubmit   State = "review_submit"
	StateSubmitted      State = "submitted"
)

var stateOrder = []State{
	StateEmailEntry,
	StateProfileEntry,
	StateDocumentUpload,
	StateReviewSubmit,
	StateSubmitted,
}

func (s State) index() int {
	for i, st := range stateOrder {
		if st == s {
			return i
		}
	}
	return 0
}

// Workflow is one student's verification attempt: a strictly sequential
// state machine from email entry to a submitted, immutable verification
// record. One instance per session; uploads within it may run concurrently.
type Workflow struct {
	mu sync.Mutex

	sessionID string
	studentID uint

	state        State
	email        string
	universityID uint
	profile      ProfileDraft
	profileOK    bool

	docs       *DocumentSet
	dir        *Directory
	lastErrors map[string]string

	submitting bool
	result     *domain.VerificationRecord
}

func NewWorkflow(sessionID string, studentID uint, dir *Directory, up interfaces.Uploader) *Workflow {
	return &Workflow{
		sessionID:  sessionID,
		studentID:  studentID,
		state:      StateEmailEntry,
		docs:       NewDocumentSet(up),
		dir:        dir,
		lastErrors: make(map[string]string),
	}
}

// SubmitEmail runs the domain verifier. The workflow only advances past
// email entry on a directory match; on failure it stays put with the
// suggestions surfaced through the returned result.
func (w *Workflow) SubmitEmail(email string) (DomainVerificationResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateEmailEntry {
		return DomainVerificationResult{}, w.invalidTransition("email can only be entered at the start of the workflow")
	}

	res := w.dir.VerifyEmail(email)
	if !res.IsValid {
		if len(res.Suggestions) == 0 {
			w.lastErrors = map[string]string{"email": "invalid email address"}
			return res, domain.NewWorkflowError(domain.ErrInvalidEmailFormat, "email", "invalid email address")
		}
		w.lastErrors = map[string]string{"email": "email domain is not associated with any partner university"}
		return res, domain.NewWorkflowError(domain.ErrUnrecognizedDomain, "email",
			"email domain is not associated with any partner university")
	}

	w.email = strings.ToLower(strings.TrimSpace(email))
	w.universityID = res.MatchedUniversity.ID
	w.lastErrors = map[string]string{}
	w.state = StateProfileEntry
	return res, nil
}

// SubmitProfile validates the draft and advances to document upload when it
// is complete. Field errors are kept for CurrentErrors.
func (w *Workflow) SubmitProfile(draft ProfileDraft) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateProfileEntry {
		return w.invalidTransition("profile can only be entered after email verification")
	}

	v := ValidateProfile(draft)
	if !v.Valid {
		w.lastErrors = v.Errors
		return domain.NewWorkflowError(domain.ErrProfileFieldMissing, "", "profile is incomplete")
	}

	w.profile = draft
	w.profileOK = true
	w.lastErrors = map[string]string{}
	w.state = StateDocumentUpload
	return nil
}

// UploadDocument hands the file to the intake. Rejections are scoped to the
// one document and never move the state machine.
func (w *Workflow) UploadDocument(docType, fileName string, data []byte) (DocumentRecord, error) {
	w.mu.Lock()
	if w.state != StateDocumentUpload {
		w.mu.Unlock()
		return DocumentRecord{}, w.invalidTransition("documents can only be uploaded during the document step")
	}
	w.mu.Unlock()

	return w.docs.Ingest(docType, fileName, data)
}

// ContinueToReview is the user-initiated transition out of document upload.
// It requires at least one verified document; in-flight uploads do not
// count.
func (w *Workflow) ContinueToReview() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateDocumentUpload {
		return w.invalidTransition("review can only follow the document step")
	}
	if len(w.docs.VerifiedRecords()) == 0 {
		w.lastErrors = map[string]string{"documents": "at least one verified document is required"}
		return domain.NewWorkflowError(domain.ErrSubmissionEmpty, "documents",
			"at least one verified document is required")
	}

	w.lastErrors = map[string]string{}
	w.state = StateReviewSubmit
	return nil
}

// Back steps to the immediately preceding state. Never more than one step,
// never out of the terminal state.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateProfileEntry:
		w.state = StateEmailEntry
	case StateDocumentUpload:
		w.state = StateProfileEntry
	case StateReviewSubmit:
		w.state = StateDocumentUpload
	default:
		return w.invalidTransition(fmt.Sprintf("cannot go back from %s", w.state))
	}
	w.lastErrors = map[string]string{}
	return nil
}

// Submit builds the verification record and hands it to the registry, which
// assigns the ID. Exactly one attempt may be in flight; a call after success
// returns the existing result rather than producing a second record. The
// boolean reports whether this call performed the submission, so callers can
// run first-success side effects exactly once. On registry failure the
// workflow stays in review, fully retryable.
func (w *Workflow) Submit(ctx context.Context, registry interfaces.VerificationRegistry) (*domain.VerificationRecord, bool, error) {
	w.mu.Lock()
	if w.state == StateSubmitted {
		res := w.result
		w.mu.Unlock()
		return res, false, nil
	}
	if w.state != StateReviewSubmit {
		defer w.mu.Unlock()
		return nil, false, w.invalidTransition("submission requires the review step")
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, false, domain.NewWorkflowError(domain.ErrSubmitInFlight, "", "a submit attempt is already in progress")
	}

	verified := w.docs.VerifiedRecords()
	if len(verified) == 0 {
		w.lastErrors = map[string]string{"documents": "at least one verified document is required"}
		w.mu.Unlock()
		return nil, false, domain.NewWorkflowError(domain.ErrSubmissionEmpty, "documents",
			"at least one verified document is required")
	}

	record := w.buildRecord(verified)
	w.submitting = true
	w.mu.Unlock()

	id, err := registry.Submit(ctx, record)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		w.lastErrors = map[string]string{"submit": "verification registry is unavailable, try again"}
		return nil, false, &domain.WorkflowError{
			Kind:    domain.ErrRegistryUnavailable,
			Message: "verification registry is unavailable, try again",
			Cause:   err,
		}
	}

	record.ID = id
	w.result = record
	w.lastErrors = map[string]string{}
	w.state = StateSubmitted
	return record, true, nil
}

func (w *Workflow) buildRecord(verified []DocumentRecord) *domain.VerificationRecord {
	rec := &domain.VerificationRecord{
		StudentID:    w.studentID,
		UniversityID: w.universityID,
		Email:        w.email,
		Method:       domain.VerificationMethodUniversityEmail,
		FirstName:    strings.TrimSpace(w.profile.FirstName),
		LastName:     strings.TrimSpace(w.profile.LastName),
		Program:      strings.TrimSpace(w.profile.Program),
		YearOfStudy:  strings.TrimSpace(w.profile.YearOfStudy),
		Status:       domain.VerificationStatusPending,
		SubmittedAt:  time.Now(),
	}
	if v := strings.TrimSpace(w.profile.ExpectedGraduation); v != "" {
		rec.ExpectedGraduation = &v
	}
	if v := strings.TrimSpace(w.profile.StudentNumber); v != "" {
		rec.StudentNumber = &v
	}
	if v := strings.TrimSpace(w.profile.PhoneNumber); v != "" {
		rec.PhoneNumber = &v
	}
	for _, d := range verified {
		rec.Documents = append(rec.Documents, domain.VerificationDocument{
			DocType:  d.Type,
			FileName: d.FileName,
			FileSize: d.FileSize,
			FileURL:  d.FileURL,
		})
	}
	return rec
}

func (w *Workflow) invalidTransition(msg string) error {
	return domain.NewWorkflowError(domain.ErrInvalidTransition, "", msg)
}

func (w *Workflow) SessionID() string { return w.sessionID }
func (w *Workflow) StudentID() uint   { return w.studentID }

func (w *Workflow) CurrentState() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) CurrentErrors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.lastErrors))
	for k, v := range w.lastErrors {
		out[k] = v
	}
	return out
}

// ProgressPercent is display-only: the position of the current state in the
// sequence.
func (w *Workflow) ProgressPercent() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.index() * 100 / (len(stateOrder) - 1)
}

// Result is non-nil only once the workflow is terminal.
func (w *Workflow) Result() *domain.VerificationRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

func (w *Workflow) Documents() []DocumentRecord {
	return w.docs.Records()
}

func (w *Workflow) PendingUploads() int {
	return w.docs.Pending()
}

// WaitUploads blocks until every in-flight upload of this instance has
// resolved. Used for graceful drain and in tests.
func (w *Workflow) WaitUploads() {
	w.docs.Wait()
}

// OnDocumentResolved registers a callback fired whenever an async upload of
// this instance finishes, success or not.
func (w *Workflow) OnDocumentResolved(fn func()) {
	w.docs.OnResolve(fn)
}

func (w *Workflow) University() *domain.University {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.universityID == 0 {
		return nil
	}
	return w.dir.ByID(w.universityID)
}

// Snapshot is the single value object that captures restorable workflow
// state. Only resolved documents are included; an in-flight upload that has
// not reached verified simply is not part of the submittable set yet.
type Snapshot struct {
	SessionID       string                     `json:"session_id"`
	StudentID       uint                       `json:"student_id"`
	State           State                      `json:"state"`
	Email           string                     `json:"email,omitempty"`
	UniversityID    uint                       `json:"university_id,omitempty"`
	Profile         ProfileDraft               `json:"profile"`
	ProfileComplete bool                       `json:"profile_complete"`
	Documents       []DocumentRecord           `json:"documents,omitempty"`
	Result          *domain.VerificationRecord `json:"result,omitempty"`
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		SessionID:       w.sessionID,
		StudentID:       w.studentID,
		State:           w.state,
		Email:           w.email,
		UniversityID:    w.universityID,
		Profile:         w.profile,
		ProfileComplete: w.profileOK,
		Result:          w.result,
	}
	for _, rec := range w.docs.Records() {
		if rec.Verified {
			snap.Documents = append(snap.Documents, rec)
		}
	}
	return snap
}

// Restore rebuilds a workflow from a snapshot against the current directory
// snapshot and uploader.
func Restore(snap Snapshot, dir *Directory, up interfaces.Uploader) (*Workflow, error) {
	if snap.State.index() == 0 && snap.State != StateEmailEntry {
		return nil, fmt.Errorf("unknown workflow state %q", snap.State)
	}
	if snap.UniversityID != 0 && dir.ByID(snap.UniversityID) == nil {
		return nil, fmt.Errorf("university %d no longer in directory", snap.UniversityID)
	}

	w := NewWorkflow(snap.SessionID, snap.StudentID, dir, up)
	w.state = snap.State
	w.email = snap.Email
	w.universityID = snap.UniversityID
	w.profile = snap.Profile
	w.profileOK = snap.ProfileComplete
	w.result = snap.Result
	w.docs.restore(snap.Documents)
	return w, nil
}
