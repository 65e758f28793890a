package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/LusoHub/verification_service/internal/dto"
	"github.com/LusoHub/verification_service/internal/helper"
	"github.com/LusoHub/verification_service/internal/interfaces"
	"github.com/LusoHub/verification_service/internal/repository"
	"github.com/LusoHub/verification_service/internal/verification"
	"github.com/google/uuid"
)

type VerificationService interface {
	// Workflow
	StartSession(studentID uint) (*dto.SessionStateResponse, error)
	GetState(sessionID string) (*dto.SessionStateResponse, error)
	VerifyEmail(sessionID, email string) (*dto.EmailVerifyResponse, error)
	SubmitProfile(sessionID string, input dto.ProfileRequest) (*dto.SessionStateResponse, error)
	UploadDocument(sessionID, docType, fileName string, data []byte) (*dto.DocumentResponse, error)
	ContinueToReview(sessionID string) (*dto.SessionStateResponse, error)
	StepBack(sessionID string) (*dto.SessionStateResponse, error)
	Submit(ctx context.Context, sessionID string) (*dto.SubmitResponse, error)

	// Directory management
	ListUniversities(limit, offset int) ([]dto.UniversityResponse, error)
	AddUniversity(input dto.UniversityCreateRequest) error
}

type verificationService struct {
	mu       sync.Mutex
	sessions map[string]*verification.Workflow

	directory      *verification.Directory
	uploader       interfaces.Uploader
	registry       interfaces.VerificationRegistry
	sessionRepo    repository.SessionRepository
	universityRepo repository.UniversityRepository

	// messaging
	producer interfaces.ProducerHandler
}

func NewVerificationService(
	directory *verification.Directory,
	uploader interfaces.Uploader,
	registry interfaces.VerificationRegistry,
	sessionRepo repository.SessionRepository,
	universityRepo repository.UniversityRepository,
	producer interfaces.ProducerHandler,
) VerificationService {
	return &verificationService{
		sessions:       make(map[string]*verification.Workflow),
		directory:      directory,
		uploader:       uploader,
		registry:       registry,
		sessionRepo:    sessionRepo,
		universityRepo: universityRepo,
		producer:       producer,
	}
}

func (s *verificationService) StartSession(studentID uint) (*dto.SessionStateResponse, error) {
	if studentID == 0 {
		return nil, errors.New("invalid student_id")
	}

	sessionID := uuid.NewString()
	wf := verification.NewWorkflow(sessionID, studentID, s.directory, s.uploader)
	// keep the stored snapshot current when an async upload resolves, not
	// just on the next user action
	wf.OnDocumentResolved(func() { s.persistSession(wf) })

	s.mu.Lock()
	s.sessions[sessionID] = wf
	s.mu.Unlock()

	s.persistSession(wf)
	return s.stateResponse(wf), nil
}

func (s *verificationService) GetState(sessionID string) (*dto.SessionStateResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.stateResponse(wf), nil
}

func (s *verificationService) VerifyEmail(sessionID, email string) (*dto.EmailVerifyResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	res, verr := wf.SubmitEmail(email)
	s.persistSession(wf)

	if verr != nil {
		kind := domain.KindOf(verr)
		if kind != domain.ErrInvalidEmailFormat && kind != domain.ErrUnrecognizedDomain {
			return nil, verr
		}
		// recoverable: surface the result with suggestions, stay in place
		return &dto.EmailVerifyResponse{
			IsValid:     false,
			Domain:      res.Domain,
			Suggestions: res.Suggestions,
			State:       string(wf.CurrentState()),
		}, nil
	}

	return &dto.EmailVerifyResponse{
		IsValid:    true,
		Domain:     res.Domain,
		University: toUniversityResponse(res.MatchedUniversity),
		State:      string(wf.CurrentState()),
	}, nil
}

func (s *verificationService) SubmitProfile(sessionID string, input dto.ProfileRequest) (*dto.SessionStateResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	draft := verification.ProfileDraft{
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Program:            input.Program,
		YearOfStudy:        input.YearOfStudy,
		ExpectedGraduation: input.ExpectedGraduation,
		StudentNumber:      input.StudentNumber,
		PhoneNumber:        input.PhoneNumber,
	}

	verr := wf.SubmitProfile(draft)
	s.persistSession(wf)

	if verr != nil && domain.KindOf(verr) != domain.ErrProfileFieldMissing {
		return nil, verr
	}
	// field errors ride along in the state response
	return s.stateResponse(wf), nil
}

func (s *verificationService) UploadDocument(sessionID, docType, fileName string, data []byte) (*dto.DocumentResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	rec, verr := wf.UploadDocument(docType, fileName, data)
	if verr != nil {
		return nil, verr
	}

	s.persistSession(wf)
	out := toDocumentResponse(rec)
	return &out, nil
}

func (s *verificationService) ContinueToReview(sessionID string) (*dto.SessionStateResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	verr := wf.ContinueToReview()
	s.persistSession(wf)
	if verr != nil {
		return nil, verr
	}
	return s.stateResponse(wf), nil
}

func (s *verificationService) StepBack(sessionID string) (*dto.SessionStateResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	if verr := wf.Back(); verr != nil {
		return nil, verr
	}
	s.persistSession(wf)
	return s.stateResponse(wf), nil
}

func (s *verificationService) Submit(ctx context.Context, sessionID string) (*dto.SubmitResponse, error) {
	wf, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	rec, submitted, verr := wf.Submit(ctx, s.registry)
	s.persistSession(wf)
	if verr != nil {
		return nil, verr
	}

	// a repeat call on a submitted session hands back the existing record;
	// only the call that performed the transition announces it
	if submitted {
		s.publishSubmitted(rec)
	}

	return &dto.SubmitResponse{
		VerificationID: rec.ID,
		Status:         string(rec.Status),
		SubmittedAt:    rec.SubmittedAt.Format(time.RFC3339),
		DocumentCount:  len(rec.Documents),
	}, nil
}

// publishSubmitted announces the accepted submission downstream. Best
// effort: a broker outage must not fail a submit the registry accepted.
func (s *verificationService) publishSubmitted(rec *domain.VerificationRecord) {
	if s.producer == nil {
		return
	}
	payload := fmt.Sprintf(
		`{"verification_id":"%s","student_id":%d,"university_id":%d,"email":"%s","submitted_at":"%s"}`,
		rec.ID, rec.StudentID, rec.UniversityID, rec.Email, rec.SubmittedAt.Format(time.RFC3339),
	)
	if err := s.producer.PublishMessage([]byte("verification.submitted"), []byte(payload)); err != nil {
		log.Printf("publish verification.submitted failed: %v", err)
	}
}

func (s *verificationService) loadSession(sessionID string) (*verification.Workflow, error) {
	s.mu.Lock()
	wf, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		return wf, nil
	}

	if s.sessionRepo == nil {
		return nil, domain.NewWorkflowError(domain.ErrSessionNotFound, "", "verification session not found")
	}
	sess, err := s.sessionRepo.Find(sessionID)
	if err != nil || sess == nil {
		return nil, domain.NewWorkflowError(domain.ErrSessionNotFound, "", "verification session not found")
	}

	var snap verification.Snapshot
	if err := json.Unmarshal(sess.State, &snap); err != nil {
		return nil, fmt.Errorf("corrupt session state: %w", err)
	}
	wf, err = verification.Restore(snap, s.directory, s.uploader)
	if err != nil {
		return nil, err
	}
	restored := wf
	restored.OnDocumentResolved(func() { s.persistSession(restored) })

	s.mu.Lock()
	// another request may have restored it first; keep the existing instance
	if existing, ok := s.sessions[sessionID]; ok {
		wf = existing
	} else {
		s.sessions[sessionID] = wf
	}
	s.mu.Unlock()
	return wf, nil
}

// persistSession writes the full snapshot in one atomic save. Persistence
// trouble is logged, never surfaced: the in-memory instance stays usable.
func (s *verificationService) persistSession(wf *verification.Workflow) {
	if s.sessionRepo == nil {
		return
	}
	snap := wf.Snapshot()
	state, err := json.Marshal(snap)
	if err != nil {
		log.Printf("marshal session %s failed: %v", snap.SessionID, err)
		return
	}
	sess := &domain.WorkflowSession{
		SessionID: snap.SessionID,
		StudentID: snap.StudentID,
		State:     state,
	}
	if err := s.sessionRepo.Save(sess); err != nil {
		log.Printf("persist session %s failed: %v", snap.SessionID, err)
	}
}

func (s *verificationService) stateResponse(wf *verification.Workflow) *dto.SessionStateResponse {
	docs := wf.Documents()
	out := &dto.SessionStateResponse{
		SessionID:      wf.SessionID(),
		StudentID:      wf.StudentID(),
		State:          string(wf.CurrentState()),
		Progress:       wf.ProgressPercent(),
		Errors:         wf.CurrentErrors(),
		University:     toUniversityResponse(wf.University()),
		Documents:      make([]dto.DocumentResponse, 0, len(docs)),
		PendingUploads: wf.PendingUploads(),
	}
	for _, d := range docs {
		out.Documents = append(out.Documents, toDocumentResponse(d))
	}
	if rec := wf.Result(); rec != nil {
		out.Result = &dto.SubmitResponse{
			VerificationID: rec.ID,
			Status:         string(rec.Status),
			SubmittedAt:    rec.SubmittedAt.Format(time.RFC3339),
			DocumentCount:  len(rec.Documents),
		}
	}
	return out
}

/* =========================
   DIRECTORY MANAGEMENT
========================= */

func (s *verificationService) ListUniversities(limit, offset int) ([]dto.UniversityResponse, error) {
	universities, err := s.universityRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.UniversityResponse, 0, len(universities))
	for i := range universities {
		out = append(out, *toUniversityResponse(&universities[i]))
	}
	return out, nil
}

func (s *verificationService) AddUniversity(input dto.UniversityCreateRequest) error {
	nameEN := strings.TrimSpace(input.NameEN)
	namePT := strings.TrimSpace(input.NamePT)
	if nameEN == "" || namePT == "" || len(input.Domains) == 0 {
		return errors.New("invalid input")
	}

	tier := domain.PartnershipTier(strings.ToLower(strings.TrimSpace(input.PartnershipTier)))
	switch tier {
	case domain.PartnershipTierFull, domain.PartnershipTierAssociate, domain.PartnershipTierCommunity:
	case "":
		tier = domain.PartnershipTierCommunity
	default:
		return errors.New("invalid partnership tier")
	}

	un := &domain.University{
		NameEN:          nameEN,
		NamePT:          namePT,
		PartnershipTier: tier,
	}
	for _, d := range input.Domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@")
		if d == "" {
			continue
		}
		un.Domains = append(un.Domains, domain.UniversityDomain{Domain: d})
	}
	if len(un.Domains) == 0 {
		return errors.New("invalid input")
	}

	if err := s.universityRepo.AddUniversity(un); err != nil {
		if helper.IsDuplicateDomain(err) {
			return errors.New("email domain already registered to another university")
		}
		return err
	}
	// the directory snapshot is immutable; new entries take effect on the
	// next service start
	return nil
}

func toUniversityResponse(u *domain.University) *dto.UniversityResponse {
	if u == nil {
		return nil
	}
	out := &dto.UniversityResponse{
		ID:              u.ID,
		NameEN:          u.NameEN,
		NamePT:          u.NamePT,
		PartnershipTier: string(u.PartnershipTier),
	}
	for _, d := range u.Domains {
		out.Domains = append(out.Domains, d.Domain)
	}
	return out
}

func toDocumentResponse(d verification.DocumentRecord) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:             d.ID,
		DocType:        string(d.Type),
		FileName:       d.FileName,
		FileSize:       d.FileSize,
		UploadProgress: d.Progress,
		Verified:       d.Verified,
		Error:          d.Err,
	}
}
