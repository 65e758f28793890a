package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu      sync.Mutex
	submits int
	failErr error
	delay   time.Duration
	records []domain.VerificationRecord
}

func (f *fakeRegistry) Submit(ctx context.Context, rec *domain.VerificationRecord) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return "", f.failErr
	}
	f.submits++
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	cp := *rec
	cp.ID = id.String()
	f.records = append(f.records, cp)
	return cp.ID, nil
}

func (f *fakeRegistry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

func newTestWorkflow(t *testing.T) (*Workflow, *fakeUploader) {
	t.Helper()
	up := &fakeUploader{}
	return NewWorkflow(uuid.NewString(), 42, testDirectory(), up), up
}

// drive the workflow to the document step
func advanceToDocuments(t *testing.T, wf *Workflow) {
	t.Helper()
	_, err := wf.SubmitEmail("maria@ucl.ac.uk")
	require.NoError(t, err)
	require.NoError(t, wf.SubmitProfile(completeDraft()))
}

func TestWorkflowHappyPath(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	reg := &fakeRegistry{}

	assert.Equal(t, StateEmailEntry, wf.CurrentState())
	assert.Equal(t, 0, wf.ProgressPercent())
	assert.Nil(t, wf.Result())

	res, err := wf.SubmitEmail("maria@ucl.ac.uk")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, StateProfileEntry, wf.CurrentState())

	require.NoError(t, wf.SubmitProfile(completeDraft()))
	assert.Equal(t, StateDocumentUpload, wf.CurrentState())

	_, err = wf.UploadDocument("enrollment_letter", "letter.jpg", jpegBytes(2*1024*1024))
	require.NoError(t, err)
	wf.WaitUploads()

	require.NoError(t, wf.ContinueToReview())
	assert.Equal(t, StateReviewSubmit, wf.CurrentState())
	assert.Equal(t, 75, wf.ProgressPercent())

	rec, submitted, err := wf.Submit(context.Background(), reg)
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, StateSubmitted, wf.CurrentState())
	assert.Equal(t, 100, wf.ProgressPercent())

	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, uint(42), rec.StudentID)
	assert.Equal(t, uint(1), rec.UniversityID)
	assert.Equal(t, "maria@ucl.ac.uk", rec.Email)
	assert.Equal(t, domain.VerificationMethodUniversityEmail, rec.Method)
	assert.Equal(t, domain.VerificationStatusPending, rec.Status)
	require.Len(t, rec.Documents, 1)
	assert.Equal(t, domain.DocumentTypeEnrollmentLetter, rec.Documents[0].DocType)
	assert.Same(t, rec, wf.Result())
}

func TestWorkflowStaysOnEmailFailure(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	res, err := wf.SubmitEmail("maria@gmail.com")
	require.Error(t, err)
	assert.Equal(t, domain.ErrUnrecognizedDomain, domain.KindOf(err))
	assert.NotEmpty(t, res.Suggestions)
	assert.Equal(t, StateEmailEntry, wf.CurrentState())
	assert.Contains(t, wf.CurrentErrors(), "email")

	_, err = wf.SubmitEmail("not an email")
	assert.Equal(t, domain.ErrInvalidEmailFormat, domain.KindOf(err))
	assert.Equal(t, StateEmailEntry, wf.CurrentState())

	// recoverable: a corrected address advances
	_, err = wf.SubmitEmail("maria@ucl.ac.uk")
	require.NoError(t, err)
	assert.Equal(t, StateProfileEntry, wf.CurrentState())
	assert.Empty(t, wf.CurrentErrors())
}

func TestWorkflowStaysOnIncompleteProfile(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.SubmitEmail("maria@ucl.ac.uk")
	require.NoError(t, err)

	err = wf.SubmitProfile(ProfileDraft{FirstName: "Maria"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrProfileFieldMissing, domain.KindOf(err))
	assert.Equal(t, StateProfileEntry, wf.CurrentState())
	assert.Contains(t, wf.CurrentErrors(), "last_name")
}

func TestWorkflowStepOrderEnforced(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	err := wf.SubmitProfile(completeDraft())
	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(err))

	_, err = wf.UploadDocument("student_id", "card.pdf", pdfBytes(100))
	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(err))

	err = wf.ContinueToReview()
	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(err))

	_, _, err = wf.Submit(context.Background(), &fakeRegistry{})
	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(err))
}

func TestReviewBlockedWithoutVerifiedDocument(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	advanceToDocuments(t, wf)

	err := wf.ContinueToReview()
	require.Error(t, err)
	assert.Equal(t, domain.ErrSubmissionEmpty, domain.KindOf(err))
	assert.Equal(t, StateDocumentUpload, wf.CurrentState())
}

func TestReviewIgnoresInFlightUploads(t *testing.T) {
	up := &fakeUploader{gate: make(chan struct{})}
	wf := NewWorkflow(uuid.NewString(), 42, testDirectory(), up)
	advanceToDocuments(t, wf)

	_, err := wf.UploadDocument("student_id", "card.pdf", pdfBytes(100))
	require.NoError(t, err)

	// unresolved upload is not in the submittable set yet
	err = wf.ContinueToReview()
	assert.Equal(t, domain.ErrSubmissionEmpty, domain.KindOf(err))

	close(up.gate)
	wf.WaitUploads()
	require.NoError(t, wf.ContinueToReview())
}

func TestWorkflowBackSingleStep(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	advanceToDocuments(t, wf)

	require.NoError(t, wf.Back())
	assert.Equal(t, StateProfileEntry, wf.CurrentState())
	require.NoError(t, wf.Back())
	assert.Equal(t, StateEmailEntry, wf.CurrentState())

	err := wf.Back()
	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(err))
}

func TestWorkflowRegistryFailureIsRetryable(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	advanceToDocuments(t, wf)

	_, err := wf.UploadDocument("transcript", "tr.pdf", pdfBytes(500))
	require.NoError(t, err)
	wf.WaitUploads()
	require.NoError(t, wf.ContinueToReview())

	reg := &fakeRegistry{failErr: errors.New("registry down")}
	_, _, err = wf.Submit(context.Background(), reg)
	require.Error(t, err)
	assert.Equal(t, domain.ErrRegistryUnavailable, domain.KindOf(err))
	assert.Equal(t, StateReviewSubmit, wf.CurrentState())
	assert.Nil(t, wf.Result())

	// no re-entering prior steps needed: the retry goes straight through
	reg.failErr = nil
	rec, submitted, err := wf.Submit(context.Background(), reg)
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.NotNil(t, rec)
	assert.Equal(t, StateSubmitted, wf.CurrentState())
}

func TestWorkflowConcurrentSubmitProducesOneRecord(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	advanceToDocuments(t, wf)

	_, err := wf.UploadDocument("student_id", "card.pdf", pdfBytes(500))
	require.NoError(t, err)
	wf.WaitUploads()
	require.NoError(t, wf.ContinueToReview())

	reg := &fakeRegistry{delay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	results := make([]*domain.VerificationRecord, 2)
	performed := make([]bool, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], performed[i], errs[i] = wf.Submit(context.Background(), reg)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, reg.count())

	// exactly one caller performed the transition
	wins := 0
	for i := 0; i < 2; i++ {
		if performed[i] {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	var ids []string
	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			assert.Equal(t, domain.ErrSubmitInFlight, domain.KindOf(errs[i]))
			continue
		}
		require.NotNil(t, results[i])
		ids = append(ids, results[i].ID)
	}
	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestWorkflowSubmittedIsTerminal(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	advanceToDocuments(t, wf)
	_, err := wf.UploadDocument("student_id", "card.pdf", pdfBytes(500))
	require.NoError(t, err)
	wf.WaitUploads()
	require.NoError(t, wf.ContinueToReview())

	reg := &fakeRegistry{}
	first, submitted, err := wf.Submit(context.Background(), reg)
	require.NoError(t, err)
	assert.True(t, submitted)

	// repeat submit returns the same record, never a second one, and does
	// not report a fresh submission
	again, submittedAgain, err := wf.Submit(context.Background(), reg)
	require.NoError(t, err)
	assert.False(t, submittedAgain)
	assert.Same(t, first, again)
	assert.Equal(t, 1, reg.count())

	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(wf.Back()))
	_, err = wf.UploadDocument("transcript", "tr.pdf", pdfBytes(100))
	assert.Equal(t, domain.ErrInvalidTransition, domain.KindOf(err))
}

func TestWorkflowSnapshotRestore(t *testing.T) {
	up := &fakeUploader{}
	dir := testDirectory()
	wf := NewWorkflow(uuid.NewString(), 42, dir, up)
	advanceToDocuments(t, wf)
	_, err := wf.UploadDocument("enrollment_letter", "letter.pdf", pdfBytes(800))
	require.NoError(t, err)
	wf.WaitUploads()

	snap := wf.Snapshot()
	assert.Equal(t, StateDocumentUpload, snap.State)
	require.Len(t, snap.Documents, 1)

	restored, err := Restore(snap, dir, up)
	require.NoError(t, err)
	assert.Equal(t, wf.SessionID(), restored.SessionID())
	assert.Equal(t, StateDocumentUpload, restored.CurrentState())
	require.NotNil(t, restored.University())
	assert.Equal(t, uint(1), restored.University().ID)

	// the restored instance can finish the workflow
	require.NoError(t, restored.ContinueToReview())
	rec, _, err := restored.Submit(context.Background(), &fakeRegistry{})
	require.NoError(t, err)
	assert.Equal(t, "maria@ucl.ac.uk", rec.Email)
	require.Len(t, rec.Documents, 1)
	assert.Equal(t, domain.DocumentTypeEnrollmentLetter, rec.Documents[0].DocType)
}

func TestWorkflowRestoreUnknownUniversity(t *testing.T) {
	wf, up := newTestWorkflow(t)
	_, err := wf.SubmitEmail("maria@ucl.ac.uk")
	require.NoError(t, err)

	snap := wf.Snapshot()
	empty := NewDirectory(nil)
	_, err = Restore(snap, empty, up)
	assert.Error(t, err)
}
