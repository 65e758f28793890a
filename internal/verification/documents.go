package verification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/LusoHub/verification_service/internal/interfaces"
	"github.com/LusoHub/verification_service/pkg/utils"
	"github.com/google/uuid"
)

const (
	MaxDocumentBytes = 5 * 1024 * 1024 // 5 MiB

	documentFolder = "verify/documents"
	uploadTimeout  = 60 * time.Second
)

var allowedMimes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// documentOrder fixes the iteration order of the set.
var documentOrder = []domain.DocumentType{
	domain.DocumentTypeStudentID,
	domain.DocumentTypeEnrollmentLetter,
	domain.DocumentTypeTuitionReceipt,
	domain.DocumentTypeTranscript,
}

// DocumentRecord tracks one uploaded evidence file. Progress follows the
// actual transfer: it advances as the uploader consumes bytes and reaches
// 100 only when the transport reports success.
type DocumentRecord struct {
	ID       string              `json:"id"`
	Type     domain.DocumentType `json:"type"`
	FileName string              `json:"file_name"`
	FileSize int64               `json:"file_size"`
	MimeType string              `json:"mime_type"`
	FileURL  string              `json:"file_url,omitempty"`
	Progress int                 `json:"upload_progress"`
	Verified bool                `json:"verified"`
	Err      string              `json:"error,omitempty"`
}

// DocumentSet is the in-progress document collection of a single workflow
// instance. At most one record per type; a new ingest for an existing type
// discards the prior record entirely. The set is never shared across
// instances.
type DocumentSet struct {
	mu       sync.Mutex
	records  map[domain.DocumentType]*DocumentRecord
	uploader interfaces.Uploader
	wg       sync.WaitGroup
	pending  int

	onResolve func()
}

func NewDocumentSet(up interfaces.Uploader) *DocumentSet {
	return &DocumentSet{
		records:  make(map[domain.DocumentType]*DocumentRecord),
		uploader: up,
	}
}

// OnResolve registers a callback invoked, outside the set's lock, each time
// an in-flight upload resolves. Callers use it to persist state that would
// otherwise only be written on the next user action.
func (s *DocumentSet) OnResolve(fn func()) {
	s.mu.Lock()
	s.onResolve = fn
	s.mu.Unlock()
}

// Ingest validates the file and, on acceptance, replaces any prior record of
// the same type and starts the upload. A rejected file never touches the
// set: the prior record of that type stays as it was.
func (s *DocumentSet) Ingest(docType, fileName string, data []byte) (DocumentRecord, error) {
	typ, ok := domain.ParseDocumentType(docType)
	if !ok {
		return DocumentRecord{}, domain.NewWorkflowError(domain.ErrDocumentRejected, "doc_type",
			fmt.Sprintf("unknown document type %q", docType))
	}
	if len(data) == 0 {
		return DocumentRecord{}, domain.NewWorkflowError(domain.ErrDocumentRejected, "file", "file is empty")
	}
	if int64(len(data)) > MaxDocumentBytes {
		return DocumentRecord{}, domain.NewWorkflowError(domain.ErrDocumentRejected, "file", "file too large (max 5 MiB)")
	}
	mime := utils.DetectMime(data)
	if !allowedMimes[mime] {
		return DocumentRecord{}, domain.NewWorkflowError(domain.ErrDocumentRejected, "file",
			fmt.Sprintf("unsupported file type %s (pdf, jpeg or png only)", mime))
	}

	rec := &DocumentRecord{
		ID:       uuid.NewString(),
		Type:     typ,
		FileName: fileName,
		FileSize: int64(len(data)),
		MimeType: mime,
	}

	s.mu.Lock()
	s.records[typ] = rec // last write wins, prior record discarded
	s.pending++
	out := *rec // copied before the upload goroutine can touch rec
	s.mu.Unlock()

	s.wg.Add(1)
	go s.upload(rec, data)

	return out, nil
}

func (s *DocumentSet) upload(rec *DocumentRecord, data []byte) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	r := &progressReader{r: bytes.NewReader(data), total: rec.FileSize, set: s, rec: rec}
	url, err := s.uploader.UploadStream(ctx, documentFolder, rec.ID, r)

	s.mu.Lock()
	s.pending--
	if err != nil {
		rec.Err = err.Error()
	} else {
		rec.FileURL = url
		rec.Progress = 100
		rec.Verified = true
	}
	cb := s.onResolve
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// progressReader advances the record's progress as the uploader drains it,
// capping at 99 until the transfer actually succeeds.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	set   *DocumentSet
	rec   *DocumentRecord
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		p.set.mu.Lock()
		if !p.rec.Verified && p.rec.Err == "" {
			p.rec.Progress = pct
		}
		p.set.mu.Unlock()
	}
	return n, err
}

// Records returns copies of all records in fixed type order, resolved or
// not.
func (s *DocumentSet) Records() []DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DocumentRecord, 0, len(s.records))
	for _, typ := range documentOrder {
		if rec, ok := s.records[typ]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// VerifiedRecords returns only the records usable for submission.
func (s *DocumentSet) VerifiedRecords() []DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DocumentRecord, 0, len(s.records))
	for _, typ := range documentOrder {
		if rec, ok := s.records[typ]; ok && rec.Verified {
			out = append(out, *rec)
		}
	}
	return out
}

// Pending reports how many uploads are still in flight.
func (s *DocumentSet) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Wait blocks until every in-flight upload has resolved.
func (s *DocumentSet) Wait() {
	s.wg.Wait()
}

// restore seeds the set with records recovered from a snapshot. Only
// resolved records are snapshotted, so nothing here is in flight.
func (s *DocumentSet) restore(records []DocumentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		rec := records[i]
		s.records[rec.Type] = &rec
	}
}
