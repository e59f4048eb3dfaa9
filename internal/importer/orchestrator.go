package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is a step of the upload flow.
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateDecoding     State = "decoding"
	StatePreviewing   State = "previewing"
	StateUploading    State = "uploading"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

const (
	DefaultUploadTimeout       = 15 * time.Minute
	DefaultLargeBatchThreshold = 100
	PreviewSize                = 3
)

// Operator-facing messages.
const (
	TimeoutMessage        = "The upload timed out before the server answered. Split the file into smaller batches of 200-300 records and upload them one at a time."
	networkFailureMessage = "The upload failed before the server returned a result (%v). Check the connection and try again."
	largeBatchNotice      = "This batch has %d records. Large imports can take several minutes, keep the session open until the upload finishes."
)

// BatchImporter submits one batch to the backend. A response that carries an
// import result, including a validation failure, is returned without error.
type BatchImporter interface {
	ImportBatch(ctx context.Context, kind EntityKind, records []Record) (*ImportResult, error)
}

// RefreshFunc runs after a batch the backend reports as successful.
type RefreshFunc func(ctx context.Context, kind EntityKind, result *ImportResult)

type Config struct {
	Kind                EntityKind
	Importer            BatchImporter
	Decode              DecodeOptions
	MaxFileBytes        int64
	UploadTimeout       time.Duration
	LargeBatchThreshold int
	OnRefresh           RefreshFunc
	Logger              logrus.FieldLogger
}

type selectedFile struct {
	name   string
	format FileFormat
	data   []byte
}

// Orchestrator drives one import session:
// idle -> file selected -> decoding -> previewing -> uploading -> completed | failed.
// Only one upload can be in flight. Cancel returns to idle from any state.
type Orchestrator struct {
	mu  sync.Mutex
	cfg Config

	state      State
	file       *selectedFile
	records    []Record
	result     *ImportResult
	errMsg     string
	notices    []string
	generation uint64
	touchedAt  time.Time
}

func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.LargeBatchThreshold <= 0 {
		cfg.LargeBatchThreshold = DefaultLargeBatchThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	cfg.Logger = cfg.Logger.WithField("entity_kind", cfg.Kind)
	return &Orchestrator{cfg: cfg, state: StateIdle, touchedAt: time.Now()}
}

func (o *Orchestrator) Kind() EntityKind {
	return o.cfg.Kind
}

// SelectFile holds a chosen file. Files with an unsupported extension or
// over the size limit are rejected and the session stays idle.
func (o *Orchestrator) SelectFile(name string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateUploading || o.state == StateDecoding {
		return fmt.Errorf("%w: cannot select a file while %s", ErrInvalidTransition, o.state)
	}

	o.resetLocked()

	format, err := DetectFormat(name)
	if err == nil && o.cfg.MaxFileBytes > 0 && int64(len(data)) > o.cfg.MaxFileBytes {
		err = fmt.Errorf("%w (%d bytes, limit %d)", ErrFileTooLarge, len(data), o.cfg.MaxFileBytes)
	}
	if err != nil {
		o.errMsg = err.Error()
		return err
	}

	o.file = &selectedFile{name: name, format: format, data: data}
	o.state = StateFileSelected
	return nil
}

// Decode parses the selected file. On failure the file is discarded and the
// session returns to idle; on success the first records become the preview.
func (o *Orchestrator) Decode() error {
	o.mu.Lock()
	if o.state != StateFileSelected {
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("%w: decode requires a selected file, session is %s", ErrInvalidTransition, state)
	}
	file := o.file
	gen := o.generation
	o.state = StateDecoding
	o.touchLocked()
	o.mu.Unlock()

	records, err := DecodeFile(file.name, file.data, o.cfg.Kind, o.cfg.Decode)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		return ErrCancelled
	}
	if err != nil {
		o.resetLocked()
		o.errMsg = err.Error()
		o.cfg.Logger.WithError(err).WithField("file", file.name).Info("Import file rejected")
		return err
	}

	o.records = records
	o.file.data = nil
	o.notices = o.batchNotices(len(records))
	o.state = StatePreviewing
	o.cfg.Logger.WithFields(logrus.Fields{
		"file":    file.name,
		"records": len(records),
	}).Info("Import file decoded")
	return nil
}

// batchNotices returns the advisory shown for batches over the threshold,
// both while previewing and once the upload starts.
func (o *Orchestrator) batchNotices(n int) []string {
	if n <= o.cfg.LargeBatchThreshold {
		return nil
	}
	return []string{fmt.Sprintf(largeBatchNotice, n)}
}

// Load selects and decodes in one step.
func (o *Orchestrator) Load(name string, data []byte) error {
	if err := o.SelectFile(name, data); err != nil {
		return err
	}
	return o.Decode()
}

// Submit sends the decoded records as one batch and waits for the outcome.
// It is only allowed from previewing, or from failed to retry with the
// records still in memory.
func (o *Orchestrator) Submit(ctx context.Context) (*ImportResult, error) {
	up, err := o.beginUpload()
	if err != nil {
		return nil, err
	}
	return o.runUpload(ctx, up)
}

// SubmitAsync performs the same transition checks as Submit, then runs the
// upload on its own goroutine. done, if set, receives the outcome.
func (o *Orchestrator) SubmitAsync(ctx context.Context, done func(*ImportResult, error)) error {
	up, err := o.beginUpload()
	if err != nil {
		return err
	}
	go func() {
		result, err := o.runUpload(ctx, up)
		if done != nil {
			done(result, err)
		}
	}()
	return nil
}

type upload struct {
	records    []Record
	generation uint64
}

func (o *Orchestrator) beginUpload() (upload, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateUploading:
		return upload{}, ErrUploadInFlight
	case StatePreviewing, StateFailed:
	default:
		return upload{}, fmt.Errorf("%w: nothing to upload while %s", ErrInvalidTransition, o.state)
	}
	if o.cfg.Importer == nil {
		return upload{}, fmt.Errorf("%w: no backend configured", ErrTransport)
	}

	o.state = StateUploading
	o.errMsg = ""
	o.result = nil
	o.notices = o.batchNotices(len(o.records))
	o.touchLocked()
	return upload{records: o.records, generation: o.generation}, nil
}

func (o *Orchestrator) runUpload(ctx context.Context, up upload) (*ImportResult, error) {
	log := o.cfg.Logger.WithField("records", len(up.records))
	log.Info("Submitting import batch")

	uploadCtx, cancel := context.WithTimeout(ctx, o.cfg.UploadTimeout)
	defer cancel()

	started := time.Now()
	result, err := o.cfg.Importer.ImportBatch(uploadCtx, o.cfg.Kind, up.records)
	if err == nil && result == nil {
		err = fmt.Errorf("%w: empty response", ErrTransport)
	}
	if err != nil && !errors.Is(err, ErrUploadTimeout) && errors.Is(uploadCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrUploadTimeout, err)
	}
	o.observe(started, result, err)

	o.mu.Lock()
	if up.generation != o.generation {
		o.mu.Unlock()
		log.Info("Discarding upload response for cancelled session")
		return nil, ErrCancelled
	}

	if err != nil {
		o.state = StateFailed
		if errors.Is(err, ErrUploadTimeout) {
			o.errMsg = TimeoutMessage
		} else {
			o.errMsg = fmt.Sprintf(networkFailureMessage, err)
		}
		o.touchLocked()
		o.mu.Unlock()
		log.WithError(err).Warn("Import batch failed without a result")
		return nil, err
	}

	o.state = StateCompleted
	o.result = result
	o.touchLocked()
	o.mu.Unlock()

	log.WithFields(logrus.Fields{
		"success":  result.Success,
		"imported": result.Summary.Imported,
		"skipped":  result.Summary.Skipped,
		"failed":   result.Summary.Failed,
	}).Info("Import batch completed")

	if result.Success && o.cfg.OnRefresh != nil {
		o.cfg.OnRefresh(ctx, o.cfg.Kind, result)
	}
	return result, nil
}

func (o *Orchestrator) observe(started time.Time, result *ImportResult, err error) {
	m := getMetrics()
	kind := string(o.cfg.Kind)
	outcome := "completed"
	switch {
	case errors.Is(err, ErrUploadTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "transport_error"
	case !result.Success:
		outcome = "rejected"
	}
	m.uploadTotal.WithLabelValues(kind, outcome).Inc()
	m.uploadLatency.WithLabelValues(kind, outcome).Observe(time.Since(started).Seconds())
	if result != nil {
		m.importedRecords.WithLabelValues(kind, "imported").Add(float64(result.Summary.Imported))
		m.importedRecords.WithLabelValues(kind, "skipped").Add(float64(result.Summary.Skipped))
		m.importedRecords.WithLabelValues(kind, "failed").Add(float64(result.Summary.Failed))
	}
}

// Cancel discards the file, the decoded records and any result. A response
// still in flight is dropped when it arrives.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
	o.resetLocked()
}

func (o *Orchestrator) resetLocked() {
	o.state = StateIdle
	o.file = nil
	o.records = nil
	o.result = nil
	o.errMsg = ""
	o.notices = nil
	o.touchLocked()
}

func (o *Orchestrator) touchLocked() {
	o.touchedAt = time.Now()
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastActivity is the time of the last state change.
func (o *Orchestrator) LastActivity() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.touchedAt
}

// Records returns the decoded batch.
func (o *Orchestrator) Records() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.records
}

// Preview returns up to the first three decoded records.
func (o *Orchestrator) Preview() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return previewOf(o.records)
}

func previewOf(records []Record) []Record {
	if len(records) > PreviewSize {
		return records[:PreviewSize]
	}
	return records
}

// Snapshot is a point-in-time view of a session for rendering.
type Snapshot struct {
	Kind        EntityKind    `json:"entity_kind"`
	State       State         `json:"state"`
	FileName    string        `json:"file_name,omitempty"`
	Format      FileFormat    `json:"format,omitempty"`
	RecordCount int           `json:"record_count"`
	Preview     []Record      `json:"preview,omitempty"`
	Notices     []string      `json:"notices,omitempty"`
	Error       string        `json:"error,omitempty"`
	Result      *ImportResult `json:"result,omitempty"`
	Report      *Report       `json:"report,omitempty"`
	CanSubmit   bool          `json:"can_submit"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		Kind:        o.cfg.Kind,
		State:       o.state,
		RecordCount: len(o.records),
		Preview:     previewOf(o.records),
		Notices:     append([]string(nil), o.notices...),
		Error:       o.errMsg,
		Result:      o.result,
		CanSubmit:   (o.state == StatePreviewing || o.state == StateFailed) && len(o.records) > 0,
		UpdatedAt:   o.touchedAt,
	}
	if o.file != nil {
		s.FileName = o.file.name
		s.Format = o.file.format
	}
	if o.result != nil {
		rep := BuildReport(o.result)
		s.Report = &rep
	}
	return s
}

// Summary is a one-line description of a snapshot, used in logs and the CLI.
func (s Snapshot) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s import: %s", s.Kind, s.State)
	if s.FileName != "" {
		fmt.Fprintf(&b, " (%s, %d records)", s.FileName, s.RecordCount)
	}
	if s.Error != "" {
		fmt.Fprintf(&b, ": %s", s.Error)
	}
	return b.String()
}
