package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"estate-admin/internal/importer"
	"estate-admin/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound    = errors.New("import session not found")
	ErrHistoryUnavailable = errors.New("import history is not available (database not connected)")
)

// SessionStore persists the audit trail of import sessions.
type SessionStore interface {
	CreateSession(session *models.ImportSession) error
	UpdateSession(session *models.ImportSession) error
	GetSessionByCode(code string) (*models.ImportSession, error)
	ListSessions(limit, offset int, entityKind, status string) ([]models.ImportSession, int, error)
}

// SnapshotCache keeps the last view of a session after it leaves memory.
type SnapshotCache interface {
	Save(ctx context.Context, code string, snap importer.Snapshot) error
	Load(ctx context.Context, code string) (*importer.Snapshot, error)
}

// RefreshQueue schedules the post-import catalog refresh.
type RefreshQueue interface {
	EnqueueRefresh(ctx context.Context, kind importer.EntityKind, sessionCode string) error
}

type ImportOptions struct {
	MaxRows             int
	MaxFileBytes        int64
	UploadTimeout       time.Duration
	LargeBatchThreshold int
	CoercionPolicy      importer.CoercionPolicy
	SessionTTL          time.Duration
}

type importSession struct {
	code      string
	userID    int
	orch      *importer.Orchestrator
	audit     *models.ImportSession
	createdAt time.Time
}

// ImportService owns the live import sessions of the admin API. Sessions are
// independent; each wraps its own orchestrator.
type ImportService struct {
	mu       sync.Mutex
	sessions map[string]*importSession

	importer importer.BatchImporter
	store    SessionStore
	cache    SnapshotCache
	refresh  RefreshQueue
	opts     ImportOptions
	logger   logrus.FieldLogger
}

// NewImportService wires the service. store, cache and refresh may be nil;
// the matching side effect is then skipped.
func NewImportService(
	batchImporter importer.BatchImporter,
	store SessionStore,
	cache SnapshotCache,
	refresh RefreshQueue,
	opts ImportOptions,
	logger logrus.FieldLogger,
) *ImportService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImportService{
		sessions: make(map[string]*importSession),
		importer: batchImporter,
		store:    store,
		cache:    cache,
		refresh:  refresh,
		opts:     opts,
		logger:   logger,
	}
}

func newSessionCode() string {
	return fmt.Sprintf("IMPORT-%s", uuid.New().String()[:8])
}

// Open starts an idle session for kind.
func (s *ImportService) Open(kind importer.EntityKind, userID int) (string, importer.Snapshot, error) {
	if !kind.Valid() {
		return "", importer.Snapshot{}, fmt.Errorf("unknown entity kind %q", kind)
	}

	code := newSessionCode()
	log := s.logger.WithFields(logrus.Fields{"session_code": code, "user_id": userID})

	sess := &importSession{code: code, userID: userID, createdAt: time.Now()}
	sess.orch = importer.NewOrchestrator(importer.Config{
		Kind:     kind,
		Importer: s.importer,
		Decode: importer.DecodeOptions{
			MaxRows:    s.opts.MaxRows,
			Normalizer: importer.NewNormalizer(s.opts.CoercionPolicy, log),
		},
		MaxFileBytes:        s.opts.MaxFileBytes,
		UploadTimeout:       s.opts.UploadTimeout,
		LargeBatchThreshold: s.opts.LargeBatchThreshold,
		OnRefresh:           s.refreshFunc(code),
		Logger:              log,
	})

	s.mu.Lock()
	s.sessions[code] = sess
	s.mu.Unlock()

	log.WithField("entity_kind", kind).Info("Import session opened")
	return code, sess.orch.Snapshot(), nil
}

func (s *ImportService) session(code string) (*importSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// AttachFile selects and decodes a file. Input errors leave the session idle
// and are returned together with the snapshot that describes them.
func (s *ImportService) AttachFile(code, filename string, data []byte) (importer.Snapshot, error) {
	sess, err := s.session(code)
	if err != nil {
		return importer.Snapshot{}, err
	}

	if err := sess.orch.Load(filename, data); err != nil {
		return sess.orch.Snapshot(), err
	}

	snap := sess.orch.Snapshot()
	s.recordPreview(sess, snap)
	return snap, nil
}

func (s *ImportService) recordPreview(sess *importSession, snap importer.Snapshot) {
	if s.store == nil {
		return
	}

	s.mu.Lock()
	audit := sess.audit
	s.mu.Unlock()

	log := s.logger.WithField("session_code", sess.code)
	if audit == nil {
		audit = &models.ImportSession{
			SessionCode:  sess.code,
			UserID:       sess.userID,
			EntityKind:   string(snap.Kind),
			Filename:     snap.FileName,
			Format:       string(snap.Format),
			TotalRecords: snap.RecordCount,
			Status:       models.ImportStatusPreviewing,
		}
		if err := s.store.CreateSession(audit); err != nil {
			log.WithError(err).Warn("Failed to record import session")
			return
		}
		s.mu.Lock()
		sess.audit = audit
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	audit.Filename = snap.FileName
	audit.Format = string(snap.Format)
	audit.TotalRecords = snap.RecordCount
	audit.Imported, audit.Skipped, audit.Failed = 0, 0, 0
	audit.Status = models.ImportStatusPreviewing
	audit.Message = ""
	audit.CompletedAt = nil
	row := *audit
	s.mu.Unlock()
	if err := s.store.UpdateSession(&row); err != nil {
		log.WithError(err).Warn("Failed to update import session")
	}
}

// Get returns the live snapshot, falling back to the cached one for sessions
// that were already evicted.
func (s *ImportService) Get(ctx context.Context, code string) (importer.Snapshot, error) {
	if sess, err := s.session(code); err == nil {
		return sess.orch.Snapshot(), nil
	}
	if s.cache != nil {
		snap, err := s.cache.Load(ctx, code)
		if err == nil && snap != nil {
			return *snap, nil
		}
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.logger.WithError(err).WithField("session_code", code).Warn("Failed to load cached import snapshot")
		}
	}
	return importer.Snapshot{}, ErrSessionNotFound
}

// Submit starts the upload in the background and returns once the session
// has entered the uploading state.
func (s *ImportService) Submit(code string) (importer.Snapshot, error) {
	sess, err := s.session(code)
	if err != nil {
		return importer.Snapshot{}, err
	}

	// the outcome must not be written before the uploading status
	started := make(chan struct{})
	err = sess.orch.SubmitAsync(context.Background(), func(result *importer.ImportResult, err error) {
		<-started
		s.finish(sess, result, err)
	})
	if err != nil {
		return sess.orch.Snapshot(), err
	}

	snap := sess.orch.Snapshot()
	s.updateAudit(sess, func(a *models.ImportSession) {
		a.Status = models.ImportStatusUploading
	})
	close(started)
	return snap, nil
}

func (s *ImportService) finish(sess *importSession, result *importer.ImportResult, err error) {
	if errors.Is(err, importer.ErrCancelled) {
		return
	}

	snap := sess.orch.Snapshot()
	now := time.Now()
	s.updateAudit(sess, func(a *models.ImportSession) {
		a.CompletedAt = &now
		if err != nil {
			a.Status = models.ImportStatusFailed
			a.Message = snap.Error
			return
		}
		a.Status = models.ImportStatusCompleted
		a.Imported = result.Summary.Imported
		a.Skipped = result.Summary.Skipped
		a.Failed = result.Summary.Failed
		a.Message = importer.BuildReport(result).Toast
		if a.Message == "" {
			a.Message = result.Message
		}
	})
	s.saveSnapshot(sess.code, snap)
}

func (s *ImportService) updateAudit(sess *importSession, mutate func(*models.ImportSession)) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	if sess.audit == nil {
		s.mu.Unlock()
		return
	}
	mutate(sess.audit)
	row := *sess.audit
	s.mu.Unlock()

	if err := s.store.UpdateSession(&row); err != nil {
		s.logger.WithError(err).WithField("session_code", sess.code).Warn("Failed to update import session")
	}
}

func (s *ImportService) saveSnapshot(code string, snap importer.Snapshot) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Save(ctx, code, snap); err != nil {
		s.logger.WithError(err).WithField("session_code", code).Warn("Failed to cache import snapshot")
	}
}

func (s *ImportService) refreshFunc(code string) importer.RefreshFunc {
	return func(ctx context.Context, kind importer.EntityKind, _ *importer.ImportResult) {
		if s.refresh == nil {
			return
		}
		if err := s.refresh.EnqueueRefresh(ctx, kind, code); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"session_code": code,
				"entity_kind":  kind,
			}).Warn("Failed to enqueue catalog refresh")
		}
	}
}

// Cancel discards the session's file, records and result. A response still
// in flight is dropped.
func (s *ImportService) Cancel(code string) (importer.Snapshot, error) {
	sess, err := s.session(code)
	if err != nil {
		return importer.Snapshot{}, err
	}

	wasActive := sess.orch.State() != importer.StateIdle
	sess.orch.Cancel()
	if wasActive {
		s.updateAudit(sess, func(a *models.ImportSession) {
			if a.Status != models.ImportStatusCompleted {
				a.Status = models.ImportStatusCancelled
			}
		})
	}
	s.logger.WithField("session_code", code).Info("Import session cancelled")
	return sess.orch.Snapshot(), nil
}

// History returns one page of import sessions, newest first.
func (s *ImportService) History(page, limit int, entityKind, status string) ([]models.ImportSession, int, error) {
	if s.store == nil {
		return nil, 0, ErrHistoryUnavailable
	}
	return s.store.ListSessions(limit, (page-1)*limit, entityKind, status)
}

// maxExportedSessions bounds a history export.
const maxExportedSessions = 10000

// ExportHistory renders the filtered history as a spreadsheet.
func (s *ImportService) ExportHistory(entityKind, status string) ([]byte, error) {
	if s.store == nil {
		return nil, ErrHistoryUnavailable
	}
	sessions, _, err := s.store.ListSessions(maxExportedSessions, 0, entityKind, status)
	if err != nil {
		return nil, err
	}
	return HistoryWorkbook(sessions)
}

// EvictIdle drops sessions untouched for longer than the session TTL. A
// session with an upload in flight is never evicted. Evicted sessions stay
// readable through the snapshot cache.
func (s *ImportService) EvictIdle(now time.Time) int {
	var evicted []*importSession

	s.mu.Lock()
	for code, sess := range s.sessions {
		if sess.orch.State() == importer.StateUploading {
			continue
		}
		if now.Sub(sess.orch.LastActivity()) > s.opts.SessionTTL {
			evicted = append(evicted, sess)
			delete(s.sessions, code)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		s.saveSnapshot(sess.code, sess.orch.Snapshot())
	}
	if len(evicted) > 0 {
		s.logger.WithField("evicted", len(evicted)).Info("Evicted idle import sessions")
	}
	return len(evicted)
}

// RunJanitor evicts idle sessions until ctx is done.
func (s *ImportService) RunJanitor(ctx context.Context) {
	interval := s.opts.SessionTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.EvictIdle(now)
		}
	}
}

// ActiveSessions reports how many sessions are held in memory.
func (s *ImportService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
