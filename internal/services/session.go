package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/rallycoach/internal/models"
	"alfredoptarigan/rallycoach/internal/repositories"
)

// LogCapacity is the number of most recent log lines a session keeps.
const LogCapacity = 16

const cancelledByReset = "Run cancelled by reset"

type SessionOptions struct {
	// InitialProgress is shown as soon as a file is accepted.
	InitialProgress int
	// ProgressCeiling bounds the indeterminate progress until an outcome exists.
	ProgressCeiling  int
	ProgressInterval time.Duration
	// Timeout bounds one run. Zero means no deadline.
	Timeout time.Duration
}

func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		InitialProgress:  15,
		ProgressCeiling:  90,
		ProgressInterval: 1200 * time.Millisecond,
		Timeout:          5 * time.Minute,
	}
}

// SessionState is a copy of everything needed to render the session.
type SessionState struct {
	RunID    uuid.UUID
	Status   models.ProcessingStatus
	Progress int
	Logs     []string
	Result   *models.AnalysisResult
	Error    string
	Metadata *models.VideoMetadata
}

func (st SessionState) Response() models.SessionResponse {
	resp := models.SessionResponse{
		Status:   st.Status,
		Progress: st.Progress,
		Logs:     st.Logs,
		Result:   st.Result,
		Error:    st.Error,
		Metadata: st.Metadata,
	}
	if st.RunID != uuid.Nil {
		resp.RunID = st.RunID.String()
	}
	return resp
}

// Session drives one upload at a time from IDLE to COMPLETED or ERROR.
//
// Start is refused with ErrRunInProgress unless the session is IDLE. Reset is
// allowed in every state; it cancels an in-flight request and discards its
// outcome.
type Session interface {
	Start(video VideoInput) error
	Reset()
	Snapshot() SessionState
	Wait(ctx context.Context) (SessionState, error)
}

type session struct {
	acquirer ReportAcquirer
	runRepo  repositories.RunRepository
	opts     SessionOptions

	mu       sync.Mutex
	status   models.ProcessingStatus
	progress int
	logs     []string
	result   *models.AnalysisResult
	errMsg   string
	metadata *models.VideoMetadata
	runID    uuid.UUID

	// gen identifies the current run; goroutines of older runs see a
	// mismatch and leave the record alone.
	gen      uint64
	cancel   context.CancelFunc
	stopTick chan struct{}
	done     chan struct{}
	cleanup  func()
}

// NewSession creates an idle session. runRepo may be nil to disable history.
func NewSession(acquirer ReportAcquirer, runRepo repositories.RunRepository, opts SessionOptions) Session {
	defaults := DefaultSessionOptions()
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = defaults.ProgressInterval
	}
	if opts.ProgressCeiling <= 0 || opts.ProgressCeiling >= 100 {
		opts.ProgressCeiling = defaults.ProgressCeiling
	}
	if opts.InitialProgress < 0 || opts.InitialProgress > opts.ProgressCeiling {
		opts.InitialProgress = defaults.InitialProgress
	}

	return &session{
		acquirer: acquirer,
		runRepo:  runRepo,
		opts:     opts,
		status:   models.StatusIdle,
	}
}

// Start implements Session.
func (s *session) Start(video VideoInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusIdle {
		return ErrRunInProgress
	}

	s.clearLocked()

	meta := video.Metadata
	s.metadata = &meta
	s.status = models.StatusUploading
	s.progress = s.opts.InitialProgress
	s.runID = uuid.New()
	s.gen++

	s.addLogLocked(fmt.Sprintf("INIT: Received file %s", meta.Name))
	s.addLogLocked(fmt.Sprintf("SYS: Connecting to %s worker...", s.acquirer.Name()))

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s.cancel = cancel
	s.stopTick = make(chan struct{})
	s.done = make(chan struct{})
	s.cleanup = video.Cleanup

	go s.tick(s.gen, s.stopTick)
	go s.run(ctx, s.gen, s.runID, video)

	log.Printf("🎾 Run %s started for %s (%d bytes)\n", s.runID, meta.Name, meta.Size)
	return nil
}

// Reset implements Session.
func (s *session) Reset() {
	s.mu.Lock()
	wasActive := s.status.IsActive()
	runID := s.runID
	cleanup := s.endRunLocked()
	s.gen++
	s.clearLocked()
	s.status = models.StatusIdle
	s.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}

	if wasActive {
		log.Printf("🛑 Run %s cancelled by reset\n", runID)
	}
}

// Snapshot implements Session.
func (s *session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Wait implements Session.
func (s *session) Wait(ctx context.Context) (SessionState, error) {
	s.mu.Lock()
	if !s.status.IsActive() {
		st := s.snapshotLocked()
		s.mu.Unlock()
		return st, nil
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// run owns every history write of its run, so they reach the repository in
// order even when Reset races with it.
func (s *session) run(ctx context.Context, gen uint64, runID uuid.UUID, video VideoInput) {
	s.recordStart(runID, video.Metadata)

	if !s.advance(gen, models.StatusInference, "AI: Upload dispatched. Waiting for inference...") {
		s.recordFailure(runID, cancelledByReset)
		return
	}
	s.recordStatus(runID, models.StatusInference)

	result, err := s.acquirer.Acquire(ctx, video)
	if err == nil && result == nil {
		err = fmt.Errorf("%w: empty result", ErrInvalidPayload)
	}

	if err == nil {
		s.advance(gen, models.StatusAnalyzing, "AI: Indexing complete. Generating report...")
	}

	s.finish(gen, runID, result, err)
}

// advance moves an active run forward; it reports false for stale runs.
func (s *session) advance(gen uint64, status models.ProcessingStatus, line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.status.IsActive() {
		return false
	}
	s.status = status
	s.addLogLocked(line)
	return true
}

func (s *session) finish(gen uint64, runID uuid.UUID, result *models.AnalysisResult, err error) {
	s.mu.Lock()
	if gen != s.gen || !s.status.IsActive() {
		s.mu.Unlock()
		s.recordFailure(runID, cancelledByReset)
		return
	}

	cleanup := s.endRunLocked()

	var msg string
	if err != nil {
		msg = ErrorMessage(err)
		s.status = models.StatusError
		s.errMsg = msg
		s.addLogLocked("ERR: " + msg)
	} else {
		s.status = models.StatusCompleted
		s.progress = 100
		s.result = result
		s.addLogLocked("SYS: Pipeline execution success.")
	}
	s.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}

	if err != nil {
		log.Printf("❌ Run %s failed: %v\n", runID, err)
		s.recordFailure(runID, msg)
		return
	}

	log.Printf("✅ Run %s completed\n", runID)
	s.recordResult(runID, result)
}

func (s *session) tick(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if gen != s.gen || !s.status.IsActive() {
				s.mu.Unlock()
				return
			}
			if s.progress < s.opts.ProgressCeiling {
				s.progress++
			}
			s.mu.Unlock()
		}
	}
}

// endRunLocked stops the ticker, cancels the request and wakes waiters. The
// returned cleanup must be called without the lock held.
func (s *session) endRunLocked() func() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	cleanup := s.cleanup
	s.cleanup = nil
	return cleanup
}

func (s *session) clearLocked() {
	s.progress = 0
	s.logs = nil
	s.result = nil
	s.errMsg = ""
	s.metadata = nil
	s.runID = uuid.Nil
}

func (s *session) addLogLocked(line string) {
	s.logs = append(s.logs, line)
	if over := len(s.logs) - LogCapacity; over > 0 {
		s.logs = append([]string(nil), s.logs[over:]...)
	}
}

func (s *session) snapshotLocked() SessionState {
	st := SessionState{
		RunID:    s.runID,
		Status:   s.status,
		Progress: s.progress,
		Logs:     append([]string{}, s.logs...),
		Result:   s.result,
		Error:    s.errMsg,
	}
	if s.metadata != nil {
		meta := *s.metadata
		st.Metadata = &meta
	}
	return st
}

func (s *session) recordStart(runID uuid.UUID, meta models.VideoMetadata) {
	if s.runRepo == nil {
		return
	}
	run := &models.Run{
		ID:       runID,
		FileName: meta.Name,
		FileSize: meta.Size,
		Strategy: s.acquirer.Name(),
		Status:   models.StatusUploading,
	}
	if err := s.runRepo.Create(run); err != nil {
		log.Printf("⚠️  Failed to record run %s: %v\n", runID, err)
	}
}

func (s *session) recordStatus(runID uuid.UUID, status models.ProcessingStatus) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.UpdateStatus(runID, status); err != nil {
		log.Printf("⚠️  Failed to update run %s status: %v\n", runID, err)
	}
}

func (s *session) recordResult(runID uuid.UUID, result *models.AnalysisResult) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.UpdateResult(runID, result); err != nil {
		log.Printf("⚠️  Failed to record result of run %s: %v\n", runID, err)
	}
}

func (s *session) recordFailure(runID uuid.UUID, msg string) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.UpdateError(runID, msg); err != nil {
		log.Printf("⚠️  Failed to record failure of run %s: %v\n", runID, err)
	}
}
