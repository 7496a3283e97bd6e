// Package toggle implements the two-invocation recording lifecycle: the
// first call starts a detached capture pipeline, the second stops it,
// post-processes the audio, transcribes it, and commits the text.
package toggle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/fsm"
	"github.com/murmur-dev/murmur/internal/indicator"
	"github.com/murmur-dev/murmur/internal/pipeline"
	"github.com/murmur-dev/murmur/internal/session"
	"github.com/murmur-dev/murmur/internal/transcribe"
)

// Prober reports what the capture device can produce.
type Prober interface {
	Probe(ctx context.Context, device string) audio.Capabilities
}

// Starter launches the detached capture pipeline.
type Starter interface {
	Start(ctx context.Context, sess session.Session) (pipeline.Started, error)
}

// Normalizer post-processes finished audio and returns the file to transcribe.
type Normalizer interface {
	Normalize(ctx context.Context, sess session.Session) string
}

// Supervisor shuts pipeline children down and classifies dead sessions.
type Supervisor interface {
	Stop(ctx context.Context, sess session.Session) error
	Stale(sess session.Session) bool
}

// Clipboard commits the transcript file to the system clipboard.
type Clipboard interface {
	CommitFile(ctx context.Context, path string) error
}

// Result is what one toggle invocation did.
type Result struct {
	State      fsm.State
	Message    string
	Transcript string
	Err        error
}

// Controller orchestrates one toggle invocation end to end.
type Controller struct {
	cfg    config.Config
	logger *slog.Logger

	store      *session.Store
	lockDir    string
	workDir    string
	prober     Prober
	starter    Starter
	normalizer Normalizer
	supervisor Supervisor
	backend    transcribe.Backend
	clipboard  Clipboard
	notifier   indicator.Notifier
	sweep      func(workDir string, logger *slog.Logger) int
	now        func() time.Time
}

// Deps bundles the collaborators so construction sites stay readable.
type Deps struct {
	Store      *session.Store
	LockDir    string
	WorkDir    string
	Prober     Prober
	Starter    Starter
	Normalizer Normalizer
	Supervisor Supervisor
	Backend    transcribe.Backend
	Clipboard  Clipboard
	Notifier   indicator.Notifier
}

func NewController(cfg config.Config, logger *slog.Logger, deps Deps) *Controller {
	c := &Controller{
		cfg:        cfg,
		logger:     logger,
		store:      deps.Store,
		lockDir:    deps.LockDir,
		workDir:    deps.WorkDir,
		prober:     deps.Prober,
		starter:    deps.Starter,
		normalizer: deps.Normalizer,
		supervisor: deps.Supervisor,
		backend:    deps.Backend,
		clipboard:  deps.Clipboard,
		notifier:   deps.Notifier,
		sweep:      pipeline.Sweep,
		now:        time.Now,
	}
	if c.notifier == nil {
		c.notifier = indicator.Noop{}
	}
	return c
}

// Toggle runs one invocation. Whether it starts or stops depends solely on
// the session store: absent means start, present means stop.
func (c *Controller) Toggle(ctx context.Context) Result {
	lock, err := session.AcquireLock(c.lockDir)
	if err != nil {
		return Result{State: fsm.StateIdle, Err: err}
	}
	defer lock.Release()

	sess, active, err := c.store.Load()
	if err != nil {
		return Result{State: fsm.StateIdle, Err: err}
	}

	if !active {
		return c.start(ctx)
	}

	if c.supervisor.Stale(sess) {
		c.logger.Warn("clearing stale session",
			"base_id", sess.BaseID,
			"capture_pid", sess.CapturePID,
			"processor_pid", sess.ProcessorPID)
		c.discardSession(sess)
		return c.start(ctx)
	}

	return c.stop(ctx, sess)
}

// Stop ends an in-progress recording without ever starting a new one, so it
// is always safe to invoke. With no session present it is a no-op: nothing
// is signaled and nothing is written.
func (c *Controller) Stop(ctx context.Context) Result {
	lock, err := session.AcquireLock(c.lockDir)
	if err != nil {
		return Result{State: fsm.StateIdle, Err: err}
	}
	defer lock.Release()

	sess, active, err := c.store.Load()
	if err != nil {
		return Result{State: fsm.StateIdle, Err: err}
	}
	if !active {
		return Result{State: fsm.StateIdle, Message: "nothing to stop"}
	}

	if c.supervisor.Stale(sess) {
		c.logger.Warn("clearing stale session",
			"base_id", sess.BaseID,
			"capture_pid", sess.CapturePID,
			"processor_pid", sess.ProcessorPID)
		c.discardSession(sess)
		return Result{State: fsm.StateIdle, Message: "cleared stale session"}
	}

	return c.stop(ctx, sess)
}

// start probes, negotiates, and launches a new recording.
func (c *Controller) start(ctx context.Context) Result {
	state := fsm.StateIdle
	state, err := fsm.Transition(state, fsm.EventStart)
	if err != nil {
		return Result{State: fsm.StateIdle, Err: err}
	}

	if err := os.MkdirAll(c.workDir, 0o700); err != nil {
		return c.failStart(ctx, fmt.Errorf("ensure work dir: %w", err))
	}
	if swept := c.sweep(c.workDir, c.logger); swept > 0 {
		c.logger.Warn("swept residual pipeline processes", "count", swept)
	}

	caps := c.prober.Probe(ctx, c.cfg.Capture.Device)
	params := audio.Negotiate(caps, preferences(c.cfg.Capture))
	sess := session.New(session.NewBaseID(c.now()), c.workDir, params)

	started, err := c.starter.Start(ctx, sess)
	if err != nil {
		return c.failStart(ctx, fmt.Errorf("%w: %v", ErrCaptureFailed, err))
	}
	sess.CapturePID = started.CapturePID
	sess.ProcessorPID = started.ProcessorPID

	if err := c.store.Commit(sess); err != nil {
		// Children without a session record would be orphans on the next
		// invocation; tear them down now.
		_ = c.supervisor.Stop(ctx, sess)
		c.discardSession(sess)
		return c.failStart(ctx, fmt.Errorf("persist session: %w", err))
	}

	c.notifier.ShowRecording(ctx)
	c.logger.Info("recording started",
		"base_id", sess.BaseID,
		"encoding", sess.CaptureEncoding,
		"rate", sess.CaptureRate,
		"channels", sess.CaptureChannels,
		"output_seen", started.OutputSeen)
	return Result{State: state, Message: "recording started"}
}

// stop tears the pipeline down and turns the recording into clipboard text.
func (c *Controller) stop(ctx context.Context, sess session.Session) Result {
	state := fsm.StateRecording
	state, err := fsm.Transition(state, fsm.EventStop)
	if err != nil {
		return Result{State: fsm.StateRecording, Err: err}
	}

	c.notifier.ShowProcessing(ctx)

	if err := c.supervisor.Stop(ctx, sess); err != nil {
		return c.failStop(ctx, sess, fmt.Errorf("stop pipeline: %w", err))
	}
	_ = os.Remove(sess.PipePath)

	var audioPath string
	switch {
	// A retry after a failed transcription may find the audio already
	// normalized with the original gone.
	case hasAudio(sess.NormalizedPath):
		audioPath = sess.NormalizedPath
	case hasAudio(sess.AudioPath):
		audioPath = c.normalizer.Normalize(ctx, sess)
	default:
		c.discardSession(sess)
		return c.failStop(ctx, session.Session{},
			fmt.Errorf("%w: no audio was captured", ErrCaptureFailed))
	}

	text, err := c.backend.Transcribe(ctx, audioPath)
	if err != nil {
		// Keep the session record so a retry toggle can try again with the
		// audio already on disk.
		return c.failStop(ctx, session.Session{},
			fmt.Errorf("%w: %v", ErrTranscriptionFailed, err))
	}

	if err := transcribe.WriteTranscript(sess.TranscriptPath, text); err != nil {
		return c.failStop(ctx, session.Session{}, err)
	}

	if err := c.clipboard.CommitFile(ctx, sess.TranscriptPath); err != nil {
		c.discardSession(sess)
		return c.failStop(ctx, session.Session{}, err)
	}

	if err := c.store.Clear(); err != nil {
		return Result{State: state, Err: err}
	}

	state, err = fsm.Transition(state, fsm.EventFinish)
	if err != nil {
		return Result{State: fsm.StateProcessing, Err: err}
	}

	c.notifier.Dismiss(ctx)
	transcript := strings.TrimRight(text, "\n")
	c.logger.Info("transcript committed",
		"base_id", sess.BaseID,
		"backend", c.backend.Name(),
		"chars", len(transcript))
	return Result{State: state, Message: "transcript committed", Transcript: transcript}
}

// failStart reports a start-side failure and leaves the toggle idle.
func (c *Controller) failStart(ctx context.Context, err error) Result {
	c.notifier.ShowError(ctx, "Unable to start recording")
	c.logger.Error("start failed", "error", err.Error())
	return Result{State: fsm.StateIdle, Err: err}
}

// failStop reports a stop-side failure. When sess is zero the session record
// was already discarded or deliberately kept; otherwise it is cleared here.
func (c *Controller) failStop(ctx context.Context, sess session.Session, err error) Result {
	if sess.BaseID != "" {
		c.discardSession(sess)
	}
	c.notifier.ShowError(ctx, "")
	c.logger.Error("stop failed", "error", err.Error())
	return Result{State: fsm.StateError, Err: err}
}

// discardSession clears the store and removes the pipe. Audio and transcript
// files are left in place; they are the only evidence when something broke.
func (c *Controller) discardSession(sess session.Session) {
	_ = os.Remove(sess.PipePath)
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("clear session store failed", "error", err.Error())
	}
}

func preferences(cfg config.CaptureConfig) audio.Preferences {
	encodings := make([]audio.Encoding, 0, len(cfg.Formats))
	for _, f := range cfg.Formats {
		encodings = append(encodings, audio.Encoding(f))
	}
	return audio.Preferences{
		Encodings:       encodings,
		TargetRate:      cfg.TargetRate,
		Channels:        cfg.Channels,
		CaptureOverride: audio.Encoding(cfg.EncodingOverride),
		OutputOverride:  cfg.OutputOverride,
	}
}

func hasAudio(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
