package toggle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/fsm"
	"github.com/murmur-dev/murmur/internal/pipeline"
	"github.com/murmur-dev/murmur/internal/proc"
	"github.com/murmur-dev/murmur/internal/session"
)

type fakeProber struct {
	caps   audio.Capabilities
	probes int
}

func (f *fakeProber) Probe(context.Context, string) audio.Capabilities {
	f.probes++
	return f.caps
}

type fakeStarter struct {
	err      error
	started  []session.Session
	withFile bool

	capturePID   int
	processorPID int
}

func (f *fakeStarter) Start(_ context.Context, sess session.Session) (pipeline.Started, error) {
	if f.err != nil {
		return pipeline.Started{}, f.err
	}
	f.started = append(f.started, sess)
	if f.withFile {
		if err := os.WriteFile(sess.AudioPath, []byte("fLaC"), 0o600); err != nil {
			return pipeline.Started{}, err
		}
	}
	capturePID, processorPID := f.capturePID, f.processorPID
	if capturePID == 0 {
		capturePID = 101
	}
	if processorPID == 0 {
		processorPID = 102
	}
	return pipeline.Started{CapturePID: capturePID, ProcessorPID: processorPID, OutputSeen: f.withFile}, nil
}

type fakeNormalizer struct {
	normalized []session.Session
}

func (f *fakeNormalizer) Normalize(_ context.Context, sess session.Session) string {
	f.normalized = append(f.normalized, sess)
	return sess.AudioPath
}

type fakeSupervisor struct {
	stale    bool
	stopErr  error
	stopped  []session.Session
	staleLog []string
}

func (f *fakeSupervisor) Stop(_ context.Context, sess session.Session) error {
	f.stopped = append(f.stopped, sess)
	return f.stopErr
}

func (f *fakeSupervisor) Stale(sess session.Session) bool {
	f.staleLog = append(f.staleLog, sess.BaseID)
	return f.stale
}

type fakeBackend struct {
	text string
	err  error
	sent []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transcribe(_ context.Context, audioPath string) (string, error) {
	f.sent = append(f.sent, audioPath)
	return f.text, f.err
}

type fakeClipboard struct {
	err       error
	committed []string
}

func (f *fakeClipboard) CommitFile(_ context.Context, path string) error {
	if f.err != nil {
		return f.err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.committed = append(f.committed, string(content))
	return nil
}

type harness struct {
	controller *Controller
	store      *session.Store
	prober     *fakeProber
	starter    *fakeStarter
	normalizer *fakeNormalizer
	supervisor *fakeSupervisor
	backend    *fakeBackend
	clipboard  *fakeClipboard
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		store:      store,
		prober:     &fakeProber{caps: audio.FallbackCapabilities()},
		starter:    &fakeStarter{withFile: true},
		normalizer: &fakeNormalizer{},
		supervisor: &fakeSupervisor{},
		backend:    &fakeBackend{text: "hello world"},
		clipboard:  &fakeClipboard{},
	}
	h.controller = NewController(config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		Store:      store,
		LockDir:    t.TempDir(),
		WorkDir:    t.TempDir(),
		Prober:     h.prober,
		Starter:    h.starter,
		Normalizer: h.normalizer,
		Supervisor: h.supervisor,
		Backend:    h.backend,
		Clipboard:  h.clipboard,
	})
	return h
}

func TestToggleStartsWhenIdle(t *testing.T) {
	h := newHarness(t)

	result := h.controller.Toggle(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateRecording, result.State)
	require.Equal(t, "recording started", result.Message)

	require.Equal(t, 1, h.prober.probes)
	require.Len(t, h.starter.started, 1)

	sess, active, err := h.store.Load()
	require.NoError(t, err)
	require.True(t, active)
	require.Equal(t, 101, sess.CapturePID)
	require.Equal(t, 102, sess.ProcessorPID)
	require.Equal(t, "S16_LE", sess.CaptureEncoding)
}

func TestToggleStopCommitsTranscript(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.controller.Toggle(context.Background()).Err)

	result := h.controller.Toggle(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateIdle, result.State)
	require.Equal(t, "hello world", result.Transcript)

	require.Len(t, h.supervisor.stopped, 1)
	require.Len(t, h.normalizer.normalized, 1)
	require.Len(t, h.backend.sent, 1)
	require.Equal(t, []string{"hello world"}, h.clipboard.committed)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.False(t, active, "completed session must be cleared")
}

func TestToggleTranscriptHasNoTrailingNewline(t *testing.T) {
	h := newHarness(t)
	h.backend.text = "dictated text\n"

	require.NoError(t, h.controller.Toggle(context.Background()).Err)
	result := h.controller.Toggle(context.Background())

	require.NoError(t, result.Err)
	require.Equal(t, "dictated text", result.Transcript)
	require.Equal(t, []string{"dictated text"}, h.clipboard.committed)
}

func TestToggleBusyLock(t *testing.T) {
	h := newHarness(t)

	lockDir := t.TempDir()
	h.controller.lockDir = lockDir
	held, err := session.AcquireLock(lockDir)
	require.NoError(t, err)
	defer held.Release()

	result := h.controller.Toggle(context.Background())
	require.ErrorIs(t, result.Err, session.ErrBusy)
	require.Zero(t, h.prober.probes, "busy toggle must have no side effects")
	require.Empty(t, h.supervisor.stopped)
}

func TestToggleStaleSessionStartsFresh(t *testing.T) {
	h := newHarness(t)
	h.supervisor.stale = true

	stale := session.New("20260101-000000.000", t.TempDir(), audio.Parameters{})
	require.NoError(t, h.store.Commit(stale))

	result := h.controller.Toggle(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateRecording, result.State)

	// The dead session is replaced, not stopped.
	require.Empty(t, h.supervisor.stopped)
	require.Len(t, h.starter.started, 1)

	sess, active, err := h.store.Load()
	require.NoError(t, err)
	require.True(t, active)
	require.NotEqual(t, stale.BaseID, sess.BaseID)
}

func TestToggleStartFailureLeavesIdle(t *testing.T) {
	h := newHarness(t)
	h.starter.err = fmt.Errorf("arecord exploded")

	result := h.controller.Toggle(context.Background())
	require.ErrorIs(t, result.Err, ErrCaptureFailed)
	require.Equal(t, fsm.StateIdle, result.State)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.False(t, active, "failed start must not persist a session")
}

func TestToggleStopWithoutAudioIsCaptureFailure(t *testing.T) {
	h := newHarness(t)
	h.starter.withFile = false

	require.NoError(t, h.controller.Toggle(context.Background()).Err)

	result := h.controller.Toggle(context.Background())
	require.ErrorIs(t, result.Err, ErrCaptureFailed)
	require.Empty(t, h.backend.sent)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.False(t, active)
}

func TestToggleTranscriptionFailureKeepsSessionForRetry(t *testing.T) {
	h := newHarness(t)
	h.backend.err = fmt.Errorf("backend down")

	require.NoError(t, h.controller.Toggle(context.Background()).Err)

	result := h.controller.Toggle(context.Background())
	require.ErrorIs(t, result.Err, ErrTranscriptionFailed)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.True(t, active, "audio on disk deserves a retry")

	// Retry succeeds once the backend recovers.
	h.backend.err = nil
	retry := h.controller.Toggle(context.Background())
	require.NoError(t, retry.Err)
	require.Equal(t, "hello world", retry.Transcript)

	_, active, err = h.store.Load()
	require.NoError(t, err)
	require.False(t, active)
}

// movingNormalizer mimics the real normalizer with keep_original off: the
// raw capture is replaced by its normalized copy.
type movingNormalizer struct{}

func (movingNormalizer) Normalize(_ context.Context, sess session.Session) string {
	data, err := os.ReadFile(sess.AudioPath)
	if err != nil {
		return sess.AudioPath
	}
	if err := os.WriteFile(sess.NormalizedPath, data, 0o600); err != nil {
		return sess.AudioPath
	}
	_ = os.Remove(sess.AudioPath)
	return sess.NormalizedPath
}

func exitedPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func TestToggleRetryAfterNormalizeRemovedOriginal(t *testing.T) {
	// Real supervisor, dead children, and a normalizer that removes the raw
	// capture: after a failed transcription the session must read as
	// retryable, not stale, or the recording is silently orphaned.
	h := newHarness(t)
	h.starter.capturePID = exitedPID(t)
	h.starter.processorPID = exitedPID(t)
	h.controller.supervisor = proc.NewSupervisor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.controller.normalizer = movingNormalizer{}
	h.backend.err = fmt.Errorf("backend down")

	require.NoError(t, h.controller.Toggle(context.Background()).Err)
	sess, _, err := h.store.Load()
	require.NoError(t, err)

	result := h.controller.Toggle(context.Background())
	require.ErrorIs(t, result.Err, ErrTranscriptionFailed)
	require.NoFileExists(t, sess.AudioPath)
	require.FileExists(t, sess.NormalizedPath)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.True(t, active, "normalized audio on disk deserves a retry")

	h.backend.err = nil
	retry := h.controller.Toggle(context.Background())
	require.NoError(t, retry.Err)
	require.Equal(t, "hello world", retry.Transcript)
	require.Len(t, h.starter.started, 1, "retry must not start a new recording")
	require.Equal(t, sess.NormalizedPath, h.backend.sent[len(h.backend.sent)-1])

	_, active, err = h.store.Load()
	require.NoError(t, err)
	require.False(t, active)
}

func TestToggleClipboardFailureClearsSession(t *testing.T) {
	h := newHarness(t)
	h.clipboard.err = fmt.Errorf("wl-copy missing")

	require.NoError(t, h.controller.Toggle(context.Background()).Err)

	result := h.controller.Toggle(context.Background())
	require.Error(t, result.Err)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.False(t, active)
}

func TestStopWithoutSessionIsNoOp(t *testing.T) {
	h := newHarness(t)

	result := h.controller.Stop(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateIdle, result.State)
	require.Equal(t, "nothing to stop", result.Message)

	require.Empty(t, h.supervisor.stopped, "no session means no signaling")
	require.Empty(t, h.starter.started, "stop must never start a recording")
}

func TestStopTwiceSecondIsNoOp(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.controller.Toggle(context.Background()).Err)
	require.NoError(t, h.controller.Stop(context.Background()).Err)
	require.Len(t, h.supervisor.stopped, 1)

	result := h.controller.Stop(context.Background())
	require.NoError(t, result.Err)
	require.Len(t, h.supervisor.stopped, 1, "second stop must not signal again")
}

func TestStopStaleSessionClearsWithoutStarting(t *testing.T) {
	h := newHarness(t)
	h.supervisor.stale = true

	stale := session.New("20260101-000000.000", t.TempDir(), audio.Parameters{})
	require.NoError(t, h.store.Commit(stale))

	result := h.controller.Stop(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, "cleared stale session", result.Message)
	require.Empty(t, h.starter.started)

	_, active, err := h.store.Load()
	require.NoError(t, err)
	require.False(t, active)
}

func TestToggleRemovesPipeOnStop(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.controller.Toggle(context.Background()).Err)
	sess, _, err := h.store.Load()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sess.PipePath, nil, 0o600))

	require.NoError(t, h.controller.Toggle(context.Background()).Err)
	require.NoFileExists(t, sess.PipePath)
}
