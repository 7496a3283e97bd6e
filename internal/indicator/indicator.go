// Package indicator surfaces recording state as desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/murmur-dev/murmur/internal/config"
)

// Notifier is the toggle-facing notification contract. Implementations never
// fail the toggle: notification problems are logged and swallowed.
type Notifier interface {
	ShowRecording(context.Context)
	ShowProcessing(context.Context)
	ShowError(context.Context, string)
	Dismiss(context.Context)
}

// NewNotifier returns the desktop notifier, or a no-op when disabled.
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger) Notifier {
	if !cfg.Enable {
		return Noop{}
	}
	return NewDesktop(cfg, logger)
}

// Noop satisfies Notifier without doing anything.
type Noop struct{}

func (Noop) ShowRecording(context.Context)     {}
func (Noop) ShowProcessing(context.Context)    {}
func (Noop) ShowError(context.Context, string) {}
func (Noop) Dismiss(context.Context)           {}

// Desktop sends freedesktop notifications over DBus. Each update replaces
// the previous notification instead of stacking a new one.
type Desktop struct {
	cfg      config.NotifyConfig
	logger   *slog.Logger
	messages messages

	mu             sync.Mutex
	notificationID uint32
}

func NewDesktop(cfg config.NotifyConfig, logger *slog.Logger) *Desktop {
	return &Desktop{cfg: cfg, logger: logger, messages: defaultMessages()}
}

// ShowRecording signals that capture is live.
func (d *Desktop) ShowRecording(ctx context.Context) {
	d.run(ctx, func(ctx context.Context) error {
		return d.replace(ctx, d.messages.recording, persistentTimeoutMS)
	})
}

// ShowProcessing signals the post-capture transcription phase.
func (d *Desktop) ShowProcessing(ctx context.Context) {
	d.run(ctx, func(ctx context.Context) error {
		return d.replace(ctx, d.messages.processing, persistentTimeoutMS)
	})
}

// ShowError displays a short-lived failure message. The detail, when
// non-empty, becomes the notification body under a fixed title.
func (d *Desktop) ShowError(ctx context.Context, detail string) {
	msg := d.messages.failure
	if body := strings.TrimSpace(detail); body != "" {
		msg.body = body
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.replace(ctx, msg, errorTimeoutMS)
	})
}

// Dismiss closes the active notification, if any.
func (d *Desktop) Dismiss(ctx context.Context) {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return desktopDismiss(ctx, id)
	})
}

const (
	persistentTimeoutMS = 300000
	errorTimeoutMS      = 2500
	dispatchTimeout     = 400 * time.Millisecond
)

func (d *Desktop) replace(ctx context.Context, msg message, timeoutMS int) error {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	appName := strings.TrimSpace(d.cfg.AppName)
	if appName == "" {
		appName = "murmur"
	}

	id, err := desktopNotify(ctx, appName, replaceID, msg.title, msg.body, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
	return nil
}

// run executes a notification dispatch with a bounded timeout so a stuck
// DBus never stalls the toggle.
func (d *Desktop) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		d.log("notification dispatch failed", err)
	}
}

func (d *Desktop) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}
