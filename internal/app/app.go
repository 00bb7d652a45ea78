// Package app wires the inspector together: configuration, the entity
// registry, focus tracking, resolution, bound views, the picker and the
// adapter connection, behind one lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/dshills/dapscope/internal/config"
	"github.com/dshills/dapscope/internal/dap"
	"github.com/dshills/dapscope/internal/entity"
	"github.com/dshills/dapscope/internal/entity/dapmodel"
	"github.com/dshills/dapscope/internal/entitybuf"
	"github.com/dshills/dapscope/internal/event"
	"github.com/dshills/dapscope/internal/focus"
	"github.com/dshills/dapscope/internal/format"
	"github.com/dshills/dapscope/internal/picker"
	"github.com/dshills/dapscope/internal/resolve"
	"github.com/dshills/dapscope/internal/surface"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file path. Empty uses defaults.
	ConfigPath string

	// Adapter names the adapter definition to connect. Empty means no
	// session; the inspector runs over an empty model.
	Adapter string

	// Program is launched under the adapter when set; without it an
	// address-based adapter is attached instead.
	Program string

	// Plain mirrors views to stdout instead of drawing a terminal UI.
	Plain bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Application owns every long-lived component of the inspector.
type Application struct {
	opts Options
	cfg  *config.Config
	log  *slog.Logger

	bus        *event.Bus
	registry   *entity.Registry
	tracker    *focus.Tracker
	resolver   *resolve.Resolver
	controller *entitybuf.Controller
	flow       *picker.Flow
	hooks      *format.Hooks

	term    *surface.Terminal
	watcher *config.Watcher
	client  *dap.Client
	syncer  *dapmodel.Syncer

	subs     []*event.Subscription
	running  atomic.Bool
	done     chan struct{}
	shutdown sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the application. The adapter is not contacted yet; Run does
// that.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	a := &Application{
		opts: opts,
		cfg:  cfg,
		log:  newLogger(opts.LogLevel),
		bus:  event.NewBus(),
		done: make(chan struct{}),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.registry = entity.NewRegistry(a.bus)
	a.tracker = focus.NewTracker(a.bus)
	a.resolver = resolve.New(a.registry, a.tracker)
	a.controller = entitybuf.NewController(a.resolver, a.tracker, a.bus)

	if cfg.LabelScript != "" {
		hooks, err := format.LoadHooks(cfg.LabelScript)
		if err != nil {
			return nil, fmt.Errorf("label script %s: %w", cfg.LabelScript, err)
		}
		a.hooks = hooks
	}

	a.followStops()
	return a, nil
}

// Label returns the label function in effect: the Lua hook when a script
// is configured, the builtin formatter otherwise.
func (a *Application) Label() picker.LabelFunc {
	if a.hooks != nil {
		return a.hooks.Label
	}
	return format.Label
}

// Picker returns the selection flow. Available after Run has started the
// surfaces.
func (a *Application) Picker() *picker.Flow {
	return a.flow
}

// Run brings up the surfaces and the adapter session, then blocks until
// Shutdown. It returns ErrQuit on a user-initiated quit.
func (a *Application) Run() error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := a.startSurfaces(); err != nil {
		return err
	}

	if a.opts.ConfigPath != "" {
		w, err := config.NewWatcher(a.opts.ConfigPath, a.bus)
		if err != nil {
			a.log.Warn("config watch disabled", "error", err)
		} else {
			a.watcher = w
		}
	}

	if a.opts.Adapter != "" {
		if err := a.startSession(a.ctx); err != nil {
			a.Shutdown()
			return err
		}
	}

	<-a.done
	return ErrQuit
}

// startSurfaces opens one presentation per configured view and builds the
// picker flow on the selection surface.
func (a *Application) startSurfaces() error {
	if a.opts.Plain {
		var selection surface.Selection = surface.SelectFunc(
			func(items []entity.Entity, label picker.LabelFunc, report func(entity.Entity)) {
				// Non-interactive surfaces take the best match.
				report(items[0])
			})
		a.flow = picker.NewFlow(a.resolver, selection, a.Label())

		for _, v := range a.cfg.Views {
			s := surface.NewTextWriter(v.Name, os.Stdout)
			if err := a.openView(v, s); err != nil {
				return err
			}
		}
		return nil
	}

	term, err := surface.New()
	if err != nil {
		return err
	}
	if err := term.Start(); err != nil {
		return err
	}
	a.term = term
	term.OnQuit(a.Shutdown)
	a.flow = picker.NewFlow(a.resolver, term, a.Label())

	for _, v := range a.cfg.Views {
		if err := a.openView(v, term.Pane(v.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) openView(v config.View, s entitybuf.Surface) error {
	opts := []entitybuf.BindOption{
		entitybuf.WithRender(func(col *resolve.Collection) string {
			return format.RenderLabeled(col, a.Label())
		}),
	}
	if v.Optional {
		opts = append(opts, entitybuf.Optional())
	}

	if _, err := a.controller.Open(v.URI, s, opts...); err != nil {
		return fmt.Errorf("view %s: %w", v.Name, err)
	}
	return nil
}

// startSession connects the configured adapter and begins syncing it into
// the registry.
func (a *Application) startSession(ctx context.Context) error {
	adapter, ok := a.cfg.Adapters[a.opts.Adapter]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAdapter, a.opts.Adapter)
	}

	transport, err := openTransport(adapter)
	if err != nil {
		return err
	}
	a.client = dap.NewClient(transport)

	syncer, err := dapmodel.New(ctx, a.registry, a.client, "s1", a.opts.Adapter, a.cfg.AdapterID(a.opts.Adapter))
	if err != nil {
		return err
	}
	a.syncer = syncer
	syncer.Bind(a.client)

	if err := syncer.Initialize(ctx); err != nil {
		return err
	}

	if a.opts.Program != "" {
		return syncer.Launch(ctx, map[string]any{
			"mode":    "debug",
			"program": a.opts.Program,
		})
	}
	return syncer.Attach(ctx, map[string]any{"mode": "local"})
}

// openTransport starts or dials the adapter.
func openTransport(a config.Adapter) (dap.Transport, error) {
	if a.Address != "" {
		return dap.NewSocketTransport(a.Address)
	}
	cmd := exec.Command(a.Command[0], a.Command[1:]...)
	return dap.NewCommandTransport(cmd)
}

// followStops moves the focus to the stopping thread and, once its top
// frame materializes, to that frame.
func (a *Application) followStops() {
	if sub, err := a.bus.Subscribe(event.TopicEntityField, func(_ event.Topic, payload any) {
		fc, ok := payload.(entity.FieldChange)
		if !ok || fc.Field != "stopped" {
			return
		}
		t, ok := fc.Entity.(*entity.Thread)
		if !ok || !t.Stopped {
			return
		}
		a.tracker.SetThread(t)
	}); err == nil {
		a.subs = append(a.subs, sub)
	}

	if sub, err := a.bus.Subscribe(event.TopicEntityCreated, func(_ event.Topic, payload any) {
		f, ok := payload.(*entity.Frame)
		if !ok {
			return
		}
		cur := a.tracker.Current()
		if cur.Frame != nil || cur.Thread == nil {
			return
		}
		if stack, ok := f.Parent().(*entity.Stack); ok && stack.Parent() == cur.Thread {
			a.tracker.SetFrame(f)
		}
	}); err == nil {
		a.subs = append(a.subs, sub)
	}
}

// Shutdown tears everything down. Safe to call more than once and from
// any goroutine.
func (a *Application) Shutdown() {
	a.shutdown.Do(func() {
		a.cancel()

		if a.syncer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
			if err := a.syncer.Disconnect(ctx); err != nil {
				a.log.Warn("disconnect", "error", err)
			}
			cancel()
		}
		if a.client != nil {
			a.client.Close()
		}

		a.controller.Shutdown()
		for _, sub := range a.subs {
			sub.Cancel()
		}
		a.tracker.Close()

		if a.watcher != nil {
			a.watcher.Close()
		}
		if a.hooks != nil {
			a.hooks.Close()
		}
		if a.term != nil {
			a.term.Stop()
		}

		close(a.done)
	})
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
