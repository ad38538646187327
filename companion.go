// Package bgcompanion assembles the match companion from its parts: the
// tracker, the log watcher, the record sinks, the local archive, and the
// companion API. The hosting process supplies the game state surface and
// forwards its callbacks into the Handle* methods.
package bgcompanion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hiloapp/bg-companion/internal/api"
	"github.com/hiloapp/bg-companion/internal/api/websocket"
	"github.com/hiloapp/bg-companion/internal/bg/hostapi"
	"github.com/hiloapp/bg-companion/internal/bg/logtail"
	"github.com/hiloapp/bg-companion/internal/bg/tracker"
	"github.com/hiloapp/bg-companion/internal/config"
	"github.com/hiloapp/bg-companion/internal/events"
	"github.com/hiloapp/bg-companion/internal/sink"
	"github.com/hiloapp/bg-companion/internal/storage"
	"github.com/hiloapp/bg-companion/internal/storage/repository"
)

const watcherDebounce = 300 * time.Millisecond

// Companion is the assembled application.
type Companion struct {
	cfg        *config.Config
	tracker    *tracker.Tracker
	dispatcher *events.Dispatcher
	sub        *events.Subscription

	db      *storage.DB
	server  *api.Server
	watcher *logtail.Watcher

	cancelWatch context.CancelFunc
}

// New wires a companion from configuration and the host's game state.
func New(cfg *config.Config, game hostapi.GameState) (*Companion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Companion{
		cfg:        cfg,
		dispatcher: events.NewDispatcher(),
		sub:        events.NewSubscription(),
	}

	var sinks []sink.Sink
	if cfg.Output.Enabled {
		dir := cfg.Output.Dir
		if dir == "" {
			dir = defaultDataPath("matches")
		}
		sinks = append(sinks, sink.NewFileSink(dir))
	}
	if cfg.Submit.Enabled {
		sinks = append(sinks, sink.NewHTTPSink(cfg.Submit.Endpoint))
	}

	var matches repository.MatchRepository
	if cfg.Archive.Enabled {
		dbPath := cfg.Archive.DBPath
		if dbPath == "" {
			dbPath = defaultDataPath("matches.db")
		}
		db, err := storage.Open(storage.DefaultConfig(dbPath))
		if err != nil {
			return nil, fmt.Errorf("opening match archive: %w", err)
		}
		c.db = db
		matches = repository.NewMatchRepository(db.Conn())
		sinks = append(sinks, sink.NewArchiveSink(matches))
	}

	var parser *logtail.Parser
	if cfg.Log.FilePath != "" {
		backoff, _ := cfg.GetRetryBackoff()
		tail := logtail.NewTailReader(
			cfg.Log.FilePath,
			int64(cfg.Log.WindowKB)*1024,
			cfg.Log.MaxAttempts,
			backoff,
		)
		parser = logtail.NewParser(tail, game.TurnNumber)
	}

	opts := tracker.DefaultOptions()
	if d, err := cfg.GetSettleDelay(); err == nil {
		opts.SettleDelay = d
	}
	if d, err := cfg.GetTrailingParseDelay(); err == nil {
		opts.TrailingParseDelay = d
	}
	c.tracker = tracker.New(game, parser, c.dispatcher, sinks, opts)

	if cfg.Log.FilePath != "" && cfg.Log.UseFsnotify {
		interval, _ := cfg.GetPollInterval()
		c.watcher = logtail.NewWatcher(cfg.Log.FilePath, watcherDebounce, interval, c.tracker.RefreshFromLog)
	}

	if cfg.API.Enabled {
		c.server = api.NewServer(&api.Config{Port: cfg.API.Port}, c.tracker, matches)
		c.dispatcher.Register(websocket.NewObserver(c.server.Hub()))
	}

	return c, nil
}

// Tracker exposes the match tracker, mainly for the host adapter and
// tests.
func (c *Companion) Tracker() *tracker.Tracker {
	return c.tracker
}

// Start launches the background pieces: the API listener and the log
// watcher.
func (c *Companion) Start(ctx context.Context) {
	if c.server != nil {
		c.server.Start()
	}
	if c.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		c.cancelWatch = cancel
		go func() {
			if err := c.watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[companion] log watcher: %v", err)
			}
		}()
	}
	log.Printf("[companion] started")
}

// Stop tears everything down. Host callbacks arriving after Stop are
// dropped by the subscription gate.
func (c *Companion) Stop(ctx context.Context) {
	c.sub.Close()
	if c.cancelWatch != nil {
		c.cancelWatch()
	}
	c.tracker.Close()
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			log.Printf("[companion] api shutdown: %v", err)
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Printf("[companion] closing archive: %v", err)
		}
	}
	log.Printf("[companion] stopped")
}

// The Handle* methods are the host's callback surface. They are gated by
// the subscription so a host that cannot deregister callbacks can still
// be detached from safely.

func (c *Companion) HandleMatchStart() {
	if !c.sub.Active() {
		return
	}
	c.tracker.HandleMatchStart()
}

func (c *Companion) HandleTurnStart(active hostapi.ActiveSide) {
	if !c.sub.Active() {
		return
	}
	c.tracker.HandleTurnStart(active)
}

func (c *Companion) HandleEntityEnteredPlay(card hostapi.Card) {
	if !c.sub.Active() {
		return
	}
	c.tracker.HandleEntityEnteredPlay(card)
}

func (c *Companion) HandleEntityWillTakeDamage() {
	if !c.sub.Active() {
		return
	}
	c.tracker.HandleEntityWillTakeDamage()
}

func (c *Companion) HandleMatchEnd() {
	if !c.sub.Active() {
		return
	}
	c.tracker.HandleMatchEnd()
}

// defaultDataPath places a file under ~/.bg-companion.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("[companion] cannot resolve home directory: %v", err)
		return name
	}
	return filepath.Join(home, ".bg-companion", name)
}
