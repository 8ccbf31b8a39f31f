// Package relay is the background process. It owns every outbound call to
// the LLM providers and talks to readers over named channels:
//
//	streamCompletion  one completion request, answered by chunks and a terminal message
//	runtime           one-shot get_commands / open_shortcut_page requests
//	page              a reader registering itself as a target for pushed commands
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"inflow/internal/db"
	"inflow/internal/logger"
	"inflow/internal/models"
	"inflow/internal/port"
)

type Options struct {
	Store    db.SettingsStore
	Commands []models.Command
	// OpenShortcuts opens the surface where hotkeys are configured.
	OpenShortcuts func() error
	Client        *http.Client
}

type Server struct {
	app           *fiber.App
	streamer      *Streamer
	hub           *Hub
	store         db.SettingsStore
	commands      []models.Command
	openShortcuts func() error

	ctx  context.Context
	stop context.CancelFunc
}

func New(opts Options) *Server {
	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		streamer:      NewStreamer(opts.Client),
		hub:           NewHub(),
		store:         opts.Store,
		commands:      opts.Commands,
		openShortcuts: opts.OpenShortcuts,
		ctx:           ctx,
		stop:          stop,
	}

	app := fiber.New(fiber.Config{
		AppName:               "inflow relay",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger())

	v2 := app.Group("/v2")
	v2.Get("/channel/:name", s.handleChannel)
	v2.Post("/commands/:name", s.handleCommand)
	v2.Post("/action", s.handleAction)

	s.app = app
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Hub() *Hub { return s.hub }

// Dialer connects to this server without leaving the process.
func (s *Server) Dialer() port.LocalDialer {
	return port.LocalDialer{Accept: s.Accept}
}

func (s *Server) Listen(addr string) error {
	logger.Infof("relay listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown cancels in-flight upstream calls and stops the listener.
func (s *Server) Shutdown() error {
	s.stop()
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// Accept serves one connected port according to its channel name and
// returns once the channel is finished.
func (s *Server) Accept(p port.Port) {
	switch p.Name() {
	case models.ChannelStreamCompletion:
		s.serveStream(p)
	case models.ChannelRuntime:
		s.serveRuntime(p)
	case models.ChannelPage:
		s.servePage(p)
	default:
		_ = p.Post(models.Envelope{Error: fmt.Sprintf("unknown channel %q", p.Name())})
		_ = p.Close()
	}
}

func knownChannel(name string) bool {
	switch name {
	case models.ChannelStreamCompletion, models.ChannelRuntime, models.ChannelPage:
		return true
	}
	return false
}

func (s *Server) handleChannel(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	name := c.Params("name")
	if !knownChannel(name) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown channel"})
	}
	return websocket.New(func(conn *websocket.Conn) {
		s.Accept(port.FromConn(name, conn))
	})(c)
}

// serveStream handles exactly one completion request. Closing the consumer
// side cancels the upstream call.
func (s *Server) serveStream(p port.Port) {
	defer p.Close()
	log := logger.WithFields(map[string]interface{}{
		"conn":    uuid.NewString(),
		"channel": p.Name(),
	})

	req, err := p.Receive()
	if err != nil {
		log.Debug().Err(err).Msg("channel closed before a request arrived")
		return
	}
	if req.Action != models.ActionStreamCompletion || req.Payload == nil {
		_ = p.Post(models.Envelope{Error: fmt.Sprintf("unsupported action %q", req.Action)})
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		for {
			if _, err := p.Receive(); err != nil {
				cancel()
				return
			}
		}
	}()

	started := time.Now()
	stats, err := s.streamer.Stream(ctx, *req.Payload, p.Post)
	ev := log.Info()
	if err != nil {
		ev = log.Debug().Err(err)
	}
	ev.Str("provider", req.Payload.Provider).
		Str("model", req.Payload.Model).
		Int("status", stats.Status).
		Int("chunks", stats.Chunks).
		Bool("failed", stats.Failed).
		Dur("elapsed", time.Since(started)).
		Msg("stream finished")

	_ = p.Close()
	<-watchDone
}

func (s *Server) serveRuntime(p port.Port) {
	defer p.Close()

	req, err := p.Receive()
	if err != nil {
		return
	}
	switch req.Action {
	case models.ActionGetCommands:
		_ = p.Post(models.Envelope{Commands: s.commands})
	case models.ActionOpenShortcuts:
		if s.openShortcuts == nil {
			_ = p.Post(models.Envelope{Error: "shortcut page is not available"})
			return
		}
		if err := s.openShortcuts(); err != nil {
			logger.Warnf("open shortcut page: %v", err)
			_ = p.Post(models.Envelope{Error: err.Error()})
			return
		}
		_ = p.Post(models.Envelope{Done: true})
	default:
		_ = p.Post(models.Envelope{Error: fmt.Sprintf("unsupported action %q", req.Action)})
	}
}

func (s *Server) servePage(p port.Port) {
	id := s.hub.add(p)
	logger.Debugf("page %s connected", id)
	for {
		if _, err := p.Receive(); err != nil {
			break
		}
	}
	s.hub.remove(id)
	_ = p.Close()
	logger.Debugf("page %s disconnected", id)
}

// handleCommand runs a registered hotkey command against the active page.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	name := c.Params("name")
	if name != models.CommandInvoke {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown command"})
	}

	settings, err := s.store.LoadSettings(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !settings.HotkeyEnabled() {
		return c.JSON(fiber.Map{"status": "ignored"})
	}
	return s.push(c, models.Envelope{Action: models.ActionInvokePanel})
}

// handleAction is the toolbar button. It is never gated.
func (s *Server) handleAction(c *fiber.Ctx) error {
	return s.push(c, models.Envelope{Action: models.ActionToggleOptions})
}

func (s *Server) push(c *fiber.Ctx, env models.Envelope) error {
	id, err := s.hub.Push(env)
	if errors.Is(err, ErrNoActivePage) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "delivered", "page": id})
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
		return err
	}
}
