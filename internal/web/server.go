// Package web provides an HTTP status server for the rc-indicator daemon.
package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sweeney/rc-indicator/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	app     *fiber.App
	tracker *status.Tracker
	version string
}

// New creates a Server that reads state from the given tracker.
func New(tracker *status.Tracker, version string) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			AppName:               "rc-indicator",
		}),
		tracker: tracker,
		version: version,
	}

	s.app.Get("/", s.handleIndex)
	s.app.Get("/index.html", s.handleIndex)
	s.app.Get("/index.json", s.handleJSON)
	s.app.Get("/health", s.handleHealth())
	s.app.Get("/version", s.handleVersion)
	return s
}

// Listen starts listening on addr. It blocks until the server is shut down.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Test runs req through the router without a listener.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req, -1)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	snap := s.tracker.Snapshot()
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return renderHTML(c, snap)
}

func (s *Server) handleJSON(c *fiber.Ctx) error {
	snap := s.tracker.Snapshot()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(status.FormatJSON(snap))
}

// handleHealth reports process health. It answers 503 while the watchdog
// is withholding pings, since the board is about to be reset.
func (s *Server) handleHealth() fiber.Handler {
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}

	host, _ := os.Hostname()

	return func(c *fiber.Ctx) error {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		snap := s.tracker.Snapshot()
		code := http.StatusOK
		if snap.WatchdogStalled {
			code = http.StatusServiceUnavailable
			log.Printf("web: health requested while watchdog stalled")
		}

		healthData := struct {
			NumGoroutines   int
			HeapAllocatedMB uint64
			SysMemoryMB     uint64
			Failsafe        string
			WatchdogStalled bool
			Version         string
			ProgLang        string
			HostName        string
			Time            string
		}{
			NumGoroutines:   runtime.NumGoroutine(),
			HeapAllocatedMB: bToMb(m.Alloc),
			SysMemoryMB:     bToMb(m.Sys),
			Failsafe:        status.FailsafeString(snap.Safe),
			WatchdogStalled: snap.WatchdogStalled,
			Version:         s.version,
			ProgLang:        runtime.Version(),
			HostName:        host,
			Time:            snap.Now.Format(time.RFC3339),
		}
		return c.Status(code).JSON(healthData)
	}
}

func (s *Server) handleVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":     s.version,
		"description": "rc-indicator",
	})
}
