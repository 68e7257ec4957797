package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Default time budget for the registry ping of /health
const healthTimeout = 5 * time.Second

// RootText is the liveness body served on /
const RootText = "File Utility Bot is running!"

// Pinger checks a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports the number of live sessions
type SessionCounter interface {
	Len() int
}

// HTTPHandler struct - Primary/Driving adapter for the liveness endpoints
type HTTPHandler struct {
	registry Pinger
	sessions SessionCounter
	started  time.Time
}

// New func - Creates new HTTP handler
func New(registry Pinger, sessions SessionCounter) *HTTPHandler {
	return &HTTPHandler{
		registry: registry,
		sessions: sessions,
		started:  time.Now(),
	}
}

// Register mounts the handler routes on app
func (hdl *HTTPHandler) Register(app *fiber.App) {
	app.Get("/", hdl.Root)
	app.Get("/health", hdl.HealthCheck)
}

// Root func
func (hdl *HTTPHandler) Root(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString(RootText)
}

// HealthCheck func
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	data := HealthResponse{
		Sessions: hdl.sessions.Len(),
		Uptime:   time.Since(hdl.started).Round(time.Second).String(),
		Registry: "ok",
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()
	if err := hdl.registry.Ping(ctx); err != nil {
		logrus.Errorln(err)
		data.Registry = "unreachable"
		msg := ResponseBody{
			Status: InternalServerError,
			Data:   data,
		}
		msg.Status.Message = []string{
			err.Error(),
		}
		return c.Status(fiber.StatusInternalServerError).JSON(msg)
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: data})
}
