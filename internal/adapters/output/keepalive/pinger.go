package keepalive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval between pings
	DefaultInterval = 300 * time.Second
	defaultTimeout  = 30 * time.Second
)

// Pinger struct - Periodically requests the public URL so hosting platforms keep the process awake
type Pinger struct {
	url      string
	interval time.Duration
	timeout  time.Duration
}

// NewPinger func - Creates new keep-alive pinger. An empty url disables it.
func NewPinger(url string, interval time.Duration) *Pinger {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pinger{
		url:      strings.TrimSpace(url),
		interval: interval,
		timeout:  defaultTimeout,
	}
}

// Enabled reports whether a target url is configured
func (p *Pinger) Enabled() bool {
	return p.url != ""
}

// Run pings immediately and then every interval until ctx is done. Failures are logged only.
func (p *Pinger) Run(ctx context.Context) {
	if !p.Enabled() {
		logrus.Info("Keep-alive disabled, no url configured")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := p.Ping(); err != nil {
			logrus.Warnf("Keep-alive failed: %v", err)
		} else {
			logrus.Debug("Keep-alive ping sent")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Ping sends one GET request to the configured url
func (p *Pinger) Ping() error {
	code, _, errs := fiber.Get(p.url).Timeout(p.timeout).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("ping %s: %w", p.url, errors.Join(errs...))
	}
	if code >= fiber.StatusInternalServerError {
		return fmt.Errorf("ping %s: status %d", p.url, code)
	}
	return nil
}
