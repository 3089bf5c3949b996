// Package alert notifies operators about engine failures, such as an
// embedding provider circuit opening.
package alert

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/soundprediction/aggrego/pkg/config"
)

// Alerter defines an interface for sending alerts
type Alerter interface {
	Alert(subject, message string) error
}

// EmailAlerter implements Alerter using SMTP
type EmailAlerter struct {
	cfg config.AlertConfig
}

// NewEmailAlerter creates a new email alerter
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{
		cfg: cfg,
	}
}

// Alert sends an email with the given subject and message
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}
	if len(a.cfg.To) == 0 {
		return fmt.Errorf("alerting is enabled but no recipients are configured")
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)

	to := a.cfg.To
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: [aggrego] %s\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(to, ","), subject, message))

	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)

	if err := smtp.SendMail(addr, auth, a.cfg.From, to, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

// NoOpAlerter is a dummy alerter for when alerting is disabled
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}

// Deduper wraps an Alerter and suppresses repeats of the same subject
// within an interval. A flapping circuit breaker then produces one email
// per interval instead of one per state change.
type Deduper struct {
	next     Alerter
	interval time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewDeduper wraps an alerter with per-subject suppression.
func NewDeduper(next Alerter, interval time.Duration) *Deduper {
	return &Deduper{
		next:     next,
		interval: interval,
		lastSent: make(map[string]time.Time),
	}
}

// Alert implements Alerter.
func (d *Deduper) Alert(subject, message string) error {
	d.mu.Lock()
	last, seen := d.lastSent[subject]
	now := time.Now()
	if seen && now.Sub(last) < d.interval {
		d.mu.Unlock()
		return nil
	}
	d.lastSent[subject] = now
	d.mu.Unlock()

	return d.next.Alert(subject, message)
}
