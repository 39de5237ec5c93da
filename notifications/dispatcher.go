package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/confdesk/conference-system/models"
)

//go:embed templates/*.html
var templateFS embed.FS

type Kind string

const (
	KindPaperAccepted   Kind = "paper_accepted"
	KindPaperRejected   Kind = "paper_rejected"
	KindPaymentVerified Kind = "payment_verified"
)

// StatusChange is the event emitted after a paper transitions; the dispatcher
// turns it into a templated email.
type StatusChange struct {
	Kind       Kind
	To         string
	TeamName   string
	PaperTitle string
	Status     models.PaperStatus
	Tier       *models.Tier
}

// Notifier is what state-transitioning services see: enqueue and forget.
// Delivery failures never propagate back to the transition that emitted the
// event.
type Notifier interface {
	Enqueue(sc StatusChange)
}

const (
	sendAttempts = 3
	retryBackoff = 5 * time.Second
)

type Dispatcher struct {
	mailer    Mailer
	logger    *slog.Logger
	queue     chan StatusChange
	templates *template.Template
}

func NewDispatcher(mailer Mailer, logger *slog.Logger, queueSize int) (*Dispatcher, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification templates: %w", err)
	}
	return &Dispatcher{
		mailer:    mailer,
		logger:    logger,
		queue:     make(chan StatusChange, queueSize),
		templates: tmpl,
	}, nil
}

// Enqueue never blocks the caller; when the queue is full the event is
// dropped with a log line.
func (d *Dispatcher) Enqueue(sc StatusChange) {
	select {
	case d.queue <- sc:
	default:
		d.logger.Warn("notification queue full, dropping event",
			slog.String("kind", string(sc.Kind)),
			slog.String("to", sc.To))
	}
}

// Run consumes the queue until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sc := <-d.queue:
			d.deliver(ctx, sc)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sc StatusChange) {
	subject, body, err := d.render(sc)
	if err != nil {
		d.logger.Error("failed to render notification",
			slog.String("kind", string(sc.Kind)), slog.Any("error", err))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		lastErr = d.mailer.Send(sc.To, subject, body)
		if lastErr == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	d.logger.Error("failed to send notification, giving up",
		slog.String("kind", string(sc.Kind)),
		slog.String("to", sc.To),
		slog.Int("attempts", sendAttempts),
		slog.Any("error", lastErr))
}

func (d *Dispatcher) render(sc StatusChange) (subject, body string, err error) {
	var templateName string
	switch sc.Kind {
	case KindPaperAccepted:
		subject = fmt.Sprintf("Paper %q accepted", sc.PaperTitle)
		templateName = "paper_accepted.html"
	case KindPaperRejected:
		subject = fmt.Sprintf("Decision on paper %q", sc.PaperTitle)
		templateName = "paper_rejected.html"
	case KindPaymentVerified:
		subject = fmt.Sprintf("Registration confirmed for %q", sc.PaperTitle)
		templateName = "payment_verified.html"
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", sc.Kind)
	}

	data := struct {
		TeamName   string
		PaperTitle string
		Status     models.PaperStatus
		Tier       string
	}{
		TeamName:   sc.TeamName,
		PaperTitle: sc.PaperTitle,
		Status:     sc.Status,
	}
	if sc.Tier != nil {
		data.Tier = string(*sc.Tier)
	}

	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return subject, buf.String(), nil
}
