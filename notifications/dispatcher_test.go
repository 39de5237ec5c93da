package notifications

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confdesk/conference-system/models"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordingMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func newTestDispatcher(t *testing.T, mailer Mailer, queueSize int) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)), queueSize)
	require.NoError(t, err)
	return d
}

func TestRenderAccepted(t *testing.T) {
	d := newTestDispatcher(t, &recordingMailer{}, 1)
	tier := models.Tier2

	subject, body, err := d.render(StatusChange{
		Kind:       KindPaperAccepted,
		TeamName:   "Team Apex",
		PaperTitle: "Adaptive Scheduling",
		Status:     models.StatusAcceptedUnpaid,
		Tier:       &tier,
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "Adaptive Scheduling")
	assert.Contains(t, body, "Team Apex")
	assert.Contains(t, body, "TIER_2")
}

func TestRenderEscapesHTML(t *testing.T) {
	d := newTestDispatcher(t, &recordingMailer{}, 1)

	_, body, err := d.render(StatusChange{
		Kind:       KindPaperRejected,
		TeamName:   "<script>alert(1)</script>",
		PaperTitle: "X",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRenderUnknownKind(t *testing.T) {
	d := newTestDispatcher(t, &recordingMailer{}, 1)
	_, _, err := d.render(StatusChange{Kind: "carrier_pigeon"})
	assert.Error(t, err)
}

func TestRunDeliversQueuedEvents(t *testing.T) {
	mailer := &recordingMailer{}
	d := newTestDispatcher(t, mailer, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(StatusChange{Kind: KindPaymentVerified, To: "lead@apex.test", TeamName: "Team Apex", PaperTitle: "X"})

	require.Eventually(t, func() bool {
		return len(mailer.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := mailer.all()[0]
	assert.Equal(t, "lead@apex.test", sent.to)
	assert.Contains(t, sent.subject, "Registration confirmed")
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	// Queue of one, no consumer running: the second event must not block.
	d := newTestDispatcher(t, &recordingMailer{}, 1)

	done := make(chan struct{})
	go func() {
		d.Enqueue(StatusChange{Kind: KindPaperAccepted, To: "a@x.test"})
		d.Enqueue(StatusChange{Kind: KindPaperAccepted, To: "b@x.test"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	assert.Len(t, d.queue, 1)
}
