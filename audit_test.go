package eventra

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/eventrahq/eventra/users"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

// gateSink blocks every delivery until the gate is fed, letting tests pin the
// dispatcher goroutine mid-flight.
type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func newAuditCore(t *testing.T, cfg Config, sink AuditSink) (*Core, *captureSender) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sender := &captureSender{}
	core, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithOTPSender(sender).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(core.Close)

	return core, sender
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	core, _ := newAuditCore(t, cfg, sink)

	_, _ = core.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginFailureEventCarriesFields(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = true

	sink := NewChannelSink(8)
	core, sender := newAuditCore(t, cfg, sink)

	verifiedUser(t, core, sender, "alice@example.com", "Str0ngPass", users.RolePlanner)

	// Drain the signup/verify events so the next one is the failed login.
	for drained := false; !drained; {
		select {
		case <-sink.Events():
		case <-time.After(200 * time.Millisecond):
			drained = true
		}
	}

	_, _ = core.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "super-secret-wrong",
		IP:       "198.51.100.33",
	})

	select {
	case ev := <-sink.Events():
		if ev.EventType != "login" {
			t.Fatalf("EventType = %q, want login", ev.EventType)
		}
		if ev.Success {
			t.Fatal("failed login should record Success=false")
		}
		if ev.IP != "198.51.100.33" {
			t.Fatalf("IP = %q, want 198.51.100.33", ev.IP)
		}
		if ev.Error == "" {
			t.Fatal("expected error field to be populated")
		}
		if strings.Contains(ev.Error, "super-secret-wrong") {
			t.Fatal("password leaked in audit error")
		}
		for _, v := range ev.Metadata {
			if strings.Contains(v, "super-secret-wrong") {
				t.Fatal("password leaked in audit metadata")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event to be received")
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditCloseDrainsBuffer(t *testing.T) {
	sink := &countingSink{}
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 8,
		DropIfFull: true,
	}, sink)

	for i := 0; i < 5; i++ {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e"})
	}
	dispatcher.Close()

	if got := sink.Count(); got != 5 {
		t.Fatalf("expected 5 delivered events after Close, got %d", got)
	}
}

func TestAuditDisabledDispatcherIsNilAndInert(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if dispatcher != nil {
		t.Fatal("disabled config should yield a nil dispatcher")
	}

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e"})
	dispatcher.Close()
	if dispatcher.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "login",
		UserID:    "u1",
		IP:        "127.0.0.1",
		Success:   true,
	}
	sink.Emit(context.Background(), event)

	if !buf.Contains(`"event_type":"login"`) {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains(`"user_id":"u1"`) {
		t.Fatal("expected JSON log line to contain user id")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false

	sink := NewChannelSink(32)
	core, sender := newAuditCore(t, cfg, sink)
	ctx := context.Background()

	password := "correct-Password-123"
	_, pair := verifiedUser(t, core, sender, "alice@example.com", password, users.RolePlanner)

	res, err := core.Login(ctx, LoginInput{Email: "alice@example.com", Password: password})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := core.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	secretNeedles := []string{password, pair.RefreshToken, res.Tokens.RefreshToken}

	events := make([]AuditEvent, 0, 8)
	timeout := time.After(2 * time.Second)
collectLoop:
	for len(events) < 8 {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			break collectLoop
		}
	}

	if len(events) == 0 {
		t.Fatal("expected at least one audit event")
	}

	for _, ev := range events {
		for _, needle := range secretNeedles {
			if needle == "" {
				continue
			}
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in audit error field: %q", needle)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in audit metadata: %q", needle)
				}
			}
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}
