package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	submits []string
	notices []string
	fail    error
}

func (r *recorder) Submit(_ context.Context, formKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.submits = append(r.submits, formKey)
	return nil
}

func (r *recorder) Notify(_ context.Context, formKey, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, formKey+": "+message)
}

func TestFormGate_PendingHoldsSubmission(t *testing.T) {
	rec := &recorder{}
	c := NewCompletion([]string{"/opts"})
	reg := NewRegistry(c, WithNotifier(rec))
	g := reg.Install("article", rec)

	if err := g.Submit(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if len(rec.submits) != 0 {
		t.Fatalf("pending gate must not submit")
	}
	if len(rec.notices) != 1 || rec.notices[0] != "article: "+WaitNotice {
		t.Fatalf("unexpected notices %#v", rec.notices)
	}
	if g.State() != StatePending {
		t.Fatalf("state = %s, want pending", g.State())
	}
}

func TestFormGate_ReadyOnlyAfterCompletion(t *testing.T) {
	rec := &recorder{}
	c := NewCompletion([]string{"/a", "/b"})
	reg := NewRegistry(c, WithNotifier(rec))
	g := reg.Install("article", rec)

	c.Settle("/a", nil)
	if g.State() != StatePending {
		t.Fatalf("gate must stay pending while a source is outstanding")
	}
	c.Settle("/b", nil)
	if g.State() != StateReady {
		t.Fatalf("state = %s, want ready", g.State())
	}

	if err := g.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if g.State() != StateSubmitted {
		t.Fatalf("state = %s, want submitted", g.State())
	}
	if err := g.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if len(rec.submits) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(rec.submits))
	}
}

func TestFormGate_FailedSubmissionReturnsToReady(t *testing.T) {
	rec := &recorder{fail: errors.New("network down")}
	reg := NewRegistry(NewCompletion(nil))
	g := reg.Install("article", rec)

	if err := g.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit error")
	}
	if g.State() != StateReady {
		t.Fatalf("state = %s, want ready", g.State())
	}
}

func TestFormGate_SubmitWhenReadyWaits(t *testing.T) {
	rec := &recorder{}
	c := NewCompletion([]string{"/a"})
	g := NewRegistry(c).Install("article", rec)

	errCh := make(chan error, 1)
	go func() { errCh <- g.SubmitWhenReady(context.Background()) }()

	select {
	case err := <-errCh:
		t.Fatalf("submitted before completion: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	c.Settle("/a", nil)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("submission did not happen after completion")
	}
	if len(rec.submits) != 1 {
		t.Fatalf("expected one submission, got %d", len(rec.submits))
	}
}

func TestFormGate_ConcurrentSubmitsOnce(t *testing.T) {
	rec := &recorder{}
	g := NewRegistry(NewCompletion(nil)).Install("article", rec)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Submit(context.Background())
		}()
	}
	wg.Wait()
	if len(rec.submits) != 1 {
		t.Fatalf("expected one submission, got %d", len(rec.submits))
	}
}

func TestRegistry_InstallIsIdempotent(t *testing.T) {
	first := &recorder{}
	second := &recorder{}
	reg := NewRegistry(NewCompletion(nil))

	a := reg.Install("article", first)
	b := reg.Install("article", second)
	if a != b {
		t.Fatalf("expected the same gate for repeated installs")
	}
	if err := b.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(first.submits) != 1 || len(second.submits) != 0 {
		t.Fatalf("first submitter must win: first=%d second=%d", len(first.submits), len(second.submits))
	}
	reg.Install("comment", nil)
	if keys := reg.Keys(); len(keys) != 2 || keys[0] != "article" || keys[1] != "comment" {
		t.Fatalf("unexpected keys %#v", keys)
	}
}
