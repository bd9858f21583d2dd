package worker

import (
	"context"
	"testing"
	"time"
)

func drainEventually(t *testing.T, p *Pool, n int) []Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var got []Result
	for time.Now().Before(deadline) {
		got = append(got, p.Drain()...)
		if len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return got
}

func TestBranchDeliversStdoutOnExit(t *testing.T) {
	p := NewPool(4)
	p.Branch(context.Background(), Print, "sess-1", "echo", "hello")

	got := drainEventually(t, p, 1)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	r := got[0]
	if r.Kind != Print || r.Requester != "sess-1" {
		t.Fatalf("got %+v", r)
	}
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if string(r.Output) != "hello\n" {
		t.Fatalf("output = %q, want %q", r.Output, "hello\n")
	}
}

func TestBranchPermitsExitWithoutOutput(t *testing.T) {
	p := NewPool(4)
	p.Branch(context.Background(), Lister, "sess-2", "true")

	got := drainEventually(t, p, 1)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Err != nil {
		t.Fatalf("unexpected error: %v", got[0].Err)
	}
	if len(got[0].Output) != 0 {
		t.Fatalf("output = %q, want empty", got[0].Output)
	}
}

func TestBranchReportsStartError(t *testing.T) {
	p := NewPool(4)
	p.Branch(context.Background(), Print, "sess-3", "/no/such/binary-xyz")

	got := drainEventually(t, p, 1)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestDrainIsNonBlockingWhenEmpty(t *testing.T) {
	p := NewPool(4)
	if got := p.Drain(); len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestDeliverDropsWhenBacklogFull(t *testing.T) {
	p := NewPool(1)
	p.deliver(Result{Requester: "a"})
	p.deliver(Result{Requester: "b"}) // backlog full, dropped rather than blocking

	got := p.Drain()
	if len(got) != 1 || got[0].Requester != "a" {
		t.Fatalf("got %+v, want only the first delivered result", got)
	}
}
