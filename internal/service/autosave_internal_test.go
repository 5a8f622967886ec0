package service

import (
	"context"
	"testing"
	"time"
)

func TestAutosaver_ClaimSkipsTemplateInFlight(t *testing.T) {
	a := NewAutosaver(nil, "@every 1h")

	if !a.claim("tpl-1") {
		t.Fatal("expected first claim to succeed")
	}
	if a.claim("tpl-1") {
		t.Fatal("expected second claim for the same template to fail")
	}
	if !a.claim("tpl-2") {
		t.Fatal("expected claim for another template to succeed")
	}
	a.release("tpl-1")
	a.release("tpl-2")

	if !a.claim("tpl-1") {
		t.Fatal("expected claim to succeed after release")
	}
	a.release("tpl-1")
}

func TestAutosaver_WaitSaves(t *testing.T) {
	a := NewAutosaver(nil, "@every 1h")
	if !a.claim("tpl-a") {
		t.Fatal("expected claim to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		a.waitSaves(ctx)
		close(done)
	}()
	go func() {
		time.Sleep(20 * time.Millisecond)
		a.release("tpl-a")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitSaves timed out")
	}
}
