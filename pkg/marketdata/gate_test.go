package marketdata

import (
	"testing"
	"time"
)

func TestGate_StartsOpen(t *testing.T) {
	gate := NewGate()
	if !gate.IsOpen() {
		t.Fatal("expected new gate to be open")
	}
	if !gate.Wait(time.Millisecond) {
		t.Fatal("expected wait on an open gate to return immediately")
	}
}

func TestGate_WaitTimesOut(t *testing.T) {
	gate := NewGate()
	gate.Close()

	start := time.Now()
	if gate.Wait(10 * time.Millisecond) {
		t.Fatal("expected wait on a closed gate to report closed")
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("expected wait to block for the full timeout")
	}
}

func TestGate_WaitWakesOnOpen(t *testing.T) {
	gate := NewGate()
	gate.Close()

	go func() {
		time.Sleep(5 * time.Millisecond)
		gate.Open()
	}()

	if !gate.Wait(time.Second) {
		t.Fatal("expected wait to observe the reopened gate")
	}
}

func TestGate_ReClose(t *testing.T) {
	gate := NewGate()
	gate.Close()
	gate.Open()
	gate.Close()

	if gate.IsOpen() {
		t.Fatal("expected gate to be closed")
	}
	if gate.Wait(time.Millisecond) {
		t.Fatal("expected wait to time out after re-close")
	}
}
