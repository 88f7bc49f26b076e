package wake_test

import (
	"testing"
	"time"

	"github.com/karlbohlmark/zipc/wake"
)

func TestWaitTimesOutWhenNeverWoken(t *testing.T) {
	var addr uint32

	start := time.Now()
	err := wake.Default.Wait(&addr, 0, 30*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil && err != wake.ErrTimeout {
		t.Fatalf("Wait: unexpected error %v", err)
	}
	if elapsed < 20*time.Millisecond {
		t.Fatalf("Wait returned too early: %v", elapsed)
	}
}

func TestWaitReturnsImmediatelyWhenValueAlreadyChanged(t *testing.T) {
	var addr uint32 = 5

	start := time.Now()
	if err := wake.Default.Wait(&addr, 0, time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("Wait on already-changed address blocked")
	}
}

func TestWakeUnblocksWaiter(t *testing.T) {
	var addr uint32
	done := make(chan error, 1)

	go func() {
		done <- wake.Default.Wait(&addr, 0, time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	addr = 1
	if err := wake.Default.Wake(&addr); err != nil {
		t.Fatalf("Wake: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait after Wake: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after Wake")
	}
}
