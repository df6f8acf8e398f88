package logbus

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendEvictsOldestBeyondCapacity(t *testing.T) {
	b := New(Config{HistorySize: 10})

	for i := 0; i < 15; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	history := b.History()
	if len(history) != 10 {
		t.Fatalf("expected history length 10, got %d", len(history))
	}

	// First 5 lines must have been evicted; the rest kept in order.
	for i, line := range history {
		want := fmt.Sprintf("line-%d", i+5)
		if line != want {
			t.Errorf("history[%d] = %q, want %q", i, line, want)
		}
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	b := New(Config{HistorySize: 50})

	for i := 0; i < 500; i++ {
		b.Append("x")
		if got := len(b.History()); got > 50 {
			t.Fatalf("history grew to %d entries after %d appends", got, i+1)
		}
	}
}

func TestSubscribeSeedsRecentHistoryOldestFirst(t *testing.T) {
	b := New(Config{HistorySize: 100, SeedSize: 5})

	for i := 0; i < 20; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	sub := b.Subscribe()
	defer sub.Close()

	for i := 0; i < 5; i++ {
		want := fmt.Sprintf("line-%d", i+15)
		select {
		case got := <-sub.Lines():
			if got != want {
				t.Errorf("seed line %d = %q, want %q", i, got, want)
			}
		default:
			t.Fatalf("seed line %d not queued", i)
		}
	}

	// Nothing beyond the seed window.
	select {
	case extra := <-sub.Lines():
		t.Fatalf("unexpected extra line %q", extra)
	default:
	}
}

func TestSubscribeWithShortHistorySeedsEverything(t *testing.T) {
	b := New(Config{SeedSize: 500})

	b.Append("a")
	b.Append("b")

	sub := b.Subscribe()
	defer sub.Close()

	if got := <-sub.Lines(); got != "a" {
		t.Errorf("first seed line = %q, want %q", got, "a")
	}
	if got := <-sub.Lines(); got != "b" {
		t.Errorf("second seed line = %q, want %q", got, "b")
	}
}

func TestSeedThenLiveDeliveryHasNoGapsOrDuplicates(t *testing.T) {
	b := New(Config{HistorySize: 1000, SeedSize: 500, QueueSize: 2000})

	for i := 0; i < 100; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	sub := b.Subscribe()
	defer sub.Close()

	for i := 100; i < 200; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	// Expect lines 0..199 in order: 100 seeded, 100 live.
	for i := 0; i < 200; i++ {
		want := fmt.Sprintf("line-%d", i)
		select {
		case got := <-sub.Lines():
			if got != want {
				t.Fatalf("line %d = %q, want %q", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for line %d", i)
		}
	}
}

func TestStalledSubscriberIsDroppedNotBlocking(t *testing.T) {
	b := New(Config{HistorySize: 100, SeedSize: 1, QueueSize: 2})

	stalled := b.Subscribe() // never drained
	fast := b.Subscribe()    // drained after every append

	// The fast subscriber keeps receiving promptly while the stalled one
	// overflows its 2-slot queue and gets dropped.
	for i := 0; i < 10; i++ {
		want := fmt.Sprintf("line-%d", i)
		b.Append(want)

		select {
		case got, ok := <-fast.Lines():
			if !ok {
				t.Fatal("fast subscriber was dropped")
			}
			if got != want {
				t.Fatalf("fast subscriber line %d = %q, want %q", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("delivery to the fast subscriber was delayed by the stalled one")
		}
	}

	if got := b.SubscriberCount(); got != 1 {
		t.Errorf("expected 1 live subscriber after overflow, got %d", got)
	}

	// The stalled subscription's channel must be closed once its queued
	// lines are drained.
	drained := 0
	for range stalled.Lines() {
		drained++
	}
	if drained == 0 {
		t.Error("stalled subscriber lost its queued lines")
	}

	fast.Close()
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New(Config{})

	sub := b.Subscribe()
	sub.Close()
	sub.Close()
	b.Unsubscribe(sub)

	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}

	// Appending after unsubscribe must not panic on the closed channel.
	b.Append("after")
}

func TestOrderPreservedAcrossSubscribers(t *testing.T) {
	b := New(Config{})

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer sub1.Close()
	defer sub2.Close()

	for i := 0; i < 100; i++ {
		b.Append(fmt.Sprintf("line-%d", i))
	}

	for _, sub := range []*Subscription{sub1, sub2} {
		for i := 0; i < 100; i++ {
			want := fmt.Sprintf("line-%d", i)
			if got := <-sub.Lines(); got != want {
				t.Fatalf("line %d = %q, want %q", i, got, want)
			}
		}
	}
}

func TestConcurrentAppendAndSubscribe(t *testing.T) {
	b := New(Config{HistorySize: 10000, SeedSize: 10000, QueueSize: 20000})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Append(fmt.Sprintf("line-%d", i))
		}
	}()

	// Subscribers attaching mid-stream must see a gapless, duplicate-free
	// suffix-complete sequence: seed + live together cover every line from
	// their first received index to 999.
	subs := make([]*Subscription, 0, 4)
	for i := 0; i < 4; i++ {
		subs = append(subs, b.Subscribe())
	}
	wg.Wait()

	for n, sub := range subs {
		var lines []string
	drain:
		for {
			select {
			case line := <-sub.Lines():
				lines = append(lines, line)
			default:
				break drain
			}
		}
		if len(lines) == 0 {
			t.Fatalf("subscriber %d received nothing", n)
		}

		var first int
		if _, err := fmt.Sscanf(lines[0], "line-%d", &first); err != nil {
			t.Fatalf("subscriber %d: malformed first line %q", n, lines[0])
		}
		for i, line := range lines {
			want := fmt.Sprintf("line-%d", first+i)
			if line != want {
				t.Fatalf("subscriber %d: line %d = %q, want %q (gap or duplicate)", n, i, line, want)
			}
		}
		if lines[len(lines)-1] != "line-999" {
			t.Errorf("subscriber %d: last line = %q, want line-999", n, lines[len(lines)-1])
		}
		sub.Close()
	}
}
