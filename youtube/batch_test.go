package youtube

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func alwaysSucceed(ctx context.Context, url string) (*VideoInfo, error) {
	return &VideoInfo{Title: "title of " + url}, nil
}

func TestRunOneOutcomePerURL(t *testing.T) {
	urls := []string{"urlA", "urlB", "urlC"}
	b := NewBatch(2, 1)
	results := b.Run(context.Background(), urls, alwaysSucceed)

	if len(results) != len(urls) {
		t.Fatalf("expected %d outcomes, got %d", len(urls), len(results))
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if !r.Succeeded {
			t.Fatalf("unexpected failure: %+v", r)
		}
		if seen[r.URL] {
			t.Fatalf("duplicate outcome for %s", r.URL)
		}
		seen[r.URL] = true
	}
	if successCount(results) != 3 {
		t.Fatalf("expected 3/3, got %d/3", successCount(results))
	}
}

func TestRunConcurrencyBound(t *testing.T) {
	const workers = 2
	var inFlight, maxInFlight atomic.Int32

	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		cur := inFlight.Add(1)
		for {
			seen := maxInFlight.Load()
			if cur <= seen || maxInFlight.CompareAndSwap(seen, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return &VideoInfo{Title: url}, nil
	}

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = "url"
	}
	b := NewBatch(workers, 1)
	results := b.Run(context.Background(), urls, fetch)

	if len(results) != len(urls) {
		t.Fatalf("expected %d outcomes, got %d", len(urls), len(results))
	}
	if got := maxInFlight.Load(); got > workers {
		t.Fatalf("concurrency bound violated: %d > %d", got, workers)
	}
}

func TestRunPanicBecomesFailedOutcome(t *testing.T) {
	urls := []string{"a", "b", "crash", "d", "e"}
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		if url == "crash" {
			panic("unexpected internal error")
		}
		return &VideoInfo{Title: url}, nil
	}

	b := NewBatch(2, 1)
	results := b.Run(context.Background(), urls, fetch)

	if len(results) != len(urls) {
		t.Fatalf("expected %d outcomes, got %d", len(urls), len(results))
	}
	if successCount(results) != 4 {
		t.Fatalf("expected 4 successes, got %d", successCount(results))
	}
	for _, r := range results {
		if r.URL == "crash" {
			if r.Succeeded || r.Err == "" {
				t.Fatalf("expected failed outcome with message, got %+v", r)
			}
		}
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		calls.Add(1)
		return &VideoInfo{Title: url}, nil
	}

	b := NewBatch(2, 1)
	results := b.Run(ctx, []string{"a", "b", "c"}, fetch)

	if len(results) != 0 {
		t.Fatalf("expected no outcomes after cancellation, got %d", len(results))
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no fetch calls after cancellation, got %d", calls.Load())
	}
}

func TestRunCancelledMidwayKeepsCollectedOutcomes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		return &VideoInfo{Title: "title of " + url}, nil
	}

	urls := []string{"a", "b", "c", "d"}
	b := NewBatch(1, 1)
	results := b.Run(ctx, urls, fetch)

	// With one worker the cancellation lands during the second task, so
	// exactly the first two outcomes are collected and the queued tasks
	// never start.
	if len(results) != 2 {
		t.Fatalf("expected 2 outcomes, got %d: %+v", len(results), results)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 fetch calls, got %d", calls.Load())
	}
	for i, url := range []string{"a", "b"} {
		if results[i].URL != url || !results[i].Succeeded {
			t.Fatalf("expected completed outcome for %s, got %+v", url, results[i])
		}
		if results[i].Title != "title of "+url {
			t.Fatalf("collected outcome altered: %+v", results[i])
		}
	}
}

func TestRunSubmissionFollowsInputOrder(t *testing.T) {
	var mu sync.Mutex
	started := make([]string, 0)
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		mu.Lock()
		started = append(started, url)
		mu.Unlock()
		return &VideoInfo{Title: url}, nil
	}

	urls := []string{"a", "b", "c", "d"}
	b := NewBatch(1, 1)
	results := b.Run(context.Background(), urls, fetch)

	if len(results) != len(urls) {
		t.Fatalf("expected %d outcomes, got %d", len(urls), len(results))
	}
	// With a single worker, start order is exactly input order.
	for i, url := range urls {
		if started[i] != url {
			t.Fatalf("expected submission order %v, got %v", urls, started)
		}
	}
}
