package youtube

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	s.delays = append(s.delays, d)
}

func TestAttemptSucceedsImmediately(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		calls++
		return &VideoInfo{Title: "a title"}, nil
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(context.Background(), Task{URL: "urlA", Index: 1, Total: 1}, fetch, 3, rec.sleep)

	if calls != 1 {
		t.Fatalf("expected 1 fetch call, got %d", calls)
	}
	if !outcome.Succeeded || outcome.Title != "a title" || outcome.Err != "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(rec.delays) != 0 {
		t.Fatalf("expected no backoff, got %v", rec.delays)
	}
}

func TestAttemptCarriesFileMetadata(t *testing.T) {
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		return &VideoInfo{Title: "a title", Ext: "webm", FileName: "a title.webm"}, nil
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(context.Background(), Task{URL: "urlA"}, fetch, 1, rec.sleep)

	if !outcome.Succeeded {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Ext != "webm" || outcome.FileName != "a title.webm" {
		t.Fatalf("expected file metadata on the outcome, got %+v", outcome)
	}
}

func TestAttemptFileNamePredictedWhenAbsent(t *testing.T) {
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		return &VideoInfo{Title: "a title", Ext: "webm"}, nil
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(context.Background(), Task{URL: "urlA"}, fetch, 1, rec.sleep)

	if outcome.FileName != "a title.webm" {
		t.Fatalf("expected a predicted file name, got %+v", outcome)
	}
}

func TestAttemptRetriesThenSucceeds(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		calls++
		if calls < 3 {
			return nil, errors.Mark(errors.New("boom"), ErrDownload)
		}
		return &VideoInfo{Title: "third time lucky"}, nil
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(context.Background(), Task{URL: "urlA"}, fetch, 3, rec.sleep)

	if calls != 3 {
		t.Fatalf("expected 3 fetch calls, got %d", calls)
	}
	if !outcome.Succeeded {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(rec.delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, rec.delays)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("expected delays %v, got %v", want, rec.delays)
		}
	}
}

func TestAttemptExhaustsRetries(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		calls++
		return nil, errors.Mark(errors.New("always failing"), ErrDownload)
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(context.Background(), Task{URL: "urlA"}, fetch, 3, rec.sleep)

	if calls != 3 {
		t.Fatalf("expected 3 fetch calls, got %d", calls)
	}
	if outcome.Succeeded {
		t.Fatalf("unexpected success: %+v", outcome)
	}
	if outcome.Err == "" {
		t.Fatal("expected a non-empty error message")
	}
	// No wait after the final attempt.
	if len(rec.delays) != 2 {
		t.Fatalf("expected 2 backoff waits, got %v", rec.delays)
	}
}

func TestAttemptEmptyMetadataIsFailure(t *testing.T) {
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		return nil, nil
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(context.Background(), Task{URL: "urlA"}, fetch, 1, rec.sleep)

	if outcome.Succeeded {
		t.Fatalf("unexpected success: %+v", outcome)
	}
	if outcome.Err == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestAttemptStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fetch := func(ctx context.Context, url string) (*VideoInfo, error) {
		calls++
		cancel()
		return nil, errors.New("failed")
	}

	rec := &sleepRecorder{}
	outcome := attemptDownload(ctx, Task{URL: "urlA"}, fetch, 5, rec.sleep)

	if calls != 1 {
		t.Fatalf("expected 1 fetch call after cancellation, got %d", calls)
	}
	if outcome.Succeeded {
		t.Fatalf("unexpected success: %+v", outcome)
	}
}
