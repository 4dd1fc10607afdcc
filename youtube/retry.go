package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Task is one URL's download request, including its position for
// progress display.
type Task struct {
	URL   string
	Index int
	Total int
}

func (t Task) prefix() string {
	if t.Index > 0 && t.Total > 0 {
		return fmt.Sprintf("[%d/%d] ", t.Index, t.Total)
	}
	return ""
}

// Outcome is the terminal result of a task after all retries. Exactly
// one Outcome exists per completed task.
type Outcome struct {
	URL       string
	Succeeded bool
	Title     string
	Ext       string
	FileName  string
	Err       string
}

type sleepFunc func(ctx context.Context, d time.Duration)

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// attemptDownload runs fetch up to maxRetries times with exponential
// backoff between attempts. Retry exhaustion is a reportable outcome,
// not an error; the batch is never terminated by a failing task.
func attemptDownload(ctx context.Context, task Task, fetch FetchFunc, maxRetries int, sleep sleepFunc) Outcome {
	if maxRetries < 1 {
		maxRetries = 1
	}
	prefix := task.prefix()
	lastErr := ""

	for attempt := 1; attempt <= maxRetries; attempt++ {
		zap.S().Infof("%sDownloading %s...", prefix, task.URL)
		info, err := fetch(ctx, task.URL)
		if err == nil && info != nil && info.Title != "" {
			zap.S().Infof("%sDownload finished: %s", prefix, info.Title)
			fileName := info.FileName
			if fileName == "" {
				fileName = newFileName(info.Title, info.Ext)
			}
			return Outcome{
				URL:       task.URL,
				Succeeded: true,
				Title:     info.Title,
				Ext:       info.Ext,
				FileName:  fileName,
			}
		}

		if err == nil {
			err = errors.Mark(errors.New("no video info"), ErrDownload)
		}
		lastErr = err.Error()
		if errors.Is(err, ErrDownload) {
			zap.S().Warnf("%sDownload error: %v", prefix, err)
		} else {
			zap.S().Warnf("%sError: %v", prefix, err)
		}

		if ctx.Err() != nil {
			break
		}
		if attempt < maxRetries {
			delay := backoffDelay(attempt)
			zap.S().Infof("%sWaiting %s before retry... (%d/%d)", prefix, delay, attempt, maxRetries)
			sleep(ctx, delay)
		}
	}

	zap.S().Warnf("%sMax retries reached, giving up on %s", prefix, task.URL)
	return Outcome{URL: task.URL, Err: lastErr}
}
