package youtube

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Batch runs retry-wrapped downloads over many URLs with a hard cap of
// Workers concurrently in-flight tasks.
type Batch struct {
	Workers    int
	MaxRetries int
	// Limiter, when set, gates task starts across all workers.
	Limiter *rate.Limiter
	// Progress draws a completion bar on top of the log output.
	Progress bool

	sleep sleepFunc
}

func NewBatch(workers, maxRetries int) *Batch {
	if workers < 1 {
		workers = 1
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Batch{
		Workers:    workers,
		MaxRetries: maxRetries,
		sleep:      sleepWithContext,
	}
}

// Run downloads every URL and returns one outcome per completed task,
// in completion order. Tasks are submitted in input order. When ctx is
// cancelled, queued tasks are abandoned and produce no outcome; that is
// the only case where fewer outcomes than URLs are returned.
func (b *Batch) Run(ctx context.Context, urls []string, fetch FetchFunc) []Outcome {
	total := len(urls)
	tasks := make(chan Task, total)
	for i, url := range urls {
		tasks <- Task{URL: url, Index: i + 1, Total: total}
	}
	close(tasks)

	zap.S().Infof("Starting batch download of %d videos", total)

	outcomes := make(chan Outcome, total)
	var wg sync.WaitGroup
	for i := 0; i < b.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				if ctx.Err() != nil {
					return
				}
				if b.Limiter != nil {
					if err := b.Limiter.Wait(ctx); err != nil {
						return
					}
				}
				outcomes <- b.runTask(ctx, task, fetch)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var bar *progressbar.ProgressBar
	if b.Progress {
		bar = newTaskProgressBar(total)
	}
	results := make([]Outcome, 0, total)
	for outcome := range outcomes {
		results = append(results, outcome)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	zap.S().Infof("Batch download finished: %d/%d succeeded", successCount(results), total)
	return results
}

// runTask converts a panicking task into a failed outcome so a single
// task can never stop or skip the others.
func (b *Batch) runTask(ctx context.Context, task Task, fetch FetchFunc) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorf("%sTask failed unexpectedly: %v", task.prefix(), r)
			outcome = Outcome{URL: task.URL, Err: fmt.Sprint(r)}
		}
	}()
	return attemptDownload(ctx, task, fetch, b.MaxRetries, b.sleep)
}

func successCount(results []Outcome) int {
	n := 0
	for _, r := range results {
		if r.Succeeded {
			n++
		}
	}
	return n
}

var downloadBatchCmd = &cli.Command{
	Name:  "batch",
	Usage: "Download many videos concurrently",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.yml",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "file with one URL per line, or a CSV/HTML file",
		},
		&cli.StringSliceFlag{
			Name:  "urls",
			Usage: "video URLs to download",
		},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}},
		&cli.StringFlag{Name: "proxy"},
		&cli.BoolFlag{Name: "no-proxy"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}},
		&cli.IntFlag{Name: "retries", Aliases: []string{"r"}},
		&cli.StringFlag{
			Name:  "report",
			Usage: "result report format: csv or xlsx",
			Value: "csv",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "download even when the URL is in the history",
		},
		&cli.BoolFlag{
			Name:  "direct",
			Usage: "plain HTTP download instead of yt-dlp",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "minimum delay between task starts",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		config, err := LoadConfig(command.String("config"))
		if err != nil {
			return err
		}

		var urls []string
		interactive := false
		if file := command.String("file"); file != "" {
			urls, err = ReadURLs(file)
			if err != nil {
				zap.S().Errorf("Reading %s failed: %v", file, err)
			}
			zap.S().Infof("Read %d URLs from %s", len(urls), file)
		} else if args := command.StringSlice("urls"); len(args) > 0 {
			urls = args
			zap.S().Infof("Read %d URLs from the command line", len(urls))
		} else {
			interactive = true
			urls, err = collectURLs()
			if err != nil {
				return err
			}
		}
		if len(urls) == 0 {
			zap.L().Info("No URLs to download, nothing to do")
			return nil
		}

		outputPath := command.String("output")
		if outputPath == "" {
			outputPath = config.Output
		}
		if interactive {
			outputPath, err = askString("Output path (empty for current directory): ", outputPath)
			if err != nil {
				return err
			}
		}

		proxy, err := resolveProxy(command, config, interactive)
		if err != nil {
			return err
		}

		format := command.String("format")
		if format == "" {
			format = config.Format
		}
		workers := command.Int("workers")
		if workers == 0 {
			workers = config.Workers
		}
		maxRetries := command.Int("retries")
		if maxRetries == 0 {
			maxRetries = config.MaxRetries
		}

		zap.S().Infof("URLs: %d, output: %s, proxy: %q, format: %s, workers: %d, retries: %d",
			len(urls), outputPath, proxy, format, workers, maxRetries)

		if interactive {
			ok, err := askYesNo("Start downloading? (y/n): ")
			if err != nil {
				return err
			}
			if !ok {
				zap.L().Info("Download cancelled")
				return nil
			}
		}

		history, err := NewHistory(config.HistoryDB)
		if err != nil {
			return err
		}
		if !command.Bool("force") {
			urls, err = history.FilterDownloaded(urls)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				zap.L().Info("All URLs already downloaded, nothing to do")
				return nil
			}
		}

		err = os.MkdirAll(outputPath, 0755)
		if err != nil {
			return err
		}

		var fetch FetchFunc
		if command.Bool("direct") {
			fetch = NewDirectFetcher(outputPath, proxy).Fetch
		} else {
			fetch = NewYtDlpFetcher(config, outputPath, proxy, format).Fetch
		}

		b := NewBatch(workers, maxRetries)
		b.Progress = true
		if interval := command.Duration("interval"); interval > 0 {
			b.Limiter = rate.NewLimiter(rate.Every(interval), 1)
		}

		results := b.Run(ctx, urls, fetch)

		for _, r := range results {
			if !r.Succeeded {
				continue
			}
			err = history.Save(&HistoryEntry{
				URL:      r.URL,
				Title:    r.Title,
				FileName: r.FileName,
			})
			if err != nil {
				zap.S().Errorf("Saving history for %s failed: %v", r.URL, err)
			}
		}

		// Report-writing failure never invalidates a completed batch.
		err = WriteResults(results, outputPath, ReportFormat(command.String("report")))
		if err != nil {
			zap.S().Errorf("Saving results failed: %v", err)
		}

		if ctx.Err() != nil {
			return ErrCancelled
		}
		return nil
	},
}
