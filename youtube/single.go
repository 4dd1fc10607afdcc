package youtube

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var downloadSingleCmd = &cli.Command{
	Name:  "single",
	Usage: "Download a single video",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.yml",
		},
		&cli.StringFlag{Name: "url"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}},
		&cli.StringFlag{Name: "proxy"},
		&cli.BoolFlag{Name: "no-proxy"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}},
		&cli.IntFlag{Name: "retries", Aliases: []string{"r"}},
		&cli.BoolFlag{Name: "list-formats"},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		config, err := LoadConfig(command.String("config"))
		if err != nil {
			return err
		}

		url := command.String("url")
		interactive := url == ""
		if interactive {
			url, err = promptLine("Enter video URL: ")
			if err != nil {
				return err
			}
			if url == "" {
				zap.L().Info("No URL given, nothing to do")
				return nil
			}
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

		listFormats := command.Bool("list-formats")
		if interactive && !listFormats {
			listFormats, err = askYesNo("List available formats? (y/n): ")
			if err != nil {
				return err
			}
		}
		if listFormats {
			fetcher := NewYtDlpFetcher(config, outputPath, proxy, format)
			formats, err := fetcher.ListFormats(ctx, url)
			if err != nil {
				zap.S().Errorf("Listing formats failed: %v", err)
			} else {
				printFormats(formats)
				if interactive {
					choice, err := askString("Format ID (empty for "+format+"): ", format)
					if err != nil {
						return err
					}
					format = choice
				}
			}
		}

		maxRetries := command.Int("retries")
		if maxRetries == 0 {
			maxRetries = config.MaxRetries
		}

		zap.S().Infof("URL: %s, output: %s, proxy: %q, format: %s", url, outputPath, proxy, format)

		fetcher := NewYtDlpFetcher(config, outputPath, proxy, format)
		task := Task{URL: url}
		outcome := attemptDownload(ctx, task, fetcher.Fetch, maxRetries, sleepWithContext)

		if !outcome.Succeeded && proxy != "" && interactive && ctx.Err() == nil {
			ok, err := askYesNo("Download with proxy failed, try a direct connection? (y/n): ")
			if err != nil {
				return err
			}
			if ok {
				zap.L().Info("Retrying without proxy")
				direct := NewYtDlpFetcher(config, outputPath, "", format)
				outcome = attemptDownload(ctx, task, direct.Fetch, maxRetries, sleepWithContext)
			}
		}

		if outcome.Succeeded {
			history, err := NewHistory(config.HistoryDB)
			if err != nil {
				return err
			}
			err = history.Save(&HistoryEntry{
				URL:      outcome.URL,
				Title:    outcome.Title,
				FileName: outcome.FileName,
			})
			if err != nil {
				zap.S().Errorf("Saving history failed: %v", err)
			}
		} else {
			zap.S().Warnf("Download failed: %s", outcome.Err)
		}

		if ctx.Err() != nil {
			return ErrCancelled
		}
		return nil
	},
}
