package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

var formatsCmd = &cli.Command{
	Name:  "formats",
	Usage: "List available formats for a video",
	Arguments: []cli.Argument{
		&cli.StringArg{Name: "url", Config: cli.StringConfig{TrimSpace: true}},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.yml",
		},
		&cli.StringFlag{Name: "proxy"},
		&cli.BoolFlag{Name: "no-proxy"},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		url := command.StringArg("url")
		if url == "" {
			return errors.New("url is required")
		}

		config, err := LoadConfig(command.String("config"))
		if err != nil {
			return err
		}
		proxy, err := resolveProxy(command, config, false)
		if err != nil {
			return err
		}

		fetcher := NewYtDlpFetcher(config, config.Output, proxy, config.Format)
		formats, err := fetcher.ListFormats(ctx, url)
		if err != nil {
			return err
		}
		printFormats(formats)
		return nil
	},
}

func printFormats(formats []VideoFormat) {
	if len(formats) == 0 {
		fmt.Println("No formats available")
		return
	}

	line := strings.Repeat("-", 80)
	fmt.Println(line)
	fmt.Printf("%-12s%-8s%-14s%-12s%s\n", "ID", "ext", "resolution", "size", "note")
	fmt.Println(line)
	for _, f := range formats {
		size := "unknown"
		if f.Filesize > 0 {
			size = fmt.Sprintf("%.2f MB", float64(f.Filesize)/1024/1024)
		}
		fmt.Printf("%-12s%-8s%-14s%-12s%s\n", f.FormatID, f.Ext, f.Resolution, size, f.FormatNote)
	}
	fmt.Println(line)
	fmt.Println("Special selectors:")
	fmt.Println("best                 - best combined video and audio")
	fmt.Println("bestvideo+bestaudio  - best video and audio merged")
	fmt.Println(line)
}
