package youtube

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/flytam/filenamify"
	"github.com/lrstanley/go-ytdlp"
)

// ErrDownload marks failures reported by the download layer itself
// (yt-dlp extraction or transfer errors), as opposed to plumbing
// failures like a missing binary or unparseable metadata.
var ErrDownload = errors.New("download error")

// VideoInfo is the metadata record the external fetcher returns for a
// downloaded (or probed) video.
type VideoInfo struct {
	Title    string
	Ext      string
	FileName string
	Formats  []VideoFormat
}

type VideoFormat struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	Filesize   int64  `json:"filesize"`
	FormatNote string `json:"format_note"`
}

// FetchFunc performs one extraction/download attempt for a URL.
type FetchFunc func(ctx context.Context, url string) (*VideoInfo, error)

// YtDlpFetcher downloads videos by driving the yt-dlp binary through
// go-ytdlp.
type YtDlpFetcher struct {
	Path            string
	OutputPath      string
	Format          string
	Proxy           string
	SocketTimeout   int
	InternalRetries int
}

func NewYtDlpFetcher(config *Config, outputPath, proxy, format string) *YtDlpFetcher {
	return &YtDlpFetcher{
		Path:            config.YtDlp,
		OutputPath:      outputPath,
		Format:          format,
		Proxy:           proxy,
		SocketTimeout:   config.SocketTimeout,
		InternalRetries: config.FetcherRetries,
	}
}

func (f *YtDlpFetcher) command(download bool) *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		GeoBypass().
		GeoBypassCountry("US").
		SocketTimeout(float64(f.SocketTimeout)).
		Retries(strconv.Itoa(f.InternalRetries))
	if f.Path != "" {
		dl = dl.SetExecutable(f.Path)
	}
	if download {
		dl = dl.PrintJSON().
			Format(f.Format).
			Output(filepath.Join(f.OutputPath, "%(title)s.%(ext)s"))
	} else {
		dl = dl.DumpSingleJSON().SkipDownload()
	}
	if f.Proxy != "" {
		dl = dl.Proxy(f.Proxy)
	}
	return dl
}

// Fetch downloads url and returns its metadata. Download-layer
// failures carry the ErrDownload mark.
func (f *YtDlpFetcher) Fetch(ctx context.Context, url string) (*VideoInfo, error) {
	err := os.MkdirAll(f.OutputPath, 0755)
	if err != nil {
		return nil, err
	}

	result, err := f.run(ctx, url, true)
	if err != nil {
		return nil, err
	}
	extracted, err := result.GetExtractedInfo()
	if err != nil {
		return nil, errors.Wrap(err, "parse video metadata")
	}
	return videoInfoFromExtracted(extracted)
}

// ListFormats probes url without downloading and returns the formats
// the platform offers.
func (f *YtDlpFetcher) ListFormats(ctx context.Context, url string) ([]VideoFormat, error) {
	result, err := f.run(ctx, url, false)
	if err != nil {
		return nil, err
	}
	return parseFormats(result.Stdout)
}

func (f *YtDlpFetcher) run(ctx context.Context, url string, download bool) (*ytdlp.Result, error) {
	result, err := f.command(download).Run(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if result != nil {
			if line := lastErrorLine(result.Stderr); line != "" {
				return nil, errors.Mark(errors.Newf("yt-dlp: %s", line), ErrDownload)
			}
		}
		return nil, errors.Wrap(err, "yt-dlp failed")
	}
	return result, nil
}

// lastErrorLine extracts the last "ERROR: ..." line from yt-dlp's
// stderr, which carries the actual failure reason.
func lastErrorLine(stderr string) string {
	result := ""
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			result = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return result
}

// videoInfoFromExtracted maps go-ytdlp's extracted metadata to the
// fetcher contract. A record without a title counts as a failed
// extraction.
func videoInfoFromExtracted(extracted []*ytdlp.ExtractedInfo) (*VideoInfo, error) {
	if len(extracted) == 0 || extracted[0] == nil {
		return nil, errors.Mark(errors.New("no video info"), ErrDownload)
	}
	first := extracted[0]
	if first.Title == nil || *first.Title == "" {
		return nil, errors.Mark(errors.New("no video info"), ErrDownload)
	}

	info := &VideoInfo{Title: *first.Title}
	if first.Filename != nil && *first.Filename != "" {
		info.FileName = filepath.Base(*first.Filename)
		info.Ext = strings.TrimPrefix(filepath.Ext(info.FileName), ".")
	}
	return info, nil
}

// parseFormats decodes the formats array from a --dump-single-json
// record; the extracted-info mapping doesn't carry the full format
// table the listing needs.
func parseFormats(stdout string) ([]VideoFormat, error) {
	var record struct {
		Formats []VideoFormat `json:"formats"`
	}
	err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &record)
	if err != nil {
		return nil, errors.Wrap(err, "parse video metadata")
	}
	return record.Formats, nil
}

// newFileName predicts the on-disk name yt-dlp's output template
// produces, sanitized the same way for the history record.
func newFileName(title string, ext string) string {
	if ext == "" {
		ext = "mp4"
	}
	fileName, err := filenamify.FilenamifyV2(title + "." + ext)
	if err != nil {
		return title + "." + ext
	}
	return fileName
}
