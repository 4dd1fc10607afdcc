package youtube

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flytam/filenamify"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const readStreamSliceTimeout = 30 * time.Second

// DirectFetcher downloads plain file URLs over HTTP without going
// through yt-dlp. It plugs into the orchestrator as a FetchFunc.
type DirectFetcher struct {
	OutputPath string
	client     *resty.Client
}

func NewDirectFetcher(outputPath, proxy string) *DirectFetcher {
	client := resty.New()
	// The transfer may take a long time; individual reads carry their
	// own deadline.
	client.SetTimeout(24 * time.Hour)
	if proxy != "" {
		client.SetProxy(proxy)
	}
	return &DirectFetcher{
		OutputPath: outputPath,
		client:     client,
	}
}

func (d *DirectFetcher) Fetch(ctx context.Context, rawURL string) (*VideoInfo, error) {
	fileName, err := fileNameFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(fileName, path.Ext(fileName))

	err = os.MkdirAll(d.OutputPath, 0755)
	if err != nil {
		return nil, err
	}
	filePath := filepath.Join(d.OutputPath, fileName)
	_, err = os.Stat(filePath)
	if err == nil {
		zap.S().Infof("Skip existing file %s", fileName)
		return &VideoInfo{
			Title:    title,
			Ext:      strings.TrimPrefix(path.Ext(fileName), "."),
			FileName: fileName,
		}, nil
	}

	rsp, err := d.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(rawURL)
	if err != nil {
		return nil, err
	}
	body := rsp.RawBody()
	defer func() { _ = body.Close() }()
	if rsp.StatusCode() >= 400 {
		return nil, errors.Mark(errors.Newf("unexpected status %s", rsp.Status()), ErrDownload)
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zap.L().Info("Downloading", zap.String("name", fileName))
	bar := newProgressBar(getContentLength(rsp.Header()), fileName)
	defer func() { _ = bar.Finish() }()

	buf := make([]byte, 1*1024*1024)
	writer := io.MultiWriter(f, bar)

	for {
		readCtx, cancel := context.WithTimeout(ctx, readStreamSliceTimeout)
		var n int
		n, err = readWithContext(readCtx, body, buf)
		cancel()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &VideoInfo{
					Title:    title,
					Ext:      strings.TrimPrefix(path.Ext(fileName), "."),
					FileName: fileName,
				}, nil
			}
			return nil, errors.Mark(err, ErrDownload)
		}

		_, err = writer.Write(buf[:n])
		if err != nil {
			return nil, err
		}
	}
}

func readWithContext(ctx context.Context, r io.Reader, buf []byte) (n int, err error) {
	done := make(chan struct{})
	go func() {
		n, err = r.Read(buf)
		close(done)
	}()

	select {
	case <-done:
		return n, err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func getContentLength(header http.Header) int64 {
	s := header.Get("Content-Length")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return v
}

func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = u.Host
	}
	if name == "" {
		return "", errors.Newf("can't derive a file name from %s", rawURL)
	}
	return filenamify.FilenamifyV2(name)
}
