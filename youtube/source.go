package youtube

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
)

// ReadURLs loads candidate URLs from path. CSV files contribute their
// first-column values, HTML files every http(s) link, anything else is
// read as one URL per line with '#' comments skipped.
func ReadURLs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVURLs(path)
	case ".html", ".htm":
		return readHTMLURLs(path)
	default:
		return readTextURLs(path)
	}
}

func readTextURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func readCSVURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	urls := make([]string, 0)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			return urls, err
		}
		if len(row) == 0 {
			continue
		}
		url := strings.TrimSpace(row[0])
		if url != "" {
			urls = append(urls, url)
		}
	}
}

func readHTMLURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}
	return extractLinks(doc), nil
}

func extractLinks(n *html.Node) []string {
	urls := make([]string, 0)
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key != "href" {
				continue
			}
			href := strings.TrimSpace(attr.Val)
			if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
				urls = append(urls, href)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		urls = append(urls, extractLinks(c)...)
	}
	return urls
}
