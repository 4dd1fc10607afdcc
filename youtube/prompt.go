package youtube

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
)

// ErrCancelled reports a user-initiated interrupt during an
// interactive prompt.
var ErrCancelled = errors.New("cancelled by user")

func promptLine(prompt string) (string, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// collectURLs prompts for URLs one per line until a blank line.
func collectURLs() ([]string, error) {
	fmt.Println("Enter video URLs (one per line, blank line to finish):")
	urls := make([]string, 0)
	for {
		line, err := promptLine("> ")
		if err != nil {
			return nil, err
		}
		if line == "" {
			return urls, nil
		}
		urls = append(urls, line)
	}
}

func askString(prompt string, defaultValue string) (string, error) {
	line, err := promptLine(prompt)
	if err != nil {
		return "", err
	}
	if line == "" {
		return defaultValue, nil
	}
	return line, nil
}

func askYesNo(prompt string) (bool, error) {
	line, err := promptLine(prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "y"), nil
}
