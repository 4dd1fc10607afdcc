package youtube

import (
	"fmt"

	"github.com/urfave/cli/v3"
)

var RootCmd = &cli.Command{
	Name:    "youtube",
	Aliases: []string{"yt"},
	Usage:   "Download videos via yt-dlp",
	Commands: []*cli.Command{
		downloadCmd,
		formatsCmd,
	},
}

var downloadCmd = &cli.Command{
	Name: "download",
	Commands: []*cli.Command{
		downloadSingleCmd,
		downloadBatchCmd,
	},
}

// resolveProxy picks the proxy address from flags and config. In
// interactive mode the choice is confirmed like the rest of the
// prompts.
func resolveProxy(command *cli.Command, config *Config, interactive bool) (string, error) {
	if command.Bool("no-proxy") {
		return "", nil
	}
	proxy := command.String("proxy")
	if proxy == "" {
		proxy = config.Proxy
	}
	if !interactive || proxy == "" {
		return proxy, nil
	}

	ok, err := askYesNo(fmt.Sprintf("Use proxy %s? (y/n): ", proxy))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return askString("Custom proxy address (empty for default): ", proxy)
}
