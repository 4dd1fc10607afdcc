package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fanyang89/yt-batch/youtube"
)

const (
	exitError     = 1
	exitInterrupt = 130
)

var cmd = &cli.Command{
	Name:  "yt-batch",
	Usage: "Batch video downloader",
	Commands: []*cli.Command{
		youtube.RootCmd,
	},
}

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = cmd.Run(ctx, os.Args)
	if err != nil {
		if errors.Is(err, youtube.ErrCancelled) || errors.Is(err, context.Canceled) {
			zap.L().Warn("Cancelled by user")
			_ = logger.Sync()
			os.Exit(exitInterrupt)
		}
		zap.L().Error("Unexpected error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(exitError)
	}
}
