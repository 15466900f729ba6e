package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"tunnel-publisher/app"
	"tunnel-publisher/internal/common"
)

func main() {
	os.Exit(run())
}

func run() int {
	runOpts := common.DefaultRunOptions()

	flags := pflag.NewFlagSet("tunnel-publisher", pflag.ExitOnError)
	flags.StringVar(&runOpts.StorePath, "config", "",
		"path of the config store (default: per-user config dir)")
	flags.IntVar(&runOpts.LocalPort, "port", runOpts.LocalPort,
		"local port exposed through the tunnel")
	flags.StringVar(&runOpts.RemotePath, "file", runOpts.RemotePath,
		"path of the redirect file in the repository")
	flags.DurationVar(&runOpts.PollBudget, "timeout", runOpts.PollBudget,
		"how long to wait for the tunnel URL")
	flags.BoolVar(&runOpts.NonInteractive, "non-interactive", false,
		"fail instead of prompting for missing settings")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return 1
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	application := app.NewApplication(
		common.WithLogger(logger),
		common.WithRunOptions(runOpts),
	)

	return application.Run(context.Background())
}
