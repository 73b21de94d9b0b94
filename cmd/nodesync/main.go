package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nodesync/nodesync/cmd/nodesync/commands"
	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/libs/cli"
	"github.com/nodesync/nodesync/libs/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf := config.DefaultConfig()
	logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
	if err != nil {
		panic(err)
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakeConfigCommand(conf, logger),
		commands.MakeTestnetCommand(conf, logger),
		commands.VersionCmd,
	)

	if err := cli.RunWithTrace(ctx, rcmd); err != nil {
		os.Exit(1)
	}
}
