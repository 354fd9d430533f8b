package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cinemaclub/internal/buildinfo"
	"github.com/dmitrijs2005/cinemaclub/internal/devserver"
	"github.com/dmitrijs2005/cinemaclub/internal/devserver/config"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := devserver.New(cfg, logger).Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
