//
// main.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

// Command mta-server runs the Bob side of the MtA share conversion:
//
//	mta-server [options] [port] [y_share]
//
// The port defaults to 8080. The multiplicative share y defaults to
// a fresh random value in [1, 1000000].
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/config"
	"github.com/Dyslex7c/mta-cot-protocol-tcp/server"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [port] [y_share]\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	var cfg config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
	}
	if *verbose {
		cfg.Verbose = true
	}

	args := flag.Args()
	if len(args) >= 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port < 1 || port > 65535 {
			fmt.Fprintf(os.Stderr, "invalid port number: %s\n", args[0])
			os.Exit(1)
		}
		cfg.Port = port
	}
	if len(args) >= 2 {
		share, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid y share: %s\n", args[1])
			os.Exit(1)
		}
		cfg.YShare = uint32(share)
	}

	logger, err := cfg.CreateLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.YShare == 0 {
		share, err := randomShare()
		if err != nil {
			logger.Error("generate y share", zap.Error(err))
			os.Exit(1)
		}
		cfg.YShare = share
		logger.Info("generated random multiplicative share",
			zap.Uint32("y_share", cfg.YShare))
	} else {
		logger.Info("using configured multiplicative share",
			zap.Uint32("y_share", cfg.YShare))
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("server startup failed", zap.Error(err))
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		logger.Error("serve failed", zap.Error(err))
		os.Exit(1)
	}
}

// randomShare draws the default multiplicative share uniformly from
// [1, 1000000].
func randomShare() (uint32, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return 0, err
	}
	return uint32(n.Int64()) + 1, nil
}
