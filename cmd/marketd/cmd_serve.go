package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iov-one/nftmarket/app"
	"github.com/iov-one/nftmarket/cmd/marketd/handlers"
	"github.com/iov-one/nftmarket/store/iavl"
	"github.com/tendermint/tendermint/libs/log"
)

func cmdServe(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Run the market ledger and serve its HTTP API.

The ledger state is stored under the home directory. On the first run the
genesis file is loaded. Every flag can also be set with a MARKETD_<NAME>
environment variable or in the configuration file.
`)
		fl.PrintDefaults()
	}
	var (
		configFl = fl.String("config", env("MARKETD_CONFIG", ""),
			"Optional configuration file (json, yaml or toml).")
		_ = fl.String("http", ":8000", "Address the HTTP API listens on.")
		_ = fl.String("home", defaultHome(), "Directory the ledger state is stored in.")
		_ = fl.String("genesis", "", "Genesis file. Defaults to genesis.json in the home directory.")
		_ = fl.String("log-level", "info", "Log level, one of debug, info, error or none.")
		_ = fl.Bool("debug", false, "Do not redact internal errors in API responses.")
	)
	fl.Parse(args)

	conf, err := loadConfig(fl, *configFl)
	if err != nil {
		return err
	}

	logger, err := newLogger(output, conf.LogLevel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(conf.Home, 0700); err != nil {
		return fmt.Errorf("cannot create home directory: %s", err)
	}
	store, err := iavl.NewCommitStore(conf.Home, "market")
	if err != nil {
		return fmt.Errorf("cannot open store: %s", err)
	}
	defer store.Close()

	market, err := app.NewApplication(store, logger)
	if err != nil {
		return fmt.Errorf("cannot load application: %s", err)
	}
	if market.ChainID() == "" {
		gen, err := app.LoadGenesis(conf.Genesis)
		if err != nil {
			return err
		}
		if err := market.InitGenesis(gen); err != nil {
			return fmt.Errorf("cannot initialize: %s", err)
		}
	}

	srv := &http.Server{
		Addr:         conf.HTTP,
		Handler:      handlers.NewRouter(market, logger.With("module", "http"), conf.Debug),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- srv.Shutdown(ctx)
	}()

	logger.Info("serving", "addr", conf.HTTP, "chain_id", market.ChainID())
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http server: %s", err)
	}
	return <-done
}

// newLogger returns a logger writing to out that drops entries below level.
func newLogger(out io.Writer, level string) (log.Logger, error) {
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %s", err)
	}
	logger := log.NewTMLogger(log.NewSyncWriter(out))
	return log.NewFilter(logger, opt).With("module", "marketd"), nil
}
