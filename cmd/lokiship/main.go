// Command lokiship reads NDJSON log events from stdin and ships them
// to a Loki push endpoint.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lokiship/lokiship/internal/batcher"
	"github.com/lokiship/lokiship/internal/client"
	"github.com/lokiship/lokiship/internal/config"
	"github.com/lokiship/lokiship/internal/decode"
	"github.com/lokiship/lokiship/internal/formatter"
	"github.com/lokiship/lokiship/internal/model"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f := formatter.New(formatter.Options{
		LabelNames:         cfg.LabelNames,
		StaticLabels:       cfg.StaticLabels,
		PreserveTimestamps: cfg.PreserveTimestamps,
	})
	c := client.New(cfg.LokiURL, cfg.Username, cfg.Password, logger)
	events := make(chan model.Event, 1024)
	b := batcher.New(f, c, events, cfg.BatchSize, cfg.FlushInterval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	logger.Info("shipping events", "loki_url", cfg.LokiURL, "batch_size", cfg.BatchSize)

	dec := decode.New()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
scan:
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		e, err := dec.DecodeLine(line)
		if err != nil {
			logger.Warn("skipping malformed event", "error", err)
			continue
		}
		select {
		case events <- e:
		case <-ctx.Done():
			break scan
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("reading stdin failed", "error", err)
	}

	close(events)
	wg.Wait()
	logger.Info("lokiship exited")
}
