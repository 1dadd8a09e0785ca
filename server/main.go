package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/armon/go-metrics"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/gammadia/furnace/server/flags"
	"github.com/gammadia/furnace/server/log"
)

// Versioning information set at build time
var version, commit = "dev", "n/a"

// Global context for shutdown cascading. When cancel() is called (from the
// signal handler), all goroutines watching ctx.Done() begin their shutdown
// sequence.
var ctx, cancel = context.WithCancel(context.Background())

// wg tracks the two main goroutines: engine and HTTP server.
var wg sync.WaitGroup

func main() {
	// Setup logger first as this will be used to report progress of the rest of the setup
	if err := log.Init(); err != nil {
		lo.Must(fmt.Fprintln(os.Stderr, err))
		os.Exit(1)
	}
	log.Info("Furnace server starting up...", "version", version, "commit", commit)
	serverStatus.StartedAt = time.Now()
	serverStatus.Version = version

	setupMetrics()

	// Setup network listener
	lis, err := net.Listen("tcp", viper.GetString(flags.Listen))
	if err != nil {
		log.Error("Failed to listen", "error", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	setupInterrupts()

	// Setup engine: store, providers, then the engine itself
	if err := createEngine(); err != nil {
		log.Error("Failed to create engine", "error", err)
		os.Exit(1)
	}

	// Engine goroutine: Run() blocks in its event loop until Shutdown() is
	// called, then drains running operations before returning.
	wg.Add(1)
	go engine.Run()
	go func() {
		<-ctx.Done()
		engine.Shutdown()
		engine.Wait()
		if err := store.Close(); err != nil {
			log.Error("Failed to close state store", "error", err)
		}
		wg.Done()
	}()

	// listenEvents consumes engine events to keep serverStatus current.
	channel, unsubscribe := engine.Subscribe()
	defer unsubscribe()
	go listenEvents(channel)

	// HTTP server goroutine. A nested goroutine watches for shutdown and
	// calls Shutdown(), which stops accepting new connections and waits
	// for in-flight requests to complete.
	httpServer := &http.Server{Handler: newAPIHandler()}
	wg.Add(1)
	go func() {
		go func() {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shut down HTTP server", "error", err)
			}
		}()

		log.Info("Server listening", "address", lis.Addr())
		if err := httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to serve", "error", err)
			os.Exit(1)
		}
		wg.Done()
	}()

	wg.Wait()
	log.Info("Shutdown completed. Bye!")
}

// setupMetrics publishes in-memory metrics, dumped to stderr on SIGUSR1.
func setupMetrics() {
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)
	metrics.DefaultInmemSignal(sink)
	if _, err := metrics.NewGlobal(metrics.DefaultConfig("furnace"), sink); err != nil {
		log.Warn("Failed to initialize metrics", "error", err)
	}
}

// setupInterrupts handles Ctrl+C (SIGINT) with a double-tap pattern:
// - First signal: calls cancel() which cascades shutdown through ctx.Done()
// - Second signal: forces immediate exit (in case graceful shutdown hangs)
func setupInterrupts() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	go func() {
		<-sig
		log.Info("Shutdown signal received, attempting graceful shutdown")
		cancel()
		<-sig
		log.Warn("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()
}
