package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/medchain/app/services/node/handlers"
	"github.com/ardanlabs/medchain/foundation/blockchain/codec"
	"github.com/ardanlabs/medchain/foundation/blockchain/network"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ardanlabs/medchain/foundation/blockchain/state"
	"github.com/ardanlabs/medchain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/medchain/foundation/blockchain/worker"
	"github.com/ardanlabs/medchain/foundation/events"
	"github.com/ardanlabs/medchain/foundation/keystore"
	"github.com/ardanlabs/medchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			Host            string        `conf:"default:0.0.0.0"`
			DebugBasePort   int           `conf:"default:7080"`
			PublicBasePort  int           `conf:"default:8080"`
		CORSOrigin      string        `conf:"default:*"`
		}
		Node struct {
			ID                 int           `conf:"default:0"`
			Count              int           `conf:"default:3"`
			BootstrapID        int           `conf:"default:2"`
			ArchiveID          int           `conf:"default:0"`
			Host               string        `conf:"default:localhost"`
			KeyBasePort        int           `conf:"default:4701"`
			UnverifiedBasePort int           `conf:"default:4820"`
			VerifiedBasePort   int           `conf:"default:4930"`
			BootstrapDelay     time.Duration `conf:"default:1s"`
			DialTimeout        time.Duration `conf:"default:2s"`
		}
		Solver struct {
			Pace time.Duration `conf:"default:50ms"`
		}
		Codec struct {
			Name string `conf:"default:json"`
		}
		Storage struct {
			ArchiveDir string `conf:"default:zblock/ledger"`
			KeyFolder  string `conf:"default:zblock/keys"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "medical records blockchain node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build, "node", cfg.Node.ID)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Key Support

	// Each node signs the blocks it creates with its own key. The key is
	// generated the first time the node runs.
	privateKey, generated, err := keystore.LoadOrGenerate(cfg.Storage.KeyFolder, cfg.Node.ID)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}
	log.Infow("startup", "status", "node key loaded", "generated", generated, "publickey", signature.Encode(signature.PublicKeyBytes(privateKey)))

	// The keystore provides names for the public keys learned over the
	// key exchange when their files share the key folder.
	ks, err := keystore.New(cfg.Storage.KeyFolder)
	if err != nil {
		return fmt.Errorf("unable to load key store: %w", err)
	}

	for publicKey, name := range ks.Copy() {
		log.Infow("startup", "status", "keystore", "name", name, "publickey", publicKey)
	}

	// =========================================================================
	// Blockchain Support

	cdc, err := codec.New(cfg.Codec.Name)
	if err != nil {
		return fmt.Errorf("unable to construct codec: %w", err)
	}

	// Only the archive node writes the ledger to disk.
	var exporter *disk.Disk
	if cfg.Node.ID == cfg.Node.ArchiveID {
		exporter, err = disk.New(cfg.Storage.ArchiveDir, cdc)
		if err != nil {
			return fmt.Errorf("unable to construct archive: %w", err)
		}
		log.Infow("startup", "status", "archive node", "path", exporter.Path())
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	ports := peer.Ports{
		Host:           cfg.Node.Host,
		KeyBase:        cfg.Node.KeyBasePort,
		UnverifiedBase: cfg.Node.UnverifiedBasePort,
		VerifiedBase:   cfg.Node.VerifiedBasePort,
	}

	stCfg := state.Config{
		NodeID:      cfg.Node.ID,
		NodeCount:   cfg.Node.Count,
		BootstrapID: cfg.Node.BootstrapID,
		ArchiveID:   cfg.Node.ArchiveID,
		PrivateKey:  privateKey,
		Network:     network.New(ports, cfg.Node.Count, cfg.Node.DialTimeout, ev),
		Codec:       cdc,
		Pace:        cfg.Solver.Pace,
		EvHandler:   ev,
	}
	if exporter != nil {
		stCfg.Exporter = exporter
	}

	// The state value represents the blockchain node and manages the blockchain
	// database and provides an API for application support.
	state, err := state.New(stCfg)
	if err != nil {
		return err
	}
	defer state.Shutdown()

	// The worker package implements the solving workflow. The worker will
	// register itself with the state.
	worker.Run(state, ev)

	// Open the key, unverified and verified listeners.
	if err := state.Start(); err != nil {
		return fmt.Errorf("unable to start node listeners: %w", err)
	}

	// The bootstrap node waits for the other nodes to bring up their
	// listeners before it starts the key exchange.
	bootstrap := time.AfterFunc(cfg.Node.BootstrapDelay, state.Bootstrap)
	defer bootstrap.Stop()

	// =========================================================================
	// Start Debug Service

	debugHost := net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.DebugBasePort+cfg.Node.ID))

	log.Infow("startup", "status", "debug v1 router started", "host", debugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, state)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(debugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", debugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		State:      state,
		KS:         ks,
		Evts:       evts,
		CORSOrigin: cfg.Web.CORSOrigin,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.PublicBasePort+cfg.Node.ID)),
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
