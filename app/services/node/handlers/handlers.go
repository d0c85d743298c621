// Package handlers builds the public and debug muxes for a medchain node.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/medchain/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/medchain/app/services/node/handlers/v1"
	"github.com/ardanlabs/medchain/business/web/v1/mid"
	"github.com/ardanlabs/medchain/foundation/blockchain/state"
	"github.com/ardanlabs/medchain/foundation/events"
	"github.com/ardanlabs/medchain/foundation/keystore"
	"github.com/ardanlabs/medchain/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains what the node's operator API needs to serve requests.
// An empty CORSOrigin allows any origin.
type MuxConfig struct {
	Shutdown   chan os.Signal
	Log        *zap.SugaredLogger
	State      *state.State
	KS         *keystore.KeyStore
	Evts       *events.Events
	CORSOrigin string
}

// PublicMux constructs the operator API: record submission, chain queries
// and the event feed.
func PublicMux(cfg MuxConfig) http.Handler {
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(origin),
		mid.Panics(),
	)

	// Browsers watching the event feed from another origin send a preflight
	// request first.
	preflight := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", preflight, mid.Cors(origin))

	v1.PublicRoutes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
		KS:    cfg.KS,
		Evts:  cfg.Evts,
	})

	return app
}

// DebugMux constructs the debug mux: profiling, expvar and the node's
// readiness and liveness checks. It never touches http.DefaultServeMux so
// an imported package can't register routes on it.
func DebugMux(build string, log *zap.SugaredLogger, st *state.State) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		State: st,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
