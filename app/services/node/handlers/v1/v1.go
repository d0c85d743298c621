// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/medchain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/medchain/foundation/blockchain/state"
	"github.com/ardanlabs/medchain/foundation/events"
	"github.com/ardanlabs/medchain/foundation/keystore"
	"github.com/ardanlabs/medchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	KS    *keystore.KeyStore
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		KS:    cfg.KS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodPost, version, "/records", pbl.SubmitRecord)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/chain/verify", pbl.Verify)
	app.Handle(http.MethodGet, version, "/chain/block/:id", pbl.Block)
	app.Handle(http.MethodGet, version, "/chain/proof/:id", pbl.Proof)
	app.Handle(http.MethodGet, version, "/credits", pbl.Credits)
	app.Handle(http.MethodGet, version, "/pending", pbl.Pending)
	app.Handle(http.MethodGet, version, "/keys", pbl.Keys)
}
