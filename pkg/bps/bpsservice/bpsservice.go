// Package bpsservice exposes patch encode/decode operations over HTTP,
// wired the way this codebase's other JSON APIs are: go-json-rest routing
// and middleware stack, Prometheus counters, and lg-based logging.
package bpsservice

import (
	"fmt"
	"net/http"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/thomasf/lg"

	"github.com/alkasir/bps/pkg/bps"
	"github.com/alkasir/bps/pkg/bps/bpsdump"
	"github.com/alkasir/bps/pkg/bps/bpsservice/prometheusMW"
)

// encodeRequest is the JSON body for POST /v1/encode/.
type encodeRequest struct {
	Source   []byte `json:"source"`
	Target   []byte `json:"target"`
	Metadata string `json:"metadata"`
	Backend  string `json:"backend"`
}

type encodeResponse struct {
	Patch []byte `json:"patch"`
}

// decodeRequest is the JSON body for POST /v1/decode/.
type decodeRequest struct {
	Source []byte `json:"source"`
	Patch  []byte `json:"patch"`
}

type decodeResponse struct {
	Target   []byte   `json:"target"`
	Warnings []string `json:"warnings,omitempty"`
}

type inspectRequest struct {
	Patch []byte `json:"patch"`
}

type errorResponse struct {
	Error string `json:"error"`
	Ok    bool   `json:"ok"`
}

func writeError(w rest.ResponseWriter, code int, err error) {
	w.WriteHeader(code)
	if lg.V(5) {
		lg.InfoDepth(1, fmt.Sprintf("%d: %s", code, err))
	}
	if werr := w.WriteJson(&errorResponse{Error: err.Error(), Ok: false}); werr != nil {
		lg.Error(werr)
	}
}

func backendFromName(name string) bps.SearchBackend {
	switch name {
	case "linear":
		return bps.LinearBackend
	case "suffixarray":
		return bps.SuffixArrayBackend
	default:
		return bps.RollingHashBackend
	}
}

// Encode handles POST /v1/encode/: it builds a patch from a source/target
// pair supplied base64-encoded in the request body (go-json-rest decodes
// []byte JSON fields from base64 automatically, matching encoding/json's
// own convention).
func Encode(w rest.ResponseWriter, r *rest.Request) {
	var req encodeRequest
	if err := r.DecodeJsonPayload(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	patch, err := bps.Encode(req.Source, req.Target, req.Metadata, bps.EncodeOptions{
		Backend: backendFromName(req.Backend),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := w.WriteJson(&encodeResponse{Patch: patch}); err != nil {
		lg.Error(err)
	}
}

// Decode handles POST /v1/decode/. Soft warnings from bps.Decode are
// surfaced in the response body rather than as an HTTP error: they come
// with a usable target, unlike this handler's 400 path.
func Decode(w rest.ResponseWriter, r *rest.Request) {
	var req decodeRequest
	if err := r.DecodeJsonPayload(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, warnings, err := bps.Decode(req.Source, req.Patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp := decodeResponse{Target: target}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	if err := w.WriteJson(&resp); err != nil {
		lg.Error(err)
	}
}

// Inspect handles POST /v1/inspect/: it returns the spew-rendered command
// stream of a patch, for the same debugging use bpsdump.Sdump serves on the
// command line.
func Inspect(w rest.ResponseWriter, r *rest.Request) {
	var req inspectRequest
	if err := r.DecodeJsonPayload(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	parsed, err := bpsdump.Parse(req.Patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := w.WriteJson(map[string]string{"dump": bpsdump.Sdump(parsed)}); err != nil {
		lg.Error(err)
	}
}

// apiMux builds the servemux for the patch service, in the same shape
// pkg/central's apiMux builds its own routes.
func apiMux() (*http.ServeMux, error) {
	routes := []*rest.Route{
		{"POST", "/v1/encode/", Encode},
		{"POST", "/v1/decode/", Decode},
		{"POST", "/v1/inspect/", Inspect},
	}
	mux := http.NewServeMux()
	api := defaultAPI("bpsservice")
	router, err := rest.MakeRouter(routes...)
	if err != nil {
		return nil, err
	}
	api.SetApp(router)
	mux.Handle("/", api.MakeHandler())
	return mux, nil
}

// defaultAPI assembles the standard middleware stack: Prometheus counters
// and go-json-rest's own timer/recorder/powered-by/recover set.
func defaultAPI(servername string) *rest.Api {
	api := rest.NewApi()
	api.Use(&prometheusMW.PrometheusMiddleware{ServiceName: servername})
	api.Use([]rest.Middleware{
		&rest.TimerMiddleware{},
		&rest.RecorderMiddleware{},
		&rest.PoweredByMiddleware{},
		&rest.RecoverMiddleware{},
	}...)
	return api
}

// NewHandler returns the complete HTTP handler for the patch service,
// suitable for http.ListenAndServe or embedding behind a reverse proxy.
func NewHandler() (http.Handler, error) {
	return apiMux()
}
