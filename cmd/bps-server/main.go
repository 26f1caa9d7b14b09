// Command bps-server exposes patch encode/decode/inspect operations over
// HTTP, backed by pkg/bps/bpsservice.
package main

import (
	"flag"
	"net/http"

	"github.com/facebookgo/flagenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thomasf/lg"

	"github.com/alkasir/bps/pkg/bps/bpsservice"
)

func main() {
	var bindaddr = flag.String("bindaddr", "0.0.0.0:8765", "bind address")
	flag.Parse()
	flagenv.Prefix = "BPS_SERVER_"
	flagenv.Parse()
	lg.CopyStandardLogTo("INFO")

	handler, err := bpsservice.NewHandler()
	if err != nil {
		lg.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	lg.Infof("Listening to http://%s", *bindaddr)
	if err := http.ListenAndServe(*bindaddr, mux); err != nil {
		lg.Fatal(err)
	}
}
