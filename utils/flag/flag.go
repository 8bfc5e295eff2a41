/*
Package flag sets up cli flags shared across services.

Flags listed in this package are shared across boundaries and
service-agnostic; service dependent flags live in their respective package.
*/
package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
	Scraper   = "scraper"
)

var (
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development")
	ServiceName   = flag.String("service", APIServer, "'api_server' or 'scraper'")
)

// ParseFlags must be called once from main before any flag value is read.
func ParseFlags() {
	flag.Parse()
}
