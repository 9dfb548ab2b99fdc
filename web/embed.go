// Package web bundles the static simulator page served at GET /.
package web

import _ "embed"

// SimulatorHTML is a single-page form for trying the analyze endpoint by hand.
//
//go:embed simulator.html
var SimulatorHTML []byte
