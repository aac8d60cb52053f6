package clientdist

import _ "embed"

// KinetJS is the thin client served by the framework at
// "/_kinet/client.js". It is hand-maintained and shipped unminified.
//
//go:embed kinet.js
var KinetJS []byte
