// Package errors provides structured, actionable error messages for the
// kinet CLI.
//
// Each error carries a registered code, a plain-language explanation, an
// optional fix suggestion, and a documentation link. Config parse failures
// additionally carry the file position that caused them, resolved from the
// byte offset JSON decode errors report.
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: session and handler errors (session expired, handler not found)
//   - protocol: wire protocol errors (invalid frames, handshake failures)
//   - assets: publishing errors (invalid keys, unreachable buckets)
//   - config: kinet.json errors (malformed JSON, invalid ports)
//   - cli: command errors (missing dist directory, failed publish)
//
// # Usage
//
//	err := errors.New("K060").
//	    WithOffset("kinet.json", data, syntaxErr.Offset).
//	    WithSuggestion("Check that kinet.json is valid JSON")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR K060: Invalid kinet.json
//	//
//	//   kinet.json:4:18
//	//
//	//      2 |   "name": "demo",
//	//      3 |   "port": 8080,
//	//   >  4 |   "static": { dir: "public" }
//	//        |                  ^
//	//      5 | }
//	//
//	//   The kinet.json configuration file is malformed.
//	//
//	//   Hint: Check that kinet.json is valid JSON
//	//
//	//   Learn more: https://kinet.dev/docs/errors/K060
package errors
