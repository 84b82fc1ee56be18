// Package connection wires CLI configuration into a ready gateway client.
//
//   - http.go: *http.Client with timeout and TLS trust settings
//   - socket.go: unix socket dialing for a local gateway
//   - store.go: session store selection (file, badger, memory)
//   - manager.go: lazily built client shared by one-shot commands and the REPL
package connection
