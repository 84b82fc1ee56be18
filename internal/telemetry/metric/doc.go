// Package metric provides Prometheus metrics for the Little Steps client.
//
// The client is short-lived, so nothing is scraped: the registry is
// gathered on demand and rendered by the "system metrics" command, which
// in the REPL covers every request made during the session.
package metric
