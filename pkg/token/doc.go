// Package token generates random secrets and produces safe-to-print
// fingerprints of bearer tokens.
//
// Fingerprints let logs and the CLI refer to a specific access or refresh
// token without ever printing it.
package token
