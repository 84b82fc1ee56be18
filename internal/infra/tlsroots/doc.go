// Package tlsroots builds the TLS trust settings the CLI uses to reach the
// Little Steps gateway.
//
// The pool starts from the system roots and can be extended with a private
// CA, given either as a single PEM bundle or as a directory of .pem, .crt
// and .cer files.
package tlsroots
