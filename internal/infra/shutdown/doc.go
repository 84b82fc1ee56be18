// Package shutdown scopes work to termination signals and runs cleanup
// hooks once the CLI is done.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(parent)
//	defer stop()
//	err := doRequest(ctx) // Ctrl-C cancels ctx instead of killing the process
package shutdown
