package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/littlesteps-go/internal/cli/command"
	"github.com/yndnr/littlesteps-go/internal/infra/shutdown"
)

func main() {
	h := shutdown.NewHandler(5 * time.Second)
	app := command.App(h)

	err := app.RunContext(context.Background(), os.Args)
	if herr := h.Run(); herr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", herr)
	}

	if err != nil {
		msg, code := command.Describe(err)
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		os.Exit(code)
	}
}
