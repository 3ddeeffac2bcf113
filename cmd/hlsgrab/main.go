package main

import (
	"context"
	"os"

	"github.com/jmagar/hlsgrab/internal/completion"
	"github.com/jmagar/hlsgrab/internal/config"
	"github.com/jmagar/hlsgrab/internal/ui"
)

// Exit codes.
const (
	exitOK          = 0
	exitItemsFailed = 1
	exitFatal       = 2
	exitInterrupted = 130
)

func main() {
	// "hlsgrab help" behaves like --help.
	if len(os.Args) > 1 && os.Args[1] == "help" {
		os.Args[1] = "--help"
	}
	args := config.ParseArgs()
	if args.Completion != "" {
		if err := completion.Write(os.Stdout, args.Completion); err != nil {
			ui.PrintError(err.Error())
			os.Exit(exitFatal)
		}
		return
	}

	ctx, stop := notifyContext(context.Background())
	code := run(ctx, args)
	stop()
	os.Exit(code)
}
