// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lipsync/cmd"
	"lipsync/internal/log"
	"lipsync/pkg/build"
)

// main runs the command line. Interrupts cancel the command's context so
// sessions stop cleanly, transports close and recordings are finalised.
func main() {
	if err := build.Initialize(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatalf("%s: %v", build.GetBuildFlags().Name, err)
	}
}
