// Command ledger serves the evidence ledger HTTP API.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/emissioncoresupport/evidence-ledger/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("ledger: %v", err)
	}
}
