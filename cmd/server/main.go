// Command server runs the backend JSON API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/linkedfishers/backend/internal/app/server"
	"github.com/linkedfishers/backend/internal/platform/otel"
)

var port = flag.Int("port", 8080, "The server port")

func main() {
	flag.Parse()
	log.SetPrefix("server: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, "linkedfishers-api")
	if err != nil {
		log.Printf("tracing setup failed: %v", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Printf("tracing shutdown failed: %v", err)
			}
		}()
	}

	if err := server.Run(ctx, *port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
