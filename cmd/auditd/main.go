package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tle-lab/reservations/internal/config"
	"github.com/tle-lab/reservations/internal/queue"
)

func main() {
	cfg := config.LoadAudit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.AuditConsumer{URL: cfg.AMQPURL, LogPath: cfg.LogPath}
	log.Printf("auditd: consuming %s into %s", queue.QueueName, cfg.LogPath)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("auditd: %v", err)
	}
	log.Println("auditd: stopped")
}
