package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"budgetwise/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect record events on the broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print record events as JSON lines until interrupted",
	Long: `Consume the record events queue and print each event as one JSON
line. Events are acknowledged once printed, so tail a dedicated queue
(AMQP_QUEUE) when another consumer depends on them.`,
	RunE: runEventsTail,
}

func init() {
	eventsCmd.AddCommand(eventsTailCmd)
}

func runEventsTail(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if !cfg.EventsEnabled() {
		return errors.New("AMQP_URL is not set")
	}

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Tailing record events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = client.ConsumeWithRetry(ctx, printEvent(os.Stdout))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printEvent(out io.Writer) events.Handler {
	return func(_ context.Context, ev *events.RecordEvent) error {
		b, err := ev.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
}
