package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "futureself",
		Short:         "Screen API for the future-self onboarding and chat flow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), reportWorkerCmd())
	return root
}

func serveCmd() *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(ctx, withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also run the report status workers in this process")
	return cmd
}

func reportWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report-worker",
		Short: "Consume the report stream and push status changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.redis == nil {
				return fmt.Errorf("report-worker needs REDIS_ADDR; use serve --with-worker for in-memory runs")
			}
			return a.Work(ctx)
		},
	}
}
