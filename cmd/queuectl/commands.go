package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/config"
	"github.com/ricirt/grievance-queue/internal/queue"
)

// knownQueues are reported by `length` when no queue is named.
var knownQueues = []string{
	queue.ComplaintRegistrationQueue,
	queue.UserRegistrationQueue,
	queue.ProcessedComplaintQueue,
	queue.MalformedQueueName(queue.ComplaintRegistrationQueue),
	queue.MalformedQueueName(queue.UserRegistrationQueue),
	queue.RegistrationRejectedQueue,
	queue.AssignmentMalformedQueue,
	queue.AssignmentFailedQueue,
}

type cliOptions struct {
	redisURL string
	timeout  time.Duration
}

func newRootCmd(out io.Writer, logger *zap.Logger) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:          "queuectl",
		Short:        "Inspect the complaint pipeline queues",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.redisURL, "redis", "", "redis URL or host:port (default REDIS_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-command timeout")

	connect := func(cmd *cobra.Command) (*queue.Client, context.Context, context.CancelFunc, error) {
		dial, err := opts.dialer()
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
		return queue.NewClient(dial, logger), ctx, cancel, nil
	}

	root.AddCommand(newLengthCmd(connect), newPeekCmd(connect), newDLQCmd(connect))
	return root
}

func (o *cliOptions) dialer() (queue.Dialer, error) {
	if o.redisURL != "" {
		return queue.DialURL(o.redisURL)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg.Dialer, nil
}

type connectFunc func(cmd *cobra.Command) (*queue.Client, context.Context, context.CancelFunc, error)

func newLengthCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "length [queue...]",
		Short: "Print queue lengths (all pipeline queues when none are named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Disconnect() //nolint:errcheck

			names := args
			if len(names) == 0 {
				names = knownQueues
			}
			for _, name := range names {
				n, err := client.Length(ctx, name)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, n)
			}
			return nil
		},
	}
}

func newPeekCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "peek <queue> [index]",
		Short: "Print the raw entry at index (default 0, the head) without removing it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index int64
			if len(args) == 2 {
				i, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("index must be an integer: %w", err)
				}
				index = i
			}

			client, ctx, cancel, err := connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Disconnect() //nolint:errcheck

			raw, ok, err := client.PeekAt(ctx, args[0], index)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: no entry at index %d", args[0], index)
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
}

func newDLQCmd(connect connectFunc) *cobra.Command {
	dlq := &cobra.Command{
		Use:   "dlq",
		Short: "Dead-letter list commands",
	}

	dlq.AddCommand(&cobra.Command{
		Use:   "list <queue>",
		Short: "Print every entry of <queue>:malformed, head first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Disconnect() //nolint:errcheck

			entries, err := client.List(queue.MalformedQueueName(args[0])).Entries(ctx)
			if err != nil {
				return err
			}
			for i, raw := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, raw)
			}
			return nil
		},
	})
	return dlq
}
