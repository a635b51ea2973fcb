package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"ravito/internal/config"
	"ravito/internal/infra"
	"ravito/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var queues = map[string]string{
	"email":          worker.QueueEmail,
	"closure_report": worker.QueueClosureReport,
}

func dlqCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspecte et relance les tâches en échec",
	}
	cmd.AddCommand(dlqListCmd(), dlqRequeueCmd())
	return cmd
}

func openRedis() (*redis.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return infra.NewRedis(cfg.RedisURL)
}

func queueArg(name string) (string, error) {
	q, ok := queues[name]
	if !ok {
		return "", fmt.Errorf("file inconnue %q (email, closure_report)", name)
	}
	return q, nil
}

func dlqListCmd() *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "list <email|closure_report>",
		Short: "Liste les tâches en échec, les plus récentes d'abord",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := queueArg(args[0])
			if err != nil {
				return err
			}
			rdb, err := openRedis()
			if err != nil {
				return err
			}
			defer rdb.Close()

			entries, err := worker.ListDLQ(context.Background(), rdb, queue, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FAILED_AT\tTYPE\tATTEMPTS\tREASON")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.FailedAt.Format(time.RFC3339), e.JobType, e.Attempts, e.Reason)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 20, "nombre maximum d'entrées")
	return cmd
}

func dlqRequeueCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "requeue <email|closure_report>",
		Short: "Remet la plus ancienne tâche en échec dans sa file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := queueArg(args[0])
			if err != nil {
				return err
			}
			rdb, err := openRedis()
			if err != nil {
				return err
			}
			defer rdb.Close()

			n := 0
			for {
				moved, err := worker.RequeueDLQ(context.Background(), rdb, queue)
				if err != nil {
					return err
				}
				if !moved {
					break
				}
				n++
				if !all {
					break
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tâche(s) relancée(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "relance toute la file")
	return cmd
}
