package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/objectvault/storagecore/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit ledger",
}

var (
	auditBucket     string
	auditPrincipal  string
	auditEventType  string
	auditSince      string
	auditMaxResults int
)

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List audit events matching the given filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		q := audit.Query{
			Bucket:     auditBucket,
			Principal:  auditPrincipal,
			EventType:  audit.EventType(auditEventType),
			MaxResults: auditMaxResults,
		}
		if auditSince != "" {
			since, err := time.Parse(time.RFC3339, auditSince)
			if err != nil {
				return fmt.Errorf("invalid --since (want RFC3339): %w", err)
			}
			q.Since = since
		}

		result, err := s.facade.QueryAudit(context.Background(), q)
		if err != nil {
			return err
		}
		for _, e := range result.Events {
			fmt.Printf("%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.EventType, e.Bucket, e.Principal)
		}
		if result.NextContinuationToken != "" {
			fmt.Printf("# continuation-token: %s\n", result.NextContinuationToken)
		}
		return nil
	},
}

func init() {
	auditQueryCmd.Flags().StringVar(&auditBucket, "bucket", "", "bucket whose audit events to list (required)")
	auditQueryCmd.Flags().StringVar(&auditPrincipal, "principal", "", "filter by acting principal")
	auditQueryCmd.Flags().StringVar(&auditEventType, "event-type", "", "filter by event type, e.g. s3:ObjectCreated:Put")
	auditQueryCmd.Flags().StringVar(&auditSince, "since", "", "only events at or after this RFC3339 timestamp")
	auditQueryCmd.Flags().IntVar(&auditMaxResults, "max-results", 100, "maximum number of events to return")

	auditCmd.AddCommand(auditQueryCmd)
	rootCmd.AddCommand(auditCmd)
}
