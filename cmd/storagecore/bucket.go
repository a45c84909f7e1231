package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage buckets",
}

var bucketOwner string

var bucketCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.facade.CreateBucket(context.Background(), args[0], bucketOwner, bucketOwner)
	},
}

var bucketListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List buckets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		buckets, err := s.facade.ListBuckets(context.Background())
		if err != nil {
			return err
		}
		for _, b := range buckets {
			fmt.Printf("%s\t%s\n", b.Name, b.Owner)
		}
		return nil
	},
}

var bucketRemoveCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete an empty bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.facade.DeleteBucket(context.Background(), args[0], bucketOwner)
	},
}

func init() {
	bucketCreateCmd.Flags().StringVar(&bucketOwner, "owner", "cli", "bucket owner principal")
	bucketRemoveCmd.Flags().StringVar(&bucketOwner, "principal", "cli", "acting principal")

	bucketCmd.AddCommand(bucketCreateCmd, bucketListCmd, bucketRemoveCmd)
	rootCmd.AddCommand(bucketCmd)
}
