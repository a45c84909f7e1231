package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var multipartCmd = &cobra.Command{
	Use:   "multipart",
	Short: "Multipart upload maintenance",
}

var multipartSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the orphaned-upload sweep once and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		s.sweeper.SweepOnce()
		fmt.Println("sweep complete")
		return nil
	},
}

func init() {
	multipartCmd.AddCommand(multipartSweepCmd)
	rootCmd.AddCommand(multipartCmd)
}
