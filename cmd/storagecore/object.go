package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/objectvault/storagecore/internal/objectstore"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Put, get, head, and remove objects",
}

var (
	objectVersionID string
	objectPrincipal string
	objectOutFile   string
	objectInFile    string
	objectContentType string
)

var objectPutCmd = &cobra.Command{
	Use:   "put <bucket> <key>",
	Short: "Upload a file as an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		var in io.Reader = os.Stdin
		if objectInFile != "" {
			f, err := os.Open(objectInFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		result, err := s.facade.PutObject(context.Background(), args[0], args[1], in, objectstore.PutOptions{
			ContentType: objectContentType,
			Owner:       objectPrincipal,
		}, objectPrincipal)
		if err != nil {
			return err
		}
		fmt.Printf("versionId=%s etag=%s size=%d\n", result.VersionID, result.ETag, result.Size)
		return nil
	},
}

var objectGetCmd = &cobra.Command{
	Use:   "get <bucket> <key>",
	Short: "Download an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.facade.GetObject(context.Background(), args[0], args[1], objectVersionID, nil, objectPrincipal)
		if err != nil {
			return err
		}
		defer result.Body.Close()

		out := os.Stdout
		if objectOutFile != "" {
			f, err := os.Create(objectOutFile)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		_, err = io.Copy(out, result.Body)
		return err
	},
}

var objectHeadCmd = &cobra.Command{
	Use:   "head <bucket> <key>",
	Short: "Print an object version's metadata",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		meta, err := s.facade.HeadObject(context.Background(), args[0], args[1], objectVersionID)
		if err != nil {
			return err
		}
		fmt.Printf("versionId=%s size=%d etag=%s lastModified=%d isLatest=%v\n", meta.VersionID, meta.Size, meta.ETag, meta.LastModified, meta.IsLatest)
		return nil
	},
}

var objectRemoveCmd = &cobra.Command{
	Use:   "rm <bucket> <key>",
	Short: "Delete an object version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.facade.DeleteObject(context.Background(), args[0], args[1], objectVersionID, objectPrincipal)
		if err != nil {
			return err
		}
		if result.DeleteMarker {
			fmt.Printf("delete marker created: versionId=%s\n", result.VersionID)
		} else {
			fmt.Printf("deleted versionId=%s\n", result.VersionID)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{objectGetCmd, objectHeadCmd, objectRemoveCmd} {
		c.Flags().StringVar(&objectVersionID, "version-id", "", "object version ID (defaults to the current version)")
	}
	for _, c := range []*cobra.Command{objectPutCmd, objectGetCmd, objectHeadCmd, objectRemoveCmd} {
		c.Flags().StringVar(&objectPrincipal, "principal", "cli", "acting principal, recorded in audit events")
	}
	objectPutCmd.Flags().StringVar(&objectInFile, "file", "", "local file to upload (defaults to stdin)")
	objectPutCmd.Flags().StringVar(&objectContentType, "content-type", "application/octet-stream", "object content type")
	objectGetCmd.Flags().StringVar(&objectOutFile, "out", "", "local file to write (defaults to stdout)")

	objectCmd.AddCommand(objectPutCmd, objectGetCmd, objectHeadCmd, objectRemoveCmd)
	rootCmd.AddCommand(objectCmd)
}
