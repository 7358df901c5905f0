package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"schedcore/internal/archive"
	"schedcore/internal/blob"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Archive the schedule to blob storage",
		Long: `Serialize the current schedule and write it to the configured blob
backend under a unique key. With --list, show stored exports instead.

Example:
  schedcore export
  SCHEDCORE_BLOB_DRIVER=s3 SCHEDCORE_BLOB_S3_BUCKET=archives schedcore export`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, rootOpts, list)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list stored exports")
	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, list bool) error {
	logger := rootOpts.Logger()
	cfg, err := rootOpts.LoadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	exporter := archive.NewExporter(store, blobs)

	if list {
		infos, err := exporter.List(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02T15:04:05Z"))
		}
		return nil
	}

	info, err := exporter.Export(ctx)
	if err != nil {
		return err
	}
	logger.Info("export written", "key", info.Key, "bytes", info.Size, "driver", blobs.Driver())
	fmt.Fprintln(cmd.OutOrStdout(), info.Key)
	return nil
}
