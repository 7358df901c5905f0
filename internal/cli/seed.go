package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"schedcore/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo schedule into the store",
		Long: `Load the embedded demo work orders into the configured store.

Seeding is idempotent: a store that already holds work orders is left
untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.LoadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := seed.Apply(ctx, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "store holds %d work orders\n", len(store.ListWorkOrders()))
			return nil
		},
	}
}
