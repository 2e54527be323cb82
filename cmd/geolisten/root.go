package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geolisten/internal/adapters/boundary"
	"github.com/samirrijal/geolisten/internal/pkg/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geolisten",
		Short: "Collect geotagged posts from a live stream",
		Long: "geolisten subscribes to a geotagged post stream for a region or bounding box, " +
			"keeps the posts located inside the boundary and appends them to a raw JSON log and a readable transcript.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("geolisten", cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRegionsCmd())
	return rootCmd
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the region names known to the boundary source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read("geolisten", cmd.Flags())
			if err != nil {
				return err
			}
			provider := boundary.NewGeoJSONProvider(cfg.Boundary.Source, cfg.Boundary.Properties())
			names, err := provider.Regions(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
