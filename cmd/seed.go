package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a1s/lazyrows/internal/dao"
)

var (
	seedRows int

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Fill a local sql or bolt source with demo rows",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
)

func init() {
	seedCmd.Flags().IntVarP(&seedRows, "rows", "n", 100_000, "Number of rows to create")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if seedRows <= 0 {
		return fmt.Errorf("rows must be positive")
	}

	env, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer env.closeFn()

	rid, err := env.cfg.ResourceID()
	if err != nil {
		return err
	}
	loc := env.cfg.LazyRows.Locator()
	if loc.Path == "" {
		return fmt.Errorf("seeding %s needs --path", rid)
	}
	log := env.log.WithField("path", loc.Path)

	switch rid {
	case dao.SQLTableRID:
		if err := dao.SeedSQLFile(cmd.Context(), loc.Path, loc.Table, seedRows); err != nil {
			return fmt.Errorf("failed to seed table %q: %w", loc.Table, err)
		}
	case dao.BoltBucketRID:
		b, err := dao.OpenBoltBucket(loc.Path, loc.Table)
		if err != nil {
			return err
		}
		defer b.Close()
		if err := b.Seed(seedRows); err != nil {
			return fmt.Errorf("failed to seed bucket %q: %w", loc.Table, err)
		}
	default:
		return fmt.Errorf("%s sources cannot be seeded", rid)
	}
	log.WithField("rows", seedRows).Info("Seeded")
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d rows into %s\n", seedRows, loc.Path)

	return nil
}
