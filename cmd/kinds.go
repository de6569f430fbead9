package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/a1s/lazyrows/internal/config"
	"github.com/a1s/lazyrows/internal/dao"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List source kinds and their aliases",
	Args:  cobra.NoArgs,
	RunE:  runKinds,
}

func runKinds(cmd *cobra.Command, _ []string) error {
	if err := config.InitLocs(); err != nil {
		return fmt.Errorf("failed to initialize locations: %w", err)
	}
	aa := config.NewAliases()
	if err := aa.Load(); err != nil {
		return fmt.Errorf("failed to load aliases: %w", err)
	}

	return printKinds(cmd.OutOrStdout(), aa)
}

func printKinds(w io.Writer, aa *config.Aliases) error {
	byKind := make(map[string][]string)
	for _, n := range aa.Names() {
		kind := aa.Get(n)
		byKind[kind] = append(byKind[kind], n)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tALIASES")
	for _, rid := range dao.ListSources() {
		fmt.Fprintf(tw, "%s\t%s\n", rid, strings.Join(byKind[rid.String()], ","))
	}

	return tw.Flush()
}
