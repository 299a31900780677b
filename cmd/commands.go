package cmd

import (
	"fmt"

	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/gigapi/gigapi-accidents/report"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSourcesCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "Label", "Origin", "Date Column"})
			for _, s := range a.cfg.Sources {
				origin := s.Path
				if s.Dataset != "" {
					origin = s.Dataset
					if s.File != "" {
						origin += " [" + s.File + "]"
					}
				}
				t.AppendRow(table.Row{s.Name, s.Label, origin, s.DateColumn})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}

func newFetchCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <source>...",
		Short: "Download sources into the working directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			for _, name := range args {
				s, err := a.registry.Get(name)
				if err != nil {
					return err
				}
				artifact, err := s.Fetch(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, artifact.Format, artifact.Path)
			}
			return nil
		},
	}
}

func newYearlyCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "yearly <source>",
		Short: "Count the events of one source per year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, getApp(), aggregate.JoinInner, args)
		},
	}
}

func newCompareCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <source> <source>...",
		Short: "Compare the yearly counts of several sources",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			return run(cmd, a, a.join, args)
		},
	}
}

func run(cmd *cobra.Command, a *app, mode aggregate.JoinMode, names []string) error {
	counts := make([]*aggregate.YearlyCount, 0, len(names))
	for _, name := range names {
		s, err := a.registry.Get(name)
		if err != nil {
			return err
		}
		yc, err := s.YearlyCounts(cmd.Context())
		if err != nil {
			return err
		}
		counts = append(counts, yc)
	}

	combined, err := aggregate.Combine(mode, counts...)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), a.cfg.Format, combined, a.report)
}
