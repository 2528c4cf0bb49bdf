package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available strategies and their default parameters",
	Args:  cobra.NoArgs,
	RunE:  runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, args []string) error {
	a, log, err := setup(nil)
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tDEFAULTS\tWARM-UP")
	for _, s := range a.Strategies().GetAll() {
		params := s.Params()
		keys := lo.Keys(params)
		slices.Sort(keys)
		pairs := lo.Map(keys, func(k string, _ int) string {
			return fmt.Sprintf("%s=%d", k, params[k])
		})
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			s.Kind(), s.Kind().DisplayName(), strings.Join(pairs, " "), s.Warmup())
	}
	return tw.Flush()
}
