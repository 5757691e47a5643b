package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/blockstorm/internal/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List discovered plugins and their load state",
	Long: `Plugins starts an editor with the configured search paths and prints
every built-in and discovered plugin with its state. Plugins that failed to
load show the error.`,
	RunE: runPlugins,
}

func runPlugins(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ed, err := newReplayEditor(cmd.Context(), cfg, "", nil)
	if err != nil {
		return err
	}
	defer ed.Close()
	return printStatuses(cmd.OutOrStdout(), ed.Plugins().Statuses())
}

func printStatuses(w io.Writer, statuses []plugin.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tSOURCE\tERROR")
	for _, st := range statuses {
		errText := ""
		if st.Err != nil {
			errText = st.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Name(), st.State, st.Source, errText)
	}
	return tw.Flush()
}
