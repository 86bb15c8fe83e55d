package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsforms/pkg/fieldset"
	"github.com/goliatone/go-opsforms/pkg/model"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			forms := fieldset.Forms()
			if dir := strings.TrimSpace(a.cfg.FormsDir); dir != "" {
				forms = os.DirFS(dir)
			}
			names := fieldset.Names(forms)
			if len(names) == 0 {
				a.logger.Info("No forms found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FORM\tFIELDS\tTITLE")
			fmt.Fprintln(w, "----\t------\t-----")
			loader := a.loader()
			for _, name := range names {
				doc, err := loader.Load(cmd.Context(), fieldset.SourceFromFS(name+".yaml"))
				if err != nil {
					fmt.Fprintf(w, "%s\t-\tinvalid: %v\n", name, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(model.Leaves(doc.Fields)), doc.Title)
			}
			return w.Flush()
		},
	}
}
