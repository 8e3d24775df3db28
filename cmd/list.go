package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/JPM1118/matthumb/internal/assets"
	"github.com/JPM1118/matthumb/internal/config"
	"github.com/JPM1118/matthumb/internal/thumbnail"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the materials a run would process (non-interactive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return listMaterials(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	addRunFlags(listCmd)
	rootCmd.AddCommand(listCmd)
}

func listMaterials(out io.Writer, cfg config.Config) error {
	paths, err := assets.Enumerate(cfg.SourceDir(), cfg.Project.Extension)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(out, "No materials under %s.\n", cfg.SourceDir())
		return nil
	}

	resolver, err := assets.NewResolver(cfg.Project.AssetsDir)
	if err != nil {
		return err
	}
	db := assets.NewDatabase(resolver)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tNAME\tTHUMBNAIL")
	fmt.Fprintln(w, "─────\t────\t─────────")
	for _, p := range paths {
		rel, err := db.Resolve(p)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\tunresolved\n", p)
			continue
		}
		m, err := db.Load(rel)
		if err != nil || m == nil {
			fmt.Fprintf(w, "%s\t-\tskipped\n", rel)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", rel, m.Name, thumbnail.FileName(cfg.Output.Prefix, m.Name))
	}
	return w.Flush()
}
