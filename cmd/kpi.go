package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/kpi"
)

var (
	contentFile string
	kpiJSON     bool
)

var kpiCmd = &cobra.Command{
	Use:   "kpi [achievement...]",
	Short: "Show the KPIs extracted from achievements",
	Long: `Without arguments, prints the KPIs of every experience in the content
file. With arguments, treats each argument as one achievement line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			kpis := kpi.Extract(args)
			if kpiJSON {
				return writeJSON(cmd, kpis)
			}
			for _, k := range kpis {
				fmt.Fprintln(out, kpi.Format(k))
			}
			return nil
		}

		p, err := loadContent()
		if err != nil {
			return err
		}

		if kpiJSON {
			byID := make(map[string][]kpi.KPI, len(p.Experience))
			for _, e := range p.Experience {
				byID[e.ID] = kpi.Extract(e.Achievements)
			}
			return writeJSON(cmd, byID)
		}

		for _, e := range p.Experience {
			fmt.Fprintf(out, "%s (%s)\n", e.ID, content.Slug(e))
			kpis := kpi.Extract(e.Achievements)
			if len(kpis) == 0 {
				fmt.Fprintln(out, "  no KPIs")
			}
			for _, k := range kpis {
				fmt.Fprintf(out, "  %s\n", kpi.Format(k))
			}
		}
		return nil
	},
}

func init() {
	kpiCmd.Flags().StringVarP(&contentFile, "file", "f", "", "content file (default: content_file from config, else built-in)")
	kpiCmd.Flags().BoolVar(&kpiJSON, "json", false, "print JSON")
	rootCmd.AddCommand(kpiCmd)
}

// loadContent reads the content named by --file, the config, or the
// built-in default, in that order.
func loadContent() (*content.Portfolio, error) {
	path := contentFile
	if path == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		path = cfg.ContentFile
	}
	return content.Load(path)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
