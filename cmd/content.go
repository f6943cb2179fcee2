package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/content"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect portfolio content",
}

var contentCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the content file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadContent()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "content OK: %s\n", p.User.FullName)
		fmt.Fprintf(out, "  experience: %d\n", len(p.Experience))
		now := time.Now()
		for _, g := range content.GroupByYear(p.Experience) {
			for _, e := range g.Experiences {
				tenure := ""
				if period, err := content.ParsePeriod(e.Date); err == nil {
					tenure = " (" + period.Tenure(now) + ")"
				}
				fmt.Fprintf(out, "    %-32s %s%s\n", content.Slug(e), content.DateLabel(e.Date), tenure)
			}
		}
		fmt.Fprintf(out, "  education: %d\n", len(p.Education))
		fmt.Fprintf(out, "  projects: %d\n", len(p.Projects))
		fmt.Fprintf(out, "  skills: %d\n", len(p.Skills))
		for _, g := range content.GroupSkills(p.Skills) {
			fmt.Fprintf(out, "    %-24s %d\n", g.Label, len(g.Skills))
		}
		return nil
	},
}

var contentDumpCmd = &cobra.Command{
	Use:   "dump [path]",
	Short: "Write the built-in content to a file (or stdout) to start from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := content.DefaultYAML()
		if len(args) == 0 {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if _, err := os.Stat(args[0]); err == nil {
			return fmt.Errorf("%s already exists", args[0])
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return fmt.Errorf("writing content: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}

func init() {
	contentCheckCmd.Flags().StringVarP(&contentFile, "file", "f", "", "content file (default: content_file from config, else built-in)")
	contentCmd.AddCommand(contentCheckCmd, contentDumpCmd)
	rootCmd.AddCommand(contentCmd)
}
