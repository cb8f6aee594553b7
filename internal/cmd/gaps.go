package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/epicbreaker/internal/errors"
	"github.com/felixgeelhaar/epicbreaker/internal/gap"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
	"github.com/felixgeelhaar/epicbreaker/internal/ux"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps <epic-key>",
	Short: "Analyze an epic's story coverage without planning",
	Long: `Compare an epic's existing stories against the functional areas named in
its source documents and report what is missing, incomplete, or orphaned.

This is the read-only first stage of the planning pipeline. Nothing is
created in the tracker.

Examples:
  # Report coverage gaps for an epic
  epicbreaker gaps PROJ-100

  # Machine-readable output for scripting
  epicbreaker gaps PROJ-100 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGaps,
}

var (
	gapsRequirements string
	gapsDesign       string
)

func init() {
	gapsCmd.Flags().StringVar(&gapsRequirements, "requirements-doc", "", "override the epic's requirements document URL")
	gapsCmd.Flags().StringVar(&gapsDesign, "design-doc", "", "override the epic's design document URL")

	rootCmd.AddCommand(gapsCmd)
}

func runGaps(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	trk, err := buildTracker(cfg)
	if err != nil {
		return err
	}
	docs := buildDocs(cfg)

	ctx := cmd.Context()
	epicKey := args[0]

	issue, err := trk.Get(ctx, epicKey)
	if err != nil {
		return errors.NewTrackerUnavailableError(err)
	}
	if issue == nil {
		return errors.NewEpicMissingError(epicKey)
	}

	epic := &plan.Epic{
		ID:                 issue.Key,
		Title:              issue.Summary,
		Description:        issue.Description,
		RequirementsDocURL: gapsRequirements,
		DesignDocURL:       gapsDesign,
	}

	analysis, warnings, err := gap.New(trk, docs, logger).Analyze(ctx, epic)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	formatter, err := ux.NewFormatter(outputFormat, &ux.FormatterOptions{NoColor: noColor})
	if err != nil {
		return err
	}
	return formatter.Format(analysis)
}
