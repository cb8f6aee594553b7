package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/epicbreaker/internal/config"
	"github.com/felixgeelhaar/epicbreaker/internal/docstore"
	"github.com/felixgeelhaar/epicbreaker/internal/errors"
	"github.com/felixgeelhaar/epicbreaker/internal/orchestrator"
	"github.com/felixgeelhaar/epicbreaker/internal/oracle"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
	"github.com/felixgeelhaar/epicbreaker/internal/tracker"
	"github.com/felixgeelhaar/epicbreaker/internal/ux"
)

var planCmd = &cobra.Command{
	Use:   "plan <epic-key>",
	Short: "Decompose an epic into stories, tasks, and tracker tickets",
	Long: `Run the full planning pipeline for one epic.

The pipeline analyzes story coverage against the epic's source documents,
synthesizes stories for uncovered areas and tasks for incomplete stories,
fills team-coverage gaps with placeholder tasks, splits work that exceeds
the cycle-time budget, resolves dependencies, and creates the resulting
tickets and links in the tracker.

Use --dry-run to see the full plan without creating anything.

Examples:
  # Plan an epic and create tickets
  epicbreaker plan PROJ-100

  # Preview the plan without touching the tracker
  epicbreaker plan PROJ-100 --dry-run

  # Tighten the cycle-time budget and skip the oracle
  epicbreaker plan PROJ-100 --max-cycle-days 3 --no-oracle`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

var (
	planDryRun       bool
	planMaxCycleDays float64
	planCoverage     string
	planNoOracle     bool
	planRequirements string
	planDesign       string
)

func init() {
	planCmd.Flags().BoolVar(&planDryRun, "dry-run", false, "build the full plan without creating tickets")
	planCmd.Flags().Float64Var(&planMaxCycleDays, "max-cycle-days", 0, "cycle-time budget per task in working days (default from config)")
	planCmd.Flags().StringVar(&planCoverage, "coverage", "", "test coverage level: minimal, basic, standard, comprehensive (default from config)")
	planCmd.Flags().BoolVar(&planNoOracle, "no-oracle", false, "skip the generative oracle and use templates only")
	planCmd.Flags().StringVar(&planRequirements, "requirements-doc", "", "override the epic's requirements document URL")
	planCmd.Flags().StringVar(&planDesign, "design-doc", "", "override the epic's design document URL")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	trk, err := buildTracker(cfg)
	if err != nil {
		return err
	}
	docs := buildDocs(cfg)

	orc := oracle.Oracle(oracle.Disabled{})
	if !planNoOracle {
		orc, err = oracle.FromConfig(oracleConfig(cfg))
		if err != nil {
			return err
		}
	}

	opts := planOptions(cfg)
	if planDryRun || cfg.Planning.DryRun {
		opts.DryRun = true
	}

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
		RequirementsDocURL: planRequirements,
		DesignDocURL:       planDesign,
	}

	o := orchestrator.New(orchestrator.Config{
		Tracker:      trk,
		Docs:         docs,
		Oracle:       orc,
		MaxCycleDays: opts.MaxCycleDays,
		Logger:       logger,
	})

	result := o.Plan(ctx, epic, opts)

	formatter, err := ux.NewFormatter(outputFormat, &ux.FormatterOptions{NoColor: noColor})
	if err != nil {
		return err
	}
	if err := formatter.Format(result); err != nil {
		return err
	}

	if !result.Success {
		return errors.New(errors.ErrCodePlanStageFailed,
			fmt.Sprintf("planning failed: %s", strings.Join(result.Errors, "; ")))
	}
	return nil
}

// planOptions merges config defaults with flag overrides.
func planOptions(cfg *config.Config) orchestrator.Options {
	opts := orchestrator.Options{
		MaxCycleDays: cfg.Planning.MaxCycleDays,
		Coverage:     plan.CoverageStandard,
	}
	if cfg.Planning.Coverage != "" {
		opts.Coverage = plan.CoverageLevel(cfg.Planning.Coverage)
	}
	if planMaxCycleDays > 0 {
		opts.MaxCycleDays = planMaxCycleDays
	}
	if planCoverage != "" {
		opts.Coverage = plan.CoverageLevel(planCoverage)
	}
	return opts
}

func buildTracker(cfg *config.Config) (tracker.Client, error) {
	if cfg.Tracker.BaseURL == "" {
		return nil, errors.NewConfigInvalidError("tracker.base_url is required", nil)
	}
	return tracker.NewJiraClient(tracker.JiraConfig{
		BaseURL:    cfg.Tracker.BaseURL,
		Email:      cfg.Tracker.Email,
		APIToken:   cfg.Tracker.APIToken,
		ProjectKey: cfg.Tracker.Project,
	}), nil
}

func buildDocs(cfg *config.Config) docstore.Client {
	return docstore.NewConfluenceClient(docstore.ConfluenceConfig{
		BaseURL:  cfg.Docs.BaseURL,
		Email:    cfg.Docs.Email,
		APIToken: cfg.Docs.APIToken,
	})
}

func oracleConfig(cfg *config.Config) oracle.Config {
	return oracle.Config{
		Provider:    cfg.Oracle.Provider,
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		MaxTokens:   cfg.Oracle.MaxTokens,
		Temperature: cfg.Oracle.Temperature,
	}
}
