package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/epicbreaker/internal/config"
	"github.com/felixgeelhaar/epicbreaker/internal/errors"
	"github.com/felixgeelhaar/epicbreaker/internal/ux"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and collaborator connectivity",
	Long: `Verify that epicbreaker is ready to plan.

Checks include:
  - configuration file and credentials
  - tracker connectivity
  - document store configuration
  - generative oracle configuration

Examples:
  # Run diagnostics with colored output
  epicbreaker doctor

  # Output as JSON for CI
  epicbreaker doctor -o json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// DoctorReport is the complete diagnostic result.
type DoctorReport struct {
	Config  DoctorCheck `json:"config"`
	Tracker DoctorCheck `json:"tracker"`
	Docs    DoctorCheck `json:"docs"`
	Oracle  DoctorCheck `json:"oracle"`
	Healthy bool        `json:"healthy"`
}

// DoctorCheck is a single diagnostic result.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := DoctorReport{Healthy: true}

	cfg, _, err := loadConfig()
	if err != nil {
		report.Config = DoctorCheck{Name: "Configuration", Status: "error", Message: err.Error()}
		report.Healthy = false
		cfg = config.Default()
	} else {
		report.Config = DoctorCheck{Name: "Configuration", Status: "ok", Message: "loaded"}
	}

	report.Tracker = checkTracker(cmd.Context(), cfg)
	report.Docs = checkDocs(cfg)
	report.Oracle = checkOracle(cfg)

	for _, c := range []DoctorCheck{report.Tracker, report.Docs, report.Oracle} {
		if c.Status == "error" {
			report.Healthy = false
		}
	}

	formatter, err := ux.NewFormatter(outputFormat, &ux.FormatterOptions{NoColor: noColor})
	if err != nil {
		return err
	}
	if err := formatter.Format(report); err != nil {
		return err
	}

	if !report.Healthy {
		return errors.New(errors.ErrCodeConfigInvalid, "one or more health checks failed")
	}
	return nil
}

func checkTracker(ctx context.Context, cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "Tracker"}

	if cfg.Tracker.BaseURL == "" {
		check.Status = "error"
		check.Message = "tracker.base_url is not set"
		return check
	}
	if cfg.Tracker.APIToken == "" {
		check.Status = "warning"
		check.Message = "tracker.api_token is not set; requests will be unauthenticated"
		return check
	}

	trk, err := buildTracker(cfg)
	if err != nil {
		check.Status = "error"
		check.Message = err.Error()
		return check
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("project = %q ORDER BY created DESC", cfg.Tracker.Project)
	if _, err := trk.Search(probeCtx, query, 1); err != nil {
		check.Status = "error"
		check.Message = fmt.Sprintf("search probe failed: %v", err)
		return check
	}

	check.Status = "ok"
	check.Message = fmt.Sprintf("reachable at %s", cfg.Tracker.BaseURL)
	return check
}

func checkDocs(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "Document store"}

	if cfg.Docs.BaseURL == "" {
		check.Status = "warning"
		check.Message = "docs.base_url is not set; planning runs without document context"
		return check
	}

	check.Status = "ok"
	check.Message = fmt.Sprintf("configured at %s", cfg.Docs.BaseURL)
	return check
}

func checkOracle(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "Oracle"}

	switch cfg.Oracle.Provider {
	case "", "none", "disabled":
		check.Status = "warning"
		check.Message = "oracle disabled; task synthesis uses templates only"
	case "openai":
		if cfg.Oracle.APIKey == "" {
			check.Status = "error"
			check.Message = "oracle.provider is openai but oracle.api_key is not set"
		} else {
			check.Status = "ok"
			check.Message = "openai configured"
		}
	default:
		check.Status = "error"
		check.Message = fmt.Sprintf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
	return check
}
