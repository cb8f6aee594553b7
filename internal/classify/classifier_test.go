package classify

import (
	"testing"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Archetype
	}{
		{
			name: "data pipeline beats api",
			text: "Build an ETL pipeline exposed through a REST API",
			want: domain.ArchetypeData,
		},
		{
			name: "plain api",
			text: "Expose a REST endpoint for order lookup",
			want: domain.ArchetypeAPI,
		},
		{
			name: "ui story",
			text: "Design the checkout page with a responsive layout",
			want: domain.ArchetypeUI,
		},
		{
			name: "reporting beats ui",
			text: "Analytics dashboard page for weekly sales",
			want: domain.ArchetypeReporting,
		},
		{
			name: "integration",
			text: "Sync customer records with the third-party CRM",
			want: domain.ArchetypeIntegration,
		},
		{
			name: "configuration",
			text: "Add a feature flag for the new pricing rules",
			want: domain.ArchetypeConfiguration,
		},
		{
			name: "admin",
			text: "Role management console for support staff",
			want: domain.ArchetypeAdmin,
		},
		{
			name: "database is data work",
			text: "Add a database schema for invoices",
			want: domain.ArchetypeData,
		},
		{
			name: "default workflow",
			text: "Allow users to bookmark their favorite articles",
			want: domain.ArchetypeWorkflow,
		},
		{
			name: "empty text",
			text: "",
			want: domain.ArchetypeWorkflow,
		},
		{
			name: "case insensitive",
			text: "EXPOSE A GRAPHQL ENDPOINT",
			want: domain.ArchetypeAPI,
		},
		{
			name: "api does not match inside capitalize",
			text: "Capitalize user names in profile",
			want: domain.ArchetypeWorkflow,
		},
		{
			name: "ui does not match inside build or guided",
			text: "Build guided onboarding flow",
			want: domain.ArchetypeWorkflow,
		},
		{
			name: "rest does not match inside restore",
			text: "Restore archived conversations",
			want: domain.ArchetypeWorkflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyText(tt.text); got != tt.want {
				t.Errorf("ClassifyText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyUsesSummaryAndDescription(t *testing.T) {
	story := &plan.StoryPlan{
		Summary:     "Customer records",
		Description: "Nightly sync with the external billing connector",
	}
	if got := Classify(story); got != domain.ArchetypeIntegration {
		t.Errorf("Classify() = %v, want integration", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	text := "dashboard with api and database touches"
	first := ClassifyText(text)
	for i := 0; i < 10; i++ {
		if got := ClassifyText(text); got != first {
			t.Fatalf("ClassifyText() unstable: %v then %v", first, got)
		}
	}
}
