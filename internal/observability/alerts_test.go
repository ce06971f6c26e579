package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestRentdeskAlertRules(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "rentdesk.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var rulesFile alertSpec
	if err := yaml.Unmarshal(data, &rulesFile); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}
	if len(rulesFile.Groups) != 1 || rulesFile.Groups[0].Name != "rentdesk" {
		t.Fatalf("expected a single rentdesk group, got %+v", rulesFile.Groups)
	}

	expected := map[string]string{
		"HighErrorRate":      "critical",
		"BackendUnavailable": "critical",
		"PartialConversions": "warning",
		"ExpirySweepFailing": "warning",
	}
	rules := rulesFile.Groups[0].Rules
	if len(rules) != len(expected) {
		t.Fatalf("expected %d rules, got %d", len(expected), len(rules))
	}

	runbook, err := os.ReadFile(filepath.Join("..", "..", "docs", "runbook.md"))
	if err != nil {
		t.Fatalf("failed to read runbook: %v", err)
	}

	for _, rule := range rules {
		severity, ok := expected[rule.Alert]
		if !ok {
			t.Fatalf("unexpected rule %q", rule.Alert)
		}
		if rule.Labels["severity"] != severity {
			t.Fatalf("rule %s severity mismatch: %s", rule.Alert, rule.Labels["severity"])
		}
		if rule.Annotations["summary"] == "" || rule.Annotations["description"] == "" {
			t.Fatalf("rule %s must include summary and description annotations", rule.Alert)
		}
		if !strings.Contains(rule.Expr, "rentdesk_") {
			t.Fatalf("rule %s must query a rentdesk metric: %s", rule.Alert, rule.Expr)
		}
		if rule.For == "" {
			t.Fatalf("rule %s must define a hold duration", rule.Alert)
		}
		link := rule.Annotations["runbook"]
		_, anchor, found := strings.Cut(link, "#")
		if !strings.HasPrefix(link, "docs/runbook.md#") || !found {
			t.Fatalf("rule %s runbook must point into docs/runbook.md: %s", rule.Alert, link)
		}
		heading := "## " + strings.ReplaceAll(anchor, "-", " ")
		if !strings.Contains(strings.ToLower(string(runbook)), heading) {
			t.Fatalf("rule %s runbook anchor %q has no matching section", rule.Alert, anchor)
		}
	}
}
