package grok

import "testing"

func TestParseVerdictJSON(t *testing.T) {
	result, err := parseVerdict(`{"total": 62, "subject": 25, "composition": 15, "color": 12, "detail": 10}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Total != 62 {
		t.Fatalf("expected total 62, got %d", result.Total)
	}
	if result.Breakdown == nil || result.Breakdown.Subject != 25 || result.Breakdown.Detail != 10 {
		t.Fatalf("unexpected breakdown: %+v", result.Breakdown)
	}
}

func TestParseVerdictFencedJSON(t *testing.T) {
	result, err := parseVerdict("```json\n{\"total\": 40, \"subject\": 14, \"composition\": 10, \"color\": 8, \"detail\": 8}\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Total != 40 {
		t.Fatalf("expected total 40, got %d", result.Total)
	}
}

func TestParseVerdictBareInteger(t *testing.T) {
	result, err := parseVerdict("55")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Total != 55 {
		t.Fatalf("expected total 55, got %d", result.Total)
	}
	if result.Breakdown != nil {
		t.Fatalf("expected no breakdown, got %+v", result.Breakdown)
	}
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not a score", "-5", "150", `{"total": 250}`} {
		if _, err := parseVerdict(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
