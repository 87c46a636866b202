package rules

import (
	"testing"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

func TestEvaluateBelowThresholdTriggers(t *testing.T) {
	e := NewEvaluator()
	d := e.Evaluate(map[string]float64{"humidity": 15})
	if !d.Triggered {
		t.Fatalf("humidity 15 should trigger")
	}
	if d.Command != messages.CommandStartWaterPump {
		t.Fatalf("expected startWaterPump, got %q", d.Command)
	}
}

func TestEvaluateBoundaryDoesNotTrigger(t *testing.T) {
	e := NewEvaluator()
	d := e.Evaluate(map[string]float64{"humidity": 20})
	if d.Triggered {
		t.Fatalf("humidity equal to the threshold must not trigger")
	}
}

func TestEvaluateAboveThresholdDoesNotTrigger(t *testing.T) {
	e := NewEvaluator()
	if d := e.Evaluate(map[string]float64{"humidity": 55.5}); d.Triggered {
		t.Fatalf("humidity 55.5 should not trigger")
	}
}

func TestEvaluateMissingFieldIsNoAction(t *testing.T) {
	e := NewEvaluator()
	d := e.Evaluate(map[string]float64{"temperature": 3})
	if d.Triggered {
		t.Fatalf("missing humidity must yield no action, not an error")
	}
	if d.Command != messages.CommandNone {
		t.Fatalf("expected empty command, got %q", d.Command)
	}
}

func TestEvaluateFirstMatchingRuleWins(t *testing.T) {
	e := NewEvaluator(
		Rule{Field: "humidity", Below: 20, Command: messages.CommandStartWaterPump},
		Rule{Field: "humidity", Below: 90, Command: messages.ActuationCommand("drip")},
	)
	d := e.Evaluate(map[string]float64{"humidity": 10})
	if d.Command != messages.CommandStartWaterPump {
		t.Fatalf("first matching rule should win, got %q", d.Command)
	}
	d = e.Evaluate(map[string]float64{"humidity": 50})
	if d.Command != messages.ActuationCommand("drip") {
		t.Fatalf("second rule should match at 50, got %q", d.Command)
	}
}
