package rules

import (
	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

// Default low-water mark for soil humidity, on whatever unit scale the
// sensor reports.
const DefaultHumidityThreshold = 20.0

// Rule triggers Command when Field is present in a reading and its
// value is strictly below Below. A value equal to the mark does not
// trigger.
type Rule struct {
	Field   string
	Below   float64
	Command messages.ActuationCommand
}

// Decision is the outcome of evaluating one reading.
type Decision struct {
	Triggered bool
	Command   messages.ActuationCommand
}

// Evaluator is a pure, stateless threshold evaluator. It inspects the
// current reading only; no smoothing or history.
type Evaluator struct {
	rules []Rule
}

// DefaultRules is the baked-in rule set: humidity below 20 starts the
// water pump.
func DefaultRules() []Rule {
	return []Rule{{
		Field:   "humidity",
		Below:   DefaultHumidityThreshold,
		Command: messages.CommandStartWaterPump,
	}}
}

// NewEvaluator builds an evaluator over the given rules; with no rules
// it falls back to DefaultRules.
func NewEvaluator(rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Evaluator{rules: rules}
}

// Evaluate decides the actuation for one measurement bag. A rule whose
// field is absent from the bag is skipped, not an error: different
// sensor kinds legitimately omit fields. The first matching rule wins.
func (e *Evaluator) Evaluate(measurements map[string]float64) Decision {
	for _, r := range e.rules {
		v, ok := measurements[r.Field]
		if !ok {
			continue
		}
		if v < r.Below {
			return Decision{Triggered: true, Command: r.Command}
		}
	}
	return Decision{Command: messages.CommandNone}
}
