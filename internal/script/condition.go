// Package script compiles the `when:` expressions of ability definitions into
// preconditions.
package script

import (
	"fmt"
	"math"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/sirupsen/logrus"

	"riftcore/internal/combat"
)

const resultVar = "__when"

// Variables visible to a condition.
var Variables = []string{"distance_sq", "distance", "visible", "phase", "active", "minions", "minion_cap", "threat"}

// Condition is a compiled expression. Not safe for concurrent use; compile one
// per controller.
type Condition struct {
	src      string
	compiled *tengo.Compiled
}

var zeroValues = map[string]any{
	"distance_sq": 0.0,
	"distance":    0.0,
	"visible":     false,
	"phase":       0,
	"active":      0,
	"minions":     0,
	"minion_cap":  0,
	"threat":      0.0,
}

// declare adds every condition variable to s, stopping at the first failure.
func declare(s *tengo.Script, vals map[string]any) error {
	for _, name := range Variables {
		if err := s.Add(name, vals[name]); err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}
	}
	return nil
}

func Compile(expr string) (*Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty condition")
	}
	s := tengo.NewScript([]byte(fmt.Sprintf("%s := (%s)", resultVar, expr)))
	if err := declare(s, zeroValues); err != nil {
		return nil, fmt.Errorf("condition %q: %w", expr, err)
	}
	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return &Condition{src: expr, compiled: compiled}, nil
}

func (c *Condition) String() string { return c.src }

func (c *Condition) Eval(in combat.PreconditionInput) (bool, error) {
	vals := map[string]any{
		"distance_sq": in.DistanceSq,
		"distance":    math.Sqrt(in.DistanceSq),
		"visible":     in.Visible,
		"phase":       int(in.Phase),
		"active":      in.ActiveAbilities,
		"minions":     in.MinionsAlive,
		"minion_cap":  in.MinionCap,
		"threat":      in.Threat,
	}
	for k, v := range vals {
		if err := c.compiled.Set(k, v); err != nil {
			return false, err
		}
	}
	if err := c.compiled.Run(); err != nil {
		return false, fmt.Errorf("run %q: %w", c.src, err)
	}
	return c.compiled.Get(resultVar).Bool(), nil
}

// Precondition adapts the condition for the scheduler. Evaluation errors are
// logged and treated as false.
func (c *Condition) Precondition(log logrus.FieldLogger) combat.Precondition {
	return func(in combat.PreconditionInput) bool {
		ok, err := c.Eval(in)
		if err != nil {
			log.WithError(err).Debug("precondition failed")
			return false
		}
		return ok
	}
}
