package tagging

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// RuleInput is the variable set visible to a farm tag rule.
type RuleInput struct {
	Tag    string
	System string
	Prefix string
}

// RuleCache compiles farm tag rules once and reuses the programs.
// Safe for concurrent use.
type RuleCache struct {
	envOnce sync.Once
	env     *cel.Env
	envErr  error

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewRuleCache creates an empty cache.
func NewRuleCache() *RuleCache {
	return &RuleCache{programs: make(map[string]cel.Program)}
}

func (c *RuleCache) environment() (*cel.Env, error) {
	c.envOnce.Do(func() {
		c.env, c.envErr = cel.NewEnv(
			cel.Variable("tag", cel.StringType),
			cel.Variable("system", cel.StringType),
			cel.Variable("prefix", cel.StringType),
		)
	})
	return c.env, c.envErr
}

// Compile checks that expr is a boolean CEL expression.
func (c *RuleCache) Compile(expr string) error {
	_, err := c.program(expr)
	return err
}

func (c *RuleCache) program(expr string) (cel.Program, error) {
	c.mu.RLock()
	prg, ok := c.programs[expr]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}

	env, err := c.environment()
	if err != nil {
		return nil, fmt.Errorf("tag rule environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile tag rule: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("tag rule must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err = env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build tag rule: %w", err)
	}

	c.mu.Lock()
	c.programs[expr] = prg
	c.mu.Unlock()
	return prg, nil
}

// Eval compiles (or reuses) expr and evaluates it against in.
func (c *RuleCache) Eval(expr string, in RuleInput) (bool, error) {
	prg, err := c.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"tag":    in.Tag,
		"system": in.System,
		"prefix": in.Prefix,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate tag rule: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("tag rule returned %T", out.Value())
	}
	return b, nil
}
