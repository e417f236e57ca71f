// Package doctor runs health checks over gitswitch's configuration,
// registry and git setup.
package doctor

import (
	"context"
	"os/exec"

	"github.com/ksteinfeldt/gitswitch/internal/config"
	"github.com/ksteinfeldt/gitswitch/internal/gitcfg"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
)

// Status is the outcome of a check.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	default:
		return "error"
	}
}

// CheckContext is what checks inspect.
type CheckContext struct {
	Ctx        context.Context
	Config     *config.Config
	Store      *identity.Store
	Configurer gitcfg.Configurer

	// LookPath resolves executables; nil means exec.LookPath.
	LookPath func(file string) (string, error)
}

func (c *CheckContext) lookPath(file string) (string, error) {
	if c.LookPath != nil {
		return c.LookPath(file)
	}
	return exec.LookPath(file)
}

// CheckResult is the report of one check.
type CheckResult struct {
	Name    string
	Status  Status
	Message string
	Details []string
	FixHint string
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Description() string
	Run(ctx *CheckContext) *CheckResult
	CanFix() bool
	Fix(ctx *CheckContext) error
}

// BaseCheck supplies names for checks that cannot fix anything.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
}

func (b *BaseCheck) Name() string        { return b.CheckName }
func (b *BaseCheck) Description() string { return b.CheckDescription }
func (b *BaseCheck) CanFix() bool        { return false }
func (b *BaseCheck) Fix(*CheckContext) error {
	return nil
}

// FixableCheck marks a check whose Fix does something.
type FixableCheck struct {
	BaseCheck
}

func (f *FixableCheck) CanFix() bool { return true }

// DefaultChecks returns every check in display order.
func DefaultChecks() []Check {
	return []Check{
		NewGitExecutableCheck(),
		NewRegistryCheck(),
		NewActiveIdentityCheck(),
	}
}

// Run executes checks in order and returns one result per check, in the
// same order. When fix is set, failing fixable checks are fixed and re-run
// so the report shows the final state.
func Run(ctx *CheckContext, checks []Check, fix bool) []*CheckResult {
	results := make([]*CheckResult, 0, len(checks))
	for _, c := range checks {
		res := c.Run(ctx)
		if fix && res.Status != StatusOK && c.CanFix() {
			if err := c.Fix(ctx); err != nil {
				res.Details = append(res.Details, "fix failed: "+err.Error())
			} else {
				res = c.Run(ctx)
			}
		}
		results = append(results, res)
	}
	return results
}

// Worst returns the most severe status among results.
func Worst(results []*CheckResult) Status {
	worst := StatusOK
	for _, r := range results {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}
