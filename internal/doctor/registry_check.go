package doctor

import (
	"errors"
	"fmt"

	"github.com/ksteinfeldt/gitswitch/internal/identity"
)

// RegistryCheck verifies the identity registry parses and its keys are
// valid, normalised and unique.
type RegistryCheck struct {
	FixableCheck
}

// NewRegistryCheck creates a new registry check.
func NewRegistryCheck() *RegistryCheck {
	return &RegistryCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "identity-registry",
				CheckDescription: "Verify the identity registry is readable with unique, valid keys",
			},
		},
	}
}

// Run loads the registry and lints its entries.
func (c *RegistryCheck) Run(ctx *CheckContext) *CheckResult {
	path := ctx.Store.Path()
	reg, err := ctx.Store.Load()
	if err != nil {
		if errors.Is(err, identity.ErrRegistryNotFound) {
			return &CheckResult{
				Name:    c.Name(),
				Status:  StatusOK,
				Message: "No registry yet at " + path + " (will be created on first registration)",
			}
		}
		if errors.Is(err, identity.ErrRegistryMalformed) {
			return &CheckResult{
				Name:    c.Name(),
				Status:  StatusError,
				Message: "Registry cannot be parsed: " + path,
				Details: []string{
					err.Error(),
					"Lookups treat it as empty and the next registration replaces it",
				},
				FixHint: "Run 'gitswitch doctor --fix' to start an empty registry (old contents are kept in a .bak file)",
			}
		}
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Registry cannot be read: " + path,
			Details: []string{err.Error()},
		}
	}

	problems := lint(reg, ctx.Store.Keys())
	if len(problems) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d problem(s) in %s", len(problems), path),
			Details: problems,
			FixHint: "Run 'gitswitch doctor --fix' to normalise keys and drop duplicates",
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("%d identities in %s", len(reg.Identities), path),
	}
}

func lint(reg *identity.Registry, kf identity.KeyFormat) []string {
	var problems []string
	seen := map[string]bool{}
	for _, id := range reg.Identities {
		norm := kf.Normalize(id.Key)
		if norm != id.Key {
			problems = append(problems, fmt.Sprintf("key %q is stored unnormalised (want %q)", id.Key, norm))
		}
		if err := kf.Validate(norm); err != nil {
			problems = append(problems, err.Error())
		}
		if seen[norm] {
			problems = append(problems, fmt.Sprintf("key %q is registered more than once", norm))
		}
		seen[norm] = true
		if id.Name == "" || id.Email == "" {
			problems = append(problems, fmt.Sprintf("key %q is missing a name or email", norm))
		}
	}
	return problems
}

// Fix rewrites the registry. A malformed file is set aside and replaced by
// an empty registry; otherwise keys are normalised and later duplicates
// dropped. Invalid keys and missing fields are left for the user.
func (c *RegistryCheck) Fix(ctx *CheckContext) error {
	reg, err := ctx.Store.Load()
	if err != nil {
		if !errors.Is(err, identity.ErrRegistryMalformed) {
			return nil
		}
		return ctx.Store.Reset()
	}

	kf := ctx.Store.Keys()
	tidy := identity.NewRegistry()
	for _, id := range reg.Identities {
		id.Key = kf.Normalize(id.Key)
		if tidy.Find(id.Key) != nil {
			continue
		}
		tidy.Identities = append(tidy.Identities, id)
	}
	return ctx.Store.Save(tidy)
}
