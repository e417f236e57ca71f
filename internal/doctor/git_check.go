package doctor

import (
	"github.com/ksteinfeldt/gitswitch/internal/gitcfg"
)

// GitExecutableCheck verifies the configured git binary can be found.
type GitExecutableCheck struct {
	BaseCheck
}

// NewGitExecutableCheck creates a new git executable check.
func NewGitExecutableCheck() *GitExecutableCheck {
	return &GitExecutableCheck{
		BaseCheck: BaseCheck{
			CheckName:        "git-executable",
			CheckDescription: "Verify the git executable is installed and on PATH",
		},
	}
}

// Run looks the executable up. The file backend does not need it.
func (c *GitExecutableCheck) Run(ctx *CheckContext) *CheckResult {
	if ctx.Config.Git.Backend == gitcfg.BackendFile {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: "file backend selected; git is not required",
		}
	}

	exe := ctx.Config.Git.Executable
	path, err := ctx.lookPath(exe)
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "git executable not found: " + exe,
			Details: []string{err.Error()},
			FixHint: "Install git and make sure it is in PATH, or set git.executable in the config",
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: "git found at " + path,
	}
}

// ActiveIdentityCheck reports whether git's global identity is registered.
type ActiveIdentityCheck struct {
	BaseCheck
}

// NewActiveIdentityCheck creates a new active identity check.
func NewActiveIdentityCheck() *ActiveIdentityCheck {
	return &ActiveIdentityCheck{
		BaseCheck: BaseCheck{
			CheckName:        "active-identity",
			CheckDescription: "Show whether git's global identity is a registered one",
		},
	}
}

// Run reads the global identity and matches it against the registry.
func (c *ActiveIdentityCheck) Run(ctx *CheckContext) *CheckResult {
	name, email, err := ctx.Configurer.Identity(ctx.Ctx)
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "could not read git's global identity",
			Details: []string{err.Error()},
		}
	}
	if name == "" && email == "" {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "git has no global user.name or user.email",
			FixHint: "Run 'gitswitch <initials>' to activate a registered identity",
		}
	}

	reg, _ := ctx.Store.LoadOrEmpty()
	if id := reg.FindByIdentity(name, email); id != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: "active identity is " + id.Key + " (" + id.String() + ")",
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusWarning,
		Message: "active identity " + name + " <" + email + "> is not registered",
		FixHint: "Run 'gitswitch capture' to register it",
	}
}
