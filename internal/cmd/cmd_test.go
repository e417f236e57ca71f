package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ksteinfeldt/gitswitch/internal/config"
	"github.com/ksteinfeldt/gitswitch/internal/gitcfg"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
)

type setCall struct {
	name, email string
}

// fakeGit records identity writes instead of running git.
type fakeGit struct {
	calls       []setCall
	name, email string
	err         error
}

func (f *fakeGit) SetIdentity(_ context.Context, name, email string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, setCall{name: name, email: email})
	f.name, f.email = name, email
	return nil
}

func (f *fakeGit) Identity(context.Context) (string, string, error) {
	return f.name, f.email, nil
}

type env struct {
	storePath string
	git       *fakeGit
}

// setup isolates config lookup and the registry in temp dirs and replaces git.
func setup(t *testing.T) *env {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("AppData", filepath.Join(home, "AppData"))
	t.Setenv(config.EnvVarConfig, "")

	e := &env{
		storePath: filepath.Join(home, "data", identity.RegistryFileName),
		git:       &fakeGit{},
	}
	t.Setenv("GITSWITCH_STORE_PATH", e.storePath)

	old := newConfigurer
	newConfigurer = func(*config.Config) (gitcfg.Configurer, error) { return e.git, nil }
	t.Cleanup(func() { newConfigurer = old })

	return e
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (e *env) store() *identity.Store {
	return identity.NewStore(e.storePath, identity.DefaultKeyFormat())
}

func TestRegisterThenSwitch(t *testing.T) {
	e := setup(t)

	out, err := run(t, "-n", "JQP", "John Q. Person", "jqp@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Registered jqp")

	id, err := e.store().Get("jqp")
	require.NoError(t, err)
	require.Equal(t, "John Q. Person", id.Name)
	require.Equal(t, "jqp@example.com", id.Email)

	out, err = run(t, "jqp")
	require.NoError(t, err)
	require.Contains(t, out, "Switched to jqp")
	require.Equal(t, []setCall{{name: "John Q. Person", email: "jqp@example.com"}}, e.git.calls)
}

func TestRegisterDuplicate(t *testing.T) {
	e := setup(t)

	_, err := run(t, "-n", "abc", "Alice", "alice@example.com")
	require.NoError(t, err)

	out, err := run(t, "-n", "abc", "Impostor", "evil@example.com")
	require.NoError(t, err, "duplicates are reported, not returned")
	require.Contains(t, out, "abc already registered")
	require.Contains(t, out, "Usage:")

	id, err := e.store().Get("abc")
	require.NoError(t, err)
	require.Equal(t, "Alice", id.Name)
}

func TestSwitchUnregistered(t *testing.T) {
	e := setup(t)

	out, err := run(t, "xyz")
	require.NoError(t, err)
	require.Contains(t, out, "xyz not registered")
	require.Contains(t, out, "Usage:")
	require.Empty(t, e.git.calls, "no git invocation for an unknown key")
}

func TestSwitchWithMalformedRegistry(t *testing.T) {
	e := setup(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(e.storePath), 0755))
	require.NoError(t, os.WriteFile(e.storePath, []byte("garbage"), 0644))

	out, err := run(t, "abc")
	require.NoError(t, err)
	require.Contains(t, out, "Error reading identity registry")
	require.Contains(t, out, "abc not registered")
	require.Empty(t, e.git.calls)

	// Registering over it starts from an empty registry.
	out, err = run(t, "-n", "abc", "Alice", "alice@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Registered abc")
	ids, err := e.store().List()
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestGitNotFound(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.store().Add(identity.Identity{Key: "abc", Name: "Alice", Email: "alice@example.com"}))
	e.git.err = gitcfg.ErrGitNotFound

	out, err := run(t, "abc")
	require.NoError(t, err, "a missing git executable is reported, not returned")
	require.Contains(t, out, "Git executable not found")
}

func TestUsageForOtherInvocations(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no args", args: nil},
		{name: "key too long", args: []string{"abcd"}},
		{name: "key too short", args: []string{"ab"}},
		{name: "two args", args: []string{"abc", "def"}},
		{name: "register missing email", args: []string{"-n", "abc", "Alice"}},
		{name: "register bad key", args: []string{"-n", "abcd", "Alice", "a@example.com"}},
		{name: "unknown flag", args: []string{"--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			require.Contains(t, out, "Usage:")
			require.Empty(t, e.git.calls)
			_, statErr := os.Stat(e.storePath)
			require.True(t, os.IsNotExist(statErr), "nothing should be written")
		})
	}
}

func TestKeyFormatFromConfig(t *testing.T) {
	e := setup(t)
	t.Setenv("GITSWITCH_KEY_LENGTH", "0")
	t.Setenv("GITSWITCH_KEY_PATTERN", "^[a-z]+$")

	_, err := run(t, "-n", "alice", "Alice", "alice@example.com")
	require.NoError(t, err)

	out, err := run(t, "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Switched to alice")
	require.Len(t, e.git.calls, 1)

	out, err = run(t, "al1ce")
	require.NoError(t, err)
	require.Contains(t, out, "matching ^[a-z]+$")
}

func TestList(t *testing.T) {
	e := setup(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "No identities registered")

	s := e.store()
	require.NoError(t, s.Add(identity.Identity{Key: "abc", Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, s.Add(identity.Identity{Key: "bob", Name: "Bob", Email: "bob@example.com"}))
	e.git.name, e.git.email = "Bob", "bob@example.com"

	out, err = run(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "abc  Alice <alice@example.com>")
	require.Contains(t, out, "* bob  Bob <bob@example.com>")
}

func TestRemove(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.store().Add(identity.Identity{Key: "abc", Name: "Alice", Email: "alice@example.com"}))

	out, err := run(t, "remove", "ABC")
	require.NoError(t, err)
	require.Contains(t, out, "Removed abc")

	_, err = run(t, "remove", "abc")
	require.ErrorContains(t, err, "abc not registered")
}

func TestCurrentAndCapture(t *testing.T) {
	e := setup(t)

	out, err := run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "No global git identity set")

	_, err = run(t, "capture")
	require.Error(t, err)

	e.git.name, e.git.email = "John Q. Person", "jqp@example.com"
	out, err = run(t, "current")
	require.NoError(t, err)
	require.Contains(t, out, "(not registered)")

	out, err = run(t, "capture")
	require.NoError(t, err)
	require.Contains(t, out, "Registered jqp")

	out, err = run(t, "capture", "xyz")
	require.NoError(t, err)
	require.Contains(t, out, "already registered as jqp")

	out, err = run(t, "current")
	require.NoError(t, err)
	require.Contains(t, out, "jqp")
	require.NotContains(t, out, "(not registered)")
}

func TestPick(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.store().Add(identity.Identity{Key: "abc", Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, e.store().Add(identity.Identity{Key: "bob", Name: "Bob", Email: "bob@example.com"}))

	oldTerm, oldPicker := stdinIsTerminal, runPicker
	t.Cleanup(func() { stdinIsTerminal, runPicker = oldTerm, oldPicker })

	stdinIsTerminal = func() bool { return false }
	_, err := run(t, "pick")
	require.ErrorContains(t, err, "interactive terminal")

	stdinIsTerminal = func() bool { return true }
	runPicker = func(_ context.Context, ids []identity.Identity, _ string, _ io.Reader, _ io.Writer) (*identity.Identity, error) {
		require.Len(t, ids, 2)
		return &ids[1], nil
	}
	out, err := run(t, "pick")
	require.NoError(t, err)
	require.Contains(t, out, "Switched to bob")
	require.Equal(t, []setCall{{name: "Bob", email: "bob@example.com"}}, e.git.calls)
}

func TestImport(t *testing.T) {
	e := setup(t)
	legacy := filepath.Join(t.TempDir(), "gitusers.xml")
	xml := `<?xml version="1.0" encoding="utf-8"?>
<ArrayOfPerson>
  <Person><Initials>jqp</Initials><Name>John Q. Person</Name><Email>jqp@example.com</Email></Person>
  <Person><Initials>toolong</Initials><Name>X</Name><Email>x@example.com</Email></Person>
</ArrayOfPerson>`
	require.NoError(t, os.WriteFile(legacy, []byte(xml), 0644))

	out, err := run(t, "import", legacy)
	require.NoError(t, err)
	require.Contains(t, out, "Imported jqp")
	require.Contains(t, out, `Skipped "toolong"`)
	require.Contains(t, out, "1 imported, 1 skipped")

	ok, err := e.store().Exists("jqp")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterOverUnreadableRegistry(t *testing.T) {
	e := setup(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(e.storePath), 0755))
	// Reads of a symlink to itself fail with ELOOP; the rename still replaces it.
	if err := os.Symlink(e.storePath, e.storePath); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	out, err := run(t, "-n", "abc", "Alice", "alice@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Registered abc")

	ids, err := e.store().List()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, "Alice", ids[0].Name)
}

func TestImportCountsEverySkip(t *testing.T) {
	setup(t)
	legacy := filepath.Join(t.TempDir(), "gitusers.xml")
	xml := `<ArrayOfPerson>
  <Person><Initials></Initials><Name>No Key</Name><Email>a@example.com</Email></Person>
  <Person><Initials></Initials><Name>No Key Either</Name><Email>b@example.com</Email></Person>
  <Person><Initials>abc</Initials><Name></Name><Email>c@example.com</Email></Person>
  <Person><Initials>ABC</Initials><Name></Name><Email>d@example.com</Email></Person>
</ArrayOfPerson>`
	require.NoError(t, os.WriteFile(legacy, []byte(xml), 0644))

	out, err := run(t, "import", legacy)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(out, `Skipped "":`))
	require.Contains(t, out, `Skipped "abc"`)
	require.Contains(t, out, `Skipped "ABC"`)
	require.Contains(t, out, "0 imported, 4 skipped")
}

func TestDoctor(t *testing.T) {
	e := setup(t)
	t.Setenv("GITSWITCH_GIT_BACKEND", "file")
	require.NoError(t, e.store().Add(identity.Identity{Key: "abc", Name: "Alice", Email: "alice@example.com"}))
	e.git.name, e.git.email = "Alice", "alice@example.com"

	out, err := run(t, "doctor")
	require.NoError(t, err)
	require.Contains(t, out, "git-executable")
	require.Contains(t, out, "1 identities")
	require.Contains(t, out, "active identity is abc")

	require.NoError(t, os.WriteFile(e.storePath, []byte("{"), 0644))
	out, err = run(t, "doctor")
	require.ErrorContains(t, err, "doctor found problems")
	require.Contains(t, out, "Verify the identity registry is readable")

	_, err = run(t, "doctor", "--fix")
	require.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	e := setup(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "config", "--config", path, "--init")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote "+path)

	_, err = run(t, "config", "--config", path, "--init")
	require.ErrorContains(t, err, "already exists")

	out, err = run(t, "config", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "[key]")
	require.Contains(t, out, e.storePath, "env overrides the file")
}

func TestVersion(t *testing.T) {
	setup(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "gitswitch ")
}
