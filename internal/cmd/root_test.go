package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes a fresh command tree in an isolated working directory
// and returns what it printed on stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("HOME", dir)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSetVersionInfo(t *testing.T) {
	// Save original values
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2024-01-15",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
		{
			name:      "set empty values",
			version:   "",
			commit:    "",
			buildDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion := versionInfo.Version
	defer func() { versionInfo.Version = origVersion }()
	versionInfo.Version = "1.2.3"

	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, AppName+" 1.2.3 (commit ")
}

func TestHelp(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Exit codes")
	assert.Contains(t, out, "--file_type")
	assert.Contains(t, out, "--schema")
}

func TestFlagOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addValidateFlags(fs)
	fs.String("log-level", "", "")

	require.NoError(t, fs.Parse([]string{"--file_type", "yaml", "--strict", "--concurrency=8", "--timeout", "5s", "--log-level", "warn", "--exclude", "fixtures/**", "--exclude", "*.bak"}))

	got := flagOverrides(fs)
	assert.Equal(t, map[string]any{
		"validate.file_type": "yaml",
		"validate.strict":    "true",
		"batch.concurrency":  "8",
		"batch.timeout":      "5s",
		"logging.level":      "warn",
		"batch.exclude":      []string{"fixtures/**", "*.bak"},
	}, got)
}

func TestFlagOverridesIgnoresUnchanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addValidateFlags(fs)
	require.NoError(t, fs.Parse(nil))
	assert.Empty(t, flagOverrides(fs))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "violations", err: exitError(ExitViolations, "bad", nil), want: ExitViolations},
		{name: "failure", err: exitError(ExitFailure, "io", errors.New("boom")), want: ExitFailure},
		{name: "plain error is usage", err: errors.New("unknown flag"), want: ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "msg", exitError(ExitFailure, "msg", nil).Error())
	assert.Equal(t, "boom", exitError(ExitFailure, "", errors.New("boom")).Error())
	assert.Equal(t, "msg: boom", exitError(ExitFailure, "msg", errors.New("boom")).Error())

	inner := errors.New("inner")
	assert.ErrorIs(t, exitError(ExitFailure, "msg", inner), inner)
}

func TestIsSilent(t *testing.T) {
	assert.True(t, IsSilent(&ExitError{Code: ExitViolations, Silent: true}))
	assert.False(t, IsSilent(exitError(ExitFailure, "x", nil)))
	assert.False(t, IsSilent(errors.New("x")))
}

func TestInvalidConfigIsFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".fsdv.yaml", "batch:\n  concurrency: -1\n")

	_, err := runCLI(t, dir, "version")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "Invalid configuration")
}
