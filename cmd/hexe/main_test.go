package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/hexe-lang/hexe/bytecode"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func runCommand(t *testing.T, args ...string) cmdResult {
	t.Helper()
	viper.Reset()
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	noColor := color.NoColor
	t.Cleanup(func() { color.NoColor = noColor })

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const helloSource = `
fn greet(name: string) { print("hello " + name) }
fn Main() { greet("hexe") }
`

func TestRunCommand(t *testing.T) {
	src := writeFile(t, "hello.hx", helloSource)
	r := runCommand(t, "run", src)
	require.NoError(t, r.err)
	assert.Equal(t, "hello hexe\n", r.stdout)
}

func TestRunPrintsReturnValue(t *testing.T) {
	src := writeFile(t, "ret.hx", "data x = 6\nreturn x * 7")
	r := runCommand(t, "run", src)
	require.NoError(t, r.err)
	assert.Equal(t, "42\n", r.stdout)
}

func TestRunCompileError(t *testing.T) {
	src := writeFile(t, "bad.hx", "data x = 1\nreturn y")
	r := runCommand(t, "run", src)
	require.Error(t, r.err)
	msg := formatError(r.err, false)
	assert.Contains(t, msg, "E2001")
	assert.Contains(t, msg, "bad.hx")
}

func TestRunRuntimeError(t *testing.T) {
	src := writeFile(t, "div.hx", "data a = 1\ndata b = 0\nprint(a / b)")
	r := runCommand(t, "run", src)
	require.Error(t, r.err)
	assert.Contains(t, formatError(r.err, false), "E3002")
}

func TestBuildAndExec(t *testing.T) {
	src := writeFile(t, "hello.hx", helloSource)
	out := filepath.Join(filepath.Dir(src), "out.hexe")

	r := runCommand(t, "build", src, "-o", out)
	require.NoError(t, r.err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, isExecutable(data))

	r = runCommand(t, "exec", out)
	require.NoError(t, r.err)
	assert.Equal(t, "hello hexe\n", r.stdout)
}

func TestBuildDefaultOutput(t *testing.T) {
	src := writeFile(t, "prog.hx", "print(1)")
	r := runCommand(t, "build", src)
	require.NoError(t, r.err)
	assert.FileExists(t, filepath.Join(filepath.Dir(src), "prog.hexe"))
}

func TestBuildLogsAtInfo(t *testing.T) {
	src := writeFile(t, "prog.hx", "print(1)")
	r := runCommand(t, "--log-level", "info", "build", src)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "wrote executable")
}

func TestExecRejectsSource(t *testing.T) {
	src := writeFile(t, "prog.hx", "print(1)")
	r := runCommand(t, "exec", src)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "not a hexe executable")
}

func TestExecCorrupt(t *testing.T) {
	src := writeFile(t, "prog.hx", "print(1)")
	out := filepath.Join(filepath.Dir(src), "prog.hexe")
	require.NoError(t, runCommand(t, "build", src).err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(out, data, 0o644))

	r := runCommand(t, "exec", out)
	require.ErrorIs(t, r.err, bytecode.ErrChecksumMismatch)
	msg := formatError(r.err, false)
	assert.Contains(t, msg, "E4003")
	assert.Contains(t, msg, "prog.hexe")
}

func TestDisCommand(t *testing.T) {
	src := writeFile(t, "ret.hx", "data x = 5\nreturn x")
	r := runCommand(t, "dis", src)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "LOAD_CONSTANT")
	assert.Contains(t, r.stdout, "HALT")

	r = runCommand(t, "dis", src, "--output", "json")
	require.NoError(t, r.err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "RETURN", decoded[1]["opcode"])
}

func TestDisExecutable(t *testing.T) {
	src := writeFile(t, "ret.hx", "data x = 5\nreturn x")
	require.NoError(t, runCommand(t, "build", src).err)
	fromSource := runCommand(t, "dis", src)
	fromExecutable := runCommand(t, "dis", outputPath(src))
	require.NoError(t, fromExecutable.err)
	assert.Equal(t, fromSource.stdout, fromExecutable.stdout)
}

func TestDisBadFormat(t *testing.T) {
	src := writeFile(t, "ret.hx", "return 1")
	r := runCommand(t, "dis", src, "--output", "yaml")
	require.EqualError(t, r.err, "unknown output format: yaml")
}

func TestInspectCommand(t *testing.T) {
	src := writeFile(t, "hello.hx", helloSource)
	require.NoError(t, runCommand(t, "build", src).err)

	r := runCommand(t, "inspect", outputPath(src))
	require.NoError(t, r.err)
	var decoded struct {
		Version string `json:"version"`
		Size    int    `json:"size"`
		Header  struct {
			EntryPoint uint64 `json:"entry_point"`
			CodeSize   uint64 `json:"code_size"`
		} `json:"header"`
		Stats struct {
			InstructionCount int `json:"instruction_count"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &decoded))
	assert.Equal(t, bytecode.CurrentVersion.String(), decoded.Version)
	assert.Greater(t, decoded.Header.EntryPoint, uint64(0))
	assert.Less(t, decoded.Header.EntryPoint, decoded.Header.CodeSize)
	assert.Greater(t, decoded.Stats.InstructionCount, 0)
	assert.Greater(t, decoded.Size, bytecode.HeaderSize)
}

func TestInspectRejectsSource(t *testing.T) {
	src := writeFile(t, "hello.hx", helloSource)
	r := runCommand(t, "inspect", src)
	require.ErrorIs(t, r.err, bytecode.ErrBadMagic)
}

func TestVersionCommand(t *testing.T) {
	r := runCommand(t, "version")
	require.NoError(t, r.err)
	assert.Equal(t, "hexe dev (commit unknown, built unknown)\n", r.stdout)

	r = runCommand(t, "version", "-o", "json")
	require.NoError(t, r.err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &decoded))
	assert.Equal(t, "dev", decoded["version"])
}

func TestTraceFlag(t *testing.T) {
	src := writeFile(t, "ret.hx", "return 1")
	r := runCommand(t, "--trace", "run", src)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "step")
	assert.Contains(t, r.stderr, "HALT")
}

func TestLimitFromConfigFile(t *testing.T) {
	src := writeFile(t, "spin.hx", "loop { }")
	cfg := writeFile(t, "config.yaml", "limit: 100\n")
	r := runCommand(t, "--config", cfg, "run", src)
	require.Error(t, r.err)
	assert.Contains(t, formatError(r.err, false), "E3012")
}

func TestLimitFromEnvironment(t *testing.T) {
	src := writeFile(t, "spin.hx", "loop { }")
	t.Setenv("HEXE_LIMIT", "100")
	r := runCommand(t, "run", src)
	require.Error(t, r.err)
	assert.Contains(t, formatError(r.err, false), "E3012")
}

func TestMissingConfigFile(t *testing.T) {
	r := runCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "version")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "config")
}

func TestInvalidLogLevel(t *testing.T) {
	src := writeFile(t, "ret.hx", "return 1")
	r := runCommand(t, "--log-level", "loud", "run", src)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "invalid log level")
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "a/prog.hexe", outputPath("a/prog.hx"))
	assert.Equal(t, "prog.hexe", outputPath("prog"))
}
