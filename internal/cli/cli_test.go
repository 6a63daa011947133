package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockmat"
	"github.com/hupe1980/blockmat/testutil"
)

type env struct {
	dataDir string
	tempDir string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	return env{
		dataDir: filepath.Join(dir, "data"),
		tempDir: filepath.Join(dir, "temp"),
	}
}

// run executes one CLI invocation, as a separate process would.
func (e env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, log.InfoLevel)
	c.Out = &out
	c.In = strings.NewReader(stdin)

	root := c.RootCommand()
	root.SetArgs(append([]string{
		"--config", writeConfig(t, e),
	}, args...))
	root.SetErr(&logs)
	err := root.Execute()
	return out.String(), logs.String(), err
}

func writeConfig(t *testing.T, e env) string {
	t.Helper()
	content := "[matrix]\n" +
		"data_dir = " + quote(e.dataDir) + "\n" +
		"temp_dir = " + quote(e.tempDir) + "\n"
	return testutil.WriteFile(t, t.TempDir(), "blockmat.toml", content)
}

func quote(s string) string { return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"` }

func TestCLI_Lifecycle(t *testing.T) {
	e := newEnv(t)
	values := testutil.Sequential(25)
	testutil.WriteCSV(t, e.dataDir, "A", values)

	out, logs, err := e.run(t, "", "load", "A")
	require.NoError(t, err, logs)
	assert.Contains(t, out, "Loaded A (25×25, dense)")
	assert.Contains(t, logs, "Loaded A")

	out, _, err = e.run(t, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "A\n", out)

	_, _, err = e.run(t, "", "transpose", "A")
	require.NoError(t, err)

	out, _, err = e.run(t, "", "print", "A", "--print-count", "3")
	require.NoError(t, err)
	assert.Equal(t, "1, 26, 51\n2, 27, 52\n3, 28, 53\n\n\nRow Count: 25\n", out)

	out, _, err = e.run(t, "", "export", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported A")
	raw, err := os.ReadFile(filepath.Join(e.dataDir, "A.csv"))
	require.NoError(t, err)
	assert.Equal(t, testutil.Transpose(values), testutil.ParseCSV(t, string(raw)))

	_, _, err = e.run(t, "", "unload", "A")
	require.NoError(t, err)
	out, _, err = e.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No matrices loaded")
}

func TestCLI_ImportFromStdin(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "0,0,1\n0,0,0\n2,0,0\n", "load", "S", "--file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "sparse")

	out, _, err = e.run(t, "", "stats", "S", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"sparse":true`)
	assert.Contains(t, out, `"permanent":false`)
	assert.Contains(t, out, `"zeros":7`)
}

func TestCLI_Stats(t *testing.T) {
	e := newEnv(t)
	testutil.WriteCSV(t, e.dataDir, "A", testutil.Sequential(20))

	_, _, err := e.run(t, "", "load", "A")
	require.NoError(t, err)
	out, _, err := e.run(t, "", "stats", "A")
	require.NoError(t, err)

	assert.Contains(t, out, "blocks/row")
	assert.Contains(t, out, "permanent")
}

func TestCLI_Errors(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "", "print", "missing")
	assert.ErrorIs(t, err, blockmat.ErrNoSuchMatrix)

	_, _, err = e.run(t, "1,2\n", "load", "bad", "--file", "-")
	assert.ErrorIs(t, err, blockmat.ErrNotSquare)

	_, _, err = e.run(t, "", "load")
	assert.Error(t, err)

	_, _, err = e.run(t, "", "load", "A", "--block-size-kb", "-1")
	assert.ErrorIs(t, err, blockmat.ErrInvalidConfig)
}

func TestCLI_Metrics(t *testing.T) {
	e := newEnv(t)
	testutil.WriteCSV(t, e.dataDir, "A", testutil.Sequential(4))

	_, logs, err := e.run(t, "", "load", "A", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, logs, "blockmat_operation_duration_seconds")
	assert.Contains(t, logs, `blockmat_page_operations_total{op="append"} 4`)
}
