package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `
log_level: error
sources:
  - name: guns
    label: Gun Incidents
    path: guns.csv
    date_column: date
  - name: floods
    label: Floods
    path: floods.csv
    date_column: date
`

// noCredentials keeps the developer's own Kaggle setup out of the tests
func noCredentials(t *testing.T) {
	t.Setenv("KAGGLE_USERNAME", "")
	t.Setenv("KAGGLE_KEY", "")
	t.Setenv("KAGGLE_CONFIG_DIR", t.TempDir())
}

func workspace(t *testing.T) (configPath, workDir string) {
	t.Helper()
	noCredentials(t)
	workDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "guns.csv"),
		[]byte("id,date\n1,2015-01-01\n2,2016-02-02\n3,2016-03-03\n4,bogus\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "floods.csv"),
		[]byte("id,date\n1,2016-05-01\n2,2017-06-01\n"), 0o644))
	configPath = filepath.Join(t.TempDir(), "accidents.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))
	return configPath, workDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeApp(t, args...)
	return out, err
}

// executeApp runs the CLI the way Execute does and hands back its app
func executeApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	var out bytes.Buffer
	var a *app
	build := func() (*cobra.Command, func() *app) {
		root, getApp := newRootCmd()
		root.SetOut(&out)
		root.SetErr(&out)
		return root, func() *app {
			a = getApp()
			return a
		}
	}
	err := runRoot(context.Background(), build, args...)
	return out.String(), a, err
}

func TestYearly(t *testing.T) {
	configPath, workDir := workspace(t)

	out, err := execute(t, "yearly", "guns", "--config", configPath, "--work-dir", workDir, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Year,Gun Incidents\n2015,1\n2016,2\n", out)
}

func TestCompareInner(t *testing.T) {
	configPath, workDir := workspace(t)

	out, err := execute(t, "compare", "guns", "floods", "--config", configPath, "--work-dir", workDir, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Year,Gun Incidents,Floods\n2016,2,1\n", out)
}

func TestCompareOuterScaled(t *testing.T) {
	configPath, workDir := workspace(t)

	out, err := execute(t, "compare", "guns", "floods",
		"--config", configPath, "--work-dir", workDir,
		"--format", "csv", "--join", "outer", "--scale", "thousands")
	require.NoError(t, err)
	assert.Equal(t,
		"Year,Gun Incidents (Thousands),Floods (Thousands)\n"+
			"2015,0.001,0.000\n2016,0.002,0.001\n2017,0.000,0.001\n",
		out)
}

func TestCompareDuckDB(t *testing.T) {
	configPath, workDir := workspace(t)

	out, err := execute(t, "compare", "guns", "floods",
		"--config", configPath, "--work-dir", workDir, "--format", "csv", "--engine", "duckdb")
	require.NoError(t, err)
	assert.Equal(t, "Year,Gun Incidents,Floods\n2016,2,1\n", out)
}

func TestStrictPolicy(t *testing.T) {
	configPath, workDir := workspace(t)

	_, err := execute(t, "yearly", "guns", "--config", configPath, "--work-dir", workDir, "--date-policy", "strict")
	assert.ErrorContains(t, err, "bogus")
}

func TestFetchLocal(t *testing.T) {
	configPath, workDir := workspace(t)

	out, err := execute(t, "fetch", "floods", "--config", configPath, "--work-dir", workDir)
	require.NoError(t, err)
	assert.Equal(t, "floods\tcsv\tfloods.csv\n", out)
}

func TestSourcesList(t *testing.T) {
	configPath, workDir := workspace(t)

	out, err := execute(t, "sources", "--config", configPath, "--work-dir", workDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Gun Incidents")
	assert.Contains(t, out, "floods.csv")
}

func TestErrors(t *testing.T) {
	configPath, workDir := workspace(t)
	base := []string{"--config", configPath, "--work-dir", workDir}

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown source", args: []string{"yearly", "planes"}},
		{name: "bad join", args: []string{"compare", "guns", "floods", "--join", "left"}},
		{name: "bad policy", args: []string{"yearly", "guns", "--date-policy", "lenient"}},
		{name: "bad scale", args: []string{"yearly", "guns", "--scale", "dozens"}},
		{name: "bad format", args: []string{"yearly", "guns", "--format", "xml"}},
		{name: "bad engine", args: []string{"yearly", "guns", "--engine", "spark"}},
		{name: "compare needs two", args: []string{"compare", "guns"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, base...)...)
			assert.Error(t, err)
		})
	}
}

func TestFetchWithoutCredentials(t *testing.T) {
	noCredentials(t)

	_, err := execute(t, "fetch", "cars", "--work-dir", t.TempDir())
	assert.ErrorContains(t, err, "credentials")
}

func TestYearlyFromKaggle(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("US_Accidents_March23.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte("ID,Start_Time\nA-1,2016-02-08 05:46:00\nA-2,2017-01-01 10:00:00\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		user, key, ok := r.BasicAuth()
		if !ok || user != "tester" || key != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/datasets/download/sobhanmoosavi/us-accidents") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	t.Setenv("KAGGLE_USERNAME", "tester")
	t.Setenv("KAGGLE_KEY", "secret")
	t.Setenv("ACCIDENTS_KAGGLE_BASE_URL", server.URL)
	workDir := t.TempDir()

	out, err := execute(t, "yearly", "cars", "--work-dir", workDir, "--format", "csv", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "Year,Car Crashes\n2016,1\n2017,1\n", out)
	assert.FileExists(t, filepath.Join(workDir, "us-accidents.zip"))

	_, err = execute(t, "yearly", "cars", "--work-dir", workDir, "--format", "csv", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestEngineClosedOnFailure(t *testing.T) {
	configPath, workDir := workspace(t)

	_, a, err := executeApp(t, "compare", "guns", "planes",
		"--config", configPath, "--work-dir", workDir, "--engine", "duckdb")
	require.Error(t, err)
	require.NotNil(t, a)
	require.NotNil(t, a.engine)
	assert.Error(t, a.engine.DB.Ping(), "engine must be closed after a failed command")
}
