package launcher_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docketvoice/internal/application"
	"docketvoice/internal/launcher"
)

func statusOf(results []application.CheckResult, name string) application.CheckStatus {
	for _, r := range results {
		if r.Name == name {
			return r.Status
		}
	}
	return ""
}

func TestEnvChecker(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "output")
	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  dir: "+out+"\n"), 0644))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")

	checker := &launcher.EnvChecker{ConfigPath: cfgPath}

	results := checker.Check(context.Background())
	assert.True(t, launcher.Failed(results))
	assert.Equal(t, application.CheckOK, statusOf(results, "config"))
	assert.Equal(t, application.CheckError, statusOf(results, "OPENAI_API_KEY"))
	assert.Equal(t, application.CheckError, statusOf(results, "output directory"))
	assert.Equal(t, application.CheckWarn, statusOf(results, "ELEVENLABS_API_KEY"))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	require.NoError(t, os.MkdirAll(out, 0755))

	results = checker.Check(context.Background())
	assert.False(t, launcher.Failed(results), "a missing ElevenLabs key is only a warning")
}

func TestEnvChecker_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log: [oops"), 0644))

	results := (&launcher.EnvChecker{ConfigPath: cfgPath}).Check(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, application.CheckError, results[0].Status)
}

func TestSetup_Install(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "output")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.example"), []byte("OPENAI_API_KEY=sk-from-template\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.example.yaml"), []byte("output:\n  dir: "+out+"\n"), 0644))

	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	var buf bytes.Buffer
	setup := &launcher.Setup{
		Root:    root,
		Dirs:    []string{out, filepath.Join(root, "audio")},
		Checker: &launcher.EnvChecker{ConfigPath: filepath.Join(root, "config.yaml")},
		Out:     &buf,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	require.NoError(t, setup.Install(context.Background()))

	assert.FileExists(t, filepath.Join(root, ".env"))
	assert.FileExists(t, filepath.Join(root, "config.yaml"))
	assert.DirExists(t, filepath.Join(root, "audio"))
	assert.Equal(t, "sk-from-template", os.Getenv("OPENAI_API_KEY"))
	assert.Contains(t, buf.String(), "Created config.yaml")
}

func TestSetup_StillFailing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("KEEP=1\n"), 0644))

	setup := &launcher.Setup{
		Root:    root,
		Checker: &stubChecker{results: [][]application.CheckResult{failing}},
		Out:     io.Discard,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := setup.Install(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	data, readErr := os.ReadFile(filepath.Join(root, ".env"))
	require.NoError(t, readErr)
	assert.Equal(t, "KEEP=1\n", string(data), "existing files are not overwritten")
}
