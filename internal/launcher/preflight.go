package launcher

import (
	"context"
	"fmt"
	"os"

	"docketvoice/config"
	"docketvoice/internal/application"
)

// EnvChecker is the preflight check run before the menu.
type EnvChecker struct {
	ConfigPath string
}

func (c *EnvChecker) Check(_ context.Context) []application.CheckResult {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return []application.CheckResult{{Name: "config", Status: application.CheckError, Message: err.Error()}}
	}

	results := []application.CheckResult{
		{Name: "config", Status: application.CheckOK, Message: c.ConfigPath},
		keyResult("OPENAI_API_KEY", cfg.OpenAI.APIKey, application.CheckError),
		outputResult(cfg.Output.Dir),
		keyResult("ELEVENLABS_API_KEY", cfg.ElevenLabs.APIKey, application.CheckWarn),
	}
	return results
}

func keyResult(name, value string, missing application.CheckStatus) application.CheckResult {
	if value == "" {
		msg := "not set"
		if missing == application.CheckWarn {
			msg = "not set; using the local voice instead"
		}
		return application.CheckResult{Name: name, Status: missing, Message: msg}
	}
	return application.CheckResult{Name: name, Status: application.CheckOK, Message: "set"}
}

func outputResult(dir string) application.CheckResult {
	r := application.CheckResult{Name: "output directory"}
	if err := writable(dir); err != nil {
		r.Status, r.Message = application.CheckError, err.Error()
		return r
	}
	r.Status, r.Message = application.CheckOK, dir
	return r
}

func writable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	f.Close()
	return os.Remove(f.Name())
}
