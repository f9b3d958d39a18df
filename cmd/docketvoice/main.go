package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"docketvoice/config"
	"docketvoice/internal/application"
	"docketvoice/internal/launcher"
)

type options struct {
	configPath string
	envPath    string
	root       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *launcher.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", exitErr)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	stdin := bufio.NewReader(os.Stdin)

	root := &cobra.Command{
		Use:           "docketvoice",
		Short:         "Voice-driven bankruptcy intake assistant",
		Long:          "DocketVoice interviews a debtor by voice and saves the answers as complete_bankruptcy_data.json.\nWithout a subcommand it checks the setup and shows the launcher menu.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := opts.bootstrap()
			l := &launcher.Launcher{
				Checker:   opts.checker(),
				Installer: opts.installer(logger),
				VoiceTest: func(ctx context.Context) error { return runVoiceTest(ctx, opts, stdin) },
				MainApp:   func(ctx context.Context) error { return runAssistant(ctx, opts, stdin) },
				In:        stdin,
				Out:       cmd.OutOrStdout(),
				Logger:    logger,
			}
			return l.Run(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&opts.envPath, "env", ".env", "path to .env file")
	root.PersistentFlags().StringVar(&opts.root, "root", ".", "project directory holding the example files")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the intake interview",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runAssistant(cmd.Context(), opts, stdin)
			},
		},
		&cobra.Command{
			Use:   "voice-test",
			Short: "Check speech output, recognition, the language model and the microphone",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runVoiceTest(cmd.Context(), opts, stdin)
			},
		},
		&cobra.Command{
			Use:   "setup",
			Short: "Create config files and directories, then re-run the preflight check",
			RunE: func(cmd *cobra.Command, _ []string) error {
				logger := opts.bootstrap()
				if err := opts.installer(logger).Install(cmd.Context()); err != nil {
					return &launcher.ExitError{Code: 1, Err: err}
				}
				return nil
			},
		},
	)
	return root
}

// bootstrap loads .env and returns a logger. Config errors are left to the
// preflight check.
func (o *options) bootstrap() *slog.Logger {
	if err := config.LoadEnv(o.envPath); err != nil {
		slog.Warn("loading env file", "error", err)
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return setupLogger(config.LogConfig{})
	}
	return setupLogger(cfg.Log)
}

func (o *options) load() (*config.Config, *slog.Logger, error) {
	if err := config.LoadEnv(o.envPath); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, setupLogger(cfg.Log), nil
}

func (o *options) checker() *launcher.EnvChecker {
	return &launcher.EnvChecker{ConfigPath: o.configPath}
}

func (o *options) installer(logger *slog.Logger) *launcher.Setup {
	dirs := []string{filepath.Join(o.root, "output"), filepath.Join(o.root, "audio")}
	if cfg, err := config.Load(o.configPath); err == nil {
		dirs = []string{cfg.Output.Dir, cfg.Audio.FileDir}
	}
	return &launcher.Setup{
		Root:    o.root,
		Dirs:    dirs,
		Checker: o.checker(),
		Out:     os.Stdout,
		Logger:  logger,
	}
}

func runAssistant(ctx context.Context, opts *options, stdin *bufio.Reader) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps, err := wire(ctx, cfg, logger, stdin)
	if err != nil {
		return err
	}
	defer deps.Close()

	assistant := application.NewAssistant(deps.components(os.Stdout), application.Options{
		ListenTimeout: deps.listenTimeout,
		SessionKey:    cfg.Output.SessionKey,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGTERM {
					logger.Info("shutting down")
					cancel()
					return
				}
				if assistant.HandleInterrupt() == application.InterruptIgnored {
					cancel()
					return
				}
			}
		}
	}()

	logger.Info("starting intake assistant", "audio_source", deps.audio.Name())

	if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("assistant: %w", err)
	}
	return nil
}

func runVoiceTest(ctx context.Context, opts *options, stdin *bufio.Reader) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := wire(ctx, cfg, logger, stdin)
	if err != nil {
		return err
	}
	defer deps.Close()

	captureTimeout, err := config.Duration(cfg.Voice.CheckTimeout, 0)
	if err != nil {
		logger.Warn("invalid check timeout, using default", "error", err)
	}

	check := &application.VoiceCheck{
		Audio:          deps.audio,
		STT:            deps.stt,
		TTS:            deps.tts,
		Recognizer:     deps.recognizer,
		Chat:           deps.chat,
		Out:            os.Stdout,
		Logger:         logger,
		CaptureTimeout: captureTimeout,
	}

	fmt.Println("Running voice system test...")
	results := check.Run(ctx)
	launcher.PrintResults(os.Stdout, results)
	if launcher.Failed(results) {
		fmt.Println("Some checks failed. See the messages above.")
	} else {
		fmt.Println("Voice system ready.")
	}
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// stdout carries the conversation and the menu
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
