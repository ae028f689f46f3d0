package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
	"github.com/VarunWeb6/ALEX-AI/internal/auth"
	"github.com/VarunWeb6/ALEX-AI/internal/config"
	"github.com/VarunWeb6/ALEX-AI/internal/logger"
)

// app carries the wiring shared by every command: config, the session, and
// the API client.
type app struct {
	cfg     *config.Config
	session *auth.Session
	api     *api.Client
}

func main() {
	a := &app{}
	var cfgPath string

	root := &cobra.Command{
		Use:           "alex",
		Short:         "alex — terminal client for the ALEX-AI collaborative workspace",
		Long:          "Chat with collaborators and the Alex AI assistant inside shared project rooms.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")

	root.AddCommand(
		loginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		projectsCmd(a),
		openCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cfgPath string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, "config.yaml")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store := auth.NewCredentialStore(dir)
	session, err := auth.NewSession(store)
	if err != nil {
		return err
	}
	a.session = session
	a.api = api.NewClient(cfg.API.BaseURL, session.Token)
	return nil
}

// requireAuth is the session gate for protected commands.
func (a *app) requireAuth() error {
	if err := a.session.Guard(); err != nil {
		return fmt.Errorf("%w — run `alex login`", err)
	}
	return nil
}
