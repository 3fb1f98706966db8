package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uniyakcom/wirebeat/config"
	"github.com/uniyakcom/wirebeat/internal/logging"
	"github.com/uniyakcom/wirebeat/platform"
)

// app 各子命令共享的状态，在 PersistentPreRunE 中填充
type app struct {
	cfgFile  string
	logLevel string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "wirebeat",
		Short: "Encode, decode and replay platform-aware device messages",
		Long: `wirebeat speaks the compact binary protocol used between a host and
small embedded devices. Every primitive is sized and ordered by a platform
profile (avr, cortex-m, be16, native or any profile from the config file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")

	root.AddCommand(
		newProfilesCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newReplayCmd(a),
	)
	return root
}

// setup 读取配置、注册文件内 profile、构造 logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		if _, ok := logging.ParseLevel(a.logLevel); !ok {
			return fmt.Errorf("unknown log level %q", a.logLevel)
		}
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Register(); err != nil {
		return err
	}
	lc := cfg.Logging(logging.ProfileRuntime)
	lc.Out = cmd.ErrOrStderr()
	a.cfg = cfg
	a.log = logging.New("wirebeat", lc)
	return nil
}

// profile 解析 --profile，空值取配置中的 device.profile
func (a *app) profile(name string) (platform.Profile, error) {
	return a.cfg.Profile(name)
}
