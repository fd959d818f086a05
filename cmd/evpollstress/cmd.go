package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type config struct {
	producers   int
	iterations  int
	capacity    int
	pollTimeout time.Duration
	linger      time.Duration
	metricsAddr string
	logLevel    logiface.Level
}

func newRootCmd() *cobra.Command {
	vp := viper.New()
	cmd := &cobra.Command{
		Use:   "evpollstress",
		Short: "Stress a software event source with concurrent producers.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(vp)
			if err != nil {
				return err
			}
			logger := stumpy.L.New(
				stumpy.L.WithStumpy(stumpy.WithWriter(cmd.ErrOrStderr())),
				stumpy.L.WithLevel(cfg.logLevel),
			).Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if err := run(ctx, cfg, logger); err != nil {
				logger.Err().Err(err).Log("run failed")
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("producers", 64, "number of concurrent producers")
	flags.Int("iterations", 10000, "readiness notifications per producer")
	flags.Int("capacity", 64, "events buffer capacity")
	flags.Duration("poll-timeout", 100*time.Millisecond, "timeout of each wait")
	flags.Duration("linger", 0, "keep serving metrics for this long after the run")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address, if set")
	flags.String("log-level", "info", "log level (trace, debug, info, notice, warning, err, crit)")

	vp.SetEnvPrefix("evpollstress")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()
	_ = vp.BindPFlags(flags)

	cmd.SetContext(context.Background())
	return cmd
}

func loadConfig(vp *viper.Viper) (cfg config, err error) {
	cfg.producers = vp.GetInt("producers")
	cfg.iterations = vp.GetInt("iterations")
	cfg.capacity = vp.GetInt("capacity")
	cfg.pollTimeout = vp.GetDuration("poll-timeout")
	cfg.linger = vp.GetDuration("linger")
	cfg.metricsAddr = vp.GetString("metrics-addr")

	level, ok := parseLevel(vp.GetString("log-level"))
	if !ok {
		return cfg, fmt.Errorf("invalid log level: %q", vp.GetString("log-level"))
	}
	cfg.logLevel = level

	switch {
	case cfg.producers <= 0:
		return cfg, fmt.Errorf("producers must be positive: %d", cfg.producers)
	case cfg.iterations < 0:
		return cfg, fmt.Errorf("iterations must not be negative: %d", cfg.iterations)
	case cfg.pollTimeout < 0:
		return cfg, fmt.Errorf("poll-timeout must not be negative: %s", cfg.pollTimeout)
	}
	return cfg, nil
}

func parseLevel(s string) (logiface.Level, bool) {
	for _, level := range [...]logiface.Level{
		logiface.LevelTrace,
		logiface.LevelDebug,
		logiface.LevelInformational,
		logiface.LevelNotice,
		logiface.LevelWarning,
		logiface.LevelError,
		logiface.LevelCritical,
	} {
		if level.String() == s {
			return level, true
		}
	}
	return 0, false
}
