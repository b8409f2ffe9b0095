package commands

import (
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/ave/pkg/buildvars"
	"github.com/xaionaro-go/ave/pkg/config"
	"github.com/xaionaro-go/ave/pkg/xpath"
)

var (
	// Access these variables only from a main package:

	Root = &cobra.Command{
		Use:   os.Args[0],
		Short: "a headless media player driving the FFmpeg decode pipeline",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRuntime(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			logger.Debug(ctx, "end")
			closeRuntime(ctx)
		},
		SilenceUsage: true,
	}

	Play = &cobra.Command{
		Use:   "play [flags] FILE [FILE...]",
		Short: "decode and pace the given media files; control it with commands on stdin",
		Args:  cobra.MinimumNArgs(1),
		RunE:  play,
	}

	Probe = &cobra.Command{
		Use:   "probe FILE",
		Short: "print the streams and the duration of a media file",
		Args:  cobra.ExactArgs(1),
		RunE:  probe,
	}

	GenerateConfig = &cobra.Command{
		Use:   "generate-config",
		Short: "write the default config to --config-path",
		Args:  cobra.ExactArgs(0),
		RunE:  generateConfig,
	}

	Version = &cobra.Command{
		Use:   "version",
		Short: "print the build information",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\ncommit: %s\n", buildvars.Version, buildvars.GitCommit)
			if buildvars.BuildDate != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "build date: %s\n", buildvars.BuildDate)
			}
		},
	}

	LoggerLevel = logger.LevelWarning
)

const defaultConfigPath = "~/.ave.yaml"

func init() {
	Root.PersistentFlags().Var(&LoggerLevel, "log-level", "logging level: trace, debug, info, warning, error, fatal, panic")
	Root.PersistentFlags().String("config-path", defaultConfigPath, "the path to the config file")
	Root.PersistentFlags().String("listen-metrics", "", "if set, serve Prometheus metrics at http://<this address>/metrics")
	Root.PersistentFlags().String("sentry-dsn", "", "if set, report errors and panics to this Sentry DSN")

	Play.Flags().Int("width", 0, "override the destination picture width")
	Play.Flags().Int("height", 0, "override the destination picture height")
	Play.Flags().String("pixel-format", "", "override the destination pixel format (FFmpeg name, e.g. rgba)")
	Play.Flags().Float64("fps", 0, "override the idle loop frame rate")
	Play.Flags().String("hwaccel", "", "decode video with this hardware acceleration (e.g. vaapi, cuda)")
	Play.Flags().Bool("paused", false, "do not start playing right after loading")
	Play.Flags().Bool("exit-at-end", false, "exit when the last media reaches its end")

	Root.AddCommand(Play)
	Root.AddCommand(Probe)
	Root.AddCommand(GenerateConfig)
	Root.AddCommand(Version)
}

func getConfigPath(cmd *cobra.Command) (string, error) {
	cfgPathRaw, err := cmd.Flags().GetString("config-path")
	if err != nil {
		return "", err
	}
	return xpath.Expand(cfgPathRaw)
}

// loadConfig reads the config file; a missing file at the default
// location is not an error.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig()
	cfgPath, err := getConfigPath(cmd)
	if err != nil {
		return cfg, fmt.Errorf("unable to expand the config path: %w", err)
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && !cmd.Flags().Changed("config-path") {
		logger.Debugf(cmd.Context(), "config '%s' does not exist, using the defaults", cfgPath)
		return cfg, nil
	}
	if err := config.ReadConfigFromPath(cfgPath, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func generateConfig(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfgPath, err := getConfigPath(cmd)
	if err != nil {
		return fmt.Errorf("unable to expand the config path: %w", err)
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("file '%s' already exists", cfgPath)
	}
	return config.WriteConfigToPath(ctx, cfgPath, config.DefaultConfig())
}
