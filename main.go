package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spance/openterface-grab/constants"
	"github.com/spance/openterface-grab/grabber"
	"github.com/spance/openterface-grab/grabber/helper"
	"github.com/spance/openterface-grab/utils"
	"github.com/spf13/cobra"
)

// Config holds all the configuration values from command line arguments
type Config struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Command      string        `json:"cmd"`
	Output       string        `json:"output"`
	OutputDir    string        `json:"output_dir"`
	NameTemplate string        `json:"name_template"`
	Timeout      time.Duration `json:"timeout"`
	Verbose      bool          `json:"verbose"`

	Loop     bool          `json:"loop"`
	Interval time.Duration `json:"interval"`
	Count    int           `json:"count"`

	Script       string        `json:"script"`
	PollInterval time.Duration `json:"poll_interval"`
	PollMax      int           `json:"poll_max"`

	ConfigFile string `json:"config_file"`
	Quiet      bool   `json:"quiet"`
	Debug      bool   `json:"debug"`
}

var rootCmd = &cobra.Command{
	Use:   "openterface-grab",
	Short: "Retrieve images from an Openterface capture server over TCP",
	Long: `openterface-grab talks to the Openterface TCP server, sends one command
per connection and saves the returned image.

Commands:
  gettargetscreen  current live camera frame (recommended)
  lastimage        last image saved to disk by the app
  checkstatus      execution status of the last script command
  screenshot       run FullScreenCapture, wait for it, then fetch lastimage`,
	Example: `  # Grab the current live frame
  openterface-grab

  # Remote server, explicit output file
  openterface-grab --host 192.168.1.10 --port 4896 --cmd gettargetscreen --output frame.jpg

  # Capture, save and retrieve automatically
  openterface-grab --cmd screenshot

  # Continuous capture every second, 10 frames
  openterface-grab --loop --interval 1s --count 10`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var config = &Config{}

// exitCode is set by run when a single capture fails.
var exitCode int

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Helper function to get environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func init() {
	// Server options
	rootCmd.PersistentFlags().StringVar(&config.Host, "host",
		getEnv(constants.EnvHost, constants.DefaultHost),
		"Server host")

	rootCmd.PersistentFlags().IntVarP(&config.Port, "port", "p",
		getEnvInt(constants.EnvPort, constants.DefaultPort),
		"Server port")

	rootCmd.PersistentFlags().StringVar(&config.Command, "cmd",
		getEnv(constants.EnvCommand, constants.DefaultCommand),
		"TCP command to send (gettargetscreen, lastimage, checkstatus, screenshot)")

	rootCmd.PersistentFlags().DurationVarP(&config.Timeout, "timeout", "t",
		getEnvDuration(constants.EnvTimeout, constants.DefaultTimeout),
		"Socket timeout for connect and for the whole read phase")

	// Output options
	rootCmd.PersistentFlags().StringVarP(&config.Output, "output", "o", "",
		"Output file path (auto-named if omitted)")

	rootCmd.PersistentFlags().StringVar(&config.OutputDir, "output-dir",
		getEnv(constants.EnvOutputDir, ""),
		"Directory for auto-named files")

	rootCmd.PersistentFlags().StringVar(&config.NameTemplate, "name-template",
		constants.DefaultNameTemplate,
		"Template for auto-named files (tags: {{timestamp}}, {{ext}}, {{cmd}})")

	// Loop options
	rootCmd.PersistentFlags().BoolVar(&config.Loop, "loop", false,
		"Capture continuously")

	rootCmd.PersistentFlags().DurationVar(&config.Interval, "interval", constants.DefaultInterval,
		"Delay between captures in loop mode")

	rootCmd.PersistentFlags().IntVar(&config.Count, "count", 0,
		"Stop after N captures in loop mode (0 = unlimited)")

	// Screenshot composite options
	rootCmd.PersistentFlags().StringVar(&config.Script, "script", constants.DefaultScript,
		"Script command sent by the screenshot composite")

	rootCmd.PersistentFlags().DurationVar(&config.PollInterval, "poll-interval", constants.DefaultPollInterval,
		"Delay between checkstatus polls in screenshot mode")

	rootCmd.PersistentFlags().IntVar(&config.PollMax, "poll-max", constants.DefaultPollMax,
		"Maximum checkstatus polls in screenshot mode")

	// Other options
	rootCmd.PersistentFlags().StringVarP(&config.ConfigFile, "config", "c", "",
		"TOML config file")

	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false,
		"Print response metadata")

	rootCmd.PersistentFlags().BoolVarP(&config.Quiet, "quiet", "q", false,
		"Only print warnings and errors")

	rootCmd.PersistentFlags().BoolVar(&config.Debug, "debug", false,
		"Enable debug mode (default: false)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.PersistentPreRunE = validateArgs
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
	stop()
	os.Exit(exitCode)
}

func configureLogging(debug, quiet bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if quiet {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func validateArgs(cmd *cobra.Command, args []string) error {
	configureLogging(config.Debug, config.Quiet)

	if config.ConfigFile != "" {
		fc, err := loadFileConfig(config.ConfigFile)
		if err != nil {
			return err
		}
		if err := applyFileConfig(config, fc, cmd.Flags().Changed); err != nil {
			return err
		}
	}

	if !lo.Contains(constants.CLICommands, config.Command) {
		return fmt.Errorf("invalid command: %q. Must be one of %v", config.Command, constants.CLICommands)
	}
	if config.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	if config.Loop && config.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", config.Interval)
	}
	if config.Count < 0 {
		return fmt.Errorf("count must be >= 0, got %d", config.Count)
	}

	log.Debug().Msgf("Configuration: %s", utils.JsonString(config))
	return nil
}

func run(ctx context.Context) error {
	transport, err := grabber.CreateTransport("brace")
	if err != nil {
		return err
	}
	client := grabber.NewClient(config.Host, config.Port, config.Timeout, transport)
	capturer := grabber.NewCapturer(client, grabber.CaptureOptions{
		Command:      config.Command,
		Output:       config.Output,
		OutputDir:    config.OutputDir,
		NameTemplate: config.NameTemplate,
		Verbose:      config.Verbose,
		Script:       config.Script,
		PollInterval: config.PollInterval,
		PollMax:      config.PollMax,
	})

	if config.Loop {
		limit := "∞"
		if config.Count > 0 {
			limit = strconv.Itoa(config.Count)
		}
		log.Info().Msgf("Continuous capture mode — interval=%s  count=%s", config.Interval, limit)

		stats := capturer.Loop(ctx, config.Interval, config.Count)
		if ctx.Err() != nil {
			log.Info().Msg("Stopped by user.")
		}
		log.Info().
			Int("attempts", stats.Attempts).
			Int("ok", stats.Succeeded).
			Int("failed", stats.Failed).
			Msg("Capture loop finished")
		return nil
	}

	log.Info().Msgf("Sending '%s' → %s", config.Command, client.Address)
	if _, err := capturer.CaptureOnce(ctx); err != nil {
		log.Error().Err(err).Str("stage", helper.Stage(err)).Msg("capture failed")
		exitCode = 1
	}
	return nil
}
