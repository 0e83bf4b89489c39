package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	port          int
	prefix        string
	profile       bool
	roomLifetime  time.Duration
	sweepInterval time.Duration
	themeKey      string
	themeModel    string
	themeTimeout  time.Duration
	themeURL      string
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
	wordsFile     string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roomLifetime <= 0 {
		return fmt.Errorf("invalid room lifetime (must be positive): %s", c.roomLifetime)
	}
	if c.sweepInterval <= 0 {
		return fmt.Errorf("invalid sweep interval (must be positive): %s", c.sweepInterval)
	}
	if c.themeTimeout <= 0 {
		return fmt.Errorf("invalid theme timeout (must be positive): %s", c.themeTimeout)
	}
	if c.themeURL != "" && c.themeModel == "" {
		return errors.New("--theme-model must be set when --theme-url is provided")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODENAMES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codenames",
		Short:         "A real-time, room-based word-guessing party game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODENAMES_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CODENAMES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: CODENAMES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: CODENAMES_PROFILE)")
	fs.DurationVar(&cfg.roomLifetime, "room-lifetime", 12*time.Hour, "time after creation before a room is removed (env: CODENAMES_ROOM_LIFETIME)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 10*time.Minute, "how often expired rooms are removed (env: CODENAMES_SWEEP_INTERVAL)")
	fs.StringVar(&cfg.themeKey, "theme-key", "", "api key for the theme word service (env: CODENAMES_THEME_KEY)")
	fs.StringVar(&cfg.themeModel, "theme-model", "gpt-4o-mini", "model used for theme word generation (env: CODENAMES_THEME_MODEL)")
	fs.DurationVar(&cfg.themeTimeout, "theme-timeout", 30*time.Second, "time allowed for theme word generation (env: CODENAMES_THEME_TIMEOUT)")
	fs.StringVar(&cfg.themeURL, "theme-url", "", "base url of an openai-compatible api for theme words, disabled if empty (env: CODENAMES_THEME_URL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: CODENAMES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: CODENAMES_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CODENAMES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CODENAMES_VERSION)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "newline-separated word list to use instead of the built-in list (env: CODENAMES_WORDS_FILE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("codenames v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
