package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	mantaURL    string
	account     string
	keyID       string
	keyPath     string
	rateLimit   float64
	jsonOutput  bool
	quiet       bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:     "manta-cli",
	Version: version,
	Short:   "Client for Manta object storage",
	Long: `manta-cli - Client for Manta object storage

Remote paths are container/dir/name, relative to the account's storage
root. Every request is signed with the account's RSA key.

Settings are resolved from the profile in the config file, then the
MANTA_URL, MANTA_USER, MANTA_KEY_ID and MANTA_KEY_PATH environment
variables, then flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.manta/config.yaml, env: MANTA_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: MANTA_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&mantaURL, "url", "u", "", "service URL (default: "+manta.DefaultURL+", env: MANTA_URL)")
	rootCmd.PersistentFlags().StringVarP(&account, "account", "a", "", "account name (env: MANTA_USER)")
	rootCmd.PersistentFlags().StringVarP(&keyID, "key-id", "k", "", "key fingerprint, derived from the key when empty (env: MANTA_KEY_ID)")
	rootCmd.PersistentFlags().StringVarP(&keyPath, "key-path", "i", "", "private key file (default: "+clientcli.DefaultKeyPath+", env: MANTA_KEY_PATH)")
	rootCmd.PersistentFlags().Float64Var(&rateLimit, "rate-limit", 0, "max requests per second (0 = unlimited)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(rmdirCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging sends library logs to stderr so they never mix with command output.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	})))
}

// getConfigPath returns the config file path from the flag, the
// environment, or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	configFile, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		profile, profileErr := configFile.GetProfile(name)
		switch {
		case profileErr == nil:
			configs = append(configs, clientcli.ConfigFromProfile(profile))
		case name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles):
			return nil, profileErr
		}
	case !errors.Is(err, fs.ErrNotExist) || cfgFile != "" || name != "":
		// The default file may be absent; an explicit one may not.
		return nil, err
	}

	configs = append(configs,
		clientcli.ConfigFromEnv(),
		&clientcli.Config{
			URL:     mantaURL,
			Account: account,
			KeyID:   keyID,
			KeyPath: keyPath,
		},
	)

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	opts := []manta.Option{manta.WithLogger(slog.Default())}
	if rateLimit > 0 {
		opts = append(opts, manta.WithRateLimit(rate.Limit(rateLimit), 1))
	}

	client, err := clientcli.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("configure client: %w", err)
	}
	return client, nil
}
