package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	timeout    time.Duration
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "filegate-cli",
	Version: version,
	Short:   "Client for filegate gateways",
	Long: `filegate-cli uploads, lists and downloads files through a filegate gateway.

The gateway is picked from, in increasing precedence: the default profile in
~/.filegate/config.yaml, --profile / FILEGATE_PROFILE, FILEGATE_ENDPOINT and
--endpoint.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filegate/config.yaml, env: FILEGATE_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: FILEGATE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "gateway URL (default: http://localhost:3000, env: FILEGATE_ENDPOINT)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP timeout per request (default: 30s, env: FILEGATE_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the profile file: flag, then env, then default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	profileName := profile
	if profileName == "" {
		profileName = clientcli.ProfileFromEnv()
	}

	file, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := file.GetProfile(profileName)
		if profileErr != nil && (profileName != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
			return nil, profileErr
		}
		configs = append(configs, clientcli.ConfigFromProfile(p))
	case profileName != "" || cfgFile != "":
		// a profile or file was asked for explicitly
		return nil, err
	}

	configs = append(configs, clientcli.ConfigFromEnv(), &clientcli.Config{Endpoint: endpoint, Timeout: timeout})

	return clientcli.MergeConfig(configs...), nil
}

// reportError prints err on stderr in the selected output format and returns
// it so cobra exits non-zero.
func reportError(err error) error {
	_ = getFormatter().FormatError(os.Stderr, err)
	return err
}

func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return clientcli.New(cfg)
}
