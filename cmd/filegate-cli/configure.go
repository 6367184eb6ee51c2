package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage gateway profiles",
	Long: `Manage the gateway profiles stored in ~/.filegate/config.yaml.

A profile records a gateway endpoint (and optionally a request timeout) under a
name that --profile or FILEGATE_PROFILE can select.`,
}

func init() {
	configureCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show configured profiles (* marks the default)",
			RunE:  runConfigureList,
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add or replace a profile interactively",
			Long: `Prompt for an endpoint and request timeout, probe the gateway's
/healthz, then save the profile.`,
			Args: cobra.ExactArgs(1),
			RunE: runConfigureAdd,
		},
		&cobra.Command{
			Use:     "remove <name>",
			Aliases: []string{"rm"},
			Short:   "Delete a profile",
			Args:    cobra.ExactArgs(1),
			RunE:    runConfigureRemove,
		},
		&cobra.Command{
			Use:   "set-default <name>",
			Short: "Choose the profile used when none is given",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigureSetDefault,
		},
	)
}

// loadProfiles reads the profile file. A missing file yields an empty set
// unless mustExist is true.
func loadProfiles(path string, mustExist bool) (*clientcli.ConfigFile, error) {
	cf, err := clientcli.LoadConfigFile(path)
	if err == nil {
		return cf, nil
	}
	if errors.Is(err, os.ErrNotExist) && !mustExist {
		return &clientcli.ConfigFile{}, nil
	}
	return nil, err
}

// confirm asks a yes/no question. Anything but an explicit yes is a no.
func confirm(label string) bool {
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	cf, err := loadProfiles(getConfigPath(), false)
	if err != nil {
		return err
	}

	if len(cf.Profiles) == 0 {
		fmt.Println("No profiles yet. Create one with 'filegate-cli configure add <name>'.")
		return nil
	}

	return getFormatter().FormatProfileList(os.Stdout, cf.Profiles, cf.DefaultName())
}

func runConfigureAdd(_ *cobra.Command, args []string) error {
	name, path := args[0], getConfigPath()

	cf, err := loadProfiles(path, false)
	if err != nil {
		return err
	}

	_, lookupErr := cf.GetProfile(name)
	replacing := lookupErr == nil
	if replacing && !confirm(fmt.Sprintf("Profile %q exists. Replace it", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	endpointURL, err := (&promptui.Prompt{
		Label:    "Gateway endpoint",
		Default:  clientcli.DefaultEndpoint,
		Validate: validateEndpoint,
	}).Run()
	if err != nil {
		return handlePromptError(err)
	}
	endpointURL = strings.TrimSuffix(endpointURL, "/")

	timeoutStr, err := (&promptui.Prompt{
		Label:    "Request timeout",
		Default:  clientcli.DefaultTimeout.String(),
		Validate: validateTimeout,
	}).Run()
	if err != nil {
		return handlePromptError(err)
	}
	requestTimeout, _ := time.ParseDuration(timeoutStr)

	// The only profile, new or replaced, is always the default.
	makeDefault := len(cf.Profiles) == 0 || (replacing && len(cf.Profiles) == 1)
	if !makeDefault {
		makeDefault = confirm("Make this the default profile")
	}

	fmt.Printf("Checking %s/healthz... ", endpointURL)
	if err := testGatewayConnection(endpointURL); err != nil {
		fmt.Printf("unreachable (%v)\n", err)
		if !confirm("Save the profile anyway") {
			fmt.Println("Cancelled.")
			return nil
		}
	} else {
		fmt.Println("ok")
	}

	if replacing {
		_ = cf.RemoveProfile(name)
	}
	p := clientcli.Profile{Name: name, Endpoint: endpointURL}
	if requestTimeout != clientcli.DefaultTimeout {
		p.Timeout = requestTimeout
	}
	if err := cf.AddProfile(p); err != nil {
		return err
	}
	if makeDefault {
		_ = cf.SetDefault(name)
	}

	if err := cf.Save(path); err != nil {
		return err
	}

	verb := "added"
	if replacing {
		verb = "replaced"
	}
	fmt.Printf("Profile %q %s", name, verb)
	if makeDefault {
		fmt.Print(" (default)")
	}
	fmt.Println(".")
	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name, path := args[0], getConfigPath()

	cf, err := loadProfiles(path, true)
	if err != nil {
		return err
	}
	if _, err := cf.GetProfile(name); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Remove profile %q", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := cf.RemoveProfile(name); err != nil {
		return err
	}
	if err := cf.Save(path); err != nil {
		return err
	}

	fmt.Printf("Profile %q removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	name, path := args[0], getConfigPath()

	cf, err := loadProfiles(path, true)
	if err != nil {
		return err
	}
	if err := cf.SetDefault(name); err != nil {
		return err
	}
	if err := cf.Save(path); err != nil {
		return err
	}

	fmt.Printf("Default profile is now %q.\n", name)
	return nil
}

func validateEndpoint(input string) error {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("endpoint must be an http:// or https:// URL")
	}
	if u.Host == "" {
		return errors.New("endpoint has no host")
	}
	return nil
}

func validateTimeout(input string) error {
	d, err := time.ParseDuration(input)
	if err != nil {
		return errors.New("timeout must be a duration such as 30s or 2m")
	}
	if d <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

func testGatewayConnection(endpointURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpointURL})
	if err != nil {
		return err
	}
	return client.Health(ctx)
}

// handlePromptError treats Ctrl-C and Ctrl-D at a prompt as a clean exit.
func handlePromptError(err error) error {
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		fmt.Println()
		fmt.Println("Cancelled.")
		os.Exit(0)
	case errors.Is(err, promptui.ErrEOF), errors.Is(err, promptui.ErrAbort):
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
