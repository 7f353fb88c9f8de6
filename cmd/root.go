// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/config"
)

const (
	flagIPv4    = "ipv4"
	flagIPv6    = "ipv6"
	flagNumeric = "numeric"
	flagBoth    = "both"
	flagPort    = "port"
)

// NewCmdRoot creates a new root command
func NewCmdRoot(version string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tracepath",
		Short: "tracepath, the path MTU discovery tool",
		Long: "tracepath traces the path to a destination and discovers the path MTU along it.\n" +
			"It needs no special privileges and relies on the kernel's error queue.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(func() {
		initConfig(cfgFile)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.tracepath.yaml)")

	defaults := tracepath.DefaultOptions()
	NewFlag("trace.basePort", flagPort).Short("p").Int(pf, defaults.BasePort, "destination port of the first probe")
	NewFlag("trace.maxHops", "max-hops").Short("m").Int(pf, defaults.MaxHops, "maximum number of hops probed (0 .. 255)")
	NewFlag("trace.mtu", "pktlen").Short("l").Int(pf, 0, "initial packet length, 0 selects the address family default")
	NewFlag("trace.timeout", "timeout").Duration(pf, defaults.Timeout, "time to wait for a probe notification")
	NewFlag("trace.dnsServer", "dns-server").String(pf, "", "dns server (host[:port]) used for reverse lookups instead of the system resolver")
	NewFlag("trace.retry.count", "resolve-retries").Int(pf, 0, "number of retries of the destination lookup")
	NewFlag("trace.retry.delay", "resolve-retry-delay").Duration(pf, 0, "initial delay between destination lookup retries")
	pf.BoolP(flagIPv4, "4", false, "use IPv4 only")
	pf.BoolP(flagIPv6, "6", false, "use IPv6 only")
	pf.BoolP(flagNumeric, "n", false, "print addresses numerically, no reverse lookups")
	pf.BoolP(flagBoth, "b", false, "print both host names and addresses")
	rootCmd.MarkFlagsMutuallyExclusive(flagIPv4, flagIPv6)
	rootCmd.MarkFlagsMutuallyExclusive(flagNumeric, flagBoth)

	return rootCmd
}

// Execute adds all child commands to the root command
// and executes the cmd tree
func Execute(version string) {
	cmd := BuildCmd(version)

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func BuildCmd(version string) *cobra.Command {
	cmd := NewCmdRoot(version)
	cmd.AddCommand(NewCmdTrace())
	cmd.AddCommand(NewCmdWatch(version))
	return cmd
}

func initConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tracepath" (without an extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tracepath")
	}

	viper.SetOptions(viper.ExperimentalBindStruct())
	viper.SetEnvPrefix("tracepath")
	dotreplacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(dotreplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		_, _ = fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads the configuration from viper and applies the
// family and display switches of the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	fs := cmd.Flags()
	switch {
	case flagSet(fs.GetBool(flagIPv4)):
		cfg.Trace.Family = tracepath.FamilyIPv4
	case flagSet(fs.GetBool(flagIPv6)):
		cfg.Trace.Family = tracepath.FamilyIPv6
	}

	if cfg.Trace.Display == "" {
		cfg.Trace.Display = tracepath.DisplayName
	}
	switch {
	case flagSet(fs.GetBool(flagNumeric)):
		cfg.Trace.Display = tracepath.DisplayNumeric
	case flagSet(fs.GetBool(flagBoth)):
		cfg.Trace.Display = tracepath.DisplayBoth
	}
	return cfg, nil
}

func flagSet(v bool, err error) bool {
	return err == nil && v
}
