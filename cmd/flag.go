// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag binds a command line flag to a configuration key
type Flag struct {
	key   string
	name  string
	short string
}

// NewFlag returns a flag named name that is bound to the configuration key
func NewFlag(key, name string) *Flag {
	return &Flag{key: key, name: name}
}

// Short sets the one letter shorthand of the flag
func (f *Flag) Short(s string) *Flag {
	f.short = s
	return f
}

func (f *Flag) Int(fs *pflag.FlagSet, value int, usage string) {
	fs.IntP(f.name, f.short, value, usage)
	f.bind(fs)
}

func (f *Flag) String(fs *pflag.FlagSet, value, usage string) {
	fs.StringP(f.name, f.short, value, usage)
	f.bind(fs)
}

func (f *Flag) Bool(fs *pflag.FlagSet, value bool, usage string) {
	fs.BoolP(f.name, f.short, value, usage)
	f.bind(fs)
}

func (f *Flag) Duration(fs *pflag.FlagSet, value time.Duration, usage string) {
	fs.DurationP(f.name, f.short, value, usage)
	f.bind(fs)
}

func (f *Flag) bind(fs *pflag.FlagSet) {
	cobra.CheckErr(viper.BindPFlag(f.key, fs.Lookup(f.name)))
}
