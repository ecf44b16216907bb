// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Netcracker/qubership-netdiag-agent/client"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyServer   = "server"
	keyApiKey   = "api-key"
	keyOutput   = "output"
	keyTimeout  = "timeout"
	keyInsecure = "insecure"
	keyConfig   = "config"
	envPrefix   = "NETDIAG"
)

// clientFactory
// replaced in tests
type clientFactory func(config client.Config) (client.Client, error)

// cli
// state shared by all commands
type cli struct {
	v       *viper.Viper
	out     io.Writer
	factory clientFactory
}

func main() {
	if err := newRootCmd(os.Stdout, client.NewClient).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd
// flags win over NETDIAG_* environment variables, which win over the config file
func newRootCmd(out io.Writer, factory clientFactory) *cobra.Command {
	c := &cli{v: viper.New(), out: out, factory: factory}
	root := &cobra.Command{
		Use:   "netdiagctl",
		Short: "netdiagctl - remote control of the network diagnostics agent",
		Long: `netdiagctl talks to a netdiag agent over its REST API.
It lists interfaces, runs packet captures, ping monitors and TCP connection tests.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig()
		},
	}
	flags := root.PersistentFlags()
	flags.StringP(keyConfig, "c", "", "config file (yaml) with server, api-key and output")
	flags.StringP(keyServer, "s", "http://localhost:8080", "agent address")
	flags.String(keyApiKey, "", "agent API key")
	flags.StringP(keyOutput, "o", formatJson, "output format: json or yaml")
	flags.Duration(keyTimeout, client.DefaultTimeout, "request timeout")
	flags.Bool(keyInsecure, false, "skip TLS certificate verification")
	for _, name := range []string{keyConfig, keyServer, keyApiKey, keyOutput, keyTimeout, keyInsecure} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(c.interfacesCmd(), c.captureCmd(), c.pingCmd(), c.tcpCmd())
	return root
}

// loadConfig
// reads the optional config file and validates the output format
func (c *cli) loadConfig() error {
	if path := c.v.GetString(keyConfig); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	switch c.v.GetString(keyOutput) {
	case formatJson, formatYaml:
	default:
		return fmt.Errorf("unsupported output format '%s'", c.v.GetString(keyOutput))
	}
	log.Debugf("agent %s", c.v.GetString(keyServer))
	return nil
}

func (c *cli) client() (client.Client, error) {
	return c.factory(client.Config{
		Server:   c.v.GetString(keyServer),
		ApiKey:   c.v.GetString(keyApiKey),
		Timeout:  c.v.GetDuration(keyTimeout),
		Insecure: c.v.GetBool(keyInsecure),
	})
}

// call
// creates the client, runs the operation and prints its result
func (c *cli) call(operation func(cl client.Client) (interface{}, error)) error {
	cl, err := c.client()
	if err != nil {
		return err
	}
	result, err := operation(cl)
	if err != nil {
		return err
	}
	return render(c.out, c.v.GetString(keyOutput), result)
}

func parseDurationFlag(cmd *cobra.Command, name string) (time.Duration, error) {
	d, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("--%s must be positive", name)
	}
	return d, nil
}
