// Command client is a small CLI for the task board HTTP API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultServer = "http://localhost:8080"
	tokenEnv      = "TASKBOARD_TOKEN"
	serverEnv     = "TASKBOARD_SERVER"
)

type globalOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func (o *globalOptions) client() *apiClient {
	return newAPIClient(o.server, o.token, o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Command line client for the task board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv(serverEnv)
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "base URL of the task board (env "+serverEnv+")")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(tokenEnv), "access token (env "+tokenEnv+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newWhoAmICmd(opts),
		newTasksCmd(opts),
	)
	return root
}
