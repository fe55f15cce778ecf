package main

import (
	"fmt"
	"time"

	"github.com/k0sproject/pathguard/sftpclient"
	"github.com/spf13/cobra"
)

type remoteFlags struct {
	config   string
	host     string
	port     int
	user     string
	keyPath  string
	password bool
	insecure bool
	retries  int
	timeout  time.Duration
}

func (f *remoteFlags) load(cmd *cobra.Command) (*sftpclient.Config, error) {
	cfg := &sftpclient.Config{}
	if f.config != "" {
		loaded, err := sftpclient.LoadConfig(f.config)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Address = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("user") {
		cfg.User = f.user
	}
	if flags.Changed("key") {
		cfg.KeyPath = &f.keyPath
	}
	if flags.Changed("insecure") {
		cfg.InsecureIgnoreHostKey = f.insecure
	}
	if flags.Changed("retries") {
		cfg.Retries = f.retries
	}
	if flags.Changed("timeout") {
		cfg.ConnectTimeout = f.timeout
	}
	if f.password {
		pass, err := sftpclient.DefaultPasswordCallback()
		if err != nil {
			return nil, err
		}
		cfg.Password = pass
	}

	if err := cfg.SetDefaults(); err != nil {
		return nil, fmt.Errorf("configure %s: %w", cfg.Address, err)
	}
	return cfg, nil
}

func newRemoteCmd(flags *globalFlags) *cobra.Command {
	rf := &remoteFlags{}
	cmd := &cobra.Command{
		Use:   "remote <op> <path>",
		Short: "Check a path on an SFTP server",
		Long: `Check a path on an SFTP server for an operation. Paths starting with ./ or ../
are resolved against the session's working directory. Host settings are read
from the OpenSSH client configuration when available.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOpArg(args[0])
			if err != nil {
				return err
			}

			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}

			client := sftpclient.NewClient(*cfg,
				sftpclient.WithLogger(flags.logger(cmd.ErrOrStderr())),
				sftpclient.WithPasswordCallback(sftpclient.DefaultPasswordCallback),
			)
			if err := client.Connect(cmd.Context()); err != nil {
				return err //nolint:wrapcheck
			}
			defer func() { _ = client.Disconnect() }()

			res, err := client.CheckPath(cmd.Context(), args[1], op)
			if err != nil {
				return err //nolint:wrapcheck
			}
			return flags.printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&rf.config, "config", "c", "", "connection configuration file (yaml)")
	cmd.Flags().StringVarP(&rf.host, "host", "H", "", "server address or ssh config alias")
	cmd.Flags().IntVarP(&rf.port, "port", "p", 22, "server port")
	cmd.Flags().StringVarP(&rf.user, "user", "u", "root", "user name")
	cmd.Flags().StringVarP(&rf.keyPath, "key", "i", "", "private key file")
	cmd.Flags().BoolVar(&rf.password, "ask-password", false, "prompt for a login password")
	cmd.Flags().BoolVar(&rf.insecure, "insecure", false, "do not verify the server's host key")
	cmd.Flags().IntVar(&rf.retries, "retries", 1, "connection attempts")
	cmd.Flags().DurationVar(&rf.timeout, "timeout", 10*time.Second, "connection timeout")
	return cmd
}
