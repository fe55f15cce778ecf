package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/k0sproject/pathguard/log"
	"github.com/k0sproject/pathguard/pathcheck"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errUnusable = errors.New("path is not usable for the operation")

type globalFlags struct {
	output string
	debug  bool
	trace  bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "pathguard",
		Short:         "Check local and remote paths before a file transfer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch flags.output {
			case "yaml", "json":
			default:
				return fmt.Errorf("invalid output format: %s (valid: yaml, json)", flags.output)
			}
			if flags.trace {
				log.SetTraceLogger(log.New(cmd.ErrOrStderr(), slog.LevelDebug))
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", "yaml", "output format (yaml, json)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flags.trace, "trace", false, "enable trace logging")

	root.AddCommand(newLocalCmd(flags), newRemoteCmd(flags))
	return root
}

func (f *globalFlags) logger(w io.Writer) log.Logger {
	lvl := slog.LevelWarn
	if f.debug {
		lvl = slog.LevelDebug
	}
	return log.New(w, lvl)
}

// printResult writes the result and returns errUnusable when the operation
// can not proceed on the path.
func (f *globalFlags) printResult(w io.Writer, res *pathcheck.Result) error {
	switch f.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	if !res.Usable() {
		return errUnusable
	}
	return nil
}

func parseOpArg(name string) (pathcheck.Op, error) {
	op, err := pathcheck.ParseOp(name)
	if err != nil {
		return 0, fmt.Errorf("%w (valid: readFile, readDir, readObject, writeFile, writeDir, writeObject)", err)
	}
	return op, nil
}
