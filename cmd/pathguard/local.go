package main

import (
	"github.com/k0sproject/pathguard/localfs"
	"github.com/spf13/cobra"
)

func newLocalCmd(flags *globalFlags) *cobra.Command {
	var probeOnly bool
	cmd := &cobra.Command{
		Use:   "local <op> <path>",
		Short: "Check a path on the local filesystem",
		Long: `Check a path on the local filesystem for an operation. The operation is one
of readFile, readDir, readObject, writeFile, writeDir or writeObject. A leading
~ is expanded to the home directory. Exits with status 1 when the operation can
not proceed on the path.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOpArg(args[0])
			if err != nil {
				return err
			}

			v := localfs.NewValidator()
			v.SetLogger(flags.logger(cmd.ErrOrStderr()))

			validate := v.Validate
			if probeOnly {
				validate = v.Probe
			}
			res, err := validate(cmd.Context(), args[1], op)
			if err != nil {
				return err //nolint:wrapcheck
			}
			return flags.printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&probeOnly, "access-only", false, "only check permissions, not the object type")
	return cmd
}
