package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"project-dependencies/internal/app"
)

type installOptions struct {
	Path         string
	Version      string
	IOS          bool
	IOSSimulator bool
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install <name>",
		Short: "Extract a built archive into an install directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "Install root")
	_ = cmd.MarkFlagRequired("path")
	addTargetFlags(cmd, &opts.Version, &opts.IOS, &opts.IOSSimulator)
	return cmd
}

func runInstall(ctx context.Context, name string, opts installOptions) error {
	root, registry := scope()
	service := newAppService()
	result, err := service.Install(ctx, app.InstallRequest{
		Root:         root,
		Registry:     registry,
		Name:         name,
		Version:      opts.Version,
		IOS:          opts.IOS,
		IOSSimulator: opts.IOSSimulator,
		InstallRoot:  opts.Path,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s): %s -> %s\n", result.Dependency, result.Version, result.Platform, result.Outcome, result.InstallDir)
	return nil
}
