package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"project-dependencies/internal/app"
)

type installAllOptions struct {
	Project string
	Clean   bool
}

func newInstallAllCommand() *cobra.Command {
	opts := installAllOptions{}
	cmd := &cobra.Command{
		Use:   "install-all",
		Short: "Build and install every dependency in the project's libraries.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstallAll(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Project, "path", "p", ".", "Project directory")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "Remove work directories before building")
	_ = viper.BindPFlag("clean", cmd.Flags().Lookup("clean"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("path"))
	return cmd
}

func runInstallAll(ctx context.Context, cmd *cobra.Command, opts installAllOptions) error {
	root, registry := scope()
	service := newAppService()
	result, err := service.InstallAll(ctx, app.InstallAllRequest{
		Root:        root,
		Registry:    registry,
		ProjectPath: resolveString(cmd, opts.Project, "project", "path"),
		Clean:       resolveBool(cmd, opts.Clean, "clean", "clean"),
	})
	for _, pass := range result.Passes {
		fmt.Printf("- %s %s (%s): %s, %s\n", pass.Dependency, pass.Version, pass.Platform, pass.Build, pass.Install)
	}
	if err != nil {
		return err
	}
	for _, pass := range result.Unsupported {
		fmt.Printf("- %s %s (%s): not supported, skipped\n", pass.Dependency, pass.Version, pass.Platform)
	}
	if len(result.Unknown) > 0 {
		fmt.Printf("ignored unknown: %s\n", strings.Join(result.Unknown, ", "))
	}
	fmt.Printf("installed %d passes into %s\n", len(result.Passes), result.InstallRoot)
	return nil
}
