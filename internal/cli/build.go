package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"project-dependencies/internal/app"
)

type buildOptions struct {
	Version      string
	IOS          bool
	IOSSimulator bool
	Clean        bool
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build <name>",
		Short: "Download or build the archive for one dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, args[0], opts)
		},
	}
	addTargetFlags(cmd, &opts.Version, &opts.IOS, &opts.IOSSimulator)
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "Remove the work directory before building")
	_ = viper.BindPFlag("clean", cmd.Flags().Lookup("clean"))
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, name string, opts buildOptions) error {
	root, registry := scope()
	service := newAppService()
	result, err := service.Build(ctx, app.BuildRequest{
		Root:         root,
		Registry:     registry,
		Name:         name,
		Version:      opts.Version,
		IOS:          opts.IOS,
		IOSSimulator: opts.IOSSimulator,
		Clean:        resolveBool(cmd, opts.Clean, "clean", "clean"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s): %s\n", result.Dependency, result.Version, result.Platform, result.Outcome)
	fmt.Printf("archive: %s\n", result.ArchivePath)
	if result.URL != "" {
		fmt.Printf("source: %s\n", result.URL)
	}
	return nil
}

// addTargetFlags registers the version and iOS flags shared by build and
// install. Every iOS simulator spelling sets the same value.
func addTargetFlags(cmd *cobra.Command, version *string, ios *bool, iosSimulator *bool) {
	cmd.Flags().StringVarP(version, "version", "v", "", "Dependency version (defaults to the registry default)")
	cmd.Flags().BoolVar(ios, "ios", false, "Target iOS devices")
	cmd.Flags().BoolVar(iosSimulator, "ios-simulator", false, "Target the iOS simulator")
	cmd.Flags().BoolVar(iosSimulator, "ios_simulator", false, "Target the iOS simulator")
	cmd.Flags().BoolVar(iosSimulator, "iossim", false, "Target the iOS simulator")
	_ = cmd.Flags().MarkHidden("ios_simulator")
	_ = cmd.Flags().MarkHidden("iossim")
}
