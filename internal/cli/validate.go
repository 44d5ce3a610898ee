package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"project-dependencies/internal/app"
)

type validateOptions struct {
	Project string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the dependency registry and a project's libraries.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Project, "path", "p", "", "Project directory")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("path"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	_, registry := scope()
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		Registry:    registry,
		ProjectPath: resolveString(cmd, opts.Project, "project", "path"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("registry: %d dependencies\n", result.Dependencies)
	for _, entry := range result.Unsupported {
		fmt.Printf("unsupported: %s\n", entry)
	}
	switch {
	case result.ManifestPresent:
		fmt.Printf("manifest: %s (%d entries)\n", result.ManifestPath, result.ManifestEntries)
	case result.ManifestPath != "":
		fmt.Printf("manifest: %s not found, every dependency is selected\n", result.ManifestPath)
	}
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
