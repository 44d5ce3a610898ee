package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"project-dependencies/internal/app"
)

type statusOptions struct {
	Project string
}

func newStatusCommand() *cobra.Command {
	opts := statusOptions{}
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"list"},
		Short:   "Show registered dependencies, cached archives and install state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Project, "path", "p", "", "Project directory")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("path"))
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, opts statusOptions) error {
	root, registry := scope()
	project := resolveString(cmd, opts.Project, "project", "path")
	service := newAppService()
	result, err := service.Status(ctx, app.StatusRequest{
		Root:        root,
		Registry:    registry,
		ProjectPath: project,
	})
	if err != nil {
		return err
	}

	fmt.Printf("host: %s\n", result.Host)
	for _, dep := range result.Dependencies {
		line := fmt.Sprintf("- %s (default %s)", dep.Name, dep.DefaultVersion)
		if project != "" {
			state := "not selected"
			if dep.Selected {
				state = "missing"
				if dep.Installed {
					state = "installed"
				}
			}
			line += fmt.Sprintf(" wants %s: %s", dep.Requested, state)
		}
		fmt.Println(line)
		for _, cached := range dep.Cached {
			fmt.Printf("  %s: %s\n", cached.Platform, strings.Join(cachedVersions(cached), ", "))
		}
	}
	return nil
}

// cachedVersions annotates each version with its build record origin.
func cachedVersions(cached app.CachedArchives) []string {
	out := make([]string, 0, len(cached.Versions))
	for _, version := range cached.Versions {
		if origin, ok := cached.Origins[version]; ok {
			version += " (" + string(origin) + ")"
		}
		out = append(out, version)
	}
	return out
}
