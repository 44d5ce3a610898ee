package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/types"
)

// GitSourceAdapter checks out a single ref with a shallow fetch. Running
// it again on the same directory moves the checkout to the new ref.
type GitSourceAdapter struct {
	Git    string
	Runner ports.CommandRunnerPort
}

func NewGitSourceAdapter(git string, runner ports.CommandRunnerPort) GitSourceAdapter {
	if git == "" {
		git = "git"
	}
	return GitSourceAdapter{Git: git, Runner: runner}
}

func (a GitSourceAdapter) Sync(ctx context.Context, remote string, ref string, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		if err := a.git(ctx, dir, "init", "--quiet"); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	if err := a.git(ctx, dir, "fetch", "--depth", "1", remote, ref); err != nil {
		return fmt.Errorf("fetch %s %s: %w", remote, ref, err)
	}
	if err := a.git(ctx, dir, "checkout", "--quiet", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

func (a GitSourceAdapter) git(ctx context.Context, dir string, args ...string) error {
	return a.Runner.Run(ctx, types.Command{Path: a.Git, Args: args, Dir: dir})
}

var _ ports.SourcePort = GitSourceAdapter{}
