package ports

import (
	"context"

	"project-dependencies/internal/types"
)

type CommandRunnerPort interface {
	Run(ctx context.Context, cmd types.Command) error
}
