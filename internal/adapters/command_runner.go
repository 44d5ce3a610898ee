package adapters

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/shared"
	"project-dependencies/internal/types"
)

const commandOutputTail = 16 * 1024

// CommandRunnerAdapter executes build steps. Output is kept in a bounded
// tail for error reporting and optionally streamed to Stream.
type CommandRunnerAdapter struct {
	Stream io.Writer
}

func NewCommandRunnerAdapter(stream io.Writer) CommandRunnerAdapter {
	return CommandRunnerAdapter{Stream: stream}
}

func (a CommandRunnerAdapter) Run(ctx context.Context, command types.Command) error {
	if strings.TrimSpace(command.Path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("command path is required")
	}
	cmd := exec.CommandContext(ctx, command.Path, command.Args...)
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), command.Env)
	}
	tail := &tailBuffer{limit: commandOutputTail}
	var out io.Writer = tail
	if a.Stream != nil {
		out = io.MultiWriter(tail, a.Stream)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	log.Debug().
		Str("path", command.Path).
		Strs("args", command.Args).
		Str("dir", command.Dir).
		Msg("exec")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return shared.CommandError(tail.Bytes(), err)
	}
	return nil
}

// mergeEnv overlays override on base and returns a sorted KEY=VALUE list.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte {
	return t.buf
}

var _ ports.CommandRunnerPort = CommandRunnerAdapter{}
