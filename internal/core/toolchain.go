package core

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Toolchain resolves logical tool names ("git", "cmake", "sh") to
// executables. Configured paths win over PATH lookup.
type Toolchain struct {
	Paths    map[string]string
	LookPath func(file string) (string, error)
}

func NewToolchain(paths map[string]string) Toolchain {
	return Toolchain{Paths: paths, LookPath: exec.LookPath}
}

func (t Toolchain) Resolve(tool string) (string, error) {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("step has no tool")
	}
	if strings.ContainsAny(tool, `/\`) {
		return tool, nil
	}
	if configured := strings.TrimSpace(t.Paths[tool]); configured != "" {
		return configured, nil
	}
	lookPath := t.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	resolved, err := lookPath(tool)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("tool %q not found; set tools.%s in the config", tool, tool)).
			WithCause(err)
	}
	return resolved, nil
}
