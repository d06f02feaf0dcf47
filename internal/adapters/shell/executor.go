// Package shell runs step processes on a job host.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec and a pseudo-terminal.
type Executor struct {
	sysEnv func() []string
}

// NewExecutor creates a new Executor inheriting the allow-listed variables
// of the current process.
func NewExecutor() *Executor {
	return &Executor{sysEnv: os.Environ}
}

// Execute runs cmd and waits for it to exit.
//
// The environment is merged with the following priority (low to high):
//  1. the allow-listed system variables
//  2. env, where PATH entries are prepended to the inherited PATH
//  3. cmd.Environment
//
// Output is written to stdout through a pty when the platform supports one,
// stdout and stderr are separate otherwise.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, env []string, stdout, stderr io.Writer) error {
	if len(cmd.Args) == 0 {
		return nil
	}

	name := cmd.Args[0]
	cmdEnv := resolveEnvironment(e.sysEnv(), env, cmd.Environment)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // Workflow provided command
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = cmdEnv

	if err := run(c, stdout, stderr); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, "command failed"), "command", cmd.Name)
		return zerr.With(err, "exit_code", exitCode)
	}
	return nil
}

func run(c *exec.Cmd, stdout, stderr io.Writer) error {
	ptmx, err := pty.Start(c)
	if errors.Is(err, pty.ErrUnsupported) {
		c.Stdout = stdout
		c.Stderr = stderr
		return c.Run()
	}
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// The pty merges stdout and stderr.
		_, _ = io.Copy(stdout, ptmx)
	}()

	err = c.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

// allowListedEnvVars are the system variables a step inherits.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges environment variables with the defined priority.
// The result is sorted.
func resolveEnvironment(sysEnv, env []string, overrides map[string]string) []string {
	envMap := filterSystemEnv(sysEnv)
	applyEnv(envMap, env)

	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	return envMap
}

// applyEnv sets each entry of env. A PATH entry is prepended to the current PATH.
func applyEnv(envMap map[string]string, env []string) {
	for _, entry := range env {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if current := envMap["PATH"]; current != "" {
				v = v + string(os.PathListSeparator) + current
			}
		}
		envMap[k] = v
	}
}

// lookPath searches for an executable in the directories named by the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
