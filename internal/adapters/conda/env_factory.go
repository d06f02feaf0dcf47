// Package conda provisions conda environments on job hosts.
package conda

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.EnvironmentFactory = (*EnvFactory)(nil)

const (
	// PkgsDirName is the package cache directory inside the host home.
	PkgsDirName = "conda_pkgs_dir"
	// DefaultEnvName is used when no environment name is requested.
	DefaultEnvName = "test"

	discoverKey = "conda"
)

// Installation is a conda installation found on the machine.
type Installation struct {
	Executable string
	Base       string
}

// DiscoverFunc locates the conda installation.
type DiscoverFunc func(ctx context.Context) (*Installation, error)

// EnvFactory implements ports.EnvironmentFactory using conda.
// Environments are created inside the host home with a per-host package cache.
type EnvFactory struct {
	executor ports.Executor
	discover DiscoverFunc
	goos     string

	requestGroup singleflight.Group
	mu           sync.Mutex
	install      *Installation
}

// NewEnvFactory creates a new EnvFactory running conda through executor.
func NewEnvFactory(executor ports.Executor) *EnvFactory {
	return NewEnvFactoryWithDiscovery(executor, Discover)
}

// NewEnvFactoryWithDiscovery creates a new EnvFactory using discover to locate conda.
func NewEnvFactoryWithDiscovery(executor ports.Executor, discover DiscoverFunc) *EnvFactory {
	return &EnvFactory{
		executor: executor,
		discover: discover,
		goos:     runtime.GOOS,
	}
}

// GetEnvironment creates the environment described by spec and returns the
// variables activating it. The PATH entry lists directories to prepend.
func (e *EnvFactory) GetEnvironment(ctx context.Context, spec domain.EnvironmentSpec, out io.Writer) ([]string, error) {
	if spec.Host == nil {
		return nil, zerr.With(domain.ErrEnvironmentProvisionFailed, "reason", "no host")
	}

	install, err := e.installation(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrEnvironmentProvisionFailed.Error())
	}

	name := spec.Name
	if name == "" {
		name = DefaultEnvName
	}
	prefix := filepath.Join(spec.Host.Home, ".conda", "envs", name)
	pkgsDir := filepath.Join(spec.Host.Home, PkgsDirName)

	var file string
	if spec.File != "" {
		file, err = spec.Host.ResolvePath(spec.File)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrEnvironmentProvisionFailed.Error())
		}
	}

	condaEnv := []string{
		"HOME=" + spec.Host.Home,
		"CONDA_PKGS_DIRS=" + pkgsDir,
		"CONDA_ALWAYS_YES=true",
	}
	for _, args := range createCommands(install.Executable, prefix, file, spec.RuntimeVersion) {
		cmd := &domain.Command{
			Name: "conda " + args[1],
			Args: args,
			Dir:  spec.Host.Workspace,
		}
		if err := e.executor.Execute(ctx, cmd, condaEnv, out, out); err != nil {
			err = zerr.Wrap(err, domain.ErrEnvironmentProvisionFailed.Error())
			return nil, zerr.With(err, "environment", name)
		}
	}

	return []string{
		"PATH=" + strings.Join(binDirs(prefix, e.goos), string(os.PathListSeparator)),
		"CONDA_PREFIX=" + prefix,
		"CONDA_DEFAULT_ENV=" + name,
		"CONDA_PKGS_DIRS=" + pkgsDir,
		"CONDA_EXE=" + install.Executable,
	}, nil
}

// installation returns the discovered conda installation. Concurrent jobs
// share a single discovery.
func (e *EnvFactory) installation(ctx context.Context) (*Installation, error) {
	e.mu.Lock()
	if e.install != nil {
		defer e.mu.Unlock()
		return e.install, nil
	}
	e.mu.Unlock()

	result, err, _ := e.requestGroup.Do(discoverKey, func() (any, error) {
		e.mu.Lock()
		cached := e.install
		e.mu.Unlock()
		if cached != nil {
			return cached, nil
		}

		install, err := e.discover(ctx)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.install = install
		e.mu.Unlock()
		return install, nil
	})
	if err != nil {
		return nil, err
	}
	//nolint:forcetypeassert // Only *Installation is stored
	return result.(*Installation), nil
}

// createCommands returns the conda invocations that build the environment at prefix.
// A runtime version is installed first so that the environment file is
// resolved against it.
func createCommands(conda, prefix, file, version string) [][]string {
	switch {
	case version != "" && file != "":
		return [][]string{
			{conda, "create", "--yes", "--quiet", "--prefix", prefix, "python=" + version},
			{conda, "env", "update", "--prefix", prefix, "--file", file},
		}
	case version != "":
		return [][]string{{conda, "create", "--yes", "--quiet", "--prefix", prefix, "python=" + version}}
	case file != "":
		return [][]string{{conda, "env", "create", "--prefix", prefix, "--file", file}}
	default:
		return [][]string{{conda, "create", "--yes", "--quiet", "--prefix", prefix}}
	}
}

func binDirs(prefix, goos string) []string {
	if goos == "windows" {
		return []string{
			prefix,
			filepath.Join(prefix, "Library", "mingw-w64", "bin"),
			filepath.Join(prefix, "Library", "usr", "bin"),
			filepath.Join(prefix, "Library", "bin"),
			filepath.Join(prefix, "Scripts"),
		}
	}
	return []string{filepath.Join(prefix, "bin")}
}

// condaInfo is the subset of `conda info --json` used by Discover.
type condaInfo struct {
	RootPrefix string `json:"root_prefix"`
}

// Discover locates conda through $CONDA_EXE or PATH and asks it for its base prefix.
func Discover(ctx context.Context) (*Installation, error) {
	exe := os.Getenv("CONDA_EXE")
	if exe == "" {
		var err error
		if exe, err = exec.LookPath("conda"); err != nil {
			return nil, zerr.Wrap(err, "conda executable not found")
		}
	}

	//nolint:gosec // exe is the conda executable
	output, err := exec.CommandContext(ctx, exe, "info", "--json").Output()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to execute conda info"), "conda", exe)
	}
	return ParseInfo(exe, output)
}

// ParseInfo parses the output of `conda info --json`.
func ParseInfo(exe string, data []byte) (*Installation, error) {
	var info condaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal conda info")
	}
	if info.RootPrefix == "" {
		return nil, zerr.New("conda info reports no root prefix")
	}
	return &Installation{Executable: exe, Base: info.RootPrefix}, nil
}
