package conda_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/conda"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func testHost() *domain.Host {
	return &domain.Host{
		Root:      "/hosts/a",
		Workspace: "/hosts/a/workspace",
		Home:      "/hosts/a/home",
		Temp:      "/hosts/a/temp",
	}
}

func fixedDiscovery(calls *atomic.Int32) conda.DiscoverFunc {
	return func(context.Context) (*conda.Installation, error) {
		if calls != nil {
			calls.Add(1)
		}
		return &conda.Installation{Executable: "/opt/conda/bin/conda", Base: "/opt/conda"}, nil
	}
}

func TestEnvFactory_GetEnvironment(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	prefix := filepath.Join("/hosts/a/home", ".conda", "envs", "test")
	pkgs := filepath.Join("/hosts/a/home", conda.PkgsDirName)
	condaEnv := []string{"HOME=/hosts/a/home", "CONDA_PKGS_DIRS=" + pkgs, "CONDA_ALWAYS_YES=true"}

	gomock.InOrder(
		executor.EXPECT().
			Execute(gomock.Any(), gomock.Any(), condaEnv, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *domain.Command, _ []string, _, _ io.Writer) error {
				assert.Equal(t, []string{
					"/opt/conda/bin/conda", "create", "--yes", "--quiet", "--prefix", prefix, "python=3.9",
				}, cmd.Args)
				assert.Equal(t, "/hosts/a/workspace", cmd.Dir)
				return nil
			}),
		executor.EXPECT().
			Execute(gomock.Any(), gomock.Any(), condaEnv, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *domain.Command, _ []string, _, _ io.Writer) error {
				assert.Equal(t, []string{
					"/opt/conda/bin/conda", "env", "update", "--prefix", prefix,
					"--file", "/hosts/a/workspace/ci/environment.yml",
				}, cmd.Args)
				return nil
			}),
	)

	factory := conda.NewEnvFactoryWithDiscovery(executor, fixedDiscovery(nil))
	factory.SetGOOS("linux")

	env, err := factory.GetEnvironment(context.Background(), domain.EnvironmentSpec{
		Name:           "test",
		File:           "ci/environment.yml",
		RuntimeVersion: "3.9",
		Host:           testHost(),
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PATH=" + filepath.Join(prefix, "bin"),
		"CONDA_PREFIX=" + prefix,
		"CONDA_DEFAULT_ENV=test",
		"CONDA_PKGS_DIRS=" + pkgs,
		"CONDA_EXE=/opt/conda/bin/conda",
	}, env)
}

func TestEnvFactory_FileOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, _ []string, _, _ io.Writer) error {
			assert.Equal(t, []string{"env", "create"}, cmd.Args[1:3])
			return nil
		})

	factory := conda.NewEnvFactoryWithDiscovery(executor, fixedDiscovery(nil))
	_, err := factory.GetEnvironment(context.Background(), domain.EnvironmentSpec{
		Name: "docs",
		File: "environment.yml",
		Host: testHost(),
	}, io.Discard)
	require.NoError(t, err)
}

func TestEnvFactory_Errors(t *testing.T) {
	t.Run("command fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)
		executor.EXPECT().
			Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("exit status 1"))

		factory := conda.NewEnvFactoryWithDiscovery(executor, fixedDiscovery(nil))
		_, err := factory.GetEnvironment(context.Background(), domain.EnvironmentSpec{RuntimeVersion: "3.9", Host: testHost()}, io.Discard)
		require.ErrorContains(t, err, domain.ErrEnvironmentProvisionFailed.Error())
	})

	t.Run("conda missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)
		discover := func(context.Context) (*conda.Installation, error) {
			return nil, errors.New("conda executable not found")
		}

		factory := conda.NewEnvFactoryWithDiscovery(executor, discover)
		_, err := factory.GetEnvironment(context.Background(), domain.EnvironmentSpec{Host: testHost()}, io.Discard)
		require.ErrorContains(t, err, domain.ErrEnvironmentProvisionFailed.Error())
	})

	t.Run("file outside host", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)

		factory := conda.NewEnvFactoryWithDiscovery(executor, fixedDiscovery(nil))
		_, err := factory.GetEnvironment(context.Background(), domain.EnvironmentSpec{File: "/etc/passwd", Host: testHost()}, io.Discard)
		require.ErrorContains(t, err, domain.ErrPathOutsideHost.Error())
	})
}

func TestEnvFactory_DiscoversOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		Times(8)

	var calls atomic.Int32
	factory := conda.NewEnvFactoryWithDiscovery(executor, fixedDiscovery(&calls))

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, err := factory.GetEnvironment(context.Background(), domain.EnvironmentSpec{RuntimeVersion: "3.9", Host: testHost()}, io.Discard)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestParseInfo(t *testing.T) {
	install, err := conda.ParseInfo("/opt/conda/bin/conda", []byte(`{"root_prefix": "/opt/conda", "conda_version": "24.1.0"}`))
	require.NoError(t, err)
	assert.Equal(t, "/opt/conda", install.Base)

	_, err = conda.ParseInfo("conda", []byte(`{}`))
	require.Error(t, err)

	_, err = conda.ParseInfo("conda", []byte(`not json`))
	require.Error(t, err)
}
