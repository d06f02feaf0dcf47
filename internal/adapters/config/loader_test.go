package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/config"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const referenceWorkflow = `
name: CI
on:
  schedule:
    - cron: "0 8 * * *"
  push:
  pull_request:
env:
  PYTHONUNBUFFERED: "1"
jobs:
  test:
    name: "${{ matrix.python-version }}, ${{ matrix.os }}"
    runs-on: ${{ matrix.os }}
    timeout-minutes: 30
    strategy:
      fail-fast: false
      matrix:
        os: [ubuntu-latest, macos-latest, windows-latest]
        python-version: [3.9, "3.10"]
        exclude:
          - os: windows-latest
    steps:
      - uses: actions/checkout@v2
      - id: cache
        uses: actions/cache@v2
        env:
          CACHE_NUMBER: 0
        with:
          path: ~/conda_pkgs_dir
          key: ${{ runner.os }}-conda-${{ matrix.python-version }}-${{ env.CACHE_NUMBER }}-${{ hashFiles('ci/environment.yml') }}
      - uses: conda-incubator/setup-miniconda@v2
        with:
          activate-environment: test
          environment-file: ci/environment.yml
          python-version: ${{ matrix.python-version }}
      - name: Run tests
        shell: bash -l {0}
        timeout-minutes: 0.5
        run: |
          coverage run -m pytest -v --durations=20
          coverage report -m
  lint:
    runs-on: ubuntu-latest
    steps:
      - run: flake8
`

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func TestLoader_Load_ReferenceWorkflow(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	loader := config.NewLoader(mockLogger)

	dir := t.TempDir()
	path := createFile(t, dir, domain.WorkflowFileName, referenceWorkflow)

	wf, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "CI", wf.Name)
	assert.Equal(t, dir, wf.Root)
	assert.Equal(t, domain.Triggers{Schedules: []string{"0 8 * * *"}, Push: true, PullRequest: true}, wf.Triggers)
	assert.Equal(t, map[string]string{"PYTHONUNBUFFERED": "1"}, wf.Env)

	require.Len(t, wf.Jobs, 2)
	assert.Equal(t, "test", wf.Jobs[0].ID)
	assert.Equal(t, "lint", wf.Jobs[1].ID)

	job := wf.Jobs[0]
	assert.Equal(t, "${{ matrix.os }}", job.RunsOn)
	assert.Equal(t, 30*time.Minute, job.Timeout)
	assert.False(t, job.Strategy.FailFast)

	wantAxes := []domain.Axis{
		{Name: "os", Values: []string{"ubuntu-latest", "macos-latest", "windows-latest"}},
		{Name: "python-version", Values: []string{"3.9", "3.10"}},
	}
	if diff := cmp.Diff(wantAxes, job.Strategy.Axes); diff != "" {
		t.Errorf("axes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []map[string]string{{"os": "windows-latest"}}, job.Strategy.Exclude)

	require.Len(t, job.Steps, 4)
	assert.Equal(t, "actions/checkout@v2", job.Steps[0].Uses)
	assert.Equal(t, "cache", job.Steps[1].ID)
	assert.Equal(t, "0", job.Steps[1].Env["CACHE_NUMBER"])
	assert.Equal(t, "~/conda_pkgs_dir", job.Steps[1].With["path"])
	assert.Equal(t, "test", job.Steps[2].With["activate-environment"])
	assert.Equal(t, "bash -l {0}", job.Steps[3].Shell)
	assert.Equal(t, 30*time.Second, job.Steps[3].Timeout)
	assert.Equal(t, "coverage run -m pytest -v --durations=20\ncoverage report -m\n", job.Steps[3].Run)
}

func TestLoader_Load_TriggerForms(t *testing.T) {
	tests := []struct {
		name     string
		on       string
		expected domain.Triggers
	}{
		{name: "scalar", on: "on: push", expected: domain.Triggers{Push: true}},
		{name: "sequence", on: "on: [push, pull_request]", expected: domain.Triggers{Push: true, PullRequest: true}},
		{name: "mapping", on: "on:\n  pull_request: {}\n", expected: domain.Triggers{PullRequest: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockLogger := mocks.NewMockLogger(ctrl)
			loader := config.NewLoader(mockLogger)

			path := createFile(t, t.TempDir(), domain.WorkflowFileName, tt.on+`
jobs:
  a:
    runs-on: ubuntu-latest
    steps: [{run: "true"}]
`)
			wf, err := loader.Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, wf.Triggers)
		})
	}
}

func TestLoader_Load_UnsupportedTriggerWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).Times(1)
	loader := config.NewLoader(mockLogger)

	path := createFile(t, t.TempDir(), domain.WorkflowFileName, `
on: [push, workflow_dispatch]
jobs:
  a:
    runs-on: ubuntu-latest
    steps: [{run: "true"}]
`)
	_, err := loader.Load(path)
	require.NoError(t, err)
}

func TestLoader_Load_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr error
	}{
		{
			name:        "invalid yaml",
			content:     "on: [push\njobs: {",
			expectedErr: domain.ErrWorkflowParseFailed,
		},
		{
			name:        "no triggers",
			content:     "jobs:\n  a:\n    runs-on: x\n    steps: [{run: 'true'}]\n",
			expectedErr: domain.ErrNoTriggers,
		},
		{
			name:        "no jobs",
			content:     "on: push\n",
			expectedErr: domain.ErrNoJobs,
		},
		{
			name:        "missing runs-on",
			content:     "on: push\njobs:\n  a:\n    steps: [{run: 'true'}]\n",
			expectedErr: domain.ErrMissingRunsOn,
		},
		{
			name:        "no steps",
			content:     "on: push\njobs:\n  a:\n    runs-on: x\n",
			expectedErr: domain.ErrNoSteps,
		},
		{
			name:        "empty axis",
			content:     "on: push\njobs:\n  a:\n    runs-on: x\n    strategy:\n      matrix:\n        os: []\n    steps: [{run: 'true'}]\n",
			expectedErr: domain.ErrEmptyAxis,
		},
		{
			name:        "uses and run",
			content:     "on: push\njobs:\n  a:\n    runs-on: x\n    steps: [{run: 'true', uses: 'actions/checkout@v2'}]\n",
			expectedErr: domain.ErrInvalidStep,
		},
		{
			name:        "duplicate step id",
			content:     "on: push\njobs:\n  a:\n    runs-on: x\n    steps: [{id: s, run: 'a'}, {id: s, run: 'b'}]\n",
			expectedErr: domain.ErrDuplicateStepID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockLogger := mocks.NewMockLogger(ctrl)
			loader := config.NewLoader(mockLogger)

			path := createFile(t, t.TempDir(), domain.WorkflowFileName, tt.content)
			_, err := loader.Load(path)
			require.Error(t, err)
			require.ErrorContains(t, err, tt.expectedErr.Error())
		})
	}
}

func TestLoader_Load_ReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, domain.ErrWorkflowReadFailed.Error())
}

func TestLoader_Discover(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := &config.Loader{
		Logger: mocks.NewMockLogger(ctrl),
		FS: config.NewMapFSAdapter("/repo", fstest.MapFS{
			"matrix.yaml":       {Data: []byte("on: push")},
			"src/pkg/module.py": {Data: []byte("")},
		}),
	}

	path, err := loader.Discover("/repo/src/pkg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo", domain.WorkflowFileName), path)

	path, err = loader.Discover("/repo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo", domain.WorkflowFileName), path)
}

func TestLoader_Discover_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	_, err := loader.Discover(t.TempDir())
	require.ErrorContains(t, err, domain.ErrWorkflowNotFound.Error())
}
