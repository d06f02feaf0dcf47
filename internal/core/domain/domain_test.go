package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/core/domain"
)

func TestJob_Slug(t *testing.T) {
	tests := []struct {
		name string
		job  string
		want string
	}{
		{name: "matrix name", job: "3.9, ubuntu-latest", want: "3.9-ubuntu-latest"},
		{name: "parentheses", job: "build (A, V1)", want: "build-a-v1"},
		{name: "already clean", job: "lint", want: "lint"},
		{name: "leading symbols", job: "  *test*", want: "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &domain.Job{Name: tt.job}
			assert.Equal(t, tt.want, j.Slug())
		})
	}
}

func TestCombination(t *testing.T) {
	c := domain.Combination{
		{Axis: "os", Value: "ubuntu-latest"},
		{Axis: "python-version", Value: "3.9"},
	}

	v, ok := c.Get("python-version")
	require.True(t, ok)
	assert.Equal(t, "3.9", v)

	_, ok = c.Get("arch")
	assert.False(t, ok)

	assert.Equal(t, []string{"ubuntu-latest", "3.9"}, c.Values())
	assert.Equal(t, map[string]string{"os": "ubuntu-latest", "python-version": "3.9"}, c.Map())
}

func TestRunReport_Counts(t *testing.T) {
	r := &domain.RunReport{Jobs: []domain.JobResult{
		{Name: "a", Status: domain.StatusPassed},
		{Name: "b", Status: domain.StatusFailed},
		{Name: "c", Status: domain.StatusCancelled},
	}}

	passed, failed := r.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 2, failed)
	assert.True(t, r.Failed())

	ok := &domain.RunReport{Jobs: []domain.JobResult{{Name: "a", Status: domain.StatusPassed}}}
	assert.False(t, ok.Failed())
}

func TestParseEventKind(t *testing.T) {
	for _, name := range []string{"push", "pull_request", "schedule"} {
		kind, err := domain.ParseEventKind(name)
		require.NoError(t, err)
		assert.Equal(t, domain.EventKind(name), kind)
	}

	_, err := domain.ParseEventKind("release")
	require.ErrorContains(t, err, domain.ErrUnknownEvent.Error())
}

func TestStepSpec_DisplayName(t *testing.T) {
	assert.Equal(t, "Install", (&domain.StepSpec{Name: "Install", Run: "pip install ."}).DisplayName())
	assert.Equal(t, "Run actions/checkout@v2", (&domain.StepSpec{Uses: "actions/checkout@v2"}).DisplayName())
	assert.Equal(t, "Run coverage run", (&domain.StepSpec{Run: "coverage run\ncoverage report"}).DisplayName())
}

func TestLayoutPaths(t *testing.T) {
	root := filepath.Join("tmp", "repo")
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{name: "DefaultStatePath", got: domain.DefaultStatePath(root), expected: filepath.Join(root, ".matrix")},
		{name: "DefaultCachePath", got: domain.DefaultCachePath(root), expected: filepath.Join(root, ".matrix", "cache")},
		{name: "DefaultLogsPath", got: domain.DefaultLogsPath(root), expected: filepath.Join(root, ".matrix", "logs")},
		{name: "DefaultHostsPath", got: domain.DefaultHostsPath(root), expected: filepath.Join(root, ".matrix", "hosts")},
		{name: "DefaultHistoryPath", got: domain.DefaultHistoryPath(root), expected: filepath.Join(root, ".matrix", "history.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestHost_ResolvePath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "hosts", "h1")
	h := &domain.Host{
		Root:      root,
		Workspace: filepath.Join(root, "workspace"),
		Home:      filepath.Join(root, "home"),
	}

	got, err := h.ResolvePath("~/conda_pkgs_dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "home", "conda_pkgs_dir"), got)

	got, err = h.ResolvePath("build/out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "workspace", "build", "out"), got)

	got, err = h.ResolvePath(filepath.Join(root, "temp"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "temp"), got)

	_, err = h.ResolvePath("../../../etc")
	require.ErrorContains(t, err, domain.ErrPathOutsideHost.Error())

	_, err = h.ResolvePath("/etc/passwd")
	require.ErrorContains(t, err, domain.ErrPathOutsideHost.Error())
}
