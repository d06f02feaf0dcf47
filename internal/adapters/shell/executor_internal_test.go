package shell

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnvironment(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		name      string
		sysEnv    []string
		env       []string
		overrides map[string]string
		expected  []string
	}{
		{
			name:     "system only (allowed)",
			sysEnv:   []string{"USER=test", "PATH=/bin", "HOME=/home/test"},
			expected: []string{"HOME=/home/test", "PATH=/bin", "USER=test"},
		},
		{
			name:     "system only (filtered)",
			sysEnv:   []string{"USER=test", "SSH_AUTH_SOCK=/tmp/ssh", "SECRET=key"},
			expected: []string{"USER=test"},
		},
		{
			name:     "host home replaces system home",
			sysEnv:   []string{"HOME=/home/test"},
			env:      []string{"HOME=/hosts/a/home", "CI=true"},
			expected: []string{"CI=true", "HOME=/hosts/a/home"},
		},
		{
			name:     "provisioned PATH is prepended",
			sysEnv:   []string{"PATH=/bin"},
			env:      []string{"PATH=/conda/bin", "CONDA_PREFIX=/conda"},
			expected: []string{"CONDA_PREFIX=/conda", "PATH=/conda/bin" + sep + "/bin"},
		},
		{
			name:     "later PATH entries come first",
			sysEnv:   []string{"PATH=/bin"},
			env:      []string{"PATH=/conda/bin", "PATH=/tools"},
			expected: []string{"PATH=/tools" + sep + "/conda/bin" + sep + "/bin"},
		},
		{
			name:      "overrides win",
			sysEnv:    []string{"USER=test", "PATH=/bin"},
			env:       []string{"PATH=/conda/bin"},
			overrides: map[string]string{"USER": "matrix", "PATH": "/custom/bin"},
			expected:  []string{"PATH=/custom/bin", "USER=matrix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveEnvironment(tt.sysEnv, tt.env, tt.overrides)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	exe := dir + "/tool"
	assert.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o700))
	assert.NoError(t, os.WriteFile(dir+"/data", []byte("x"), 0o600))

	got, err := lookPath("tool", []string{"PATH=/nonexistent" + string(os.PathListSeparator) + dir})
	assert.NoError(t, err)
	assert.Equal(t, exe, got)

	_, err = lookPath("data", []string{"PATH=" + dir})
	assert.Error(t, err)

	_, err = lookPath("tool", nil)
	assert.Error(t, err)
}
