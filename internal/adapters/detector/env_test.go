package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/matrix/internal/adapters/detector"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		isTTY    bool
		ci       string
		expected detector.OutputMode
	}{
		{name: "terminal", isTTY: true, expected: detector.ModeTUI},
		{name: "CI=true forces linear", isTTY: true, ci: "true", expected: detector.ModeLinear},
		{name: "CI=1 forces linear", isTTY: true, ci: "1", expected: detector.ModeLinear},
		{name: "CI=false keeps TUI", isTTY: true, ci: "false", expected: detector.ModeTUI},
		{name: "no terminal", isTTY: false, expected: detector.ModeLinear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detector.Detect(tt.isTTY, tt.ci))
		})
	}
}

func TestDetectEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment())
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name         string
		autoDetected detector.OutputMode
		userFlag     string
		expected     detector.OutputMode
	}{
		{name: "auto keeps TUI", autoDetected: detector.ModeTUI, userFlag: "auto", expected: detector.ModeTUI},
		{name: "auto keeps linear", autoDetected: detector.ModeLinear, userFlag: "auto", expected: detector.ModeLinear},
		{name: "empty keeps detection", autoDetected: detector.ModeTUI, userFlag: "", expected: detector.ModeTUI},
		{name: "tui overrides", autoDetected: detector.ModeLinear, userFlag: "tui", expected: detector.ModeTUI},
		{name: "linear overrides", autoDetected: detector.ModeTUI, userFlag: "linear", expected: detector.ModeLinear},
		{name: "ci overrides", autoDetected: detector.ModeTUI, userFlag: "ci", expected: detector.ModeLinear},
		{name: "unknown keeps detection", autoDetected: detector.ModeTUI, userFlag: "fancy", expected: detector.ModeTUI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detector.ResolveMode(tt.autoDetected, tt.userFlag))
		})
	}
}
