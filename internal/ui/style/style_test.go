package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/matrix/internal/ui/style"
)

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status string
		icon   string
	}{
		{status: "passed", icon: style.Check},
		{status: "failed", icon: style.Cross},
		{status: "cancelled", icon: style.Warning},
		{status: "skipped", icon: style.Skip},
		{status: "running", icon: style.Circle},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			icon, _ := style.StatusIcon(tt.status)
			assert.Equal(t, tt.icon, icon)
		})
	}
}
