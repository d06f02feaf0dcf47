// Package host provisions isolated job hosts on the local machine.
package host

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.HostProvider = (*Provider)(nil)

// Provider implements ports.HostProvider with one directory tree per job
// under the workflow's state directory.
type Provider struct {
	goos   string
	goarch string
}

// NewProvider creates a Provider for the machine the process runs on.
func NewProvider() *Provider {
	return &Provider{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Provision creates a fresh host directory tree for req.
func (p *Provider) Provision(ctx context.Context, req domain.HostRequest) (*domain.Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labelOS, ok := LabelOS(req.Label, p.goos)
	if !ok {
		return nil, zerr.With(domain.ErrHostUnavailable, "label", req.Label)
	}
	localOS, _ := LabelOS(p.goos, p.goos)
	if labelOS != localOS && !req.AnyHost {
		err := zerr.With(domain.ErrHostUnavailable, "label", req.Label)
		return nil, zerr.With(err, "local_os", localOS)
	}

	id := req.Name
	if id == "" {
		id = "job"
	}
	id += "-" + uuid.NewString()[:8]

	root := filepath.Join(domain.DefaultHostsPath(req.Root), id)
	h := &domain.Host{
		ID:        id,
		Label:     req.Label,
		OS:        localOS,
		Arch:      archName(p.goarch),
		Root:      root,
		Workspace: filepath.Join(root, "workspace"),
		Home:      filepath.Join(root, "home"),
		Temp:      filepath.Join(root, "temp"),
	}

	for _, dir := range []string{h.Workspace, h.Home, h.Temp} {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			_ = os.RemoveAll(root)
			return nil, zerr.With(zerr.Wrap(err, domain.ErrHostProvisionFailed.Error()), "path", dir)
		}
	}

	return h, nil
}

// Teardown removes the host directory tree.
func (p *Provider) Teardown(h *domain.Host) error {
	if h == nil || h.Root == "" {
		return nil
	}
	if err := os.RemoveAll(h.Root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to tear down host"), "host", h.ID)
	}
	return nil
}

// LabelOS maps a runs-on label to the runner OS name. The labels "local"
// and "self-hosted" resolve to the OS of goos.
func LabelOS(label, goos string) (string, bool) {
	l := strings.ToLower(label)
	switch {
	case strings.HasPrefix(l, "ubuntu"), strings.HasPrefix(l, "linux"):
		return domain.OSLinux, true
	case strings.HasPrefix(l, "macos"), strings.HasPrefix(l, "darwin"):
		return domain.OSMacOS, true
	case strings.HasPrefix(l, "windows"):
		return domain.OSWindows, true
	case l == "local", l == "self-hosted":
		return LabelOS(goos, goos)
	default:
		return "", false
	}
}

func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "X64"
	case "386":
		return "X86"
	case "arm64":
		return "ARM64"
	case "arm":
		return "ARM"
	default:
		return strings.ToUpper(goarch)
	}
}
