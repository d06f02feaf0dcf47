package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Host is the isolated execution host of a single job.
// Every directory lives under Root and is removed on teardown.
type Host struct {
	ID        string
	Label     string
	OS        string
	Arch      string
	Root      string
	Workspace string
	Home      string
	Temp      string
}

// HostRequest describes the host a job asks for.
type HostRequest struct {
	// Root is the workflow root; hosts live under its state directory.
	Root  string
	Label string
	// Name is a filesystem safe job identifier, used to derive the host id.
	Name string
	// AnyHost maps labels of a foreign OS onto the local machine.
	AnyHost bool
}

// Runner OS names exposed as runner.os.
const (
	OSLinux   = "Linux"
	OSMacOS   = "macOS"
	OSWindows = "Windows"
)

// ResolvePath maps a workflow path onto the host. A leading "~" refers to
// the host home and other relative paths to the workspace. The result must
// stay inside Root.
func (h *Host) ResolvePath(p string) (string, error) {
	var abs string
	switch {
	case p == "~":
		abs = h.Home
	case strings.HasPrefix(p, "~/"):
		abs = filepath.Join(h.Home, p[2:])
	case filepath.IsAbs(p):
		abs = filepath.Clean(p)
	default:
		abs = filepath.Join(h.Workspace, p)
	}

	rel, err := filepath.Rel(h.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", zerr.With(ErrPathOutsideHost, "path", p)
	}
	return abs, nil
}
