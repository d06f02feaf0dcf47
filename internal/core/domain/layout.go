package domain

import "path/filepath"

const (
	// StateDirName is the name of the runner state directory inside the workflow root.
	StateDirName = ".matrix"
	// CacheDirName is the name of the keyed cache directory.
	CacheDirName = "cache"
	// LogsDirName is the name of the per-run log directory.
	LogsDirName = "logs"
	// HostsDirName is the name of the directory holding job hosts.
	HostsDirName = "hosts"
	// HistoryFileName is the name of the run history database.
	HistoryFileName = "history.db"
	// WorkflowFileName is the name of the workflow file.
	WorkflowFileName = "matrix.yaml"
	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750
	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStatePath returns the state directory under root.
func DefaultStatePath(root string) string {
	return filepath.Join(root, StateDirName)
}

// DefaultCachePath returns the keyed cache directory under root.
func DefaultCachePath(root string) string {
	return filepath.Join(root, StateDirName, CacheDirName)
}

// DefaultLogsPath returns the log directory under root.
func DefaultLogsPath(root string) string {
	return filepath.Join(root, StateDirName, LogsDirName)
}

// DefaultHostsPath returns the directory holding job hosts under root.
func DefaultHostsPath(root string) string {
	return filepath.Join(root, StateDirName, HostsDirName)
}

// DefaultHistoryPath returns the path of the run history database under root.
func DefaultHistoryPath(root string) string {
	return filepath.Join(root, StateDirName, HistoryFileName)
}
