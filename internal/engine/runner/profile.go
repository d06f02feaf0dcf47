package runner

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/zerr"
)

// loginProfiles are read by login shells after the system profile.
// bash takes the first of .bash_profile, .bash_login and .profile; sh reads .profile.
var loginProfiles = []string{".bash_profile", ".profile"}

// writeLoginProfile re-exports the provisioned environment from the user
// profiles in home. A login shell such as "bash -l {0}" sources the system
// profile first, which may replace PATH outright.
func writeLoginProfile(home string, provisioned []string) error {
	if len(provisioned) == 0 {
		return nil
	}

	data := []byte(loginProfile(provisioned))
	for _, name := range loginProfiles {
		path := filepath.Join(home, name)
		if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to write login profile"), "path", path)
		}
	}
	return nil
}

// loginProfile renders provisioned with the same precedence the executor
// applies: later PATH entries are prepended, other variables are replaced.
func loginProfile(provisioned []string) string {
	vars := make(map[string]string)
	var path []string
	for _, entry := range provisioned {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			path = append([]string{v}, path...)
			continue
		}
		vars[k] = v
	}

	var b strings.Builder
	b.WriteString("# Provisioned environment, restored after the system profile.\n")
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		b.WriteString("export " + k + "=" + shellQuote(vars[k]) + "\n")
	}
	if len(path) > 0 {
		b.WriteString("export PATH=" + shellQuote(strings.Join(path, ":")) + ":\"$PATH\"\n")
	}
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
