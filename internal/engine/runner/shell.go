package runner

import "strings"

const scriptPlaceholder = "{0}"

// shellTemplates are the built-in shells. {0} is replaced by the script path.
var shellTemplates = map[string]struct {
	args []string
	ext  string
}{
	"bash":   {args: []string{"bash", "--noprofile", "--norc", "-eo", "pipefail", scriptPlaceholder}, ext: ".sh"},
	"sh":     {args: []string{"sh", "-e", scriptPlaceholder}, ext: ".sh"},
	"python": {args: []string{"python", scriptPlaceholder}, ext: ".py"},
}

// shellCommand returns the argv running the script at path through shell.
// An empty shell selects bash.
// Custom templates without {0} get the script path appended.
func shellCommand(shell, path string) []string {
	fields := strings.Fields(shell)
	if len(fields) == 0 {
		fields = []string{"bash"}
	}

	var args []string
	if len(fields) == 1 {
		if tmpl, ok := shellTemplates[fields[0]]; ok {
			args = tmpl.args
		}
	}
	if args == nil {
		args = fields
		if !strings.Contains(shell, scriptPlaceholder) {
			args = append(args, scriptPlaceholder)
		}
	}

	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, scriptPlaceholder, path)
	}
	return out
}

// scriptExt returns the extension of scripts run by shell.
func scriptExt(shell string) string {
	fields := strings.Fields(shell)
	if len(fields) > 0 {
		if tmpl, ok := shellTemplates[fields[0]]; ok {
			return tmpl.ext
		}
	}
	return ".sh"
}
