package domain

// Command is a single process invocation on a job host.
type Command struct {
	// Name identifies the command in logs, usually the step name.
	Name string
	// Args is the argv of the process; Args[0] is looked up in PATH.
	Args []string
	// Dir is the working directory of the process.
	Dir string
	// Environment holds overrides applied on top of the provisioned environment.
	Environment map[string]string
}

// EnvironmentSpec describes a named environment to provision on a host.
type EnvironmentSpec struct {
	// Name is the environment name (e.g. the conda environment to activate).
	Name string
	// File is the environment-description file, relative to the host workspace.
	File string
	// RuntimeVersion pins the language runtime (e.g. the python version axis value).
	RuntimeVersion string
	// Host is the host the environment is created on.
	Host *Host
}
