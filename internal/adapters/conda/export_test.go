package conda

// SetGOOS overrides the platform used to lay out environment directories.
func (e *EnvFactory) SetGOOS(goos string) {
	e.goos = goos
}
