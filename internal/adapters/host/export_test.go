package host

// NewProviderFor creates a Provider pretending to run on goos/goarch.
func NewProviderFor(goos, goarch string) *Provider {
	return &Provider{goos: goos, goarch: goarch}
}
