package config

import "os"

// Capabilities is the set of optional features enabled by the environment.
// It is computed once at startup and handed to the router.
type Capabilities struct {
	GoogleOAuth bool
	GitHubOAuth bool
}

func LoadCapabilities() Capabilities {
	return Capabilities{
		GoogleOAuth: os.Getenv("GOOGLE_CLIENT_ID") != "" && os.Getenv("GOOGLE_CLIENT_SECRET") != "",
		GitHubOAuth: os.Getenv("GITHUB_CLIENT_ID") != "" && os.Getenv("GITHUB_CLIENT_SECRET") != "",
	}
}

func (c Capabilities) Providers() []string {
	providers := []string{"local"}
	if c.GoogleOAuth {
		providers = append(providers, "google")
	}
	if c.GitHubOAuth {
		providers = append(providers, "github")
	}
	return providers
}
