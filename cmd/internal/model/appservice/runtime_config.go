package appservice

import "strings"

// RuntimeConfig is the provider native configuration shape for a hosting
// resource. Runtime and docker specifications both map onto it, with docker
// fields overlaying the OS determined runtime fields.
type RuntimeConfig struct {
	Os           string
	JavaVersion  string
	WebContainer string

	Image          string
	RegistryUrl    string
	Username       string
	Password       string
	StartUpCommand string
}

// RuntimeConfigOf maps the runtime and docker specifications onto the
// provider native shape. Fields simply accumulate; conflict detection is the
// caller's responsibility.
func RuntimeConfigOf(runtime *RuntimeSpec, docker *DockerSpec) RuntimeConfig {
	config := RuntimeConfig{}

	if runtime != nil {
		config.Os = runtime.Os
		config.JavaVersion = runtime.JavaVersion
		config.WebContainer = runtime.WebContainer
	}

	if docker != nil {
		config.Image = docker.Image
		config.RegistryUrl = docker.RegistryUrl
		config.Username = docker.Username
		config.Password = docker.Password
		config.StartUpCommand = docker.StartUpCommand
	}

	return config
}

// IsDocker reports whether the resource runs a container image rather than an
// OS managed runtime. Docker deployments are rolled out by repointing the
// image reference, never by file transfer.
func (r RuntimeConfig) IsDocker() bool {
	return strings.EqualFold(r.Os, OsDocker) || r.Image != ""
}

// IsBareRuntime reports whether the resource runs with no servlet container,
// expecting a single canonically named executable jar.
func (r RuntimeConfig) IsBareRuntime() bool {
	return strings.EqualFold(r.WebContainer, WebContainerJavaSE)
}
