package appservice

import (
	"errors"
	"strings"
)

const (
	OsWindows = "windows"
	OsLinux   = "linux"
	OsDocker  = "docker"
)

// WebContainerJavaSE marks the bare runtime mode with no servlet container.
// A bare runtime host expects a single executable jar at the deployment root.
const WebContainerJavaSE = "java se"

// RuntimeSpec describes an OS managed runtime.
type RuntimeSpec struct {
	Os           string
	JavaVersion  string
	WebContainer string
}

// DockerSpec describes a container image deployment, including the registry
// credentials needed to pull a private image.
type DockerSpec struct {
	Image          string
	RegistryUrl    string
	Username       string
	Password       string
	StartUpCommand string
}

// DiagnosticConfig carries the application and web server logging settings
// applied when a deployment slot is created.
type DiagnosticConfig struct {
	EnableApplicationLog bool
	ApplicationLogLevel  string
	EnableWebServerLog   bool
	WebServerLogQuota    int
	WebServerRetention   int
}

// WebAppConfig is the desired state of a hosting resource, assembled from the
// command line and configuration file before any remote call is made.
type WebAppConfig struct {
	SubscriptionId           string
	ResourceGroup            string
	AppName                  string
	ServicePlanName          string
	ServicePlanResourceGroup string
	PricingTier              string
	Region                   string

	Runtime *RuntimeSpec
	Docker  *DockerSpec

	AppSettings map[string]string
	Diagnostics *DiagnosticConfig

	DeploymentSlot                    string
	DeploymentSlotConfigurationSource string
	StopAppDuringDeployment           bool

	Artifacts []Artifact
	Resources []DeploymentResource
}

// Validate checks the config before any remote mutation. The runtime and
// docker specifications must be resolvable from the OS family: a docker OS
// requires a docker spec, and any other OS requires a runtime spec.
func (c WebAppConfig) Validate() error {
	if strings.TrimSpace(c.SubscriptionId) == "" {
		return errors.New("subscription id can not be empty")
	}

	if strings.TrimSpace(c.ResourceGroup) == "" {
		return errors.New("resource group can not be empty")
	}

	if strings.TrimSpace(c.AppName) == "" {
		return errors.New("app name can not be empty")
	}

	if c.Runtime == nil && c.Docker == nil {
		return errors.New("either a runtime or a docker configuration must be defined")
	}

	if c.Runtime != nil && strings.EqualFold(c.Runtime.Os, OsDocker) && c.Docker == nil {
		return errors.New("a docker configuration must be defined when the os is " + OsDocker)
	}

	if c.Runtime != nil && c.Docker != nil && !strings.EqualFold(c.Runtime.Os, OsDocker) {
		return errors.New("the runtime and docker configurations are mutually exclusive for the os " + c.Runtime.Os)
	}

	for _, artifact := range c.Artifacts {
		if strings.TrimSpace(artifact.File) == "" {
			return errors.New("artifacts must reference a file")
		}
	}

	return nil
}
