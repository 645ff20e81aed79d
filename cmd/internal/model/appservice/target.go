package appservice

import "strings"

const (
	StateRunning = "running"
	StateStopped = "stopped"
	StateUnknown = "unknown"
)

// Target is a live hosting resource handle, either a base app or a named
// deployment slot, resolved from the remote state by the reconciler. The
// handle is what the deploy phase operates on; it is never destroyed locally.
type Target struct {
	SubscriptionId string
	ResourceGroup  string
	AppName        string
	SlotName       string

	Location string
	HostName string
	State    string
	Runtime  RuntimeConfig
}

// IsSlot reports whether the handle refers to a named deployment slot rather
// than the base app.
func (t Target) IsSlot() bool {
	return t.SlotName != ""
}

// SiteName is the provider facing name of the resource, which for a slot is
// the parent app name qualified with the slot name.
func (t Target) SiteName() string {
	if t.IsSlot() {
		return t.AppName + "/" + t.SlotName
	}

	return t.AppName
}

// ScmHostName derives the host of the publishing service from the resource's
// public host name.
func (t Target) ScmHostName() string {
	return strings.Replace(t.HostName, ".azurewebsites.net", ".scm.azurewebsites.net", 1)
}

// TargetFromSite maps a management plane site onto a live resource handle.
func TargetFromSite(site Site, subscriptionId string, resourceGroup string, appName string, slotName string) *Target {
	state := StateUnknown

	switch strings.ToLower(site.Properties.State) {
	case "running":
		state = StateRunning
	case "stopped":
		state = StateStopped
	}

	target := &Target{
		SubscriptionId: subscriptionId,
		ResourceGroup:  resourceGroup,
		AppName:        appName,
		SlotName:       slotName,
		Location:       site.Location,
		HostName:       site.Properties.DefaultHostName,
		State:          state,
	}

	if site.Properties.SiteConfig != nil {
		target.Runtime = runtimeConfigFromSite(site)
	}

	return target
}

func runtimeConfigFromSite(site Site) RuntimeConfig {
	config := RuntimeConfig{
		JavaVersion:    site.Properties.SiteConfig.JavaVersion,
		WebContainer:   site.Properties.SiteConfig.JavaContainer,
		StartUpCommand: site.Properties.SiteConfig.AppCommandLine,
	}

	if strings.Contains(strings.ToLower(site.Kind), "linux") {
		config.Os = OsLinux
	} else {
		config.Os = OsWindows
	}

	linuxFx := site.Properties.SiteConfig.LinuxFxVersion

	if strings.HasPrefix(strings.ToUpper(linuxFx), "DOCKER|") {
		config.Os = OsDocker
		config.Image = strings.TrimPrefix(linuxFx, "DOCKER|")
	} else if container, version, found := strings.Cut(linuxFx, "|"); found {
		config.WebContainer = container
		config.JavaVersion = version
	}

	return config
}
