package appservice

// Artifact is a single deployable file. Path is the directory the file lands
// in on the remote side, relative to the deployment root; an empty path means
// the root itself. DeployType is optional, and when empty it is inferred from
// the file extension at deploy time.
type Artifact struct {
	File       string
	Path       string
	DeployType DeployType
}

// HasExplicitType reports whether the artifact carries a user supplied deploy
// type rather than relying on extension inference.
func (a Artifact) HasExplicitType() bool {
	return a.DeployType != ""
}

// ResolvedType returns the explicit deploy type when set, otherwise the type
// inferred from the file extension.
func (a Artifact) ResolvedType() DeployType {
	if a.HasExplicitType() {
		return a.DeployType
	}

	return DeployTypeFromFile(a.File)
}

// DeploymentResource is an auxiliary file configured alongside the build
// artifacts. External resources are not part of the main deploy payload and
// are pushed through the file transfer side channel after the deploy.
type DeploymentResource struct {
	File     string
	Target   string
	External bool
}
