package appservice

import (
	"k8s.io/utils/strings/slices"
	"path/filepath"
	"strings"
)

// DeployType identifies the kind of payload sent through the single file
// publish API. The provider treats each kind differently on the remote side,
// for example a war is exploded under wwwroot while a lib lands in the
// app_data directory.
type DeployType string

const (
	DeployTypeWar     DeployType = "war"
	DeployTypeJar     DeployType = "jar"
	DeployTypeEar     DeployType = "ear"
	DeployTypeLib     DeployType = "lib"
	DeployTypeStatic  DeployType = "static"
	DeployTypeStartup DeployType = "startup"
	DeployTypeScript  DeployType = "script"
	DeployTypeZip     DeployType = "zip"
)

var knownDeployTypes = []string{
	string(DeployTypeWar),
	string(DeployTypeJar),
	string(DeployTypeEar),
	string(DeployTypeLib),
	string(DeployTypeStatic),
	string(DeployTypeStartup),
	string(DeployTypeScript),
	string(DeployTypeZip),
}

var webArchiveExtensions = []string{".war"}

// ParseDeployType converts a user supplied type tag to a DeployType,
// returning false if the tag does not name a known type.
func ParseDeployType(tag string) (DeployType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(tag))

	if !slices.Contains(knownDeployTypes, normalized) {
		return "", false
	}

	return DeployType(normalized), true
}

// DeployTypeFromFile infers the deploy type from the file extension. Files
// with no archive extension are published as static content.
func DeployTypeFromFile(file string) DeployType {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".war":
		return DeployTypeWar
	case ".jar":
		return DeployTypeJar
	case ".ear":
		return DeployTypeEar
	case ".zip":
		return DeployTypeZip
	default:
		return DeployTypeStatic
	}
}

// IsWebArchive reports whether the file is a web archive that the hosting
// platform can address at its own target path.
func IsWebArchive(file string) bool {
	return slices.Contains(webArchiveExtensions, strings.ToLower(filepath.Ext(file)))
}
