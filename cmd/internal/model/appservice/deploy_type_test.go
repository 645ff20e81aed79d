package appservice

import "testing"

func TestDeployTypeFromFile(t *testing.T) {
	if DeployTypeFromFile("target/app.war") != DeployTypeWar {
		t.Fatal("A war file should infer the war type")
	}

	if DeployTypeFromFile("target/APP.JAR") != DeployTypeJar {
		t.Fatal("Extension inference should ignore case")
	}

	if DeployTypeFromFile("target/app.ear") != DeployTypeEar {
		t.Fatal("An ear file should infer the ear type")
	}

	if DeployTypeFromFile("target/bundle.zip") != DeployTypeZip {
		t.Fatal("A zip file should infer the zip type")
	}

	if DeployTypeFromFile("web.config") != DeployTypeStatic {
		t.Fatal("Any other file should be published as static content")
	}
}

func TestParseDeployType(t *testing.T) {
	deployType, ok := ParseDeployType(" Startup ")

	if !ok || deployType != DeployTypeStartup {
		t.Fatal("A known tag should parse ignoring case and whitespace")
	}

	if _, ok := ParseDeployType("tarball"); ok {
		t.Fatal("An unknown tag must be rejected")
	}
}

func TestIsWebArchive(t *testing.T) {
	if !IsWebArchive("target/app.war") {
		t.Fatal("A war is a web archive")
	}

	if IsWebArchive("target/app.jar") {
		t.Fatal("A jar is not a web archive")
	}
}

func TestResolvedType(t *testing.T) {
	explicit := Artifact{File: "scripts/run.sh", DeployType: DeployTypeStartup}

	if explicit.ResolvedType() != DeployTypeStartup {
		t.Fatal("An explicit type must win over inference")
	}

	inferred := Artifact{File: "target/app.jar"}

	if inferred.ResolvedType() != DeployTypeJar {
		t.Fatal("An untyped artifact must infer its type from the extension")
	}
}
