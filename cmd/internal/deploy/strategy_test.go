package deploy

import (
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"testing"
)

func TestTypedArtifactsAreAlwaysSeparated(t *testing.T) {
	plan := SelectStrategy([]appservice.Artifact{
		{File: "scripts/startup.sh", DeployType: appservice.DeployTypeStartup},
		{File: "target/app.war"},
		{File: "target/admin.war"},
	})

	if len(plan.Typed) != 1 {
		t.Fatal("Expected one explicitly typed artifact")
	}

	if plan.Typed[0].File != "scripts/startup.sh" {
		t.Fatal("The typed artifact should be the startup script")
	}

	if len(plan.Untyped) != 2 {
		t.Fatal("Expected two untyped artifacts")
	}
}

func TestNoUntypedArtifactsSelectsNone(t *testing.T) {
	plan := SelectStrategy([]appservice.Artifact{
		{File: "lib/driver.jar", DeployType: appservice.DeployTypeLib},
	})

	if plan.Kind != StrategyNone {
		t.Fatal("Expected no strategy when every artifact is explicitly typed")
	}
}

func TestEmptyArtifactSetSelectsNone(t *testing.T) {
	plan := SelectStrategy(nil)

	if plan.Kind != StrategyNone {
		t.Fatal("Expected no strategy for an empty artifact set")
	}
}

func TestSingleUntypedArtifactSelectsSingleFile(t *testing.T) {
	plan := SelectStrategy([]appservice.Artifact{
		{File: "target/app.jar"},
	})

	if plan.Kind != StrategySingleFile {
		t.Fatal("Expected the single file shortcut for one untyped artifact")
	}
}

func TestSingleWarDoesNotFallThroughToMultiWebArchive(t *testing.T) {
	// A single war satisfies the all-web-archive predicate trivially, but the
	// precedence is strict: the single file shortcut wins.
	plan := SelectStrategy([]appservice.Artifact{
		{File: "target/app.war"},
	})

	if plan.Kind != StrategySingleFile {
		t.Fatal("A single war must use the single file shortcut")
	}
}

func TestAllWarsSelectsMultiWebArchive(t *testing.T) {
	plan := SelectStrategy([]appservice.Artifact{
		{File: "target/app.war"},
		{File: "target/admin.war", Path: "admin"},
	})

	if plan.Kind != StrategyMultiWebArchive {
		t.Fatal("Expected the multi web archive strategy when every untyped artifact is a war")
	}
}

func TestMixedArtifactsSelectZip(t *testing.T) {
	plan := SelectStrategy([]appservice.Artifact{
		{File: "target/app.war"},
		{File: "config/settings.xml", Path: "config"},
	})

	if plan.Kind != StrategyZip {
		t.Fatal("Expected the zip fallback when an untyped artifact is not a web archive")
	}
}
