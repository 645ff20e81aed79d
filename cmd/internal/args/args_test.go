package args

import (
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"testing"
)

func TestParseFlagsCorrect(t *testing.T) {
	args, _, err := ParseArgs([]string{
		"-subscriptionId",
		"sub-1",
		"-resourceGroup",
		"rg-1",
		"-appName",
		"myapp",
		"-accessToken",
		"token-1",
		"-stopAppDuringDeployment",
	})

	if err != nil {
		t.Fatalf("Should not have returned an error")
	}

	if args.SubscriptionId != "sub-1" {
		t.Fatalf("SubscriptionId should have been sub-1")
	}

	if args.ResourceGroup != "rg-1" {
		t.Fatalf("ResourceGroup should have been rg-1")
	}

	if args.AppName != "myapp" {
		t.Fatalf("AppName should have been myapp")
	}

	if !args.StopAppDuringDeployment {
		t.Fatalf("StopAppDuringDeployment should have been true")
	}
}

func TestParseRepeatedFlags(t *testing.T) {
	args, _, err := ParseArgs([]string{
		"-artifact",
		"target/app.war",
		"-artifact",
		"target/admin.war,admin",
		"-appSetting",
		"ENV=staging",
	})

	if err != nil {
		t.Fatalf("Should not have returned an error")
	}

	if len(args.Artifacts) != 2 {
		t.Fatalf("Expected two artifact arguments")
	}

	if len(args.AppSettings) != 1 {
		t.Fatalf("Expected one app setting argument")
	}
}

func TestToWebAppConfig(t *testing.T) {
	args, _, err := ParseArgs([]string{
		"-subscriptionId", "sub-1",
		"-resourceGroup", "rg-1",
		"-appName", "myapp",
		"-os", "linux",
		"-javaVersion", "17",
		"-webContainer", "tomcat 10.0",
		"-appSetting", "ENV=staging",
		"-slot", "staging",
		"-artifact", "target/app.war,admin,war",
		"-artifact", "config/settings.xml,config",
		"-resource", "target/bundled.txt",
		"-externalResource", "extra/license.txt,docs",
	})

	if err != nil {
		t.Fatalf("Should not have returned an error")
	}

	config, err := args.ToWebAppConfig()

	if err != nil {
		t.Fatal(err.Error())
	}

	if config.Runtime == nil || config.Runtime.WebContainer != "tomcat 10.0" {
		t.Fatal("The runtime spec should be populated")
	}

	if config.Docker != nil {
		t.Fatal("No docker spec should be populated")
	}

	if config.AppSettings["ENV"] != "staging" {
		t.Fatal("The app settings should be parsed into a map")
	}

	if config.DeploymentSlot != "staging" {
		t.Fatal("The slot name should be mapped")
	}

	if len(config.Artifacts) != 2 {
		t.Fatal("Expected two artifacts")
	}

	if config.Artifacts[0].DeployType != appservice.DeployTypeWar || config.Artifacts[0].Path != "admin" {
		t.Fatal("The artifact path and explicit type should be parsed")
	}

	if config.Artifacts[1].DeployType != "" {
		t.Fatal("An artifact with no type tag should stay untyped")
	}

	if len(config.Resources) != 2 {
		t.Fatal("Expected two resources")
	}

	if config.Resources[0].External || !config.Resources[1].External {
		t.Fatal("Only the externalResource argument should be flagged external")
	}
}

func TestToWebAppConfigRejectsUnknownDeployType(t *testing.T) {
	args, _, err := ParseArgs([]string{
		"-artifact", "target/app.tar,root,tarball",
	})

	if err != nil {
		t.Fatalf("Should not have returned an error")
	}

	if _, err := args.ToWebAppConfig(); err == nil {
		t.Fatal("An unknown deploy type tag must be rejected")
	}
}
