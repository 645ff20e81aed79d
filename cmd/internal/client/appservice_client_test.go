package client

import (
	"encoding/json"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const sitePath = "/subscriptions/sub-1/resourceGroups/rg-1/providers/Microsoft.Web/sites/myapp"

func runningSite() appservice.Site {
	return appservice.Site{
		Name:     "myapp",
		Kind:     "app,linux",
		Location: "westus2",
		Properties: appservice.SiteProperties{
			State:           "Running",
			DefaultHostName: "myapp.azurewebsites.net",
			SiteConfig:      &appservice.SiteConfig{LinuxFxVersion: "TOMCAT|10.0-java17"},
		},
	}
}

func TestGetAppReadsAndCaches(t *testing.T) {
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		if r.URL.Path != sitePath {
			t.Fatal("Unexpected path " + r.URL.Path)
		}

		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Fatal("The bearer token must be sent on every request")
		}

		_ = json.NewEncoder(w).Encode(runningSite())
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL, Token: "token-1"}

	site, exists, err := apiClient.GetApp("sub-1", "rg-1", "myapp")

	if err != nil {
		t.Fatal(err.Error())
	}

	if !exists {
		t.Fatal("The app should exist")
	}

	if site.Properties.DefaultHostName != "myapp.azurewebsites.net" {
		t.Fatal("The site should be decoded from the response")
	}

	if _, _, err := apiClient.GetApp("sub-1", "rg-1", "myapp"); err != nil {
		t.Fatal(err.Error())
	}

	if requests != 1 {
		t.Fatal("The second lookup should be served from the cache")
	}
}

func TestGetAppReturnsAbsentOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL}

	_, exists, err := apiClient.GetApp("sub-1", "rg-1", "myapp")

	if err != nil {
		t.Fatal(err.Error())
	}

	if exists {
		t.Fatal("A 404 means the app does not exist")
	}
}

func TestCreateOrUpdateAppUpserts(t *testing.T) {
	var putBody appservice.Site

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(404)
			return
		}

		if r.Method != http.MethodPut {
			t.Fatal("Unexpected method " + r.Method)
		}

		if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
			t.Fatal(err.Error())
		}

		response := runningSite()
		w.WriteHeader(201)
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL}

	config := appservice.WebAppConfig{
		SubscriptionId: "sub-1",
		ResourceGroup:  "rg-1",
		AppName:        "myapp",
		Region:         "westus2",
		Runtime:        &appservice.RuntimeSpec{Os: appservice.OsLinux, JavaVersion: "17", WebContainer: "tomcat 10.0"},
		AppSettings:    map[string]string{"ENV": "prod"},
	}

	target, err := apiClient.CreateOrUpdateApp(config)

	if err != nil {
		t.Fatal(err.Error())
	}

	if putBody.Location != "westus2" {
		t.Fatal("The region should map to the site location")
	}

	if putBody.Properties.SiteConfig.LinuxFxVersion != "tomcat 10.0|17" {
		t.Fatal("The linux runtime should map into the fx version")
	}

	if len(putBody.Properties.SiteConfig.AppSettings) != 1 || putBody.Properties.SiteConfig.AppSettings[0].Name != "ENV" {
		t.Fatal("The app settings should be sent with the site")
	}

	if target.HostName != "myapp.azurewebsites.net" {
		t.Fatal("The returned handle should reflect the committed state")
	}
}

func TestServicePlanAndTierReachTheCreateRequest(t *testing.T) {
	var putBody appservice.Site

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(404)
			return
		}

		if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
			t.Fatal(err.Error())
		}

		w.WriteHeader(201)
		_ = json.NewEncoder(w).Encode(runningSite())
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL}

	config := appservice.WebAppConfig{
		SubscriptionId:  "sub-1",
		ResourceGroup:   "rg-1",
		AppName:         "myapp",
		Region:          "westus2",
		Runtime:         &appservice.RuntimeSpec{Os: appservice.OsLinux, JavaVersion: "17", WebContainer: "tomcat 10.0"},
		ServicePlanName: "myplan",
		PricingTier:     "P1v2",
	}

	if _, err := apiClient.CreateOrUpdateApp(config); err != nil {
		t.Fatal(err.Error())
	}

	expectedFarm := "/subscriptions/sub-1/resourceGroups/rg-1/providers/Microsoft.Web/serverfarms/myplan"
	if putBody.Properties.ServerFarmId != expectedFarm {
		t.Fatal("The service plan should map to the server farm id, defaulting to the app's resource group")
	}

	if putBody.Sku == nil || putBody.Sku.Name != "P1v2" {
		t.Fatal("The pricing tier should be sent as the sku")
	}
}

func TestServicePlanResourceGroupOverridesTheDefault(t *testing.T) {
	var putBody appservice.Site

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(404)
			return
		}

		if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
			t.Fatal(err.Error())
		}

		w.WriteHeader(201)
		_ = json.NewEncoder(w).Encode(runningSite())
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL}

	config := appservice.WebAppConfig{
		SubscriptionId:           "sub-1",
		ResourceGroup:            "rg-1",
		AppName:                  "myapp",
		Region:                   "westus2",
		Runtime:                  &appservice.RuntimeSpec{Os: appservice.OsLinux, JavaVersion: "17", WebContainer: "tomcat 10.0"},
		ServicePlanName:          "sharedplan",
		ServicePlanResourceGroup: "rg-shared",
	}

	if _, err := apiClient.CreateOrUpdateApp(config); err != nil {
		t.Fatal(err.Error())
	}

	expectedFarm := "/subscriptions/sub-1/resourceGroups/rg-shared/providers/Microsoft.Web/serverfarms/sharedplan"
	if putBody.Properties.ServerFarmId != expectedFarm {
		t.Fatal("The plan's own resource group should win over the app's")
	}

	if putBody.Sku != nil {
		t.Fatal("No sku should be sent when no pricing tier is configured")
	}
}

func TestCreateSlotClonesTheSourceAndMergesSettings(t *testing.T) {
	var putBody appservice.Site

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sitePath+"/slots/staging" {
			t.Fatal("Unexpected path " + r.URL.Path)
		}

		if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
			t.Fatal(err.Error())
		}

		_ = json.NewEncoder(w).Encode(runningSite())
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL}

	parent := &appservice.Target{
		SubscriptionId: "sub-1",
		ResourceGroup:  "rg-1",
		AppName:        "myapp",
		Location:       "westus2",
	}

	source := runningSite()
	source.Properties.SiteConfig.AppSettings = []appservice.NameValuePair{
		{Name: "ENV", Value: "prod"},
		{Name: "REGION", Value: "westus2"},
	}

	_, err := apiClient.CreateSlot(parent, "staging", &source, map[string]string{"ENV": "staging"}, nil)

	if err != nil {
		t.Fatal(err.Error())
	}

	if putBody.Properties.SiteConfig.LinuxFxVersion != "TOMCAT|10.0-java17" {
		t.Fatal("The source configuration should be cloned into the slot")
	}

	settings := map[string]string{}
	for _, pair := range putBody.Properties.SiteConfig.AppSettings {
		settings[pair.Name] = pair.Value
	}

	if settings["ENV"] != "staging" {
		t.Fatal("The configured settings must override the cloned ones")
	}

	if settings["REGION"] != "westus2" {
		t.Fatal("Cloned settings not overridden must be retained")
	}
}

func TestStartAndStopPostLifecycleActions(t *testing.T) {
	actions := []string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatal("Lifecycle actions must be POSTs")
		}

		actions = append(actions, filepath.Base(r.URL.Path))
	}))
	defer server.Close()

	apiClient := &AzureApiClient{Url: server.URL}
	target := &appservice.Target{SubscriptionId: "sub-1", ResourceGroup: "rg-1", AppName: "myapp"}

	if err := apiClient.Stop(target); err != nil {
		t.Fatal(err.Error())
	}

	if target.State != appservice.StateStopped {
		t.Fatal("A successful stop should update the handle state")
	}

	if err := apiClient.Start(target); err != nil {
		t.Fatal(err.Error())
	}

	if target.State != appservice.StateRunning {
		t.Fatal("A successful start should update the handle state")
	}

	if len(actions) != 2 || actions[0] != "stop" || actions[1] != "start" {
		t.Fatal("Expected a stop followed by a start")
	}
}

func TestDeployFileSendsTypeAndPath(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "app.war")

	if err := os.WriteFile(artifact, []byte("war contents"), 0644); err != nil {
		t.Fatal(err.Error())
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/publish" {
			t.Fatal("Unexpected path " + r.URL.Path)
		}

		if r.URL.Query().Get("type") != "war" || r.URL.Query().Get("path") != "admin" {
			t.Fatal("The deploy type and target path must travel as query parameters")
		}

		body, _ := io.ReadAll(r.Body)
		if string(body) != "war contents" {
			t.Fatal("The artifact contents must be the request body")
		}
	}))
	defer server.Close()

	apiClient := &AzureApiClient{ScmUrl: server.URL}
	target := &appservice.Target{AppName: "myapp", HostName: "myapp.azurewebsites.net"}

	if err := apiClient.DeployFile(target, appservice.DeployTypeWar, artifact, "admin"); err != nil {
		t.Fatal(err.Error())
	}
}

func TestDeployZipPublishesTheArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")

	if err := os.WriteFile(archive, []byte("zip contents"), 0644); err != nil {
		t.Fatal(err.Error())
	}

	published := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "zip" {
			t.Fatal("A zip deploy must publish with the zip type")
		}

		published = true
	}))
	defer server.Close()

	apiClient := &AzureApiClient{ScmUrl: server.URL}
	target := &appservice.Target{AppName: "myapp"}

	if err := apiClient.DeployZip(target, archive); err != nil {
		t.Fatal(err.Error())
	}

	if !published {
		t.Fatal("The archive should have been published")
	}
}

func TestPushFilesUploadsEachResource(t *testing.T) {
	dir := t.TempDir()
	license := filepath.Join(dir, "license.txt")

	if err := os.WriteFile(license, []byte("licensed"), 0644); err != nil {
		t.Fatal(err.Error())
	}

	uploads := []string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatal("Side channel uploads must be PUTs")
		}

		uploads = append(uploads, r.URL.Path)
		w.WriteHeader(201)
	}))
	defer server.Close()

	apiClient := &AzureApiClient{ScmUrl: server.URL}
	target := &appservice.Target{AppName: "myapp"}

	resources := []appservice.DeploymentResource{
		{File: license, Target: "docs", External: true},
	}

	if err := apiClient.PushFiles(target, resources); err != nil {
		t.Fatal(err.Error())
	}

	if len(uploads) != 1 || uploads[0] != "/api/vfs/site/wwwroot/docs/license.txt" {
		t.Fatal("The resource should land under its target directory")
	}
}
