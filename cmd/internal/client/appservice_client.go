package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/strutil"
	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"
)

const apiVersion = "2022-03-01"

// AppServiceClient is the narrow surface of the management and publishing
// planes that the deployment orchestration needs. All calls are synchronous
// blocking network operations.
type AppServiceClient interface {
	GetApp(subscriptionId string, resourceGroup string, appName string) (site *appservice.Site, exists bool, funcErr error)
	GetSlot(subscriptionId string, resourceGroup string, appName string, slotName string) (site *appservice.Site, exists bool, funcErr error)
	CreateOrUpdateApp(config appservice.WebAppConfig) (*appservice.Target, error)
	CreateSlot(parent *appservice.Target, slotName string, source *appservice.Site, settings map[string]string, diagnostics *appservice.DiagnosticConfig) (*appservice.Site, error)
	Refresh(target *appservice.Target) error
	Start(target *appservice.Target) error
	Stop(target *appservice.Target) error
	DeployFile(target *appservice.Target, deployType appservice.DeployType, file string, targetPath string) error
	DeployZip(target *appservice.Target, zipFile string) error
	PushFiles(target *appservice.Target, resources []appservice.DeploymentResource) error
}

// AzureApiClient talks to the Azure resource manager and to the site's
// publishing service over plain HTTP.
type AzureApiClient struct {
	// Url is the management plane endpoint, typically https://management.azure.com
	Url   string
	Token string
	// ScmUrl overrides the publishing endpoint derived from the site's host
	// name. Used by tests; leave empty in production.
	ScmUrl string

	// cache holds raw site responses keyed by resource path. Lookups of the
	// same identity are also deduplicated in flight via the singleflight group.
	cache   map[string][]byte
	cacheMu sync.Mutex
	group   singleflight.Group
}

func (c *AzureApiClient) siteUrl(subscriptionId string, resourceGroup string, appName string, slotName string) string {
	sitePath := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/sites/%s",
		url.PathEscape(subscriptionId), url.PathEscape(resourceGroup), url.PathEscape(appName))

	if slotName != "" {
		sitePath += "/slots/" + url.PathEscape(slotName)
	}

	return c.Url + sitePath
}

func (c *AzureApiClient) newRequest(method string, requestUrl string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, requestUrl+"?api-version="+apiVersion, body)

	if err != nil {
		return nil, err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *AzureApiClient) readCache(key string) []byte {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if c.cache == nil {
		return nil
	}

	return c.cache[key]
}

func (c *AzureApiClient) cacheResult(key string, body []byte) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if c.cache == nil {
		c.cache = map[string][]byte{}
	}

	c.cache[key] = body
}

func (c *AzureApiClient) clearCache(key string) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	delete(c.cache, key)
}

// getSite performs a management plane read, returning exists = false on a 404.
// Reads occasionally fail just after a create while the resource propagates,
// so add a retry.
func (c *AzureApiClient) getSite(requestUrl string) (site *appservice.Site, exists bool, funcErr error) {
	if cacheHit := c.readCache(requestUrl); cacheHit != nil {
		zap.L().Debug("Cache hit on " + requestUrl)

		result := appservice.Site{}
		if err := json.Unmarshal(cacheHit, &result); err != nil {
			return nil, false, err
		}

		return &result, true, nil
	}

	body, err, _ := c.group.Do(requestUrl, func() (any, error) {
		return retry.DoWithData(func() ([]byte, error) {
			req, err := c.newRequest(http.MethodGet, requestUrl, nil)

			if err != nil {
				return nil, err
			}

			res, err := http.DefaultClient.Do(req)

			if err != nil {
				return nil, err
			}

			if res.StatusCode == 404 {
				return nil, nil
			}

			if res.StatusCode != 200 {
				return nil, errors.New("failed to read the resource at " + requestUrl + ": status " + fmt.Sprint(res.StatusCode))
			}
			defer func(Body io.ReadCloser) {
				err := Body.Close()
				if err != nil {
					zap.L().Error(err.Error())
				}
			}(res.Body)

			return io.ReadAll(res.Body)
		}, retry.Attempts(3), retry.Delay(1*time.Second))
	})

	if err != nil {
		return nil, false, err
	}

	rawBody := body.([]byte)

	if rawBody == nil {
		return nil, false, nil
	}

	c.cacheResult(requestUrl, rawBody)

	result := appservice.Site{}
	if err := json.Unmarshal(rawBody, &result); err != nil {
		return nil, false, err
	}

	return &result, true, nil
}

func (c *AzureApiClient) putSite(requestUrl string, site appservice.Site) (funcResult *appservice.Site, funcErr error) {
	payload, err := json.Marshal(site)

	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(http.MethodPut, requestUrl, bytes.NewReader(payload))

	if err != nil {
		return nil, err
	}

	res, err := http.DefaultClient.Do(req)

	if err != nil {
		return nil, err
	}

	if res.StatusCode != 200 && res.StatusCode != 201 && res.StatusCode != 202 {
		return nil, errors.New("failed to write the resource at " + requestUrl + ": status " + fmt.Sprint(res.StatusCode))
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	// The write invalidates any cached read of the same resource.
	c.clearCache(requestUrl)

	result := appservice.Site{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *AzureApiClient) GetApp(subscriptionId string, resourceGroup string, appName string) (*appservice.Site, bool, error) {
	return c.getSite(c.siteUrl(subscriptionId, resourceGroup, appName, ""))
}

func (c *AzureApiClient) GetSlot(subscriptionId string, resourceGroup string, appName string, slotName string) (*appservice.Site, bool, error) {
	if strings.TrimSpace(slotName) == "" {
		return nil, false, errors.New("slot name can not be empty")
	}

	return c.getSite(c.siteUrl(subscriptionId, resourceGroup, appName, slotName))
}

// CreateOrUpdateApp is the idempotent upsert of the base app. The management
// plane treats a PUT of an existing site as an update, so both branches
// reduce to building the desired site shape and writing it.
func (c *AzureApiClient) CreateOrUpdateApp(config appservice.WebAppConfig) (*appservice.Target, error) {
	requestUrl := c.siteUrl(config.SubscriptionId, config.ResourceGroup, config.AppName, "")

	existing, exists, err := c.getSite(requestUrl)

	if err != nil {
		return nil, err
	}

	desired := siteFromConfig(config)

	if exists {
		zap.L().Debug("Updating existing web app " + config.AppName)
		desired.Location = existing.Location
	} else {
		zap.L().Debug("Creating web app " + config.AppName)
	}

	created, err := c.putSite(requestUrl, desired)

	if err != nil {
		return nil, err
	}

	return appservice.TargetFromSite(*created, config.SubscriptionId, config.ResourceGroup, config.AppName, ""), nil
}

// CreateSlot creates a named deployment slot under the parent app. A nil
// source means a brand new blank configuration; otherwise the source site's
// configuration is cloned into the new slot.
func (c *AzureApiClient) CreateSlot(parent *appservice.Target, slotName string, source *appservice.Site, settings map[string]string, diagnostics *appservice.DiagnosticConfig) (*appservice.Site, error) {
	slot := appservice.Site{
		Location: parent.Location,
	}

	if source != nil {
		slot.Kind = source.Kind
		if source.Properties.SiteConfig != nil {
			configCopy := *source.Properties.SiteConfig
			slot.Properties.SiteConfig = &configCopy
		}
	}

	if len(settings) > 0 {
		if slot.Properties.SiteConfig == nil {
			slot.Properties.SiteConfig = &appservice.SiteConfig{}
		}

		slot.Properties.SiteConfig.AppSettings = mergeAppSettings(slot.Properties.SiteConfig.AppSettings, settings)
	}

	requestUrl := c.siteUrl(parent.SubscriptionId, parent.ResourceGroup, parent.AppName, slotName)

	created, err := c.putSite(requestUrl, slot)

	if err != nil {
		return nil, err
	}

	if diagnostics != nil {
		if err := c.applyDiagnostics(requestUrl, diagnostics); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// applyDiagnostics writes the slot's log configuration, which the management
// plane models as a separate config resource under the site.
func (c *AzureApiClient) applyDiagnostics(siteUrl string, diagnostics *appservice.DiagnosticConfig) (funcErr error) {
	logs := appservice.SiteLogsConfig{}

	if diagnostics.EnableApplicationLog {
		logs.ApplicationLogs = &appservice.ApplicationLogsConfig{}
		logs.ApplicationLogs.FileSystem.Level = diagnostics.ApplicationLogLevel
	}

	if diagnostics.EnableWebServerLog {
		logs.HttpLogs = &appservice.HttpLogsConfig{}
		logs.HttpLogs.FileSystem.RetentionInMb = diagnostics.WebServerLogQuota
		logs.HttpLogs.FileSystem.RetentionInDays = diagnostics.WebServerRetention
	}

	payload, err := json.Marshal(map[string]any{"properties": logs})

	if err != nil {
		return err
	}

	req, err := c.newRequest(http.MethodPut, siteUrl+"/config/logs", bytes.NewReader(payload))

	if err != nil {
		return err
	}

	res, err := http.DefaultClient.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	if res.StatusCode != 200 {
		return errors.New("failed to apply the diagnostic configuration: status " + fmt.Sprint(res.StatusCode))
	}

	return nil
}

// Refresh re-reads the remote state of the resource and updates the handle in
// place.
func (c *AzureApiClient) Refresh(target *appservice.Target) error {
	requestUrl := c.siteUrl(target.SubscriptionId, target.ResourceGroup, target.AppName, target.SlotName)

	c.clearCache(requestUrl)

	site, exists, err := c.getSite(requestUrl)

	if err != nil {
		return err
	}

	if !exists {
		return errors.New("the resource " + target.SiteName() + " no longer exists")
	}

	*target = *appservice.TargetFromSite(*site, target.SubscriptionId, target.ResourceGroup, target.AppName, target.SlotName)

	return nil
}

func (c *AzureApiClient) Start(target *appservice.Target) error {
	if err := c.postAction(target, "start"); err != nil {
		return err
	}

	target.State = appservice.StateRunning

	return nil
}

func (c *AzureApiClient) Stop(target *appservice.Target) error {
	if err := c.postAction(target, "stop"); err != nil {
		return err
	}

	target.State = appservice.StateStopped

	return nil
}

func (c *AzureApiClient) postAction(target *appservice.Target, action string) (funcErr error) {
	requestUrl := c.siteUrl(target.SubscriptionId, target.ResourceGroup, target.AppName, target.SlotName) + "/" + action

	req, err := c.newRequest(http.MethodPost, requestUrl, nil)

	if err != nil {
		return err
	}

	res, err := http.DefaultClient.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	if res.StatusCode != 200 {
		return errors.New("failed to " + action + " " + target.SiteName() + ": status " + fmt.Sprint(res.StatusCode))
	}

	return nil
}

func (c *AzureApiClient) scmBase(target *appservice.Target) string {
	if c.ScmUrl != "" {
		return c.ScmUrl
	}

	return "https://" + target.ScmHostName()
}

// DeployFile publishes a single file through the one deploy API, with the
// payload kind and the target path carried as query parameters.
func (c *AzureApiClient) DeployFile(target *appservice.Target, deployType appservice.DeployType, file string, targetPath string) error {
	publishUrl := c.scmBase(target) + "/api/publish?type=" + url.QueryEscape(string(deployType))

	if targetPath != "" {
		publishUrl += "&path=" + url.QueryEscape(targetPath)
	}

	return c.publish(publishUrl, file)
}

// DeployZip publishes a zip archive that the remote side expands atomically
// over the deployment root.
func (c *AzureApiClient) DeployZip(target *appservice.Target, zipFile string) error {
	return c.publish(c.scmBase(target)+"/api/publish?type=zip", zipFile)
}

func (c *AzureApiClient) publish(publishUrl string, file string) (funcErr error) {
	payload, err := os.Open(file)

	if err != nil {
		return err
	}

	defer func(payload *os.File) {
		err := payload.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(payload)

	req, err := http.NewRequest(http.MethodPost, publishUrl, payload)

	if err != nil {
		return err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	req.Header.Set("Content-Type", "application/octet-stream")

	res, err := http.DefaultClient.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	if res.StatusCode != 200 && res.StatusCode != 202 {
		return errors.New("failed to publish " + file + ": status " + fmt.Sprint(res.StatusCode))
	}

	return nil
}

// PushFiles uploads auxiliary resources through the publishing service's file
// API, one request per file. This is a side channel independent of the main
// deploy API.
func (c *AzureApiClient) PushFiles(target *appservice.Target, resources []appservice.DeploymentResource) error {
	for _, resource := range resources {
		remotePath := path.Join("site/wwwroot", resource.Target, path.Base(resource.File))

		if err := c.pushFile(target, resource.File, remotePath); err != nil {
			return err
		}
	}

	return nil
}

func (c *AzureApiClient) pushFile(target *appservice.Target, file string, remotePath string) (funcErr error) {
	payload, err := os.Open(file)

	if err != nil {
		return err
	}

	defer func(payload *os.File) {
		err := payload.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(payload)

	req, err := http.NewRequest(http.MethodPut, c.scmBase(target)+"/api/vfs/"+remotePath, payload)

	if err != nil {
		return err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	// Overwrite whatever revision is already there.
	req.Header.Set("If-Match", "*")

	res, err := http.DefaultClient.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	if res.StatusCode != 200 && res.StatusCode != 201 && res.StatusCode != 204 {
		return errors.New("failed to push " + file + ": status " + fmt.Sprint(res.StatusCode))
	}

	return nil
}

func mergeAppSettings(existing []appservice.NameValuePair, settings map[string]string) []appservice.NameValuePair {
	retained := lo.Filter(existing, func(pair appservice.NameValuePair, index int) bool {
		_, overridden := settings[pair.Name]
		return !overridden
	})

	added := lo.MapToSlice(settings, func(name string, value string) appservice.NameValuePair {
		return appservice.NameValuePair{Name: name, Value: value}
	})

	merged := append(retained, added...)

	// Map iteration order is random, so sort for stable request bodies.
	slices.SortFunc(merged, func(a appservice.NameValuePair, b appservice.NameValuePair) int {
		return strings.Compare(a.Name, b.Name)
	})

	return merged
}

func siteFromConfig(config appservice.WebAppConfig) appservice.Site {
	runtime := appservice.RuntimeConfigOf(config.Runtime, config.Docker)

	siteConfig := &appservice.SiteConfig{
		AppCommandLine: runtime.StartUpCommand,
		AppSettings:    mergeAppSettings(nil, config.AppSettings),
	}

	site := appservice.Site{
		Location: config.Region,
		Properties: appservice.SiteProperties{
			SiteConfig: siteConfig,
		},
	}

	if config.ServicePlanName != "" {
		site.Properties.ServerFarmId = fmt.Sprintf(
			"/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Web/serverfarms/%s",
			config.SubscriptionId,
			strutil.DefaultIfEmpty(config.ServicePlanResourceGroup, config.ResourceGroup),
			config.ServicePlanName)
	}

	if config.PricingTier != "" {
		site.Sku = &appservice.SkuDescription{Name: config.PricingTier}
	}

	switch {
	case runtime.IsDocker():
		site.Kind = "app,linux,container"
		siteConfig.LinuxFxVersion = "DOCKER|" + runtime.Image

		// Private registry credentials travel as well known app settings.
		registrySettings := map[string]string{}

		if runtime.RegistryUrl != "" {
			registrySettings["DOCKER_REGISTRY_SERVER_URL"] = runtime.RegistryUrl
		}

		if runtime.Username != "" {
			registrySettings["DOCKER_REGISTRY_SERVER_USERNAME"] = runtime.Username
		}

		if runtime.Password != "" {
			registrySettings["DOCKER_REGISTRY_SERVER_PASSWORD"] = runtime.Password
		}

		siteConfig.AppSettings = mergeAppSettings(siteConfig.AppSettings, registrySettings)
	case strings.EqualFold(runtime.Os, appservice.OsLinux):
		site.Kind = "app,linux"
		siteConfig.LinuxFxVersion = runtime.WebContainer + "|" + runtime.JavaVersion
	default:
		site.Kind = "app"
		siteConfig.JavaVersion = runtime.JavaVersion
		siteConfig.JavaContainer = runtime.WebContainer
	}

	return site
}
