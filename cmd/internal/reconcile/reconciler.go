package reconcile

import (
	"errors"
	"fmt"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/client"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/messenger"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/strutil"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/telemetry"
	"strings"
)

// ErrConfiguration marks errors in the declared configuration, like a slot
// requested under an app that does not exist. These surface before any remote
// mutation and are never retried.
var ErrConfiguration = errors.New("invalid deployment configuration")

// ErrResource marks provider side failures during lookup, create or update.
var ErrResource = errors.New("app service resource operation failed")

const (
	configurationSourceNew    = "new"
	configurationSourceParent = "parent"

	webAppNotExistForSlotMessage     = "The web app specified in the configuration does not exist. Please make sure the web app name is correct."
	configurationSourceMissing       = "the target slot configuration source does not exist in the current web app"
	configurationSourceLookupFailure = "failed to get the configuration source slot"

	createSlotMessage     = "Creating deployment slot %s in web app %s"
	createSlotDoneMessage = "Successfully created the deployment slot."

	createNewDeploymentSlotProperty = "createNewDeploymentSlot"
)

// Reconciler resolves the declared configuration against the remote state and
// returns a live hosting resource handle ready for deployment.
type Reconciler struct {
	Client    client.AppServiceClient
	Messenger messenger.Messenger
	Telemetry telemetry.Sink
}

// CreateOrUpdateResource is the create or update decision procedure. Without
// a slot name the base app is upserted directly. With a slot name the parent
// app must already exist, and the slot is created or updated under it.
func (r Reconciler) CreateOrUpdateResource(config appservice.WebAppConfig) (*appservice.Target, error) {
	if strings.TrimSpace(config.DeploymentSlot) == "" {
		target, err := r.Client.CreateOrUpdateApp(config)

		if err != nil {
			return nil, errors.Join(ErrResource, err)
		}

		return target, nil
	}

	parentSite, exists, err := r.Client.GetApp(config.SubscriptionId, config.ResourceGroup, config.AppName)

	if err != nil {
		return nil, errors.Join(ErrResource, err)
	}

	if !exists {
		return nil, errors.Join(ErrConfiguration, errors.New(webAppNotExistForSlotMessage))
	}

	parent := appservice.TargetFromSite(*parentSite, config.SubscriptionId, config.ResourceGroup, config.AppName, "")

	slotSite, exists, err := r.Client.GetSlot(config.SubscriptionId, config.ResourceGroup, config.AppName, config.DeploymentSlot)

	if err != nil {
		return nil, errors.Join(ErrResource, err)
	}

	if exists {
		slot := appservice.TargetFromSite(*slotSite, config.SubscriptionId, config.ResourceGroup, config.AppName, config.DeploymentSlot)
		return r.updateDeploymentSlot(slot, config)
	}

	return r.createDeploymentSlot(parent, parentSite, config)
}

func (r Reconciler) createDeploymentSlot(parent *appservice.Target, parentSite *appservice.Site, config appservice.WebAppConfig) (*appservice.Target, error) {
	r.Messenger.Info(fmt.Sprintf(createSlotMessage, config.DeploymentSlot, config.AppName))
	r.Telemetry.AddDefaultProperty(createNewDeploymentSlotProperty, "true")

	source, err := r.resolveConfigurationSource(parentSite, config)

	if err != nil {
		return nil, err
	}

	slotSite, err := r.Client.CreateSlot(parent, config.DeploymentSlot, source, config.AppSettings, config.Diagnostics)

	if err != nil {
		return nil, errors.Join(ErrResource, err)
	}

	slot := appservice.TargetFromSite(*slotSite, config.SubscriptionId, config.ResourceGroup, config.AppName, config.DeploymentSlot)

	// Force a refresh of the new slot and of the parent's cached state so
	// later phases observe what the provider actually committed.
	if err := r.Client.Refresh(slot); err != nil {
		return nil, errors.Join(ErrResource, err)
	}

	if err := r.Client.Refresh(parent); err != nil {
		return nil, errors.Join(ErrResource, err)
	}

	r.Messenger.Info(createSlotDoneMessage)

	return slot, nil
}

// resolveConfigurationSource maps the configured source to the site whose
// configuration seeds the new slot: nil for a brand new configuration, the
// parent app by default, or a named sibling slot.
func (r Reconciler) resolveConfigurationSource(parentSite *appservice.Site, config appservice.WebAppConfig) (*appservice.Site, error) {
	source := strings.ToLower(strutil.DefaultIfEmpty(config.DeploymentSlotConfigurationSource, configurationSourceParent))

	switch source {
	case configurationSourceNew:
		return nil, nil
	case configurationSourceParent:
		return parentSite, nil
	default:
		sibling, exists, err := r.Client.GetSlot(config.SubscriptionId, config.ResourceGroup, config.AppName, config.DeploymentSlotConfigurationSource)

		if err != nil {
			return nil, errors.Join(ErrResource, errors.New(configurationSourceLookupFailure), err)
		}

		if !exists {
			return nil, errors.Join(ErrConfiguration, errors.New(configurationSourceMissing))
		}

		return sibling, nil
	}
}

// updateDeploymentSlot is a passthrough. Updating an existing slot, with a
// real app settings diff and diagnostic config merge, is not implemented yet;
// the existing slot is returned unchanged.
func (r Reconciler) updateDeploymentSlot(slot *appservice.Target, config appservice.WebAppConfig) (*appservice.Target, error) {
	return slot, nil
}
