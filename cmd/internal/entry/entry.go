package entry

import (
	"errors"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/args"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/client"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/deploy"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/messenger"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/reconcile"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/staging"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/telemetry"
	"go.uber.org/zap"
)

// Entry takes the parsed arguments, reconciles the hosting resource against
// the declared configuration, and deploys the configured artifacts to it.
func Entry(parseArgs args.Arguments) error {
	config, err := parseArgs.ToWebAppConfig()

	if err != nil {
		return errors.Join(reconcile.ErrConfiguration, err)
	}

	if err := config.Validate(); err != nil {
		return errors.Join(reconcile.ErrConfiguration, err)
	}

	azureClient := &client.AzureApiClient{
		Url:   parseArgs.ManagementUrl,
		Token: parseArgs.AccessToken,
	}

	progress := messenger.ZapMessenger{}

	reconciler := reconcile.Reconciler{
		Client:    azureClient,
		Messenger: progress,
		Telemetry: telemetry.LogSink{},
	}

	deployer := deploy.Deployer{
		Client:         azureClient,
		Messenger:      progress,
		BuildFinalName: parseArgs.FinalName,
	}

	// Staging directories and archives are transient; remove them on the way
	// out whatever the deployment outcome was.
	defer staging.Cleanup()

	zap.L().Info("Reconciling web app " + config.AppName + " in resource group " + config.ResourceGroup)

	target, err := reconciler.CreateOrUpdateResource(config)

	if err != nil {
		return err
	}

	return deployer.Deploy(target, config)
}
