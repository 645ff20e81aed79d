package deploy

import (
	"errors"
	"fmt"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/client"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/messenger"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/staging"
	"github.com/samber/lo"
)

// ErrDeploy marks failures while transferring artifacts or external resources
// to the live resource.
var ErrDeploy = errors.New("failed to deploy to the app service")

const (
	deployStartMessage      = "Trying to deploy artifact to %s..."
	deployFinishMessage     = "Successfully deployed the artifact to https://%s"
	dockerSkipMessage       = "Skip deployment for docker app service"
	stopBeforeDeployMessage = "Stopping %s before deployment"
	startAfterDeployMessage = "Starting %s"
)

// Deployer transfers artifacts to a live hosting resource. The deploy phase
// is wrapped in stop before and start after semantics; the start always runs,
// so a failed transfer never leaves the resource stopped.
type Deployer struct {
	Client    client.AppServiceClient
	Messenger messenger.Messenger
	// BuildFinalName is the build's primary output name without extension,
	// needed for the bare runtime jar rename during packaging.
	BuildFinalName string
}

// Deploy executes the selected transfer strategy against the target and then
// pushes any external resources. Docker targets are skipped entirely, since a
// container image rollout happens by repointing the image reference.
func (d Deployer) Deploy(target *appservice.Target, config appservice.WebAppConfig) error {
	if target.Runtime.IsDocker() {
		d.Messenger.Info(dockerSkipMessage)
		return nil
	}

	d.Messenger.Info(fmt.Sprintf(deployStartMessage, config.AppName))

	return d.runWithRestart(target, config.StopAppDuringDeployment, func() error {
		if err := d.deployArtifacts(target, config); err != nil {
			return err
		}

		if err := d.deployExternalResources(target, config.Resources); err != nil {
			return err
		}

		d.Messenger.Info(fmt.Sprintf(deployFinishMessage, target.HostName))

		return nil
	})
}

// runWithRestart is the scoped lifecycle guard. The deferred start is
// unconditional, so the liveness guarantee holds structurally rather than by
// careful call site ordering; a start failure is joined onto the body's error.
func (d Deployer) runWithRestart(target *appservice.Target, stopFirst bool, body func() error) (funcErr error) {
	defer func() {
		d.Messenger.Info(fmt.Sprintf(startAfterDeployMessage, target.SiteName()))

		if err := d.Client.Start(target); err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}()

	if stopFirst {
		d.Messenger.Info(fmt.Sprintf(stopBeforeDeployMessage, target.SiteName()))

		if err := d.Client.Stop(target); err != nil {
			return err
		}
	}

	return body()
}

func (d Deployer) deployArtifacts(target *appservice.Target, config appservice.WebAppConfig) error {
	// Bundled resources travel with the build artifacts and go through the
	// same strategy selection; only external resources use the side channel.
	bundled := lo.FilterMap(config.Resources, func(resource appservice.DeploymentResource, index int) (appservice.Artifact, bool) {
		return appservice.Artifact{File: resource.File, Path: resource.Target}, !resource.External
	})

	plan := SelectStrategy(append(append([]appservice.Artifact{}, config.Artifacts...), bundled...))

	// Explicitly typed artifacts always go through the single file publish
	// API first, one call each.
	for _, artifact := range plan.Typed {
		if err := d.Client.DeployFile(target, artifact.DeployType, artifact.File, artifact.Path); err != nil {
			return errors.Join(ErrDeploy, err)
		}
	}

	switch plan.Kind {
	case StrategyNone:
		return nil
	case StrategySingleFile:
		artifact := plan.Untyped[0]

		if err := d.Client.DeployFile(target, artifact.ResolvedType(), artifact.File, artifact.Path); err != nil {
			return errors.Join(ErrDeploy, err)
		}

		return nil
	case StrategyMultiWebArchive:
		for _, artifact := range plan.Untyped {
			if err := d.Client.DeployFile(target, artifact.ResolvedType(), artifact.File, artifact.Path); err != nil {
				return errors.Join(ErrDeploy, err)
			}
		}

		return nil
	default:
		packager := staging.Packager{
			AppName:     config.AppName,
			FinalName:   d.BuildFinalName,
			BareRuntime: target.Runtime.IsBareRuntime(),
		}

		zipFile, err := packager.Package(plan.Untyped)

		if err != nil {
			return err
		}

		if err := d.Client.DeployZip(target, zipFile); err != nil {
			return errors.Join(ErrDeploy, err)
		}

		return nil
	}
}

// deployExternalResources pushes auxiliary files that are not part of the
// build artifact set through the file transfer side channel. Failures here
// propagate exactly like transfer failures, and still trigger the restart.
func (d Deployer) deployExternalResources(target *appservice.Target, resources []appservice.DeploymentResource) error {
	external := lo.Filter(resources, func(resource appservice.DeploymentResource, index int) bool {
		return resource.External
	})

	if len(external) == 0 {
		return nil
	}

	if err := d.Client.PushFiles(target, external); err != nil {
		return errors.Join(ErrDeploy, err)
	}

	return nil
}
