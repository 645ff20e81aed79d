package args

import (
	"bytes"
	"errors"
	"flag"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/maputil"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"strings"
)

type Arguments struct {
	ConfigFile string
	ConfigPath string
	Version    bool
	Verbose    bool

	ManagementUrl string
	AccessToken   string

	SubscriptionId           string
	ResourceGroup            string
	AppName                  string
	Region                   string
	PricingTier              string
	ServicePlanName          string
	ServicePlanResourceGroup string

	RuntimeOs    string
	JavaVersion  string
	WebContainer string

	DockerImage          string
	DockerRegistryUrl    string
	DockerUsername       string
	DockerPassword       string
	DockerStartUpCommand string

	AppSettings             StringSliceArgs
	DeploymentSlot          string
	SlotConfigurationSource string
	StopAppDuringDeployment bool

	EnableApplicationLog bool
	ApplicationLogLevel  string
	EnableWebServerLog   bool
	WebServerLogQuota    int
	WebServerRetention   int

	FinalName         string
	Artifacts         StringSliceArgs
	Resources         StringSliceArgs
	ExternalResources StringSliceArgs
}

type StringSliceArgs []string

func (i *StringSliceArgs) String() string {
	return "A collection of strings passed as arguments"
}

func (i *StringSliceArgs) Set(value string) error {
	trimmed := strings.TrimSpace(value)

	if len(trimmed) == 0 {
		return nil
	}

	*i = append(*i, trimmed)
	return nil
}

func ParseArgs(args []string) (Arguments, string, error) {
	flags := flag.NewFlagSet("azwebdeploy", flag.ContinueOnError)
	var buf bytes.Buffer
	flags.SetOutput(&buf)

	arguments := Arguments{}

	flags.StringVar(&arguments.ConfigFile, "configFile", "azwebdeploy", "The name of the configuration file to use. Do not include the extension. Defaults to azwebdeploy")
	flags.StringVar(&arguments.ConfigPath, "configPath", ".", "The path of the configuration file to use. Defaults to the current directory")
	flags.BoolVar(&arguments.Version, "version", false, "Print the version")
	flags.BoolVar(&arguments.Verbose, "verbose", false, "Enable debug logging")

	flags.StringVar(&arguments.ManagementUrl, "managementUrl", "https://management.azure.com", "The resource manager endpoint")
	flags.StringVar(&arguments.AccessToken, "accessToken", "", "The bearer token used against the management and publishing endpoints")

	flags.StringVar(&arguments.SubscriptionId, "subscriptionId", "", "The subscription holding the web app")
	flags.StringVar(&arguments.ResourceGroup, "resourceGroup", "", "The resource group holding the web app")
	flags.StringVar(&arguments.AppName, "appName", "", "The name of the web app")
	flags.StringVar(&arguments.Region, "region", "", "The region the web app is created in, e.g. westus2. Only used when the web app does not exist yet.")
	flags.StringVar(&arguments.PricingTier, "pricingTier", "", "The app service plan pricing tier, e.g. P1v2")
	flags.StringVar(&arguments.ServicePlanName, "servicePlanName", "", "The app service plan hosting the web app")
	flags.StringVar(&arguments.ServicePlanResourceGroup, "servicePlanResourceGroup", "", "The resource group holding the app service plan. Defaults to the web app's resource group.")

	flags.StringVar(&arguments.RuntimeOs, "os", "", "The operating system family: windows, linux or docker")
	flags.StringVar(&arguments.JavaVersion, "javaVersion", "", "The java version, e.g. 17")
	flags.StringVar(&arguments.WebContainer, "webContainer", "", "The web container, e.g. \"tomcat 10.0\", or \"java se\" for a bare runtime with no servlet container")

	flags.StringVar(&arguments.DockerImage, "image", "", "The container image reference. Required when the os is docker.")
	flags.StringVar(&arguments.DockerRegistryUrl, "registryUrl", "", "The container registry url for a private image")
	flags.StringVar(&arguments.DockerUsername, "registryUsername", "", "The container registry username")
	flags.StringVar(&arguments.DockerPassword, "registryPassword", "", "The container registry password")
	flags.StringVar(&arguments.DockerStartUpCommand, "startUpCommand", "", "The container start up command")

	flags.Var(&arguments.AppSettings, "appSetting", "An app setting in the form key=value. Can be specified multiple times.")
	flags.StringVar(&arguments.DeploymentSlot, "slot", "", "Deploy to the named deployment slot instead of the base web app")
	flags.StringVar(&arguments.SlotConfigurationSource, "slotConfigurationSource", "", "Where a newly created slot copies its configuration from: \"new\" for a blank configuration, \"parent\" to copy the web app (the default), or the name of a sibling slot")
	flags.BoolVar(&arguments.StopAppDuringDeployment, "stopAppDuringDeployment", false, "Stop the web app before transferring artifacts and start it again afterwards")

	flags.BoolVar(&arguments.EnableApplicationLog, "enableApplicationLog", false, "Enable application logging on a newly created slot")
	flags.StringVar(&arguments.ApplicationLogLevel, "applicationLogLevel", "Information", "The application log level applied to a newly created slot")
	flags.BoolVar(&arguments.EnableWebServerLog, "enableWebServerLog", false, "Enable web server logging on a newly created slot")
	flags.IntVar(&arguments.WebServerLogQuota, "webServerLogQuota", 35, "The web server log quota in megabytes")
	flags.IntVar(&arguments.WebServerRetention, "webServerRetention", 0, "The web server log retention in days. Zero keeps logs until the quota is hit.")

	flags.StringVar(&arguments.FinalName, "finalName", "", "The build's primary output name without the extension. Used to locate the executable jar when deploying to a \"java se\" runtime.")
	flags.Var(&arguments.Artifacts, "artifact", "An artifact to deploy, in the form file[,path[,type]]. The path is the target directory relative to the deployment root. The type forces a specific deploy type instead of inferring it from the extension. Can be specified multiple times.")
	flags.Var(&arguments.Resources, "resource", "An auxiliary file deployed alongside the artifacts, in the form file[,target]. Can be specified multiple times.")
	flags.Var(&arguments.ExternalResources, "externalResource", "An auxiliary file pushed through the file transfer side channel after the deployment, in the form file[,target]. Can be specified multiple times.")

	err := flags.Parse(args)

	if err != nil {
		return Arguments{}, buf.String(), err
	}

	err = overrideArgs(flags, arguments.ConfigPath, arguments.ConfigFile)

	if err != nil {
		return Arguments{}, buf.String(), err
	}

	return arguments, buf.String(), nil
}

// ToWebAppConfig maps the flat argument surface onto the desired state
// consumed by the reconciler and the deployer.
func (arguments *Arguments) ToWebAppConfig() (appservice.WebAppConfig, error) {
	config := appservice.WebAppConfig{
		SubscriptionId:                    arguments.SubscriptionId,
		ResourceGroup:                     arguments.ResourceGroup,
		AppName:                           arguments.AppName,
		Region:                            arguments.Region,
		PricingTier:                       arguments.PricingTier,
		ServicePlanName:                   arguments.ServicePlanName,
		ServicePlanResourceGroup:          arguments.ServicePlanResourceGroup,
		AppSettings:                       maputil.FromKeyValueStrings(arguments.AppSettings),
		DeploymentSlot:                    arguments.DeploymentSlot,
		DeploymentSlotConfigurationSource: arguments.SlotConfigurationSource,
		StopAppDuringDeployment:           arguments.StopAppDuringDeployment,
	}

	if arguments.EnableApplicationLog || arguments.EnableWebServerLog {
		config.Diagnostics = &appservice.DiagnosticConfig{
			EnableApplicationLog: arguments.EnableApplicationLog,
			ApplicationLogLevel:  arguments.ApplicationLogLevel,
			EnableWebServerLog:   arguments.EnableWebServerLog,
			WebServerLogQuota:    arguments.WebServerLogQuota,
			WebServerRetention:   arguments.WebServerRetention,
		}
	}

	if arguments.RuntimeOs != "" {
		config.Runtime = &appservice.RuntimeSpec{
			Os:           arguments.RuntimeOs,
			JavaVersion:  arguments.JavaVersion,
			WebContainer: arguments.WebContainer,
		}
	}

	if arguments.DockerImage != "" {
		config.Docker = &appservice.DockerSpec{
			Image:          arguments.DockerImage,
			RegistryUrl:    arguments.DockerRegistryUrl,
			Username:       arguments.DockerUsername,
			Password:       arguments.DockerPassword,
			StartUpCommand: arguments.DockerStartUpCommand,
		}
	}

	for _, artifactArg := range arguments.Artifacts {
		artifact, err := parseArtifact(artifactArg)

		if err != nil {
			return appservice.WebAppConfig{}, err
		}

		config.Artifacts = append(config.Artifacts, artifact)
	}

	config.Resources = append(
		parseResources(arguments.Resources, false),
		parseResources(arguments.ExternalResources, true)...)

	return config, nil
}

func parseArtifact(input string) (appservice.Artifact, error) {
	parts := strings.Split(input, ",")

	artifact := appservice.Artifact{File: strings.TrimSpace(parts[0])}

	if len(parts) > 1 {
		artifact.Path = strings.TrimSpace(parts[1])
	}

	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		deployType, ok := appservice.ParseDeployType(parts[2])

		if !ok {
			return appservice.Artifact{}, errors.New("unknown deploy type \"" + parts[2] + "\" for artifact " + artifact.File)
		}

		artifact.DeployType = deployType
	}

	return artifact, nil
}

func parseResources(input []string, external bool) []appservice.DeploymentResource {
	return lo.Map(input, func(entry string, index int) appservice.DeploymentResource {
		file, target, _ := strings.Cut(entry, ",")

		return appservice.DeploymentResource{
			File:     strings.TrimSpace(file),
			Target:   strings.TrimSpace(target),
			External: external,
		}
	})
}

// Inspired by https://github.com/carolynvs/stingoftheviper
// Viper needs manual handling to implement reading settings from env vars, config files, and from the command line
func overrideArgs(flags *flag.FlagSet, configPath string, configFile string) error {
	v := viper.New()

	// Set the base name of the config file, without the file extension.
	v.SetConfigName(configFile)

	// Set as many paths as you like where viper should look for the
	// config file. We are only looking in the current working directory.
	v.AddConfigPath(configPath)

	// Attempt to read the config file, gracefully ignoring errors
	// caused by a config file not being found. Return an error
	// if we cannot parse the config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if there isn't a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	// When we bind flags to environment variables expect that the
	// environment variables are prefixed, e.g. a flag like --appName
	// binds to an environment variable AZWEBDEPLOY_APPNAME. This helps
	// avoid conflicts.
	v.SetEnvPrefix("azwebdeploy")

	// Environment variables can't have dashes in them, so bind them to their equivalent
	// keys with underscores, e.g. --slot-name to AZWEBDEPLOY_SLOT_NAME
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Bind to environment variables
	// Works great for simple config names, but needs help for names
	// like --favorite-color which we fix in the bindFlags function
	v.AutomaticEnv()

	// Bind the current command's flags to viper
	return bindFlags(flags, v)
}

// Bind each flag to its associated viper configuration (config file and environment variable)
func bindFlags(flags *flag.FlagSet, v *viper.Viper) (funErr error) {
	var funcError error = nil

	flags.VisitAll(func(allFlags *flag.Flag) {
		defined := false
		flags.Visit(func(definedFlag *flag.Flag) {
			if definedFlag.Name == allFlags.Name && definedFlag.Name != "configFile" && definedFlag.Name != "configPath" {
				defined = true
			}
		})

		if !defined && v.IsSet(allFlags.Name) {
			configName := strings.ReplaceAll(allFlags.Name, "-", "")

			for _, value := range v.GetStringSlice(configName) {
				err := flags.Set(allFlags.Name, value)
				funcError = errors.Join(funcError, err)
			}
		}
	})

	return funcError
}
