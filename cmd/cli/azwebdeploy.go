package main

import (
	"errors"
	"flag"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/args"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/entry"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/logger"
	"go.uber.org/zap"
	"os"
)

var Version = "development"

func main() {
	parseArgs, argsErrors, err := args.ParseArgs(os.Args[1:])

	logger.BuildLogger(parseArgs.Verbose)

	if errors.Is(err, flag.ErrHelp) {
		zap.L().Error(argsErrors)
		os.Exit(2)
	} else if err != nil {
		zap.L().Error("got error: " + err.Error())
		zap.L().Error("argsErrors:\n" + argsErrors)
		os.Exit(1)
	}

	if parseArgs.Version {
		zap.L().Info("Version: " + Version)
		os.Exit(0)
	}

	if parseArgs.SubscriptionId == "" {
		errorExit("You must specify the subscription with the -subscriptionId argument")
	}

	if parseArgs.ResourceGroup == "" {
		errorExit("You must specify the resource group with the -resourceGroup argument")
	}

	if parseArgs.AppName == "" {
		errorExit("You must specify the web app with the -appName argument")
	}

	if parseArgs.AccessToken == "" {
		errorExit("You must specify the bearer token with the -accessToken argument")
	}

	if parseArgs.SlotConfigurationSource != "" && parseArgs.DeploymentSlot == "" {
		errorExit("slotConfigurationSource requires slot to be set")
	}

	err = entry.Entry(parseArgs)

	if err != nil {
		errorExit(err.Error())
	}
}

func errorExit(message string) {
	if len(message) == 0 {
		message = "No error message provided"
	}
	zap.L().Error(message)
	os.Exit(1)
}
