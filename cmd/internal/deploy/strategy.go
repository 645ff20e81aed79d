package deploy

import (
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"github.com/samber/lo"
)

// StrategyKind is the transfer strategy selected for the untyped artifacts.
// Explicitly typed artifacts are always deployed individually first,
// independent of the selected kind.
type StrategyKind int

const (
	// StrategyNone means no untyped artifacts remain.
	StrategyNone StrategyKind = iota
	// StrategySingleFile publishes the one remaining artifact directly with
	// its inferred type, skipping packaging entirely.
	StrategySingleFile
	// StrategyMultiWebArchive publishes each web archive individually to its
	// own target path.
	StrategyMultiWebArchive
	// StrategyZip stages all remaining artifacts into one tree and publishes
	// the resulting archive as a single atomic transfer.
	StrategyZip
)

// Plan is the outcome of strategy selection over the artifact set.
type Plan struct {
	Typed   []appservice.Artifact
	Kind    StrategyKind
	Untyped []appservice.Artifact
}

// SelectStrategy partitions the artifact set and picks exactly one transfer
// strategy for the untyped remainder. The precedence is strict: a set with a
// single untyped artifact always takes the single file shortcut, even when
// that artifact is a web archive.
func SelectStrategy(artifacts []appservice.Artifact) Plan {
	typed := lo.Filter(artifacts, func(artifact appservice.Artifact, index int) bool {
		return artifact.HasExplicitType()
	})

	untyped := lo.Reject(artifacts, func(artifact appservice.Artifact, index int) bool {
		return artifact.HasExplicitType()
	})

	plan := Plan{Typed: typed, Untyped: untyped}

	switch {
	case len(untyped) == 0:
		plan.Kind = StrategyNone
	case len(untyped) == 1:
		plan.Kind = StrategySingleFile
	case lo.EveryBy(untyped, func(artifact appservice.Artifact) bool {
		return appservice.IsWebArchive(artifact.File)
	}):
		plan.Kind = StrategyMultiWebArchive
	default:
		plan.Kind = StrategyZip
	}

	return plan
}
