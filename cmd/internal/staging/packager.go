package staging

import (
	"archive/zip"
	"errors"
	"fmt"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/collections"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/hash"
	"github.com/AzureSolutionsEngineering/AzureWebAppDeploy/cmd/internal/model/appservice"
	"github.com/google/uuid"
	"github.com/otiai10/copy"
	"go.uber.org/zap"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrPackaging marks filesystem failures while staging or zipping artifacts.
// No partial archive is ever handed to the deploy phase.
var ErrPackaging = errors.New("failed to package resources")

// RenamedJarName is the canonical executable name a bare runtime host expects
// at the archive root.
const RenamedJarName = "app.jar"

// cleanupRegistry collects the transient paths created by packaging. Paths are
// uniquely named per invocation, so concurrent deploys in one process never
// collide and need no further locking.
var cleanupRegistry = collections.SafeStringSlice{}

// Cleanup removes all staging directories and archives created so far. Best
// effort; failures are logged and ignored.
func Cleanup() {
	for _, transient := range cleanupRegistry.GetCopy() {
		if err := os.RemoveAll(transient); err != nil {
			zap.L().Debug("Failed to remove " + transient + ": " + err.Error())
		}
	}
}

// Packager stages untyped artifacts into a temporary directory tree mirroring
// their target paths and produces a single zip archive for atomic transfer.
type Packager struct {
	AppName string
	// FinalName is the build's primary output name without its extension,
	// used to locate the executable jar in bare runtime mode.
	FinalName   string
	BareRuntime bool
}

// Package copies the artifacts into a fresh staging tree, applies the bare
// runtime jar rename when required, and zips the tree into a uniquely named
// archive. The returned path points at the archive file.
func (p Packager) Package(artifacts []appservice.Artifact) (string, error) {
	stagingDirectory, err := p.prepareStagingDirectory(artifacts)

	if err != nil {
		return "", errors.Join(ErrPackaging, err)
	}

	if p.BareRuntime {
		if err := p.renamePrimaryJar(stagingDirectory); err != nil {
			return "", errors.Join(ErrPackaging, err)
		}
	}

	zipFile := filepath.Join(os.TempDir(), p.AppName+uuid.New().String()+".zip")
	cleanupRegistry.Append(zipFile)

	if err := zipDirectory(stagingDirectory, zipFile); err != nil {
		return "", errors.Join(ErrPackaging, err)
	}

	contents, err := os.ReadFile(zipFile)

	if err != nil {
		return "", errors.Join(ErrPackaging, err)
	}

	zap.L().Debug("Packaged " + fmt.Sprint(len(artifacts)) + " artifacts into " + zipFile + " with content hash " + hash.ContentHash(contents))

	return zipFile, nil
}

func (p Packager) prepareStagingDirectory(artifacts []appservice.Artifact) (string, error) {
	stagingDirectory := filepath.Join(os.TempDir(), "azwebdeploy-"+uuid.New().String())

	if err := os.MkdirAll(stagingDirectory, os.ModePerm); err != nil {
		return "", err
	}

	cleanupRegistry.Append(stagingDirectory)

	for _, artifact := range artifacts {
		targetDirectory := filepath.Join(stagingDirectory, filepath.FromSlash(artifact.Path))

		if err := os.MkdirAll(targetDirectory, os.ModePerm); err != nil {
			return "", err
		}

		destination := filepath.Join(targetDirectory, filepath.Base(artifact.File))

		if err := copy.Copy(artifact.File, destination); err != nil {
			return "", err
		}
	}

	return stagingDirectory, nil
}

// renamePrimaryJar renames the build's primary output jar to the canonical
// name a bare runtime host expects. Exactly one staged file may match the
// build's final name.
func (p Packager) renamePrimaryJar(stagingDirectory string) error {
	expectedName := p.FinalName + ".jar"
	matches := []string{}

	err := filepath.WalkDir(stagingDirectory, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() && entry.Name() == expectedName {
			matches = append(matches, path)
		}

		return nil
	})

	if err != nil {
		return err
	}

	if len(matches) != 1 {
		return errors.New("expected exactly one staged jar named " + expectedName + " but found " + fmt.Sprint(len(matches)))
	}

	return os.Rename(matches[0], filepath.Join(filepath.Dir(matches[0]), RenamedJarName))
}

// zipDirectory recursively zips the staging tree. Entry names are relative to
// the tree root with forward slashes, so the archive expands to the same
// layout on the remote side.
func zipDirectory(stagingDirectory string, zipFile string) (funcErr error) {
	archive, err := os.Create(zipFile)

	if err != nil {
		return err
	}

	defer func(archive *os.File) {
		err := archive.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(archive)

	writer := zip.NewWriter(archive)

	err = filepath.WalkDir(stagingDirectory, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == stagingDirectory {
			return nil
		}

		relative, err := filepath.Rel(stagingDirectory, path)

		if err != nil {
			return err
		}

		name := strings.ReplaceAll(relative, string(os.PathSeparator), "/")

		if entry.IsDir() {
			_, err := writer.Create(name + "/")
			return err
		}

		file, err := os.Open(path)

		if err != nil {
			return err
		}

		defer func(file *os.File) {
			err := file.Close()
			if err != nil {
				zap.L().Error(err.Error())
			}
		}(file)

		target, err := writer.Create(name)

		if err != nil {
			return err
		}

		_, err = io.Copy(target, file)

		return err
	})

	if err != nil {
		return err
	}

	return writer.Close()
}
