package components

import (
	"path/filepath"

	"github.com/relloyd/eltpipe/constants"
)

// Defaults used by components when the caller doesn't supply values.
var Defaults = struct {
	DbtArtifacts []string // the files under <project dir>/target that are worth keeping after a run.
}{
	DbtArtifacts: []string{
		constants.DbtArtifactRunResults,
		constants.DbtArtifactManifest,
		constants.DbtArtifactSources,
	},
}

// DbtTargetDir returns the directory that dbt writes its artifacts to for the given project.
func DbtTargetDir(projectDir string) string {
	return filepath.Join(projectDir, constants.DbtTargetDirName)
}
