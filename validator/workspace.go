// Package validator drives the external TypeScript compiler against candidate
// interface code. It owns an ephemeral workspace with a pinned project
// manifest and a strict compiler configuration, materializes one candidate
// source file per validation call, and parses compiler output into structured
// diagnostics.
package validator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest pins the workspace dependencies. The UI library is the component
// catalog's implementation package; everything else is the fixed React/TS
// toolchain the candidates are compiled against.
type Manifest struct {
	UILibrary string
	UIVersion string
}

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Workspace is the on-disk compilation environment. It exposes exactly one
// mutable source slot; everything else is written once during setup and then
// treated as read-only.
type Workspace struct {
	Dir      string
	SlotPath string
}

// NewWorkspace creates (or reuses) the directory layout rooted at dir. The id
// names the single source slot so that two workspaces never share a slot file.
func NewWorkspace(dir, id string, manifest Manifest) (*Workspace, error) {
	if dir == "" {
		return nil, fmt.Errorf("workspace dir required")
	}
	if id == "" {
		return nil, fmt.Errorf("workspace id required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ws := &Workspace{
		Dir:      dir,
		SlotPath: filepath.Join(dir, "src", fmt.Sprintf("candidate_%s.tsx", id)),
	}
	if err := ws.writeManifest(manifest); err != nil {
		return nil, err
	}
	if err := ws.writeCompilerConfig(); err != nil {
		return nil, err
	}
	return ws, nil
}

// writeManifest pins the dependency set once. Existing manifests are
// overwritten so a version bump in config takes effect on restart.
func (w *Workspace) writeManifest(manifest Manifest) error {
	library := manifest.UILibrary
	if library == "" {
		library = "@nlmk/ds-2.0"
	}
	version := manifest.UIVersion
	if version == "" {
		version = "2.5.3"
	}
	pkg := packageJSON{
		Name:    "uigen-validator",
		Version: "1.0.0",
		Private: true,
		Dependencies: map[string]string{
			"react":            "^18.2.0",
			"react-dom":        "^18.2.0",
			"@types/react":     "^18.2.21",
			"@types/react-dom": "^18.2.7",
			"typescript":       "^5.2.2",
			library:            version,
		},
		DevDependencies: map[string]string{
			"@types/node": "^18.15.0",
		},
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.Dir, "package.json"), data, 0o644)
}

// writeCompilerConfig emits the strict tsconfig. The include list is limited
// to files under src/ so diagnostics from vendored dependencies never leak
// into the parsed output, and noEmit keeps the run side-effect free.
func (w *Workspace) writeCompilerConfig() error {
	rel, err := filepath.Rel(w.Dir, w.SlotPath)
	if err != nil {
		return err
	}
	tsconfig := map[string]interface{}{
		"compilerOptions": map[string]interface{}{
			"noEmit":                           true,
			"incremental":                      true,
			"target":                           "es2015",
			"module":                           "esnext",
			"allowJs":                          true,
			"skipLibCheck":                     false,
			"esModuleInterop":                  true,
			"allowSyntheticDefaultImports":     true,
			"strict":                           true,
			"forceConsistentCasingInFileNames": true,
			"noFallthroughCasesInSwitch":       true,
			"moduleResolution":                 "node",
			"resolveJsonModule":                true,
			"isolatedModules":                  true,
			"jsx":                              "react-jsx",
			"baseUrl":                          "./",
		},
		"include": []string{filepath.ToSlash(rel)},
		"exclude": []string{"node_modules"},
	}
	data, err := json.MarshalIndent(tsconfig, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.Dir, "tsconfig.json"), data, 0o644)
}

// WriteSlot fills the single source slot with the candidate code.
func (w *Workspace) WriteSlot(source string) error {
	return os.WriteFile(w.SlotPath, []byte(source), 0o644)
}

// ClearSlot removes the candidate file. Missing files are not an error so the
// call is safe on every exit path.
func (w *Workspace) ClearSlot() error {
	err := os.Remove(w.SlotPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
