package manifest

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
)

// LegacyManifest is the on-disk manifest shape read by older publishing
// pipelines.
type LegacyManifest struct {
	BuildID string       `json:"build_id"`
	Files   []LegacyFile `json:"files"`
	XrefMap string       `json:"xrefmap"`
}

// LegacyFile is one published file of the legacy manifest.
type LegacyFile struct {
	Type               string                  `json:"type"`
	SourceRelativePath string                  `json:"source_relative_path"`
	Output             map[string]LegacyOutput `json:"output"`
	IsIncremental      bool                    `json:"is_incremental"`
}

// LegacyOutput locates one output of a file.
type LegacyOutput struct {
	RelativePath string `json:"relative_path"`
	Hash         string `json:"hash,omitempty"`
}

// ToLegacy converts a publish manifest to the legacy shape. Excluded files
// are dropped.
func ToLegacy(m *PublishManifest) *LegacyManifest {
	legacy := &LegacyManifest{BuildID: m.BuildID, XrefMap: XrefMapFile, Files: []LegacyFile{}}
	for _, item := range m.Files {
		if item.Excluded {
			continue
		}
		file := LegacyFile{
			Type:               legacyType(item.ContentType),
			SourceRelativePath: item.SourcePath,
			Output:             map[string]LegacyOutput{},
		}
		switch {
		case item.OutputPath != "":
			file.Output[outputKey(item.OutputPath)] = LegacyOutput{RelativePath: item.OutputPath, Hash: item.Hash}
		case item.RedirectURL != "":
			file.Output[".redirect"] = LegacyOutput{RelativePath: item.RedirectURL}
		}
		legacy.Files = append(legacy.Files, file)
	}
	return legacy
}

func legacyType(contentType string) string {
	switch contentType {
	case docset.ContentTypePage.String():
		return "Conceptual"
	case docset.ContentTypeTableOfContents.String():
		return "Toc"
	case docset.ContentTypeRedirection.String():
		return "Redirection"
	}
	return "Resource"
}

func outputKey(p string) string {
	if ext := strings.ToLower(path.Ext(p)); ext != "" {
		return ext
	}
	return "resource"
}
