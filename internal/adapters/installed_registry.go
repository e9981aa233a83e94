package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/shared"
)

// InstalledRegistryAdapter finds installed distributions by scanning the
// interpreter's import path for .dist-info and .egg-info metadata.
type InstalledRegistryAdapter struct{}

func NewInstalledRegistryAdapter() InstalledRegistryAdapter {
	return InstalledRegistryAdapter{}
}

func (a InstalledRegistryAdapter) Installed(ctx context.Context, sysPath []string) (map[string]string, error) {
	installed := map[string]string{}
	for _, dir := range sysPath {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			// missing directories and zip imports carry no metadata
			log.Ctx(ctx).Debug().Str("path", dir).Err(err).Msg("skipping import path")
			continue
		}
		for _, entry := range entries {
			metadataPath := distributionMetadataPath(dir, entry)
			if metadataPath == "" {
				continue
			}
			content, err := os.ReadFile(metadataPath)
			if err != nil {
				continue
			}
			metadata := parseMetadata(content)
			if strings.TrimSpace(metadata.Name) == "" || strings.TrimSpace(metadata.Version) == "" {
				continue
			}
			normalized := shared.NormalizePipName(metadata.Name)
			if _, seen := installed[normalized]; seen {
				continue
			}
			installed[normalized] = metadata.Version
		}
	}
	log.Ctx(ctx).Debug().Int("distributions", len(installed)).Msg("installed distributions scanned")
	return installed, nil
}

func distributionMetadataPath(dir string, entry os.DirEntry) string {
	name := entry.Name()
	switch {
	case strings.HasSuffix(name, ".dist-info") && entry.IsDir():
		return filepath.Join(dir, name, "METADATA")
	case strings.HasSuffix(name, ".egg-info") && entry.IsDir():
		return filepath.Join(dir, name, "PKG-INFO")
	case strings.HasSuffix(name, ".egg-info"):
		return filepath.Join(dir, name)
	default:
		return ""
	}
}

var _ ports.InstalledVersionsPort = InstalledRegistryAdapter{}
