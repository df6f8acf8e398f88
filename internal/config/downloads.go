package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Downloads holds the download-related settings that can be edited in the
// config file while the service runs. A Watcher reloads them on change.
type Downloads struct {
	// SearchDirs are the bases scanned for destination directories.
	SearchDirs []string `toml:"search_dirs" json:"search_dirs"`
	// ArchivePath is the default --download-archive file, applied when a
	// request does not set one.
	ArchivePath string `toml:"archive_path" json:"archive_path"`
	// OutputTemplate is the default yt-dlp output template, applied when a
	// request does not set one.
	OutputTemplate string `toml:"output_template" json:"output_template"`
}

// LoadDownloads reads the [downloads] section of the config file. A missing
// file yields zero-value settings so the service can run unconfigured.
func LoadDownloads(path string) (Downloads, error) {
	var raw struct {
		Downloads Downloads `toml:"downloads"`
	}

	if path == "" {
		return Downloads{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Downloads{}, nil
		}
		return Downloads{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Downloads{}, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return raw.Downloads, nil
}
