package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDownloads(t *testing.T) {
	content := `
[downloads]
search_dirs = ["/media/usb", "/srv/downloads"]
archive_path = "/srv/archive.txt"
output_template = "%(title)s.%(ext)s"
`
	path := filepath.Join(t.TempDir(), "dlnode.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadDownloads(path)
	if err != nil {
		t.Fatalf("LoadDownloads: %v", err)
	}

	want := Downloads{
		SearchDirs:     []string{"/media/usb", "/srv/downloads"},
		ArchivePath:    "/srv/archive.txt",
		OutputTemplate: "%(title)s.%(ext)s",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadDownloads = %+v, want %+v", got, want)
	}
}

func TestLoadDownloadsMissingFile(t *testing.T) {
	got, err := LoadDownloads(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadDownloads on missing file: %v", err)
	}
	if !reflect.DeepEqual(got, Downloads{}) {
		t.Errorf("LoadDownloads = %+v, want zero value", got)
	}
}

func TestLoadDownloadsEmptyPath(t *testing.T) {
	if _, err := LoadDownloads(""); err != nil {
		t.Fatalf("LoadDownloads with empty path: %v", err)
	}
}

func TestLoadDownloadsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[downloads\nbroken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDownloads(path); err == nil {
		t.Fatal("LoadDownloads succeeded on invalid TOML")
	}
}
