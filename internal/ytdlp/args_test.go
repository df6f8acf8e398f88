package ytdlp

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "minimal request uses default preset",
			req:  Request{URL: "https://example.com/v"},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo+bestaudio/best", "https://example.com/v"},
		},
		{
			name: "preset with max height constrains both streams",
			req:  Request{URL: "u", DownloadKind: KindVideoAudio, MaxHeight: "1080"},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo*[height<=1080]+bestaudio/best[height<=1080]/best", "u"},
		},
		{
			name: "video only with cap",
			req:  Request{URL: "u", DownloadKind: KindVideo, MaxHeight: "720"},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo*[height<=720]/bestvideo", "u"},
		},
		{
			name: "video only without cap",
			req:  Request{URL: "u", DownloadKind: KindVideo},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo", "u"},
		},
		{
			name: "audio only ignores max height",
			req:  Request{URL: "u", DownloadKind: KindAudio, MaxHeight: "480"},
			want: []string{"yt-dlp", "--newline", "-f", "bestaudio/best", "u"},
		},
		{
			name: "custom format",
			req:  Request{URL: "u", FormatMode: FormatModeCustom, CustomFormat: "22"},
			want: []string{"yt-dlp", "--newline", "-f", "22", "u"},
		},
		{
			name: "custom mode with blank selector omits -f",
			req:  Request{URL: "u", FormatMode: FormatModeCustom, CustomFormat: "  "},
			want: []string{"yt-dlp", "--newline", "u"},
		},
		{
			name: "output template and archive",
			req:  Request{URL: "u", OutputTemplate: "%(title)s.%(ext)s", ArchivePath: "/srv/archive.txt"},
			want: []string{"yt-dlp", "--newline", "-o", "%(title)s.%(ext)s", "--download-archive", "/srv/archive.txt", "-f", "bestvideo+bestaudio/best", "u"},
		},
		{
			name: "rate limit and sleep intervals",
			req:  Request{URL: "u", LimitRate: "4M", SleepInterval: "2", MaxSleepInterval: "10"},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo+bestaudio/best", "--limit-rate", "4M", "--sleep-interval", "2", "--max-sleep-interval", "10", "u"},
		},
		{
			name: "toggles pass whitelist only",
			req:  Request{URL: "u", Toggles: []string{"--continue", "--exec", "--embed-thumbnail", "-rm -rf /"}},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo+bestaudio/best", "--continue", "--embed-thumbnail", "u"},
		},
		{
			name: "destination dir expands to default template",
			req:  Request{URL: "u", DestinationDir: "/media/usb"},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo+bestaudio/best", "-o", "/media/usb/%(uploader)s/%(title)s.%(ext)s", "u"},
		},
		{
			name: "explicit template wins over destination dir",
			req:  Request{URL: "u", OutputTemplate: "x.mp4", DestinationDir: "/media/usb"},
			want: []string{"yt-dlp", "--newline", "-o", "x.mp4", "-f", "bestvideo+bestaudio/best", "u"},
		},
		{
			name: "url is trimmed",
			req:  Request{URL: "  https://example.com/v  "},
			want: []string{"yt-dlp", "--newline", "-f", "bestvideo+bestaudio/best", "https://example.com/v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildArgs("", tt.req)
			if err != nil {
				t.Fatalf("BuildArgs: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildArgs = %v\nwant      %v", got, tt.want)
			}
		})
	}
}

func TestBuildArgsMissingURL(t *testing.T) {
	for _, url := range []string{"", "   "} {
		if _, err := BuildArgs("", Request{URL: url}); !errors.Is(err, ErrMissingURL) {
			t.Errorf("BuildArgs(url=%q) = %v, want ErrMissingURL", url, err)
		}
	}
}

func TestBuildArgsCustomBinary(t *testing.T) {
	got, err := BuildArgs("/opt/yt-dlp/yt-dlp", Request{URL: "u"})
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	if got[0] != "/opt/yt-dlp/yt-dlp" {
		t.Errorf("argv[0] = %q, want configured binary", got[0])
	}
}
