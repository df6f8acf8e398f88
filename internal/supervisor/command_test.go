package supervisor

import (
	"reflect"
	"testing"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
		wantErr bool
	}{
		{
			name:    "simple command",
			command: "yt-dlp --newline https://example.com/v",
			want:    []string{"yt-dlp", "--newline", "https://example.com/v"},
		},
		{
			name:    "double quoted argument",
			command: `yt-dlp -o "my file.mp4" url`,
			want:    []string{"yt-dlp", "-o", "my file.mp4", "url"},
		},
		{
			name:    "single quoted argument",
			command: "yt-dlp -o 'my file.mp4' url",
			want:    []string{"yt-dlp", "-o", "my file.mp4", "url"},
		},
		{
			name:    "nested quote kinds",
			command: `echo "it's fine"`,
			want:    []string{"echo", "it's fine"},
		},
		{
			name:    "escaped space",
			command: `echo hello\ world`,
			want:    []string{"echo", "hello world"},
		},
		{
			name:    "collapsed whitespace",
			command: "  echo   hello  ",
			want:    []string{"echo", "hello"},
		},
		{
			name:    "empty command",
			command: "",
			want:    nil,
		},
		{
			name:    "unclosed quote",
			command: `echo "oops`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitCommand(tt.command)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SplitCommand(%q) succeeded, want error", tt.command)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitCommand(%q): %v", tt.command, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCommand(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestJoinCommand(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{
			name: "safe arguments pass through",
			argv: []string{"yt-dlp", "--newline", "-f", "bestvideo+bestaudio/best"},
			want: "yt-dlp --newline -f bestvideo+bestaudio/best",
		},
		{
			name: "spaces get quoted",
			argv: []string{"echo", "hello world"},
			want: "echo 'hello world'",
		},
		{
			name: "embedded single quote",
			argv: []string{"echo", "it's"},
			want: `echo 'it'"'"'s'`,
		},
		{
			name: "empty argument",
			argv: []string{"echo", ""},
			want: "echo ''",
		},
		{
			name: "template placeholders quoted",
			argv: []string{"-o", "%(uploader)s/%(title)s.%(ext)s"},
			want: "-o '%(uploader)s/%(title)s.%(ext)s'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinCommand(tt.argv); got != tt.want {
				t.Errorf("JoinCommand(%v) = %q, want %q", tt.argv, got, tt.want)
			}
		})
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	argv := []string{"yt-dlp", "-o", "my downloads/%(title)s.mp4", "https://example.com/v"}

	got, err := SplitCommand(JoinCommand(argv))
	if err != nil {
		t.Fatalf("SplitCommand: %v", err)
	}
	if !reflect.DeepEqual(got, argv) {
		t.Errorf("round trip = %v, want %v", got, argv)
	}
}
