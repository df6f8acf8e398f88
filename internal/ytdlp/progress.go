package ytdlp

import (
	"regexp"
	"strconv"
)

var percentRegex = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// ParseProgress extracts the completion percentage from a yt-dlp
// "[download]" output line. The second return value reports whether the
// line carried a progress update at all.
func ParseProgress(line string) (float64, bool) {
	m := percentRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}
