// Package evidence decides whether a live session showed recent
// client-facing activity, based on server log text.
package evidence

import (
	"bufio"
	"regexp"
	"strings"

	"frameworks/api_reaper/internal/plex"
)

// requestLine matches a logged HTTP request: a bracketed client
// address followed by a method and a path.
var requestLine = regexp.MustCompile(`\[(\d+\.\d+\.\d+\.\d+):\d+[^\]]*\]\s+\S+\s+(/\S+)`)

// SessionActivity reports whether the log text contains a client-facing
// request attributable to the given session.
//
// Three signals count: a request touching the session's live path, a
// request touching its transcode path, and a generic playback endpoint
// (timeline heartbeat or manifest fetch) coming from the session's own
// player address. Generic endpoints from other addresses never match.
func SessionActivity(row plex.SessionRow, logText string) bool {
	livePathFrag := ""
	if uuid := row.LiveUUID(); uuid != "" {
		livePathFrag = "/livetv/sessions/" + uuid + "/"
	}
	transcodeFrag := ""
	if row.TranscodeID != "" {
		transcodeFrag = "/transcode/universal/session/" + row.TranscodeID + "/"
	}

	sc := bufio.NewScanner(strings.NewReader(logText))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := requestLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		ip, path := m[1], m[2]
		if livePathFrag != "" && strings.Contains(path, livePathFrag) {
			return true
		}
		if transcodeFrag != "" && strings.Contains(path, transcodeFrag) {
			return true
		}
		if row.PlayerAddr != "" && ip == row.PlayerAddr {
			if strings.HasPrefix(path, "/:/timeline") || strings.HasSuffix(path, "/start.mpd") {
				return true
			}
		}
	}
	return false
}
