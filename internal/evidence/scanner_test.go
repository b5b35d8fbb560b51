package evidence

import (
	"testing"

	"frameworks/api_reaper/internal/plex"
)

func testRow() plex.SessionRow {
	return plex.SessionRow{
		Title:       "News Channel",
		LiveKey:     "/livetv/sessions/abc-123",
		TranscodeID: "tid-999",
		PlayerAddr:  "192.168.1.50",
	}
}

func TestSessionActivity(t *testing.T) {
	tests := []struct {
		name string
		row  plex.SessionRow
		log  string
		want bool
	}{
		{
			name: "live path hit",
			row:  testRow(),
			log:  `Jul 01 [192.168.1.99:5000] GET /livetv/sessions/abc-123/index.m3u8 200`,
			want: true,
		},
		{
			name: "transcode path hit",
			row:  testRow(),
			log:  `Jul 01 [10.0.0.2:1234] GET /transcode/universal/session/tid-999/base/00001.ts 200`,
			want: true,
		},
		{
			name: "timeline from player address",
			row:  testRow(),
			log:  `Jul 01 [192.168.1.50:40000] GET /:/timeline?state=playing 200`,
			want: true,
		},
		{
			name: "manifest from player address",
			row:  testRow(),
			log:  `Jul 01 [192.168.1.50:40000] GET /video/:/transcode/universal/start.mpd 200`,
			want: true,
		},
		{
			name: "timeline from a different client is not evidence",
			row:  testRow(),
			log:  `Jul 01 [192.168.1.60:40000] GET /:/timeline?state=playing 200`,
			want: false,
		},
		{
			name: "unrelated request",
			row:  testRow(),
			log:  `Jul 01 [192.168.1.50:40000] GET /library/sections/1/all 200`,
			want: false,
		},
		{
			name: "line without a request shape",
			row:  testRow(),
			log:  `DEBUG transcoder started for session tid-999`,
			want: false,
		},
		{
			name: "empty log",
			row:  testRow(),
			log:  "",
			want: false,
		},
		{
			name: "no transcode id means no transcode path match",
			row: plex.SessionRow{
				LiveKey:    "/livetv/sessions/other",
				PlayerAddr: "192.168.1.50",
			},
			log:  `Jul 01 [10.0.0.2:1234] GET /transcode/universal/session//base/0.ts 200`,
			want: false,
		},
		{
			name: "match on a later line",
			row:  testRow(),
			log: `Jul 01 [192.168.1.60:1] GET /library/all 200
Jul 01 some unrelated noise
Jul 01 [192.168.1.50:2] GET /:/timeline?state=paused 200`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionActivity(tt.row, tt.log); got != tt.want {
				t.Errorf("SessionActivity() = %v, want %v", got, tt.want)
			}
		})
	}
}
