package plex

import (
	"encoding/xml"
	"strings"
)

// SessionRow describes an active Live TV session as reported by the
// media server's sessions endpoint.
type SessionRow struct {
	Title          string `json:"title"`
	LiveKey        string `json:"live_key"`
	SessionKey     string `json:"session_key"`
	PlayerAddr     string `json:"player_addr"`
	PlayerProduct  string `json:"player_product"`
	PlayerPlatform string `json:"player_platform"`
	PlayerDevice   string `json:"player_device"`
	MachineID      string `json:"machine_id"`
	State          string `json:"state"`
	TranscodeID    string `json:"transcode_id"`
	SessionID      string `json:"session_id"`
}

// Key returns the identity used for tracking a session across polls.
// The transcode ID is preferred; sessions that have not spun up a
// transcode yet fall back to the live key.
func (r SessionRow) Key() string {
	if r.TranscodeID != "" {
		return r.TranscodeID
	}
	return r.LiveKey
}

// LiveUUID returns the tuner session UUID extracted from the live key,
// or empty when the key carries none.
func (r SessionRow) LiveUUID() string {
	if idx := strings.LastIndex(r.LiveKey, "/"); idx >= 0 {
		return r.LiveKey[idx+1:]
	}
	return ""
}

// mediaContainer models the subset of /status/sessions we consume.
type mediaContainer struct {
	XMLName xml.Name   `xml:"MediaContainer"`
	Videos  []videoRow `xml:"Video"`
}

type videoRow struct {
	Key        string `xml:"key,attr"`
	Title      string `xml:"title,attr"`
	SessionKey string `xml:"sessionKey,attr"`
	Player     *struct {
		Address           string `xml:"address,attr"`
		Product           string `xml:"product,attr"`
		Platform          string `xml:"platform,attr"`
		Device            string `xml:"device,attr"`
		MachineIdentifier string `xml:"machineIdentifier,attr"`
		State             string `xml:"state,attr"`
	} `xml:"Player"`
	TranscodeSession *struct {
		Key string `xml:"key,attr"`
	} `xml:"TranscodeSession"`
	Session *struct {
		ID string `xml:"id,attr"`
	} `xml:"Session"`
}
