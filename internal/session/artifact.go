package session

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Artifact is the finalized audio payload of a capture: raw bytes tagged
// with a mime type. Immutable once attached to a Session.
type Artifact struct {
	Data []byte
	MIME string
}

// DataURL encodes the artifact as a data URL (base64 payload).
func (a Artifact) DataURL() string {
	return "data:" + a.MIME + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Base64 returns the bare base64 payload with no data-URL prefix, the form
// expected by note-generation transports.
func (a Artifact) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// ParseDataURL decodes a data URL back into an Artifact.
func ParseDataURL(s string) (Artifact, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Artifact{}, fmt.Errorf("parse data url: missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Artifact{}, fmt.Errorf("parse data url: missing payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Artifact{}, fmt.Errorf("parse data url: not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("parse data url: %w", err)
	}
	return Artifact{Data: data, MIME: mime}, nil
}
