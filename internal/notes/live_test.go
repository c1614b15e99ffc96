package notes

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"lectern/internal/session"
)

// TestLiveGenerate sends a tiny real request to Gemini and checks the notes
// come back as markdown. Skipped without an API key.
func TestLiveGenerate(t *testing.T) {
	key := os.Getenv("LECTERN_GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		t.Skip("no Gemini API key in environment")
	}

	gen, err := NewGemini(context.Background(), key, DefaultModel, "")
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	// A 0.25s silent WAV: header plus 4000 zero samples at 16kHz.
	art := session.Artifact{Data: silentWAV(4000), MIME: "audio/wav"}

	text, err := gen.Generate(context.Background(), art)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	fmt.Println("=== Generated notes ===")
	fmt.Println(text)

	if !strings.Contains(text, "#") {
		t.Error("notes should contain markdown headers")
	}
}

func silentWAV(samples int) []byte {
	dataLen := samples * 2
	buf := make([]byte, 44+dataLen)
	copy(buf, "RIFF")
	putLE32(buf[4:], uint32(36+dataLen))
	copy(buf[8:], "WAVEfmt ")
	putLE32(buf[16:], 16)
	buf[20], buf[22] = 1, 1  // PCM, mono
	putLE32(buf[24:], 16000) // sample rate
	putLE32(buf[28:], 32000) // byte rate
	buf[32], buf[34] = 2, 16 // block align, bits
	copy(buf[36:], "data")
	putLE32(buf[40:], uint32(dataLen))
	return buf
}

func putLE32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}
