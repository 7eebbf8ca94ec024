// ABOUTME: Tests for the FLAC decoder wrapper
package decode

import (
	"encoding/binary"
	"testing"

	"github.com/snapcastgo/snapclient/internal/audio"
)

func TestNewFLACRejectsWrongCodec(t *testing.T) {
	if _, err := NewFLAC(audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}); err == nil {
		t.Fatal("expected error for non-flac format")
	}
}

func TestBuildStreamInfoContainerLayout(t *testing.T) {
	buf := buildStreamInfoContainer(44100, 2, 16)

	if string(buf[0:4]) != "fLaC" {
		t.Fatalf("missing fLaC marker: %v", buf[0:4])
	}
	if buf[4] != 0x80 {
		t.Errorf("metadata block header flag byte = %#x, want 0x80 (is-last, type 0)", buf[4])
	}

	length := int(buf[5])<<16 | int(buf[6])<<8 | int(buf[7])
	if length != 34 {
		t.Errorf("STREAMINFO length = %d, want 34", length)
	}
	if len(buf) != 4+4+34 {
		t.Fatalf("container is %d bytes, want 42", len(buf))
	}

	body := buf[8:]
	bits := binary.BigEndian.Uint64(body[10:18])

	gotSampleRate := bits >> 44
	gotChannels := (bits>>41)&0x7 + 1
	gotBitDepth := (bits>>36)&0x1F + 1

	if gotSampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", gotSampleRate)
	}
	if gotChannels != 2 {
		t.Errorf("channels = %d, want 2", gotChannels)
	}
	if gotBitDepth != 16 {
		t.Errorf("bit depth = %d, want 16", gotBitDepth)
	}
}
