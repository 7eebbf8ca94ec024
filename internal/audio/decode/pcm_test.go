// ABOUTME: Tests for the PCM passthrough decoder
package decode

import (
	"testing"

	"github.com/snapcastgo/snapclient/internal/audio"
)

func TestPCMDecodeLittleEndian(t *testing.T) {
	d, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}

	input := []byte{0x00, 0x01, 0x02, 0x03}
	out := make([]int16, audio.MaxFrameSamples)

	n, err := d.Decode(input, out)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if out[0] != 0x0100 {
		t.Errorf("out[0] = %#x, want 0x0100", out[0])
	}
	if out[1] != 0x0302 {
		t.Errorf("out[1] = %#x, want 0x0302", out[1])
	}
}

func TestPCMDecodeTruncatesToOutCapacity(t *testing.T) {
	d, _ := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})

	input := make([]byte, 20) // 10 samples worth
	out := make([]int16, 3)

	n, err := d.Decode(input, out)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3 (clamped to out capacity)", n)
	}
}

func TestNewPCMRejectsWrongCodec(t *testing.T) {
	if _, err := NewPCM(audio.Format{Codec: "opus", BitDepth: 16}); err == nil {
		t.Fatal("expected error for non-pcm format")
	}
}

func TestNewPCMRejectsUnsupportedBitDepth(t *testing.T) {
	if _, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 24}); err == nil {
		t.Fatal("expected error for 24-bit PCM (output is always 16-bit)")
	}
}

func TestPCMDecodeEmptyInput(t *testing.T) {
	d, _ := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
	out := make([]int16, audio.MaxFrameSamples)

	n, err := d.Decode([]byte{}, out)
	if err != nil {
		t.Fatalf("Decode failed on empty input: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
}
