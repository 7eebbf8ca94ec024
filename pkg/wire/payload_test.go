// ABOUTME: Tests for typed payload parsing and encoding
// ABOUTME: Literal byte/JSON vectors from the protocol's own test fixtures
package wire

import (
	"bytes"
	"testing"
)

// TestParseTimePayload exercises the literal Time vector from §8 scenario 3.
func TestParseTimePayload(t *testing.T) {
	payload := bytesFromHex(t, "A9 4A 10 00 D9 2C 06 00")

	msg, err := ParsePayload(TypeTime, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}

	tm, ok := msg.(Time)
	if !ok {
		t.Fatalf("got %T, want Time", msg)
	}

	want := TimeVal{Sec: 1067689, Usec: 404697}
	if tm.Latency != want {
		t.Errorf("Latency = %+v, want %+v", tm.Latency, want)
	}
}

// TestParseServerSettingsJSON exercises §8 scenario 4: the literal
// length-prefixed JSON, and the same JSON with an extra leading key.
func TestParseServerSettingsJSON(t *testing.T) {
	lenPrefix := bytesFromHex(t, "37 00 00 00")
	body := []byte(`{"bufferMs":500,"latency":0,"muted":false,"volume":100}`)
	payload := append(append([]byte{}, lenPrefix...), body...)

	msg, err := ParsePayload(TypeServerSettings, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	s := msg.(ServerSettings)
	checkServerSettings(t, s)
}

func TestParseServerSettingsToleratesExtraKeys(t *testing.T) {
	body := []byte(`{"x":7,"bufferMs":500,"latency":0,"muted":false,"volume":100}`)
	lenPrefix := uint32LE(len(body))
	payload := append(lenPrefix, body...)

	msg, err := ParsePayload(TypeServerSettings, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed with extra key: %v", err)
	}
	checkServerSettings(t, msg.(ServerSettings))
}

func checkServerSettings(t *testing.T, s ServerSettings) {
	t.Helper()
	if s.BufferMs != 500 || s.Latency != 0 || s.Muted != false || s.Volume != 100 {
		t.Errorf("ServerSettings = %+v, want {500 0 false 100}", s)
	}
}

func uint32LE(n int) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

// TestParsePCMCodecHeader exercises §8 scenario 5: a PCM CodecHeader whose
// payload begins with a RIFF/WAVE/fmt header for a 2-channel 48kHz 16-bit
// stream.
func TestParsePCMCodecHeader(t *testing.T) {
	riff := buildCanonicalWavHeader(2, 48000, 16)

	payload := buildCodecHeaderPayload(t, "pcm", riff)

	msg, err := ParsePayload(TypeCodecHeader, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	h := msg.(CodecHeader)

	if h.CodecName != "pcm" {
		t.Fatalf("CodecName = %q, want pcm", h.CodecName)
	}
	if h.PCM == nil {
		t.Fatal("expected PCM metadata to be populated")
	}
	if h.PCM.Channels != 2 || h.PCM.SampleRate != 48000 || h.PCM.BitDepth != 16 {
		t.Errorf("PCM metadata = %+v, want {2 48000 16}", h.PCM)
	}
}

func TestParsePCMCodecHeaderRejectsBadMagic(t *testing.T) {
	bad := buildCanonicalWavHeader(2, 48000, 16)
	bad[0] = 'X' // corrupt "RIFF"

	payload := buildCodecHeaderPayload(t, "pcm", bad)
	if _, err := ParsePayload(TypeCodecHeader, payload); err == nil {
		t.Fatal("expected error for bad RIFF magic")
	}
}

func TestParsePCMCodecHeaderRejectsNonPCMFormatTag(t *testing.T) {
	wav := buildCanonicalWavHeader(2, 48000, 16)
	wav[20] = 3 // IEEE float format tag instead of 1 (PCM)
	wav[21] = 0

	payload := buildCodecHeaderPayload(t, "pcm", wav)
	if _, err := ParsePayload(TypeCodecHeader, payload); err == nil {
		t.Fatal("expected error for non-PCM format_tag")
	}
}

func TestParseOpusCodecHeader(t *testing.T) {
	opusPayload := make([]byte, 12)
	putU32(opusPayload[0:4], 0x4F505553) // arbitrary marker
	putU32(opusPayload[4:8], 48000)
	putU16(opusPayload[8:10], 16)
	putU16(opusPayload[10:12], 2)

	payload := buildCodecHeaderPayload(t, "opus", opusPayload)

	msg, err := ParsePayload(TypeCodecHeader, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	h := msg.(CodecHeader)
	if h.Opus == nil {
		t.Fatal("expected Opus metadata")
	}
	if h.Opus.SampleRate != 48000 || h.Opus.BitDepth != 16 || h.Opus.Channels != 2 {
		t.Errorf("Opus metadata = %+v", h.Opus)
	}
}

// buildFlacStreamInfoContainer builds a full "fLaC" + STREAMINFO container
// the way a real Snapcast FLAC codec header (and this module's own
// internal/audio/decode.buildStreamInfoContainer) lays one out: a 4-byte
// stream marker, a 4-byte metadata block header, then the 34-byte
// STREAMINFO body with the sample_rate/channels/bit_depth bitfield
// starting 10 bytes in (absolute offset 18).
func buildFlacStreamInfoContainer(sampleRate uint32, channels, bitDepth uint16) []byte {
	buf := make([]byte, 4+4+34)
	copy(buf[0:4], "fLaC")
	buf[4] = 0x80 // is-last=1, type=0 (STREAMINFO)
	buf[5], buf[6], buf[7] = 0, 0, 34

	body := buf[8:]
	// body[0:10] (min/max block size, min/max frame size) left at 0: unknown.

	var word uint32
	word |= sampleRate << flacSampleRateShift
	word |= uint32(channels-1) << flacChannelsShift
	word |= uint32(bitDepth-1) << flacBitDepthShift
	putU32BE(body[10:14], word)

	return buf
}

func TestParseFlacCodecHeader(t *testing.T) {
	streamInfo := buildFlacStreamInfoContainer(44100, 2, 16)

	payload := buildCodecHeaderPayload(t, "flac", streamInfo)

	msg, err := ParsePayload(TypeCodecHeader, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	h := msg.(CodecHeader)
	if h.FLAC == nil {
		t.Fatal("expected FLAC metadata")
	}
	if h.FLAC.SampleRate != 44100 || h.FLAC.Channels != 2 || h.FLAC.BitDepth != 16 {
		t.Errorf("FLAC metadata = %+v, want {44100 2 16}", h.FLAC)
	}
}

func TestParseOpaqueCodecHeader(t *testing.T) {
	payload := buildCodecHeaderPayload(t, "vorbis", []byte{1, 2, 3})

	msg, err := ParsePayload(TypeCodecHeader, payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	h := msg.(CodecHeader)
	if h.CodecName != "vorbis" {
		t.Errorf("CodecName = %q", h.CodecName)
	}
	if h.PCM != nil || h.Opus != nil || h.FLAC != nil {
		t.Error("expected no typed metadata for an opaque codec")
	}
	if !bytes.Equal(h.Payload, []byte{1, 2, 3}) {
		t.Errorf("Payload = %v, want [1 2 3]", h.Payload)
	}
}

func TestWireChunkRoundTrip(t *testing.T) {
	c := WireChunk{
		Timestamp:  TimeVal{Sec: 5, Usec: 123},
		Compressed: []byte{0xAA, 0xBB, 0xCC},
	}

	encoded, err := Encode(c)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	msg, err := ParsePayload(TypeWireChunk, encoded)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	decoded := msg.(WireChunk)

	if decoded.Timestamp != c.Timestamp {
		t.Errorf("Timestamp = %+v, want %+v", decoded.Timestamp, c.Timestamp)
	}
	if !bytes.Equal(decoded.Compressed, c.Compressed) {
		t.Errorf("Compressed = %v, want %v", decoded.Compressed, c.Compressed)
	}
}

func TestWireChunkToleratesTrailingBytes(t *testing.T) {
	c := WireChunk{Timestamp: TimeVal{Sec: 1, Usec: 2}, Compressed: []byte{1, 2, 3, 4}}
	encoded, _ := Encode(c)
	padded := append(encoded, 0xFF, 0xFF)

	msg, err := ParsePayload(TypeWireChunk, padded)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if !bytes.Equal(msg.(WireChunk).Compressed, c.Compressed) {
		t.Errorf("trailing bytes leaked into Compressed: %v", msg.(WireChunk).Compressed)
	}
}

func TestHelloEncodeParseRoundTrip(t *testing.T) {
	h := Hello{
		MAC:                       "00:11:22:33:44:55",
		HostName:                  "testhost",
		Version:                   "1.0.0",
		ClientName:                "test client",
		OS:                        "linux",
		Arch:                      "amd64",
		Instance:                  1,
		ID:                        "abc-123",
		SnapStreamProtocolVersion: 2,
	}

	encoded, err := Encode(h)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	msg, err := ParsePayload(TypeHello, encoded)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if msg.(Hello) != h {
		t.Errorf("got %+v, want %+v", msg, h)
	}
}

func TestTimeEncodeParseRoundTrip(t *testing.T) {
	tm := Time{Latency: TimeVal{Sec: 7, Usec: 8}}
	encoded := encodeTime(tm)
	msg, err := ParsePayload(TypeTime, encoded)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if msg.(Time) != tm {
		t.Errorf("got %+v, want %+v", msg, tm)
	}
}

func TestServerSettingsEncodeParseRoundTrip(t *testing.T) {
	s := ServerSettings{BufferMs: 500, Latency: -10, Muted: true, Volume: 42}
	encoded, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	msg, err := ParsePayload(TypeServerSettings, encoded)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if msg.(ServerSettings) != s {
		t.Errorf("got %+v, want %+v", msg, s)
	}
}

// --- test helpers ---

func buildCanonicalWavHeader(channels uint16, sampleRate uint32, bitDepth uint16) []byte {
	buf := make([]byte, 36)
	copy(buf[0:4], "RIFF")
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	putU16(buf[20:22], 1) // format_tag = PCM
	putU16(buf[22:24], channels)
	putU32(buf[24:28], sampleRate)
	byteRate := sampleRate * uint32(channels) * uint32(bitDepth) / 8
	putU32(buf[28:32], byteRate)
	putU16(buf[32:34], channels*bitDepth/8)
	putU16(buf[34:36], bitDepth)
	return buf
}

func buildCodecHeaderPayload(t *testing.T, codecName string, codecPayload []byte) []byte {
	t.Helper()
	name := []byte(codecName)
	buf := make([]byte, 4+len(name)+4+len(codecPayload))
	putU32(buf[0:4], uint32(len(name)))
	copy(buf[4:], name)
	off := 4 + len(name)
	putU32(buf[off:off+4], uint32(len(codecPayload)))
	copy(buf[off+4:], codecPayload)
	return buf
}

func putU16(b []byte, v uint16) { b[0], b[1] = byte(v), byte(v>>8) }
func putU32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}
func putU32BE(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}
