// ABOUTME: Typed payload parse/emit for Hello, ServerSettings, CodecHeader, WireChunk, Time
// ABOUTME: JSON payloads are materialized; binary payloads borrow from the input buffer where possible
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// TypedMessage is implemented by every typed payload this package knows
// how to parse.
type TypedMessage interface {
	messageType() MessageType
}

// Hello is sent client->server to identify this client and its
// capabilities.
type Hello struct {
	MAC                       string `json:"MAC"`
	HostName                  string `json:"HostName"`
	Version                   string `json:"Version"`
	ClientName                string `json:"ClientName"`
	OS                        string `json:"OS"`
	Arch                      string `json:"Arch"`
	Instance                  uint8  `json:"Instance"`
	ID                        string `json:"ID"`
	SnapStreamProtocolVersion uint8  `json:"SnapStreamProtocolVersion"`
}

func (Hello) messageType() MessageType { return TypeHello }

// ServerSettings is sent server->client with session-wide playback
// parameters. Unknown JSON keys are tolerated and ignored.
type ServerSettings struct {
	BufferMs uint32 `json:"bufferMs"`
	Latency  int32  `json:"latency"`
	Muted    bool   `json:"muted"`
	Volume   uint8  `json:"volume"`
}

func (ServerSettings) messageType() MessageType { return TypeServerSettings }

// PcmMetadata describes a PCM stream parsed from a WAV-style RIFF header.
type PcmMetadata struct {
	Channels   uint16
	SampleRate uint32
	BitDepth   uint16
}

// OpusMetadata describes an Opus stream's fixed header fields.
type OpusMetadata struct {
	Marker     uint32
	SampleRate uint32
	BitDepth   uint16
	Channels   uint16
}

// FlacMetadata describes a FLAC stream's STREAMINFO fields relevant to
// playback.
type FlacMetadata struct {
	SampleRate uint32
	Channels   uint16
	BitDepth   uint16
}

// CodecHeader carries the codec name and its codec-specific metadata
// payload. Payload always holds the raw codec payload bytes; opaque
// codecs (anything not pcm/opus/flac) leave the typed metadata fields nil.
type CodecHeader struct {
	CodecName string
	Payload   []byte // borrowed from the parse input; do not retain past the frame's lifetime without copying

	PCM  *PcmMetadata
	Opus *OpusMetadata
	FLAC *FlacMetadata
}

func (CodecHeader) messageType() MessageType { return TypeCodecHeader }

// WireChunk is one timestamped, compressed audio frame.
type WireChunk struct {
	Timestamp  TimeVal
	Compressed []byte // borrowed from the parse input
}

func (WireChunk) messageType() MessageType { return TypeWireChunk }

// Time carries a single TimeVal used for round-trip clock probes.
type Time struct {
	Latency TimeVal
}

func (Time) messageType() MessageType { return TypeTime }

// ParsePayload parses the payload bytes of a frame whose Base.Type is
// kind. The returned TypedMessage borrows from payload for WireChunk's
// Compressed and CodecHeader's Payload; callers that need the message to
// outlive the next read must copy it themselves (as the session reader
// does before handing a DeadlineChunk to the scheduler).
func ParsePayload(kind MessageType, payload []byte) (TypedMessage, error) {
	switch kind {
	case TypeHello:
		return parseHello(payload)
	case TypeServerSettings:
		return parseServerSettings(payload)
	case TypeCodecHeader:
		return parseCodecHeader(payload)
	case TypeWireChunk:
		return parseWireChunk(payload)
	case TypeTime:
		return parseTime(payload)
	default:
		return nil, fmt.Errorf("%w: no payload parser for type %d", ErrMalformedFrame, kind)
	}
}

// Encode serializes msg back to wire bytes, the payload half of a frame
// (the caller wraps it with EncodeBase using len(Encode(msg))).
func Encode(msg TypedMessage) ([]byte, error) {
	switch m := msg.(type) {
	case Hello:
		return encodeHello(m)
	case ServerSettings:
		return encodeServerSettings(m)
	case CodecHeader:
		return encodeCodecHeader(m)
	case WireChunk:
		return encodeWireChunk(m), nil
	case Time:
		return encodeTime(m), nil
	default:
		return nil, fmt.Errorf("%w: no encoder for %T", ErrMalformedFrame, msg)
	}
}

func lengthPrefixedJSON(v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal payload: %w", err)
	}
	buf := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(body)))
	copy(buf[4:], body)
	return buf, nil
}

func readLengthPrefixedJSON(payload []byte, v interface{}) error {
	if len(payload) < 4 {
		return fmt.Errorf("%w: length-prefixed JSON too short", ErrMalformedPayload)
	}
	n := binary.LittleEndian.Uint32(payload[0:4])
	if uint32(len(payload)-4) < n {
		return fmt.Errorf("%w: declared JSON length %d exceeds buffer", ErrMalformedPayload, n)
	}
	body := payload[4 : 4+n] // trailing bytes beyond the declared length are ignored
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func parseHello(payload []byte) (Hello, error) {
	var h Hello
	if err := readLengthPrefixedJSON(payload, &h); err != nil {
		return Hello{}, err
	}
	return h, nil
}

func encodeHello(h Hello) ([]byte, error) {
	return lengthPrefixedJSON(h)
}

func parseServerSettings(payload []byte) (ServerSettings, error) {
	var s ServerSettings
	if err := readLengthPrefixedJSON(payload, &s); err != nil {
		return ServerSettings{}, err
	}
	return s, nil
}

func encodeServerSettings(s ServerSettings) ([]byte, error) {
	return lengthPrefixedJSON(s)
}

func parseTime(payload []byte) (Time, error) {
	if len(payload) < sizeTimeVal {
		return Time{}, fmt.Errorf("%w: Time payload is %d bytes, want %d", ErrMalformedPayload, len(payload), sizeTimeVal)
	}
	return Time{Latency: decodeTimeVal(payload)}, nil
}

func encodeTime(t Time) []byte {
	buf := make([]byte, sizeTimeVal)
	encodeTimeVal(buf, t.Latency)
	return buf
}

func parseWireChunk(payload []byte) (WireChunk, error) {
	const fixedSize = sizeTimeVal + 4 // TimeVal + u32 size
	if len(payload) < fixedSize {
		return WireChunk{}, fmt.Errorf("%w: WireChunk header is %d bytes, want >= %d", ErrMalformedPayload, len(payload), fixedSize)
	}

	ts := decodeTimeVal(payload[0:8])
	size := binary.LittleEndian.Uint32(payload[8:12])
	if uint32(len(payload)-fixedSize) < size {
		return WireChunk{}, fmt.Errorf("%w: WireChunk declares %d bytes of audio, buffer has %d", ErrMalformedPayload, size, len(payload)-fixedSize)
	}

	return WireChunk{
		Timestamp:  ts,
		Compressed: payload[fixedSize : fixedSize+int(size)],
	}, nil
}

func encodeWireChunk(c WireChunk) []byte {
	buf := make([]byte, sizeTimeVal+4+len(c.Compressed))
	encodeTimeVal(buf[0:8], c.Timestamp)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(c.Compressed)))
	copy(buf[12:], c.Compressed)
	return buf
}

// supportedCodecs lists the codec_name values this client recognizes.
// pcm, opus and flac get typed metadata; ogg and any other name are kept
// opaque.
var supportedCodecs = map[string]bool{"pcm": true, "opus": true, "flac": true, "ogg": true}

func parseCodecHeader(payload []byte) (CodecHeader, error) {
	if len(payload) < 4 {
		return CodecHeader{}, fmt.Errorf("%w: CodecHeader too short for name length", ErrMalformedPayload)
	}
	nameLen := binary.LittleEndian.Uint32(payload[0:4])
	off := 4
	if uint32(len(payload)-off) < nameLen {
		return CodecHeader{}, fmt.Errorf("%w: CodecHeader name length %d exceeds buffer", ErrMalformedPayload, nameLen)
	}
	name := string(payload[off : off+int(nameLen)])
	off += int(nameLen)

	if len(payload)-off < 4 {
		return CodecHeader{}, fmt.Errorf("%w: CodecHeader too short for payload length", ErrMalformedPayload)
	}
	payloadLen := binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	if uint32(len(payload)-off) < payloadLen {
		return CodecHeader{}, fmt.Errorf("%w: CodecHeader payload length %d exceeds buffer", ErrMalformedPayload, payloadLen)
	}
	codecPayload := payload[off : off+int(payloadLen)]

	h := CodecHeader{CodecName: name, Payload: codecPayload}

	if !supportedCodecs[name] {
		return h, nil // opaque: caller decides whether an unrecognized codec is fatal
	}

	switch name {
	case "pcm":
		meta, err := parsePCMRiff(codecPayload)
		if err != nil {
			return CodecHeader{}, err
		}
		h.PCM = &meta
	case "opus":
		meta, err := parseOpusHeader(codecPayload)
		if err != nil {
			return CodecHeader{}, err
		}
		h.Opus = &meta
	case "flac":
		meta, err := parseFlacStreamInfo(codecPayload)
		if err != nil {
			return CodecHeader{}, err
		}
		h.FLAC = &meta
	}

	return h, nil
}

func encodeCodecHeader(h CodecHeader) ([]byte, error) {
	nameBytes := []byte(h.CodecName)
	buf := make([]byte, 4+len(nameBytes)+4+len(h.Payload))
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(nameBytes)))
	off += 4
	copy(buf[off:], nameBytes)
	off += len(nameBytes)
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(h.Payload)))
	off += 4
	copy(buf[off:], h.Payload)
	return buf, nil
}

// parsePCMRiff validates a WAV-style RIFF header and extracts the fields
// the scheduler needs. Offsets follow the canonical 44-byte "canonical
// PCM WAVE format" header.
func parsePCMRiff(data []byte) (PcmMetadata, error) {
	const minRiffLen = 36 // through the fmt chunk, excluding "data" tag/size
	if len(data) < minRiffLen {
		return PcmMetadata{}, fmt.Errorf("%w: PCM RIFF header too short: %d bytes", ErrMalformedPayload, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[12:16]) != "fmt " {
		return PcmMetadata{}, fmt.Errorf("%w: bad RIFF/WAVE magic", ErrMalformedPayload)
	}

	formatTag := binary.LittleEndian.Uint16(data[20:22])
	if formatTag != 1 {
		return PcmMetadata{}, fmt.Errorf("%w: PCM format_tag %d, want 1 (PCM)", ErrMalformedPayload, formatTag)
	}

	return PcmMetadata{
		Channels:   binary.LittleEndian.Uint16(data[22:24]),
		SampleRate: binary.LittleEndian.Uint32(data[24:28]),
		BitDepth:   binary.LittleEndian.Uint16(data[34:36]),
	}, nil
}

func parseOpusHeader(data []byte) (OpusMetadata, error) {
	const size = 4 + 4 + 2 + 2
	if len(data) < size {
		return OpusMetadata{}, fmt.Errorf("%w: Opus codec header is %d bytes, want %d", ErrMalformedPayload, len(data), size)
	}
	return OpusMetadata{
		Marker:     binary.LittleEndian.Uint32(data[0:4]),
		SampleRate: binary.LittleEndian.Uint32(data[4:8]),
		BitDepth:   binary.LittleEndian.Uint16(data[8:10]),
		Channels:   binary.LittleEndian.Uint16(data[10:12]),
	}, nil
}

// FLAC STREAMINFO bit layout (big-endian 32-bit slice: the top 32 bits of
// the 64-bit <sample_rate:20><channels-1:3><bits_per_sample-1:5><total
// samples:36> field defined by the FLAC format spec). The lower 4 bits of
// this word are the top of the 36-bit total-samples field and are unused
// here. spec.md's masks undercount the sample-rate field by a nibble; the
// values below are the ones that actually match the FLAC spec layout.
const (
	flacSampleRateMask  = 0xFFFFF000
	flacSampleRateShift = 12
	flacChannelsMask    = 0x00000E00
	flacChannelsShift   = 9
	flacBitDepthMask    = 0x000001F0
	flacBitDepthShift   = 4
)

// flacBitfieldOffset is where the sample_rate/channels/bits_per_sample
// bitfield starts inside a full FLAC codec header payload: 4 bytes for
// the "fLaC" stream marker, 4 bytes for the STREAMINFO metadata block
// header, then 10 bytes of min/max block size and min/max frame size
// ahead of the bitfield itself (internal/audio/decode.buildStreamInfoContainer
// lays out the same container on encode).
const flacBitfieldOffset = 18

func parseFlacStreamInfo(data []byte) (FlacMetadata, error) {
	if len(data) < flacBitfieldOffset+4 {
		return FlacMetadata{}, fmt.Errorf("%w: FLAC codec header is %d bytes, want >= %d", ErrMalformedPayload, len(data), flacBitfieldOffset+4)
	}
	bits := binary.BigEndian.Uint32(data[flacBitfieldOffset : flacBitfieldOffset+4])

	sampleRate := (bits & flacSampleRateMask) >> flacSampleRateShift
	channels := (bits&flacChannelsMask)>>flacChannelsShift + 1
	bitDepth := (bits&flacBitDepthMask)>>flacBitDepthShift + 1

	return FlacMetadata{
		SampleRate: sampleRate,
		Channels:   uint16(channels),
		BitDepth:   uint16(bitDepth),
	}, nil
}
