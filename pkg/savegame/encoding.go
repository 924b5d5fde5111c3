package savegame

import (
	"bytes"
	"encoding/json"
	"fmt"

	progressfb "github.com/cbodonnell/snapsync/flatbuffers/progress"
	"github.com/cbodonnell/snapsync/pkg/log"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

// SerialVersion is the version written into every encoded SaveGame.
const SerialVersion = "1.1"

// maxDecodedSize bounds the decompressed size of a snapshot payload.
const maxDecodedSize = 4 << 20

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize), zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
}

// Bytes encodes the SaveGame for upload as snapshot contents: a FlatBuffer
// compressed with zstd. Levels are written in order so that equal
// SaveGames encode identically.
func (s *SaveGame) Bytes() []byte {
	builder := flatbuffers.NewBuilder(0)

	levels := s.Levels()
	offsets := make([]flatbuffers.UOffsetT, 0, len(levels))
	for _, l := range levels {
		progressfb.LevelStarsStart(builder)
		progressfb.LevelStarsAddWorld(builder, int32(l.World))
		progressfb.LevelStarsAddLevel(builder, int32(l.Level))
		progressfb.LevelStarsAddStars(builder, int8(s.levelStars[l]))
		offsets = append(offsets, progressfb.LevelStarsEnd(builder))
	}
	progressfb.ProgressStartLevelsVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	levelsVector := builder.EndVector(len(offsets))
	version := builder.CreateString(SerialVersion)

	progressfb.ProgressStart(builder)
	progressfb.ProgressAddVersion(builder, version)
	progressfb.ProgressAddLevels(builder, levelsVector)
	builder.Finish(progressfb.ProgressEnd(builder))

	return encoder.EncodeAll(builder.FinishedBytes(), nil)
}

// FromBytes decodes snapshot contents. Both the compressed FlatBuffer
// written by Bytes and the JSON written by JSON are accepted. Empty or
// corrupt data yields an empty SaveGame rather than an error: the player
// starts over instead of being locked out.
func FromBytes(data []byte) *SaveGame {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return New()
	case bytes.HasPrefix(data, zstdMagic):
		s, err := decodeFlatbuffer(data)
		if err != nil {
			log.Warn("Save data is corrupt, starting from empty progress: %v", err)
			return New()
		}
		return s
	case trimmed[0] == '{':
		return FromJSON(trimmed)
	default:
		log.Warn("Save data has an unknown format, starting from empty progress")
		return New()
	}
}

func decodeFlatbuffer(data []byte) (s *SaveGame, err error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress save data: %v", err)
	}
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("save data is truncated")
	}

	// the accessors index straight into the buffer and panic on bad offsets
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("failed to read save data: %v", r)
		}
	}()

	p := progressfb.GetRootAsProgress(b, 0)
	if version := string(p.Version()); version != SerialVersion {
		return nil, fmt.Errorf("unexpected save data version %q", version)
	}
	n := p.LevelsLength()
	if n > len(b)/flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("save data claims %d levels in %d bytes", n, len(b))
	}

	s = New()
	ls := &progressfb.LevelStars{}
	for i := 0; i < n; i++ {
		if !p.Levels(ls, i) {
			continue
		}
		if err := s.SetStars(int(ls.World()), int(ls.Level()), int(ls.Stars())); err != nil {
			log.Warn("Skipping level in save data: %v", err)
		}
	}
	return s, nil
}

type jsonSaveGame struct {
	Version string         `json:"version"`
	Levels  map[string]int `json:"levels"`
}

// JSON encodes the SaveGame in the format kept in the local progress cache,
// for example {"levels":{"1-2":3},"version":"1.1"}.
func (s *SaveGame) JSON() []byte {
	levels := make(map[string]int, len(s.Levels()))
	for _, l := range s.Levels() {
		levels[l.String()] = s.levelStars[l]
	}
	b, err := json.Marshal(jsonSaveGame{
		Version: SerialVersion,
		Levels:  levels,
	})
	if err != nil {
		// a map of strings to ints always marshals
		panic(fmt.Sprintf("failed to marshal save game: %v", err))
	}
	return b
}

// FromJSON decodes the output of JSON. Like FromBytes it never fails: bad
// input yields an empty SaveGame, and a level with a bad name is skipped.
func FromJSON(data []byte) *SaveGame {
	s := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return s
	}

	var decoded jsonSaveGame
	if err := json.Unmarshal(data, &decoded); err != nil {
		log.Warn("Save data has a syntax error, starting from empty progress: %v", err)
		return s
	}
	if decoded.Version != SerialVersion {
		log.Warn("Unexpected save data format %q, starting from empty progress", decoded.Version)
		return s
	}
	for name, stars := range decoded.Levels {
		l, err := ParseLevel(name)
		if err != nil {
			log.Warn("Skipping level in save data: %v", err)
			continue
		}
		s.set(l, stars)
	}
	return s
}
