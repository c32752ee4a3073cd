package catalog

import (
	"hash/crc32"

	"github.com/samcharles93/plum/pkg/plum"
)

var fourCC = plum.MustStr(plum.StrConfig{Name: "FourCC", Encoding: "ascii", NBytes: 4})

var WAVFormat = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "WAVFormat", Width: 2},
	Members: []plum.EnumMember{
		{Name: "PCM", Value: 1},
		{Name: "IEEE_FLOAT", Value: 3},
		{Name: "ALAW", Value: 6},
		{Name: "MULAW", Value: 7},
		{Name: "EXTENSIBLE", Value: 0xfffe},
	},
})

// WAVHeader is the canonical 44-byte RIFF/WAVE header with a single fmt
// chunk directly followed by the data chunk header.
var WAVHeader = plum.MustStruct("WAVHeader",
	plum.Field("riff", fourCC, plum.Default("RIFF")),
	plum.Field("chunk_size", plum.UInt32),
	plum.Field("wave", fourCC, plum.Default("WAVE")),
	plum.Field("fmt", fourCC, plum.Default("fmt ")),
	plum.Field("fmt_size", plum.UInt32, plum.Default(16)),
	plum.Field("audio_format", WAVFormat, plum.Default("PCM")),
	plum.Field("channels", plum.UInt16),
	plum.Field("sample_rate", plum.UInt32),
	plum.Field("byte_rate", plum.UInt32),
	plum.Field("block_align", plum.UInt16),
	plum.Field("bits_per_sample", plum.UInt16),
	plum.Field("data", fourCC, plum.Default("data")),
	plum.Field("data_size", plum.UInt32),
)

var pngSignature = plum.MustByteArray(plum.ByteArrayConfig{Name: "PNGSignature", NBytes: 8})

// PNGMagic is the eight byte signature every PNG file starts with.
var PNGMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var PNGColorType = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "PNGColorType", Width: 1},
	Members: []plum.EnumMember{
		{Name: "GRAY", Value: 0},
		{Name: "RGB", Value: 2},
		{Name: "PALETTE", Value: 3},
		{Name: "GRAY_ALPHA", Value: 4},
		{Name: "RGBA", Value: 6},
	},
})

var PNGInterlace = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "PNGInterlace", Width: 1},
	Members: []plum.EnumMember{
		{Name: "NONE", Value: 0},
		{Name: "ADAM7", Value: 1},
	},
})

// PNGChunk is any chunk. The CRC covers the type and data fields and is
// left out of equality.
var PNGChunk = plum.MustStruct("PNGChunk",
	plum.Dims("length", plum.UInt32BE, "data"),
	plum.Field("type", fourCC),
	plum.Field("data", plum.ByteArray),
	plum.Field("crc", plum.UInt32BE, plum.Default(0), plum.Ignore()),
)

// PNGHead is the signature followed by the IHDR chunk.
var PNGHead = plum.MustStruct("PNGHead",
	plum.Field("signature", pngSignature, plum.Default(PNGMagic)),
	plum.Field("length", plum.UInt32BE, plum.Default(13)),
	plum.Field("type", fourCC, plum.Default("IHDR")),
	plum.Field("width", plum.UInt32BE),
	plum.Field("height", plum.UInt32BE),
	plum.Field("bit_depth", plum.UInt8, plum.Default(8)),
	plum.Field("color_type", PNGColorType, plum.Default("RGBA")),
	plum.Field("compression", plum.UInt8, plum.Default(0)),
	plum.Field("filter", plum.UInt8, plum.Default(0)),
	plum.Field("interlace", PNGInterlace, plum.Default("NONE")),
	plum.Field("crc", plum.UInt32BE, plum.Default(0), plum.Ignore()),
)

// ChunkCRC computes the CRC-32 a PNG chunk stores after its data.
func ChunkCRC(chunkType string, data []byte) uint32 {
	h := crc32.NewIEEE()
	_, _ = h.Write([]byte(chunkType))
	_, _ = h.Write(data)
	return h.Sum32()
}

func mediaLayouts() []Layout {
	return []Layout{
		{Name: "wav.header", Description: "canonical 44-byte RIFF/WAVE header", Type: WAVHeader},
		{Name: "png.head", Description: "PNG signature and IHDR chunk (33 bytes)", Type: PNGHead},
		{Name: "png.chunk", Description: "PNG chunk: length, type, data, CRC", Type: PNGChunk},
	}
}
