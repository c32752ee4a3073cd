package catalog

import "github.com/samcharles93/plum/pkg/plum"

// GGUF metadata, version 2 and later. Tensor data is not described; the
// metadata ends where the aligned tensor blob begins.

var GGUFString = plum.MustStruct("GGUFString",
	plum.Dims("len", plum.UInt64, "text"),
	plum.Field("text", plum.Str),
)

var GGUFValueType = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "GGUFValueType", Width: 4},
	Members: []plum.EnumMember{
		{Name: "UINT8", Value: 0},
		{Name: "INT8", Value: 1},
		{Name: "UINT16", Value: 2},
		{Name: "INT16", Value: 3},
		{Name: "UINT32", Value: 4},
		{Name: "INT32", Value: 5},
		{Name: "FLOAT32", Value: 6},
		{Name: "BOOL", Value: 7},
		{Name: "STRING", Value: 8},
		{Name: "ARRAY", Value: 9},
		{Name: "UINT64", Value: 10},
		{Name: "INT64", Value: 11},
		{Name: "FLOAT64", Value: 12},
	},
	Strict: true,
})

var GGMLType = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "GGMLType", Width: 4},
	Members: []plum.EnumMember{
		{Name: "F32", Value: 0},
		{Name: "F16", Value: 1},
		{Name: "Q4_0", Value: 2},
		{Name: "Q4_1", Value: 3},
		{Name: "Q5_0", Value: 6},
		{Name: "Q5_1", Value: 7},
		{Name: "Q8_0", Value: 8},
		{Name: "Q8_1", Value: 9},
		{Name: "Q2_K", Value: 10},
		{Name: "Q3_K", Value: 11},
		{Name: "Q4_K", Value: 12},
		{Name: "Q5_K", Value: 13},
		{Name: "Q6_K", Value: 14},
		{Name: "Q8_K", Value: 15},
		{Name: "I8", Value: 16},
		{Name: "I16", Value: 17},
		{Name: "I32", Value: 18},
		{Name: "I64", Value: 19},
		{Name: "F64", Value: 20},
		{Name: "BF16", Value: 30},
	},
})

// scalars maps each non-array value type to its layout.
var ggufScalars = map[string]plum.Type{
	"UINT8":   plum.UInt8,
	"INT8":    plum.SInt8,
	"UINT16":  plum.UInt16,
	"INT16":   plum.SInt16,
	"UINT32":  plum.UInt32,
	"INT32":   plum.SInt32,
	"FLOAT32": plum.Float32,
	"BOOL":    plum.UInt8,
	"STRING":  GGUFString,
	"UINT64":  plum.UInt64,
	"INT64":   plum.SInt64,
	"FLOAT64": plum.Float64,
}

// GGUFArray is a typed, counted array. Arrays of arrays are not mapped.
var GGUFArray = func() *plum.StructType {
	arms := make(map[any]plum.Type, len(ggufScalars))
	for name, elem := range ggufScalars {
		arms[name] = plum.MustStruct("GGUFArrayOf"+name,
			plum.Dims("count", plum.UInt64, "items"),
			plum.Field("items", plum.MustArray(plum.ArrayConfig{Name: name + "[]", Elem: elem})),
		)
	}
	return plum.MustStruct("GGUFArray",
		plum.Field("elem_type", GGUFValueType),
		plum.Switch("body", "elem_type", arms),
	)
}()

var GGUFKV = func() *plum.StructType {
	arms := make(map[any]plum.Type, len(ggufScalars)+1)
	for name, t := range ggufScalars {
		arms[name] = t
	}
	arms["ARRAY"] = GGUFArray
	return plum.MustStruct("GGUFKV",
		plum.Field("key", GGUFString),
		plum.Field("type", GGUFValueType),
		plum.Switch("value", "type", arms),
	)
}()

var GGUFTensorInfo = plum.MustStruct("GGUFTensorInfo",
	plum.Field("name", GGUFString),
	plum.Dims("n_dims", plum.UInt32, "dims"),
	plum.Field("dims", plum.MustArray(plum.ArrayConfig{Name: "GGUFDims", Elem: plum.UInt64})),
	plum.Field("type", GGMLType),
	plum.Field("offset", plum.UInt64),
)

var ggufMagic = plum.MustStr(plum.StrConfig{Name: "GGUFMagic", Encoding: "ascii", NBytes: 4})

var GGUFHeader = plum.MustStruct("GGUFHeader",
	plum.Field("magic", ggufMagic, plum.Default("GGUF")),
	plum.Field("version", plum.UInt32, plum.Default(3)),
	plum.Field("tensor_count", plum.UInt64),
	plum.Field("kv_count", plum.UInt64),
)

var GGUFMetadata = plum.MustStruct("GGUFMetadata",
	plum.Field("magic", ggufMagic, plum.Default("GGUF")),
	plum.Field("version", plum.UInt32, plum.Default(3)),
	plum.Dims("tensor_count", plum.UInt64, "tensors"),
	plum.Dims("kv_count", plum.UInt64, "kv"),
	plum.Field("kv", plum.MustArray(plum.ArrayConfig{Name: "GGUFKVs", Elem: GGUFKV})),
	plum.Field("tensors", plum.MustArray(plum.ArrayConfig{Name: "GGUFTensorInfos", Elem: GGUFTensorInfo})),
)

func ggufLayouts() []Layout {
	return []Layout{
		{Name: "gguf.header", Description: "GGUF file header (24 bytes)", Type: GGUFHeader},
		{Name: "gguf.string", Description: "GGUF length-prefixed UTF-8 string", Type: GGUFString},
		{Name: "gguf.kv", Description: "GGUF metadata key/value pair", Type: GGUFKV},
		{Name: "gguf.tensor_info", Description: "GGUF tensor descriptor", Type: GGUFTensorInfo},
		{Name: "gguf.metadata", Description: "GGUF header, metadata and tensor descriptors", Type: GGUFMetadata},
	}
}
