package catalog

import "github.com/samcharles93/plum/pkg/plum"

// Model Container File structures. All fields are little endian and the
// header and directory entries are fixed size.

var mcfMagic = plum.MustStr(plum.StrConfig{Name: "MCFMagic", Encoding: "ascii", NBytes: 4, Pad: []byte{0}})

var MCFFlags = plum.MustFlag(plum.FlagConfig{
	IntConfig: plum.IntConfig{Name: "MCFFlags", Width: 8},
	Members: []plum.FlagMember{
		{Name: "TENSOR_DATA_ALIGNED64", Value: 1 << 0},
	},
})

var MCFSectionType = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "MCFSectionType", Width: 4},
	Members: []plum.EnumMember{
		{Name: "MODEL_INFO", Value: 1},
		{Name: "QUANT_INFO", Value: 2},
		{Name: "TENSOR_INDEX", Value: 3},
		{Name: "TENSOR_DATA", Value: 4},
	},
})

var MCFHeader = plum.MustStruct("MCFHeader",
	plum.Field("magic", mcfMagic, plum.Default("MCF")),
	plum.Field("major", plum.UInt16, plum.Default(1)),
	plum.Field("minor", plum.UInt16, plum.Default(0)),
	plum.Field("header_size", plum.UInt32, plum.Default(40)),
	plum.Field("section_count", plum.UInt32),
	plum.Field("section_dir_offset", plum.UInt64),
	plum.Field("file_size", plum.UInt64),
	plum.Field("flags", MCFFlags, plum.Default(0)),
)

var MCFSection = plum.MustStruct("MCFSection",
	plum.Field("type", MCFSectionType),
	plum.Field("version", plum.UInt32, plum.Default(1)),
	plum.Field("offset", plum.UInt64),
	plum.Field("size", plum.UInt64),
)

var MCFTensorDType = plum.MustEnum(plum.EnumConfig{
	IntConfig: plum.IntConfig{Name: "MCFTensorDType", Width: 4},
	Members: []plum.EnumMember{
		{Name: "UNKNOWN", Value: 0},
		{Name: "F32", Value: 1},
		{Name: "F16", Value: 2},
		{Name: "BF16", Value: 3},
		{Name: "F64", Value: 4},
		{Name: "I8", Value: 5},
		{Name: "U8", Value: 6},
		{Name: "I16", Value: 7},
		{Name: "U16", Value: 8},
		{Name: "I32", Value: 9},
		{Name: "U32", Value: 10},
		{Name: "I64", Value: 11},
		{Name: "U64", Value: 12},
	},
})

var MCFIndexFlags = plum.MustFlag(plum.FlagConfig{
	IntConfig: plum.IntConfig{Name: "MCFIndexFlags", Width: 4},
	Members: []plum.FlagMember{
		{Name: "SORTED_BY_NAME", Value: 1 << 0},
		{Name: "NAMES_UTF8", Value: 1 << 1},
	},
})

var MCFTensorIndexHeader = plum.MustStruct("MCFTensorIndexHeader",
	plum.Field("version", plum.UInt32, plum.Default(1)),
	plum.Field("flags", MCFIndexFlags, plum.Default(0)),
	plum.Field("tensor_count", plum.UInt32),
	plum.Field("dims_count", plum.UInt32),
	plum.Field("entries_off", plum.UInt64),
	plum.Field("dims_off", plum.UInt64),
	plum.Field("strings_off", plum.UInt64),
	plum.Field("strings_size", plum.UInt64),
)

var MCFTensorEntry = plum.MustStruct("MCFTensorEntry",
	plum.Field("name_off", plum.UInt32),
	plum.Field("name_len", plum.UInt32),
	plum.Field("dtype", MCFTensorDType),
	plum.Field("rank", plum.UInt32),
	plum.Field("dim_off", plum.UInt32),
	plum.Field("reserved", plum.UInt32, plum.Default(0), plum.Ignore()),
	plum.Field("data_off", plum.UInt64),
	plum.Field("data_size", plum.UInt64),
)

func mcfLayouts() []Layout {
	return []Layout{
		{Name: "mcf.header", Description: "MCF container header (40 bytes)", Type: MCFHeader},
		{Name: "mcf.section", Description: "MCF section directory entry (24 bytes)", Type: MCFSection},
		{Name: "mcf.tensor_index", Description: "MCF tensor index section header", Type: MCFTensorIndexHeader},
		{Name: "mcf.tensor_entry", Description: "MCF tensor index entry", Type: MCFTensorEntry},
	}
}
