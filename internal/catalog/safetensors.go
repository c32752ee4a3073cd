package catalog

import "github.com/samcharles93/plum/pkg/plum"

// SafetensorsPrefix is the length-prefixed JSON header at the start of a
// .safetensors file.
var SafetensorsPrefix = plum.MustStruct("SafetensorsPrefix",
	plum.Dims("header_len", plum.UInt64, "header"),
	plum.Field("header", plum.Str),
)

func safetensorsLayouts() []Layout {
	return []Layout{
		{Name: "safetensors.prefix", Description: "safetensors header length and JSON header", Type: SafetensorsPrefix},
	}
}
