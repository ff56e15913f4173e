package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x", "X"},
		{"memory_type_idx", "MemoryTypeIdx"},
		{"MAX_VERTICES", "MaxVertices"},
		{"MagmaCreateBufferInfo", "MagmaCreateBufferInfo"},
		{"CounterClockwise", "CounterClockwise"},
		{"create-device", "CreateDevice"},
		{"ID", "Id"},
		{"3", "N3"},
		{"", "X"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, goName(tt.in))
		})
	}
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "deviceChannel", localName("device_channel"))
	assert.Equal(t, "type_", localName("type"))
	assert.Equal(t, "httpServer", localName("HTTPServer"))
	assert.Equal(t, "x", localName("X"))
}

func TestMacroName(t *testing.T) {
	tests := map[string]string{
		"CounterClockwise":      "COUNTER_CLOCKWISE",
		"MAX_VERTICES":          "MAX_VERTICES",
		"geometry.h":            "GEOMETRY_H",
		"GeometryStructureType": "GEOMETRY_STRUCTURE_TYPE",
		"HTTPServer":            "HTTP_SERVER",
		"create_buffer":         "CREATE_BUFFER",
		"Vec3Float":             "VEC3_FLOAT",
	}
	for in, want := range tests {
		assert.Equal(t, want, macroName(in), in)
	}
}

func TestFieldNameAvoidsMethods(t *testing.T) {
	assert.Equal(t, "EncodeField", fieldName("encode"))
	assert.Equal(t, "OpcodeField", fieldName("opcode"))
	assert.Equal(t, "Size", fieldName("size"))
}
