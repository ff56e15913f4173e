package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPrimitive(t *testing.T) {
	for _, name := range []string{"u8", "i8", "u16", "i16", "u32", "i32", "u64", "i64", "f32", "f64", "bool", "usize", "ptr", "void"} {
		p, ok := LookupPrimitive(name)
		require.True(t, ok, name)
		assert.Equal(t, name, p.String())
	}
	_, ok := LookupPrimitive("invalid")
	assert.False(t, ok)
	_, ok = LookupPrimitive("Point")
	assert.False(t, ok)
}

func TestPrimitiveSizes(t *testing.T) {
	assert.Equal(t, 1, U8.Size())
	assert.Equal(t, 1, Bool.Size())
	assert.Equal(t, 2, I16.Size())
	assert.Equal(t, 4, F32.Size())
	assert.Equal(t, 8, Usize.Size())
	assert.Equal(t, 8, Ptr.Size())
	assert.Equal(t, 0, Void.Size())
	assert.Equal(t, 1, Void.Align())
	assert.Equal(t, 8, U64.Align())

	assert.True(t, Usize.Integral())
	assert.False(t, F64.Integral())
	assert.False(t, Bool.Integral())
	assert.True(t, I32.Signed())
	assert.False(t, U32.Signed())
}

func TestParseInteger(t *testing.T) {
	v, err := ParseInteger(U32, "0x10")
	require.NoError(t, err)
	assert.Equal(t, uint64(16), v)

	v, err = ParseInteger(I8, "-1")
	require.NoError(t, err)
	assert.Equal(t, "-1", FormatInteger(I8, v))

	v, err = ParseInteger(U64, "18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", FormatInteger(U64, v))

	_, err = ParseInteger(U8, "256")
	assert.Error(t, err)
	_, err = ParseInteger(U8, "-1")
	assert.Error(t, err)
	_, err = ParseInteger(F32, "1")
	assert.Error(t, err)
	_, err = ParseInteger(U16, "")
	assert.Error(t, err)
}

func TestParseScalar(t *testing.T) {
	assert.NoError(t, ParseScalar(F32, "1.5"))
	assert.NoError(t, ParseScalar(Bool, "true"))
	assert.Error(t, ParseScalar(Bool, "yes please"))
	assert.Error(t, ParseScalar(F64, "pi"))
	assert.Error(t, ParseScalar(Ptr, "0"))
}

func TestCatalogLookup(t *testing.T) {
	c := pointCatalog()
	c.Enums = []EnumType{{Name: "Winding", Underlying: U8}}
	c.Index()

	ref, ok := c.LookupType("Point")
	require.True(t, ok)
	assert.Equal(t, KindStruct, ref.Kind)
	assert.Equal(t, "Point", c.Struct(ref).Name)
	assert.Nil(t, c.Extensible(ref))

	ref, ok = c.LookupType("Winding")
	require.True(t, ok)
	assert.Equal(t, U8, c.Scalar(ref))

	ref, ok = c.LookupType("u16")
	require.True(t, ok)
	assert.True(t, ref.IsPrimitive(U16))

	_, ok = c.LookupType("Missing")
	assert.False(t, ok)
}

func TestCanonicalCatalogShape(t *testing.T) {
	obj := pointCatalog().Canonical()
	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"structs":[{"fields":[{"name":"x","type":{"kind":"primitive","name":"i32"}}`)
	assert.Contains(t, string(data), `"ir_version":"1"`)
}

func TestOutputKindValid(t *testing.T) {
	assert.True(t, OutputCodec.Valid())
	assert.True(t, OutputKind("header").Valid())
	assert.False(t, OutputKind("rust").Valid())
}
