package foreignval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	baerrors "github.com/scarter4work/bayesianastro/domain/errors"
)

func TestEncode_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"float", Float(3.5), "3.5"},
		{"integral float stays float", Float(1), "1.0"},
		{"string", Str("hello"), `"hello"`},
		{"string with quote", Str(`say "hi"`), `"say \"hi\""`},
		{"string with backslash", Str(`C:\frames`), `"C:\\frames"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestEncode_Composite(t *testing.T) {
	v := Record(
		Field{"files", List(Str("/a.fits"), Str("/b.fits"))},
		Field{"tile_size", Tuple(Int(1024), Int(1024))},
		Field{"use_gpu", Bool(true)},
	)

	data, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"files":["/a.fits","/b.fits"],"tile_size":[1024,1024],"use_gpu":true}`,
		string(data))
}

func TestEncode_RejectsNUL(t *testing.T) {
	_, err := Encode(Str("/frames/bad\x00.fits"))
	require.Error(t, err)

	var me *baerrors.MarshalError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Reason, "NUL")

	// Same rejection inside a nested structure.
	_, err = Encode(List(Str("ok"), Str("bad\x00")))
	assert.ErrorAs(t, err, &me)
}

func TestEncode_RejectsInvalidUTF8(t *testing.T) {
	var me *baerrors.MarshalError
	_, err := Encode(Str(string([]byte{0xff, 0xfe})))
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Reason, "UTF-8")
}

func TestEncode_RejectsNonFiniteFloats(t *testing.T) {
	var me *baerrors.MarshalError

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Encode(Float(f))
		assert.ErrorAs(t, err, &me)
	}
}

func TestDecode_Strict(t *testing.T) {
	t.Run("integer stays int", func(t *testing.T) {
		v, err := Decode([]byte("42"))
		require.NoError(t, err)
		i, err := v.AsInt()
		require.NoError(t, err)
		assert.Equal(t, int64(42), i)

		_, err = v.AsFloat()
		assert.Error(t, err, "no int-to-float coercion")
	})

	t.Run("float stays float", func(t *testing.T) {
		v, err := Decode([]byte("1.0"))
		require.NoError(t, err)
		f, err := v.AsFloat()
		require.NoError(t, err)
		assert.Equal(t, 1.0, f)

		_, err = v.AsInt()
		assert.Error(t, err, "no float-to-int coercion even for integral floats")
	})

	t.Run("bool is not int", func(t *testing.T) {
		v, err := Decode([]byte("true"))
		require.NoError(t, err)
		_, err = v.AsInt()
		assert.Error(t, err)
	})

	t.Run("null rejected", func(t *testing.T) {
		_, err := Decode([]byte("null"))
		assert.Error(t, err)
	})

	t.Run("trailing data rejected", func(t *testing.T) {
		_, err := Decode([]byte("42 43"))
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := Decode([]byte("{not json"))
		assert.Error(t, err)
	})
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		Bool(true),
		Int(-123456789),
		Float(2.5),
		Float(1024),
		Str("päth/with/ünïcode.fits"),
		List(),
		List(Int(1), Int(2), Int(3)),
		Tuple(Int(4096), Int(2048)),
		Record(
			Field{"fusion_strategy", Int(2)},
			Field{"confidence_threshold", Float(0.1)},
			Field{"outlier_sigma", Float(3)},
			Field{"tile_size", Tuple(Int(1024), Int(1024))},
			Field{"use_gpu", Bool(true)},
		),
	}

	for _, v := range values {
		data, err := Encode(v)
		require.NoError(t, err)

		back, err := Decode(data)
		require.NoError(t, err, "decoding %s", data)
		assert.True(t, v.Equal(back), "round-trip mismatch for %s", data)
	}
}

func TestValue_Accessors(t *testing.T) {
	rec := Record(
		Field{"ok", Bool(true)},
		Field{"dims", Tuple(Int(100), Int(200))},
	)

	ok, err := rec.Get("ok")
	require.NoError(t, err)
	b, err := ok.AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	dims, err := rec.Get("dims")
	require.NoError(t, err)
	items, err := dims.AsTuple(2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = dims.AsTuple(3)
	assert.Error(t, err, "arity mismatch is a hard error")

	_, err = rec.Get("missing")
	assert.Error(t, err)

	_, err = Bool(true).Get("x")
	assert.Error(t, err, "Get on non-record is a hard error")
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Tuple(Int(1)).Equal(List(Int(1))), "tuple and list are wire-equal")
	assert.False(t, Int(1).Equal(Float(1)), "int never equals float")
	assert.False(t,
		Record(Field{"a", Int(1)}, Field{"b", Int(2)}).Equal(
			Record(Field{"b", Int(2)}, Field{"a", Int(1)})),
		"field order is significant")
}
