package deser

import (
	"fmt"
	"math"

	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// coerce converts raw (whatever native Go value a Format's ReadScalar
// produced: bool, int64, uint64, float64, string, []byte) into the exact
// Go type s expects, covering the lossless numeric widenings every
// self-describing format needs regardless of wire representation. A
// custom scalar with a FromStr characteristic (e.g. uuid.UUID) is given a
// chance to parse a string representation before falling back to a type
// mismatch error.
func coerce(raw any, s *shape.Shape) (any, error) {
	if s.Def.Scalar.ScalarKind == shape.ScalarOther {
		if str, ok := raw.(string); ok && s.Has(shape.CharacteristicFromStr) {
			return s.VTable.FromStr(str)
		}
	}

	switch s.Def.Scalar.ScalarKind {
	case shape.ScalarBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case shape.ScalarString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case shape.ScalarBytes:
		switch v := raw.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case shape.ScalarInt, shape.ScalarInt8, shape.ScalarInt16, shape.ScalarInt32, shape.ScalarInt64:
		if n, ok := asInt64(raw); ok {
			return narrowInt(n, s.Def.Scalar.ScalarKind)
		}
	case shape.ScalarUint, shape.ScalarUint8, shape.ScalarUint16, shape.ScalarUint32, shape.ScalarUint64:
		if n, ok := asUint64(raw); ok {
			return narrowUint(n, s.Def.Scalar.ScalarKind)
		}
	case shape.ScalarFloat32, shape.ScalarFloat64:
		if f, ok := asFloat64(raw); ok {
			if s.Def.Scalar.ScalarKind == shape.ScalarFloat32 {
				return float32(f), nil
			}
			return f, nil
		}
	}

	return nil, shapeerr.NewReflect("deser.coerce", s.Name, "", fmt.Sprintf("cannot coerce %T to %s", raw, s.Name), shapeerr.ErrTypeMismatch)
}

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

func asUint64(raw any) (uint64, bool) {
	switch v := raw.(type) {
	case uint64:
		return v, true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

func asFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func narrowInt(n int64, k shape.ScalarKind) (any, error) {
	switch k {
	case shape.ScalarInt:
		return int(n), nil
	case shape.ScalarInt8:
		if n < -128 || n > 127 {
			return nil, shapeerr.ErrNumberOutOfRange
		}
		return int8(n), nil
	case shape.ScalarInt16:
		if n < -32768 || n > 32767 {
			return nil, shapeerr.ErrNumberOutOfRange
		}
		return int16(n), nil
	case shape.ScalarInt32:
		if n < -(1<<31) || n > (1<<31)-1 {
			return nil, shapeerr.ErrNumberOutOfRange
		}
		return int32(n), nil
	default:
		return n, nil
	}
}

func narrowUint(n uint64, k shape.ScalarKind) (any, error) {
	switch k {
	case shape.ScalarUint:
		return uint(n), nil
	case shape.ScalarUint8:
		if n > 255 {
			return nil, shapeerr.ErrNumberOutOfRange
		}
		return uint8(n), nil
	case shape.ScalarUint16:
		if n > 65535 {
			return nil, shapeerr.ErrNumberOutOfRange
		}
		return uint16(n), nil
	case shape.ScalarUint32:
		if n > (1<<32)-1 {
			return nil, shapeerr.ErrNumberOutOfRange
		}
		return uint32(n), nil
	default:
		return n, nil
	}
}
