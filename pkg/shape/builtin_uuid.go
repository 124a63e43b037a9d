package shape

import (
	"github.com/google/uuid"
)

// init registers uuid.UUID as a Scalar shape rather than letting it fall
// through to the structural List-of-16-bytes shape its underlying
// [16]byte array would otherwise derive. This exercises the custom-scalar
// override path (RegisterScalar) and gives the deserialize engine's
// coercion table a concrete "type with its own FromStr" case to dispatch
// to, keeping types with custom marshaling separate from plain structural
// encoding.
func init() {
	RegisterScalar[uuid.UUID](ValueVTable{
		Clone:   func(v any) any { return v },
		Default: func() any { return uuid.UUID{} },
		Display: func(v any) string { return v.(uuid.UUID).String() },
		Eq: func(a, b any) bool {
			return a.(uuid.UUID) == b.(uuid.UUID)
		},
		FromStr: func(s string) (any, error) {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, err
			}
			return id, nil
		},
	})
}
