package pmx

import (
	"github.com/pkg/errors"
)

// ErrorCode identifies why a parse failed. Every code is an error value and can be
// matched with errors.Is after wrapping.
type ErrorCode int

const (
	NoError ErrorCode = iota
	ErrInvalidSignature
	ErrInvalidHeader
	ErrUnsupportedVersion
	ErrInvalidEncoding
	ErrInvalidAdditionalUVs
	ErrInvalidIndexSize
	ErrBufferUnderrun
	ErrBufferOverflow
	ErrInvalidVertexType
	ErrInvalidSphereMode
	ErrInvalidMorphType
	ErrMorphTypeMismatch
	ErrInvalidLabelElement
	ErrInvalidRigidBodyShape
	ErrInvalidRigidBodyType
	ErrInvalidJointType
	ErrInvalidMaterialOperation
	ErrUnknown
)

var errorMessages = map[ErrorCode]string{
	NoError:                     "no error",
	ErrInvalidSignature:         "invalid signature",
	ErrInvalidHeader:            "invalid header",
	ErrUnsupportedVersion:       "unsupported version",
	ErrInvalidEncoding:          "invalid text encoding",
	ErrInvalidAdditionalUVs:     "invalid additional uv count",
	ErrInvalidIndexSize:         "invalid index size",
	ErrBufferUnderrun:           "buffer underrun",
	ErrBufferOverflow:           "buffer overflow",
	ErrInvalidVertexType:        "invalid vertex type",
	ErrInvalidSphereMode:        "invalid sphere texture mode",
	ErrInvalidMorphType:         "invalid morph type",
	ErrMorphTypeMismatch:        "morph offset does not match morph type",
	ErrInvalidLabelElement:      "invalid label element",
	ErrInvalidRigidBodyShape:    "invalid rigid body shape",
	ErrInvalidRigidBodyType:     "invalid rigid body type",
	ErrInvalidJointType:         "invalid joint type",
	ErrInvalidMaterialOperation: "invalid material morph operation",
	ErrUnknown:                  "unknown error",
}

func (c ErrorCode) Error() string {
	if msg, ok := errorMessages[c]; ok {
		return "pmx: " + msg
	}
	return "pmx: unknown error"
}

// errorCodeOf extracts the ErrorCode at the root of err.
func errorCodeOf(err error) ErrorCode {
	if err == nil {
		return NoError
	}
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}
	return ErrUnknown
}
