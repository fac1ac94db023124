package geom

type RotationOrder int

const (
	RotationOrderXYZ RotationOrder = iota
	RotationOrderYXZ
	RotationOrderZXY
	RotationOrderZYX
)

// EulerAngles holds rotation angles in radians. Order lists the axes from the outermost
// rotation to the innermost one, so YXZ is Ry * Rx * Rz.
type EulerAngles struct {
	Vector3
	Order RotationOrder
}

func NewEuler(x, y, z float32, order RotationOrder) *EulerAngles {
	return &EulerAngles{Vector3: Vector3{x, y, z}, Order: order}
}

func (v *EulerAngles) ToQuaternion() *Quaternion {
	qx := NewQuaternionFromAxisAngle(&Vector3{X: 1}, v.X)
	qy := NewQuaternionFromAxisAngle(&Vector3{Y: 1}, v.Y)
	qz := NewQuaternionFromAxisAngle(&Vector3{Z: 1}, v.Z)
	switch v.Order {
	case RotationOrderXYZ:
		return qx.Mul(qy).Mul(qz)
	case RotationOrderYXZ:
		return qy.Mul(qx).Mul(qz)
	case RotationOrderZXY:
		return qz.Mul(qx).Mul(qy)
	case RotationOrderZYX:
		return qz.Mul(qy).Mul(qx)
	}
	return NewIdentityQuaternion()
}
