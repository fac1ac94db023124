package geom

import "math"

type Vector4 struct {
	X Element
	Y Element
	Z Element
	W Element
}

type Quaternion = Vector4

// NewIdentityQuaternion returns the no-rotation quaternion.
func NewIdentityQuaternion() *Quaternion {
	return &Quaternion{W: 1}
}

func NewQuaternionFromAxisAngle(axis *Vector3, rad float32) *Quaternion {
	a := *axis
	a.Normalize()
	s := Element(math.Sin(float64(rad / 2)))
	return &Quaternion{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: Element(math.Cos(float64(rad / 2)))}
}

func (v *Vector4) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W)))
}

func (v *Vector4) Normalize() *Vector4 {
	l := v.Len()
	if l > 0 {
		v.X /= l
		v.Y /= l
		v.Z /= l
		v.W /= l
	} else {
		v.W = 1
	}
	return v
}

// Returns Hamilton product
func (a *Vector4) Mul(b *Vector4) *Vector4 {
	return &Vector4{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z, // 1
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y, // i
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X, // j
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W, // k
	}
}
