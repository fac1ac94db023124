package deform

import (
	"math"

	"github.com/binzume/pmxengine/geom"
	"github.com/binzume/pmxengine/pmx"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"
)

func transformPoint(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

func transformNormal(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

func (d *Deformer) skin() {
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i, v := range d.model.Vertices() {
		pos := vec3(v.Origin).Add(d.vertexOffsets[i])
		p, n := d.skinVertex(v, pos, vec3(v.Normal))
		if d.conf.NormalizeNormals && n.Len() > 0 {
			n = n.Normalize()
		}
		d.positions[i] = toVector3(p)
		d.normals[i] = toVector3(n)

		uv := d.uvOffsets[0][i]
		d.texCoords[i] = geom.Vector2{X: v.TexCoord.X + uv[0], Y: v.TexCoord.Y + uv[1]}
		for ch := range d.uvs {
			o := d.uvOffsets[ch+1][i]
			a := v.AdditionalUVs[ch]
			d.uvs[ch][i] = geom.Vector4{X: a.X + o[0], Y: a.Y + o[1], Z: a.Z + o[2], W: a.W + o[3]}
		}

		pv := r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
		lo = r3.Vec{X: math.Min(lo.X, pv.X), Y: math.Min(lo.Y, pv.Y), Z: math.Min(lo.Z, pv.Z)}
		hi = r3.Vec{X: math.Max(hi.X, pv.X), Y: math.Max(hi.Y, pv.Y), Z: math.Max(hi.Z, pv.Z)}
	}
	if len(d.positions) == 0 {
		d.bounds = r3.Box{}
		return
	}
	d.bounds = r3.Box{Min: lo, Max: hi}
}

// skinVertex returns the posed position and normal of v. Weights are used as stored.
func (d *Deformer) skinVertex(v *pmx.Vertex, pos, normal mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	bones := &d.bones
	switch v.Type {
	case pmx.Bdef1:
		m := bones.skinMatrix(v.BoneIndices[0])
		return transformPoint(m, pos), transformNormal(m, normal)
	case pmx.Bdef2:
		w0 := v.Weights[0]
		m0 := bones.skinMatrix(v.BoneIndices[0])
		m1 := bones.skinMatrix(v.BoneIndices[1])
		p := transformPoint(m0, pos).Mul(w0).Add(transformPoint(m1, pos).Mul(1 - w0))
		n := transformNormal(m0, normal).Mul(w0).Add(transformNormal(m1, normal).Mul(1 - w0))
		return p, n
	case pmx.Bdef4, pmx.Qdef:
		var p, n mgl32.Vec3
		for k, bi := range v.BoneIndices {
			w := v.Weights[k]
			if w == 0 {
				continue
			}
			m := bones.skinMatrix(bi)
			p = p.Add(transformPoint(m, pos).Mul(w))
			n = n.Add(transformNormal(m, normal).Mul(w))
		}
		return p, n
	case pmx.Sdef:
		return d.skinSdef(v, pos, normal)
	}
	return pos, normal
}

// skinSdef blends the rotations of the two bones around C and corrects the position with
// the R0/R1 reference points.
func (d *Deformer) skinSdef(v *pmx.Vertex, pos, normal mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	bones := &d.bones
	w0 := v.Weights[0]
	w1 := 1 - w0
	b0, b1 := v.BoneIndices[0], v.BoneIndices[1]
	m0, m1 := bones.skinMatrix(b0), bones.skinMatrix(b1)

	c := vec3(v.SdefC)
	r0 := vec3(v.SdefR0)
	r1 := vec3(v.SdefR1)
	rw := r0.Mul(w0).Add(r1.Mul(w1))
	cr0 := c.Add(c.Add(r0).Sub(rw)).Mul(0.5)
	cr1 := c.Add(c.Add(r1).Sub(rw)).Mul(0.5)

	q := mgl32.QuatSlerp(bones.skinRotation(b1), bones.skinRotation(b0), w0)
	p := q.Rotate(pos.Sub(c)).
		Add(transformPoint(m0, cr0).Mul(w0)).
		Add(transformPoint(m1, cr1).Mul(w1))
	return p, q.Rotate(normal)
}
