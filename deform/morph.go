package deform

import (
	"github.com/binzume/pmxengine/pmx"
	"github.com/go-gl/mathgl/mgl32"
)

func (d *Deformer) resetMorphs() {
	for i := range d.vertexOffsets {
		d.vertexOffsets[i] = mgl32.Vec3{}
	}
	for ch := range d.uvOffsets {
		for i := range d.uvOffsets[ch] {
			d.uvOffsets[ch][i] = mgl32.Vec4{}
		}
	}
	for i := range d.boneMorphT {
		d.boneMorphT[i] = mgl32.Vec3{}
		d.boneMorphR[i] = mgl32.QuatIdent()
	}
	for _, m := range d.model.Materials() {
		m.ResetMorph()
	}
}

func (d *Deformer) applyMorphs() {
	d.resetMorphs()
	for i, w := range d.weights {
		if w != 0 {
			d.applyMorph(i, w, 0)
		}
	}
}

// applyMorph accumulates morph i at weight w. d.active marks the morphs being evaluated
// so that a group containing itself is skipped.
func (d *Deformer) applyMorph(i int, w float32, depth int) {
	morph := d.model.MorphAt(i)
	if morph.IsNull() || w == 0 {
		return
	}
	if depth > d.conf.MaxMorphDepth {
		d.warnOnce("Morph nesting too deep : ", morph.Name(pmx.Japanese))
		return
	}
	if d.active[i] {
		d.warnOnce("Morph cycle skipped : ", morph.Name(pmx.Japanese))
		return
	}
	d.active[i] = true
	defer func() { d.active[i] = false }()

	switch morph.Type {
	case pmx.MorphGroup:
		for _, o := range morph.Offsets {
			g, ok := o.(*pmx.GroupOffset)
			if !ok {
				continue
			}
			d.applyMorph(g.MorphIndex, w*g.Weight, depth+1)
		}
	case pmx.MorphFlip:
		// the weight selects a single child
		n := len(morph.Offsets)
		k := int(w*float32(n+1)) - 1
		if k >= n {
			k = n - 1
		}
		if k >= 0 {
			if f, ok := morph.Offsets[k].(*pmx.FlipOffset); ok {
				d.applyMorph(f.MorphIndex, f.Weight, depth+1)
			}
		}
	case pmx.MorphVertex:
		for _, o := range morph.Offsets {
			v, ok := o.(*pmx.VertexOffset)
			if !ok {
				continue
			}
			if v.VertexIndex >= 0 && v.VertexIndex < len(d.vertexOffsets) {
				d.vertexOffsets[v.VertexIndex] = d.vertexOffsets[v.VertexIndex].Add(vec3(v.Position).Mul(w))
			}
		}
	case pmx.MorphTexCoord, pmx.MorphUVA1, pmx.MorphUVA2, pmx.MorphUVA3, pmx.MorphUVA4:
		for _, o := range morph.Offsets {
			uv, ok := o.(*pmx.UVOffset)
			if !ok {
				continue
			}
			if uv.Channel < 0 || uv.Channel >= len(d.uvOffsets) {
				continue
			}
			offsets := d.uvOffsets[uv.Channel]
			if uv.VertexIndex >= 0 && uv.VertexIndex < len(offsets) {
				offsets[uv.VertexIndex] = offsets[uv.VertexIndex].Add(vec4(uv.Value).Mul(w))
			}
		}
	case pmx.MorphBone:
		for _, o := range morph.Offsets {
			b, ok := o.(*pmx.BoneOffset)
			if !ok {
				continue
			}
			if b.BoneIndex < 0 || b.BoneIndex >= len(d.boneMorphT) {
				continue
			}
			d.boneMorphT[b.BoneIndex] = d.boneMorphT[b.BoneIndex].Add(vec3(b.Translation).Mul(w))
			q := mgl32.QuatSlerp(mgl32.QuatIdent(), quat(b.Orientation), w)
			d.boneMorphR[b.BoneIndex] = q.Mul(d.boneMorphR[b.BoneIndex])
		}
	case pmx.MorphMaterial:
		for _, o := range morph.Offsets {
			m, ok := o.(*pmx.MaterialOffset)
			if !ok {
				continue
			}
			if m.MaterialIndex == pmx.MaterialOffsetAll {
				for _, mat := range d.model.Materials() {
					mat.MergeMorph(m, w)
				}
			} else {
				d.model.MaterialAt(m.MaterialIndex).MergeMorph(m, w)
			}
		}
	}
}
