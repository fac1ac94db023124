package pmx

import (
	"github.com/pkg/errors"
)

func clampRef(i, n int) int {
	if i < 0 || i >= n {
		return -1
	}
	return i
}

// Resolve validates every stored cross reference against the collections and rewrites
// dangling ones to -1. It never fails.
func (m *Model) Resolve() {
	nv, nt, nm := len(m.vertices), len(m.textures), len(m.materials)
	nb, nmo, nr := len(m.bones), len(m.morphs), len(m.rigidBodies)

	for _, b := range m.bones {
		b.ParentIndex = clampRef(b.ParentIndex, nb)
		b.DestinationBoneIndex = clampRef(b.DestinationBoneIndex, nb)
		b.InherentBoneIndex = clampRef(b.InherentBoneIndex, nb)
		b.IK.TargetBoneIndex = clampRef(b.IK.TargetBoneIndex, nb)
		for i := range b.IK.Links {
			b.IK.Links[i].BoneIndex = clampRef(b.IK.Links[i].BoneIndex, nb)
		}
	}
	for _, v := range m.vertices {
		for i := range v.BoneIndices {
			v.BoneIndices[i] = clampRef(v.BoneIndices[i], nb)
		}
	}
	for _, mat := range m.materials {
		mat.MainTextureIndex = clampRef(mat.MainTextureIndex, nt)
		mat.SphereTextureIndex = clampRef(mat.SphereTextureIndex, nt)
		if !mat.ToonShared {
			mat.ToonTextureIndex = clampRef(mat.ToonTextureIndex, nt)
		}
	}
	for _, mo := range m.morphs {
		for _, o := range mo.Offsets {
			switch o := o.(type) {
			case *GroupOffset:
				o.MorphIndex = clampRef(o.MorphIndex, nmo)
			case *FlipOffset:
				o.MorphIndex = clampRef(o.MorphIndex, nmo)
			case *VertexOffset:
				o.VertexIndex = clampRef(o.VertexIndex, nv)
			case *UVOffset:
				o.VertexIndex = clampRef(o.VertexIndex, nv)
			case *BoneOffset:
				o.BoneIndex = clampRef(o.BoneIndex, nb)
			case *MaterialOffset:
				if o.MaterialIndex != MaterialOffsetAll && (o.MaterialIndex < 0 || o.MaterialIndex >= nm) {
					o.MaterialIndex = MaterialOffsetNone
				}
			case *ImpulseOffset:
				o.RigidBodyIndex = clampRef(o.RigidBodyIndex, nr)
			}
		}
	}
	for _, l := range m.labels {
		for i, el := range l.Elements {
			if el.Kind == LabelBone {
				l.Elements[i].Index = clampRef(el.Index, nb)
			} else {
				l.Elements[i].Index = clampRef(el.Index, nmo)
			}
		}
	}
	for _, r := range m.rigidBodies {
		r.BoneIndex = clampRef(r.BoneIndex, nb)
	}
	for _, j := range m.joints {
		j.RigidBodyIndexA = clampRef(j.RigidBodyIndexA, nr)
		j.RigidBodyIndexB = clampRef(j.RigidBodyIndexB, nr)
	}
	m.updateIndexRanges()
}

// updateIndexRanges recomputes material surface ranges and the material of every vertex.
func (m *Model) updateIndexRanges() {
	for _, v := range m.vertices {
		v.MaterialIndex = -1
	}
	start := 0
	for i, mat := range m.materials {
		count := mat.SurfaceCount
		if count < 0 {
			count = 0
		}
		if start+count > len(m.surfaces) {
			count = len(m.surfaces) - start
			if count < 0 {
				count = 0
			}
		}
		mat.indexRange = IndexRange{Start: start, Count: count}
		for _, idx := range m.surfaces[start : start+count] {
			if idx >= 0 && idx < len(m.vertices) && m.vertices[idx].MaterialIndex < 0 {
				m.vertices[idx].MaterialIndex = i
			}
		}
		start += count
	}
}

// Validate reports surface data the resolution pass leaves untouched.
func (m *Model) Validate() error {
	if len(m.surfaces)%3 != 0 {
		return errors.Errorf("pmx: surface index count %d is not a multiple of 3", len(m.surfaces))
	}
	for i, idx := range m.surfaces {
		if idx < 0 || idx >= len(m.vertices) {
			return errors.Errorf("pmx: surface index %d references vertex %d of %d", i, idx, len(m.vertices))
		}
	}
	total := 0
	for _, mat := range m.materials {
		if mat.SurfaceCount < 0 || mat.SurfaceCount%3 != 0 {
			return errors.Errorf("pmx: material %d has invalid surface count %d", mat.index, mat.SurfaceCount)
		}
		total += mat.SurfaceCount
	}
	if total != len(m.surfaces) {
		return errors.Errorf("pmx: materials cover %d surface indices, model has %d", total, len(m.surfaces))
	}
	return nil
}

func (m *Model) VertexAt(i int) *Vertex {
	if m == nil || i < 0 || i >= len(m.vertices) {
		return nullVertex
	}
	return m.vertices[i]
}

func (m *Model) MaterialAt(i int) *Material {
	if m == nil || i < 0 || i >= len(m.materials) {
		return nullMaterial
	}
	return m.materials[i]
}

func (m *Model) BoneAt(i int) *Bone {
	if m == nil || i < 0 || i >= len(m.bones) {
		return nullBone
	}
	return m.bones[i]
}

func (m *Model) MorphAt(i int) *Morph {
	if m == nil || i < 0 || i >= len(m.morphs) {
		return nullMorph
	}
	return m.morphs[i]
}

func (m *Model) LabelAt(i int) *Label {
	if m == nil || i < 0 || i >= len(m.labels) {
		return nullLabel
	}
	return m.labels[i]
}

func (m *Model) RigidBodyAt(i int) *RigidBody {
	if m == nil || i < 0 || i >= len(m.rigidBodies) {
		return nullRigidBody
	}
	return m.rigidBodies[i]
}

func (m *Model) JointAt(i int) *Joint {
	if m == nil || i < 0 || i >= len(m.joints) {
		return nullJoint
	}
	return m.joints[i]
}

// TextureAt returns the texture path, "" when i is out of range.
func (m *Model) TextureAt(i int) string {
	if m == nil || i < 0 || i >= len(m.textures) {
		return ""
	}
	return m.textures[i]
}

func (m *Model) ParentBone(b *Bone) *Bone {
	if b == nil {
		return nullBone
	}
	return m.BoneAt(b.ParentIndex)
}

func (m *Model) InherentBone(b *Bone) *Bone {
	if b == nil {
		return nullBone
	}
	return m.BoneAt(b.InherentBoneIndex)
}

// DestinationBone returns the bone the tail points at, the null bone when the tail is a
// literal offset.
func (m *Model) DestinationBone(b *Bone) *Bone {
	if !b.HasDestinationBone() {
		return nullBone
	}
	return m.BoneAt(b.DestinationBoneIndex)
}

func (m *Model) IKTargetBone(b *Bone) *Bone {
	if !b.HasIK() {
		return nullBone
	}
	return m.BoneAt(b.IK.TargetBoneIndex)
}

// VertexBone returns the bone of skinning slot i.
func (m *Model) VertexBone(v *Vertex, i int) *Bone {
	if v == nil || i < 0 || i >= len(v.BoneIndices) {
		return nullBone
	}
	return m.BoneAt(v.BoneIndices[i])
}

func (m *Model) VertexMaterial(v *Vertex) *Material {
	if v == nil {
		return nullMaterial
	}
	return m.MaterialAt(v.MaterialIndex)
}

func (m *Model) RigidBodyBone(r *RigidBody) *Bone {
	if r == nil {
		return nullBone
	}
	return m.BoneAt(r.BoneIndex)
}

func (m *Model) JointRigidBodies(j *Joint) (*RigidBody, *RigidBody) {
	if j == nil {
		return nullRigidBody, nullRigidBody
	}
	return m.RigidBodyAt(j.RigidBodyIndexA), m.RigidBodyAt(j.RigidBodyIndexB)
}
