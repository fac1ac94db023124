package pmx

func init() {
	for _, e := range []*entity{
		&nullVertex.entity, &nullMaterial.entity, &nullBone.entity, &nullMorph.entity,
		&nullLabel.entity, &nullRigidBody.entity, &nullJoint.entity,
	} {
		e.null = true
	}
}

type ownable interface {
	comparable
	base() *entity
}

// appendEntity adds v at the end of list. Entities owned by any model, or placeholders,
// are left alone.
func appendEntity[T ownable](m *Model, list *[]T, v T) bool {
	var zero T
	if v == zero {
		return false
	}
	b := v.base()
	if b.null || b.model != nil || b.index >= 0 {
		return false
	}
	b.model = m
	b.index = len(*list)
	*list = append(*list, v)
	return true
}

// removeEntity deletes v from list and renumbers the entities after it. It returns the
// former index of v, or -1.
func removeEntity[T ownable](m *Model, list *[]T, v T) int {
	var zero T
	if v == zero {
		return -1
	}
	b := v.base()
	if b.model != m {
		return -1
	}
	i := b.index
	if i < 0 || i >= len(*list) || (*list)[i] != v {
		return -1
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	for j := i; j < len(*list); j++ {
		(*list)[j].base().index = j
	}
	b.detach()
	return i
}

// shiftRef updates a reference after the entity at removed went away.
func shiftRef(ref *int, removed int) {
	if *ref == removed {
		*ref = -1
	} else if *ref > removed {
		*ref--
	}
}

func (m *Model) AddVertex(v *Vertex) {
	appendEntity(m, &m.vertices, v)
}

// RemoveVertex deletes v with every triangle that uses it.
func (m *Model) RemoveVertex(v *Vertex) {
	m.updateIndexRanges()
	i := removeEntity(m, &m.vertices, v)
	if i < 0 {
		return
	}
	surfaces := make([]int, 0, len(m.surfaces))
	filter := func(start, end int) int {
		kept := 0
		for t := start; t+2 < end; t += 3 {
			tri := m.surfaces[t : t+3]
			if tri[0] == i || tri[1] == i || tri[2] == i {
				continue
			}
			for _, idx := range tri {
				shiftRef(&idx, i)
				surfaces = append(surfaces, idx)
			}
			kept += 3
		}
		return kept
	}
	end := 0
	for _, mat := range m.materials {
		r := mat.indexRange
		mat.SurfaceCount = filter(r.Start, r.Start+r.Count)
		end = r.Start + r.Count
	}
	filter(end, len(m.surfaces))
	m.surfaces = surfaces
	for _, mo := range m.morphs {
		for _, o := range mo.Offsets {
			switch o := o.(type) {
			case *VertexOffset:
				shiftRef(&o.VertexIndex, i)
			case *UVOffset:
				shiftRef(&o.VertexIndex, i)
			}
		}
	}
	m.updateIndexRanges()
}

func (m *Model) AddMaterial(mat *Material) {
	if appendEntity(m, &m.materials, mat) {
		m.rebuildNames(materialNames)
		m.updateIndexRanges()
	}
}

// RemoveMaterial deletes mat and the surfaces it draws. Material morph offsets that target
// it are kept and point at MaterialOffsetNone.
func (m *Model) RemoveMaterial(mat *Material) {
	m.updateIndexRanges()
	r := mat.IndexRange()
	i := removeEntity(m, &m.materials, mat)
	if i < 0 {
		return
	}
	if r.Count > 0 {
		m.surfaces = append(m.surfaces[:r.Start:r.Start], m.surfaces[r.Start+r.Count:]...)
	}
	for _, mo := range m.morphs {
		for _, o := range mo.Offsets {
			off, ok := o.(*MaterialOffset)
			if !ok {
				continue
			}
			switch {
			case off.MaterialIndex == i:
				off.MaterialIndex = MaterialOffsetNone
			case off.MaterialIndex > i:
				off.MaterialIndex--
			}
		}
	}
	m.rebuildNames(materialNames)
	m.updateIndexRanges()
}

func (m *Model) AddBone(b *Bone) {
	if appendEntity(m, &m.bones, b) {
		m.rebuildNames(boneNames)
	}
}

func (m *Model) RemoveBone(b *Bone) {
	i := removeEntity(m, &m.bones, b)
	if i < 0 {
		return
	}
	for _, v := range m.vertices {
		for k := range v.BoneIndices {
			shiftRef(&v.BoneIndices[k], i)
		}
	}
	for _, bone := range m.bones {
		shiftRef(&bone.ParentIndex, i)
		shiftRef(&bone.DestinationBoneIndex, i)
		shiftRef(&bone.InherentBoneIndex, i)
		shiftRef(&bone.IK.TargetBoneIndex, i)
		for k := range bone.IK.Links {
			shiftRef(&bone.IK.Links[k].BoneIndex, i)
		}
	}
	for _, mo := range m.morphs {
		for _, o := range mo.Offsets {
			if o, ok := o.(*BoneOffset); ok {
				shiftRef(&o.BoneIndex, i)
			}
		}
	}
	for _, l := range m.labels {
		for k := range l.Elements {
			if l.Elements[k].Kind == LabelBone {
				shiftRef(&l.Elements[k].Index, i)
			}
		}
	}
	for _, r := range m.rigidBodies {
		shiftRef(&r.BoneIndex, i)
	}
	m.rebuildNames(boneNames)
}

func (m *Model) AddMorph(mo *Morph) {
	if appendEntity(m, &m.morphs, mo) {
		m.rebuildNames(morphNames)
	}
}

func (m *Model) RemoveMorph(mo *Morph) {
	i := removeEntity(m, &m.morphs, mo)
	if i < 0 {
		return
	}
	for _, other := range m.morphs {
		for _, o := range other.Offsets {
			switch o := o.(type) {
			case *GroupOffset:
				shiftRef(&o.MorphIndex, i)
			case *FlipOffset:
				shiftRef(&o.MorphIndex, i)
			}
		}
	}
	for _, l := range m.labels {
		for k := range l.Elements {
			if l.Elements[k].Kind == LabelMorph {
				shiftRef(&l.Elements[k].Index, i)
			}
		}
	}
	m.rebuildNames(morphNames)
}

func (m *Model) AddLabel(l *Label) {
	if appendEntity(m, &m.labels, l) {
		m.rebuildNames(labelNames)
	}
}

func (m *Model) RemoveLabel(l *Label) {
	if removeEntity(m, &m.labels, l) >= 0 {
		m.rebuildNames(labelNames)
	}
}

func (m *Model) AddRigidBody(r *RigidBody) {
	if appendEntity(m, &m.rigidBodies, r) {
		m.rebuildNames(rigidBodyNames)
	}
}

func (m *Model) RemoveRigidBody(r *RigidBody) {
	i := removeEntity(m, &m.rigidBodies, r)
	if i < 0 {
		return
	}
	for _, j := range m.joints {
		shiftRef(&j.RigidBodyIndexA, i)
		shiftRef(&j.RigidBodyIndexB, i)
	}
	for _, mo := range m.morphs {
		for _, o := range mo.Offsets {
			if o, ok := o.(*ImpulseOffset); ok {
				shiftRef(&o.RigidBodyIndex, i)
			}
		}
	}
	m.rebuildNames(rigidBodyNames)
}

func (m *Model) AddJoint(j *Joint) {
	if appendEntity(m, &m.joints, j) {
		m.rebuildNames(jointNames)
	}
}

func (m *Model) RemoveJoint(j *Joint) {
	if removeEntity(m, &m.joints, j) >= 0 {
		m.rebuildNames(jointNames)
	}
}

// AddTexture appends a texture path and returns its index.
func (m *Model) AddTexture(path string) int {
	m.textures = append(m.textures, path)
	return len(m.textures) - 1
}

func (m *Model) RemoveTexture(i int) {
	if i < 0 || i >= len(m.textures) {
		return
	}
	m.textures = append(m.textures[:i], m.textures[i+1:]...)
	for _, mat := range m.materials {
		shiftRef(&mat.MainTextureIndex, i)
		shiftRef(&mat.SphereTextureIndex, i)
		if !mat.ToonShared {
			shiftRef(&mat.ToonTextureIndex, i)
		}
	}
}

// SetSurfaces replaces the triangle list. Material surface counts are not changed.
func (m *Model) SetSurfaces(indices []int) {
	m.surfaces = append([]int(nil), indices...)
	m.updateIndexRanges()
}

func (m *Model) FindMaterial(lang Language, name string) *Material {
	if i := m.findName(materialNames, lang, name); i >= 0 {
		return m.materials[i]
	}
	return nil
}

func (m *Model) FindBone(lang Language, name string) *Bone {
	if i := m.findName(boneNames, lang, name); i >= 0 {
		return m.bones[i]
	}
	return nil
}

func (m *Model) FindMorph(lang Language, name string) *Morph {
	if i := m.findName(morphNames, lang, name); i >= 0 {
		return m.morphs[i]
	}
	return nil
}

func (m *Model) FindLabel(lang Language, name string) *Label {
	if i := m.findName(labelNames, lang, name); i >= 0 {
		return m.labels[i]
	}
	return nil
}

func (m *Model) FindRigidBody(lang Language, name string) *RigidBody {
	if i := m.findName(rigidBodyNames, lang, name); i >= 0 {
		return m.rigidBodies[i]
	}
	return nil
}

func (m *Model) FindJoint(lang Language, name string) *Joint {
	if i := m.findName(jointNames, lang, name); i >= 0 {
		return m.joints[i]
	}
	return nil
}
