package pmx

import (
	"github.com/binzume/pmxengine/geom"
)

type MorphCategory uint8

const (
	CategorySystem MorphCategory = iota
	CategoryEyebrow
	CategoryEye
	CategoryLip
	CategoryOther
)

type MorphType uint8

const (
	MorphGroup MorphType = iota
	MorphVertex
	MorphBone
	MorphTexCoord
	MorphUVA1
	MorphUVA2
	MorphUVA3
	MorphUVA4
	MorphMaterial
	MorphFlip
	MorphImpulse
	maxMorphType = MorphImpulse
)

func (t MorphType) String() string {
	switch t {
	case MorphGroup:
		return "group"
	case MorphVertex:
		return "vertex"
	case MorphBone:
		return "bone"
	case MorphTexCoord:
		return "uv"
	case MorphUVA1, MorphUVA2, MorphUVA3, MorphUVA4:
		return "uva"
	case MorphMaterial:
		return "material"
	case MorphFlip:
		return "flip"
	case MorphImpulse:
		return "impulse"
	}
	return "unknown"
}

// IsUV reports whether t targets a texture coordinate channel.
func (t MorphType) IsUV() bool {
	return t >= MorphTexCoord && t <= MorphUVA4
}

type MaterialOperation uint8

const (
	MaterialMultiply MaterialOperation = iota
	MaterialAdd
)

const (
	// MaterialOffsetAll targets every material.
	MaterialOffsetAll = -1
	// MaterialOffsetNone marks an offset whose material no longer exists.
	MaterialOffsetNone = -2
)

// MorphOffset is one entry of a morph. The concrete type is fixed by the morph's Type.
type MorphOffset interface {
	accepts(t MorphType) bool
	estimateSize(info *DataInfo) int
	read(d *decoder, t MorphType)
	write(e *encoder)
	cloneOffset() MorphOffset
}

type GroupOffset struct {
	MorphIndex int
	Weight     float32
}

func (o *GroupOffset) accepts(t MorphType) bool { return t == MorphGroup }

func (o *GroupOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(MorphIndex)) + sizeofFloat
}

func (o *GroupOffset) read(d *decoder, t MorphType) {
	o.MorphIndex = d.readIndex(MorphIndex)
	o.Weight = d.readFloat()
}

func (o *GroupOffset) write(e *encoder) {
	e.writeIndex(MorphIndex, o.MorphIndex)
	e.writeFloat(o.Weight)
}

func (o *GroupOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

type VertexOffset struct {
	VertexIndex int
	Position    geom.Vector3
}

func (o *VertexOffset) accepts(t MorphType) bool { return t == MorphVertex }

func (o *VertexOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(VertexIndex)) + sizeofVector3
}

func (o *VertexOffset) read(d *decoder, t MorphType) {
	o.VertexIndex = d.readIndex(VertexIndex)
	o.Position = d.readVector3()
}

func (o *VertexOffset) write(e *encoder) {
	e.writeIndex(VertexIndex, o.VertexIndex)
	e.writeVector3(o.Position)
}

func (o *VertexOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

type BoneOffset struct {
	BoneIndex   int
	Translation geom.Vector3
	Orientation geom.Quaternion
}

func (o *BoneOffset) accepts(t MorphType) bool { return t == MorphBone }

func (o *BoneOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(BoneIndex)) + sizeofVector3 + sizeofVector4
}

func (o *BoneOffset) read(d *decoder, t MorphType) {
	o.BoneIndex = d.readIndex(BoneIndex)
	o.Translation = d.readVector3()
	o.Orientation = d.readVector4()
}

func (o *BoneOffset) write(e *encoder) {
	e.writeIndex(BoneIndex, o.BoneIndex)
	e.writeVector3(o.Translation)
	e.writeVector4(o.Orientation)
}

func (o *BoneOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

// UVOffset moves a texture coordinate. Channel 0 is the base coordinate, 1..4 the
// additional UVs.
type UVOffset struct {
	VertexIndex int
	Value       geom.Vector4
	Channel     int
}

func (o *UVOffset) accepts(t MorphType) bool { return t.IsUV() }

func (o *UVOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(VertexIndex)) + sizeofVector4
}

func (o *UVOffset) read(d *decoder, t MorphType) {
	o.VertexIndex = d.readIndex(VertexIndex)
	o.Value = d.readVector4()
	o.Channel = int(t - MorphTexCoord)
}

func (o *UVOffset) write(e *encoder) {
	e.writeIndex(VertexIndex, o.VertexIndex)
	e.writeVector4(o.Value)
}

func (o *UVOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

// MaterialOffset modifies one material, or all of them with MaterialOffsetAll.
type MaterialOffset struct {
	MaterialIndex int
	Operation     MaterialOperation
	MaterialValues
}

func (o *MaterialOffset) accepts(t MorphType) bool { return t == MorphMaterial }

func (o *MaterialOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(MaterialIndex)) + 1 + materialChannels*sizeofFloat
}

func (o *MaterialOffset) read(d *decoder, t MorphType) {
	o.MaterialIndex = d.readIndex(MaterialIndex)
	op := MaterialOperation(d.readUint8())
	if d.err != nil {
		return
	}
	if op > MaterialAdd {
		d.fail(ErrInvalidMaterialOperation)
		return
	}
	o.Operation = op
	o.Diffuse = d.readVector4()
	o.Specular = d.readVector3()
	o.Shininess = d.readFloat()
	o.Ambient = d.readVector3()
	o.EdgeColor = d.readVector4()
	o.EdgeSize = d.readFloat()
	o.TextureTint = d.readVector4()
	o.SphereTint = d.readVector4()
	o.ToonTint = d.readVector4()
}

func (o *MaterialOffset) write(e *encoder) {
	if o.Operation > MaterialAdd {
		e.fail(ErrInvalidMaterialOperation)
		return
	}
	e.writeIndex(MaterialIndex, o.MaterialIndex)
	e.writeUint8(uint8(o.Operation))
	e.writeVector4(o.Diffuse)
	e.writeVector3(o.Specular)
	e.writeFloat(o.Shininess)
	e.writeVector3(o.Ambient)
	e.writeVector4(o.EdgeColor)
	e.writeFloat(o.EdgeSize)
	e.writeVector4(o.TextureTint)
	e.writeVector4(o.SphereTint)
	e.writeVector4(o.ToonTint)
}

func (o *MaterialOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

// FlipOffset is a child of a flip morph. Only one child is active at a time.
type FlipOffset struct {
	MorphIndex int
	Weight     float32
}

func (o *FlipOffset) accepts(t MorphType) bool { return t == MorphFlip }

func (o *FlipOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(MorphIndex)) + sizeofFloat
}

func (o *FlipOffset) read(d *decoder, t MorphType) {
	o.MorphIndex = d.readIndex(MorphIndex)
	o.Weight = d.readFloat()
}

func (o *FlipOffset) write(e *encoder) {
	e.writeIndex(MorphIndex, o.MorphIndex)
	e.writeFloat(o.Weight)
}

func (o *FlipOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

// ImpulseOffset is consumed by the physics collaborator.
type ImpulseOffset struct {
	RigidBodyIndex int
	Local          bool
	Velocity       geom.Vector3
	Torque         geom.Vector3
}

func (o *ImpulseOffset) accepts(t MorphType) bool { return t == MorphImpulse }

func (o *ImpulseOffset) estimateSize(info *DataInfo) int {
	return int(info.IndexSize(RigidBodyIndex)) + 1 + sizeofVector3*2
}

func (o *ImpulseOffset) read(d *decoder, t MorphType) {
	o.RigidBodyIndex = d.readIndex(RigidBodyIndex)
	o.Local = d.readUint8() != 0
	o.Velocity = d.readVector3()
	o.Torque = d.readVector3()
}

func (o *ImpulseOffset) write(e *encoder) {
	e.writeIndex(RigidBodyIndex, o.RigidBodyIndex)
	if o.Local {
		e.writeUint8(1)
	} else {
		e.writeUint8(0)
	}
	e.writeVector3(o.Velocity)
	e.writeVector3(o.Torque)
}

func (o *ImpulseOffset) cloneOffset() MorphOffset {
	c := *o
	return &c
}

func newMorphOffset(t MorphType) MorphOffset {
	switch {
	case t == MorphGroup:
		return &GroupOffset{}
	case t == MorphVertex:
		return &VertexOffset{}
	case t == MorphBone:
		return &BoneOffset{}
	case t.IsUV():
		return &UVOffset{}
	case t == MorphMaterial:
		return &MaterialOffset{}
	case t == MorphFlip:
		return &FlipOffset{}
	case t == MorphImpulse:
		return &ImpulseOffset{}
	}
	return nil
}

type Morph struct {
	named
	Category MorphCategory
	Type     MorphType
	Offsets  []MorphOffset
}

var nullMorph = NewMorph(MorphVertex)

// NullMorph returns the shared placeholder for absent morph references.
func NullMorph() *Morph { return nullMorph }

func NewMorph(t MorphType) *Morph {
	return &Morph{named: newNamed(), Category: CategoryOther, Type: t}
}

func (m *Morph) SetName(lang Language, name string) {
	m.setName(m, morphNames, lang, name)
}

// AddOffset appends o. It fails when o does not belong to a morph of this type.
// Offsets added to NullMorph are discarded.
func (m *Morph) AddOffset(o MorphOffset) error {
	if o == nil || !o.accepts(m.Type) {
		return ErrMorphTypeMismatch
	}
	if m.null {
		return nil
	}
	if uv, ok := o.(*UVOffset); ok {
		uv.Channel = int(m.Type - MorphTexCoord)
	}
	m.Offsets = append(m.Offsets, o)
	return nil
}

func (m *Morph) Clone() *Morph {
	c := *m
	c.named = m.cloneNamed()
	c.Offsets = make([]MorphOffset, len(m.Offsets))
	for i, o := range m.Offsets {
		c.Offsets[i] = o.cloneOffset()
	}
	return &c
}

func (m *Morph) EstimateSize(info *DataInfo) int {
	sz := m.namesSize(info) + 1 + 1 + sizeofInt
	for _, o := range m.Offsets {
		sz += o.estimateSize(info)
	}
	return sz
}

func (m *Morph) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	m.read(d)
	return d.off, d.err
}

func (m *Morph) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	m.write(e)
	return e.off, e.err
}

func (m *Morph) read(d *decoder) {
	m.readNames(d)
	m.Category = MorphCategory(d.readUint8())
	t := MorphType(d.readUint8())
	n := d.readInt()
	if d.err != nil {
		return
	}
	if t > maxMorphType {
		d.fail(ErrInvalidMorphType)
		return
	}
	if n < 0 || n > len(d.data)-d.off {
		d.fail(ErrBufferUnderrun)
		return
	}
	m.Type = t
	m.Offsets = make([]MorphOffset, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		o := newMorphOffset(t)
		o.read(d, t)
		m.Offsets = append(m.Offsets, o)
	}
}

func (m *Morph) write(e *encoder) {
	m.writeNames(e)
	e.writeUint8(uint8(m.Category))
	e.writeUint8(uint8(m.Type))
	e.writeInt(len(m.Offsets))
	for _, o := range m.Offsets {
		if !o.accepts(m.Type) {
			e.fail(ErrMorphTypeMismatch)
			return
		}
		o.write(e)
	}
}
