package pmx

import (
	"log"

	"github.com/binzume/pmxengine/geom"
	"github.com/tiendc/go-deepcopy"
)

type BoneFlag uint16

const (
	BoneFlagDestinationBone       BoneFlag = 0x0001
	BoneFlagRotatable             BoneFlag = 0x0002
	BoneFlagMovable               BoneFlag = 0x0004
	BoneFlagVisible               BoneFlag = 0x0008
	BoneFlagInteractive           BoneFlag = 0x0010
	BoneFlagIK                    BoneFlag = 0x0020
	BoneFlagLocalInherent         BoneFlag = 0x0080
	BoneFlagInherentRotation      BoneFlag = 0x0100
	BoneFlagInherentTranslation   BoneFlag = 0x0200
	BoneFlagFixedAxis             BoneFlag = 0x0400
	BoneFlagLocalAxes             BoneFlag = 0x0800
	BoneFlagTransformAfterPhysics BoneFlag = 0x1000
	BoneFlagExternalParent        BoneFlag = 0x2000

	BoneFlagAll = BoneFlagDestinationBone | BoneFlagRotatable | BoneFlagMovable | BoneFlagVisible |
		BoneFlagInteractive | BoneFlagIK | BoneFlagLocalInherent | BoneFlagInherentRotation |
		BoneFlagInherentTranslation | BoneFlagFixedAxis | BoneFlagLocalAxes |
		BoneFlagTransformAfterPhysics | BoneFlagExternalParent
)

type IKLink struct {
	BoneIndex  int
	HasLimit   bool
	LowerLimit geom.Vector3
	UpperLimit geom.Vector3
}

type IK struct {
	TargetBoneIndex int
	LoopCount       int
	AngleLimit      float32
	Links           []IKLink
}

type Bone struct {
	named
	Origin      geom.Vector3
	ParentIndex int
	Layer       int
	Flags       BoneFlag

	// DestinationBoneIndex is used when BoneFlagDestinationBone is set, DestinationOrigin otherwise.
	DestinationOrigin    geom.Vector3
	DestinationBoneIndex int

	InherentBoneIndex   int
	InherentCoefficient float32

	FixedAxis         geom.Vector3
	LocalAxisX        geom.Vector3
	LocalAxisZ        geom.Vector3
	ExternalParentKey int

	IK IK
}

var nullBone = NewBone()

// NullBone returns the shared placeholder for absent bone references.
func NullBone() *Bone { return nullBone }

func NewBone() *Bone {
	return &Bone{
		named:                newNamed(),
		ParentIndex:          -1,
		DestinationBoneIndex: -1,
		InherentBoneIndex:    -1,
		InherentCoefficient:  1,
		LocalAxisX:           geom.Vector3{X: 1},
		LocalAxisZ:           geom.Vector3{Z: 1},
		IK:                   IK{TargetBoneIndex: -1},
	}
}

func (b *Bone) SetName(lang Language, name string) {
	b.setName(b, boneNames, lang, name)
}

func (b *Bone) SetOrigin(p geom.Vector3) {
	if b.null || b.Origin == p {
		return
	}
	b.notify(b, PropertyOrigin, b.Origin, p)
	b.Origin = p
}

func (b *Bone) SetParentIndex(i int) {
	if b.null || b.ParentIndex == i {
		return
	}
	b.notify(b, PropertyParent, b.ParentIndex, i)
	b.ParentIndex = i
}

func (b *Bone) hasFlag(f BoneFlag) bool {
	return b != nil && b.Flags&f != 0
}

// SetFlag turns f on or off.
func (b *Bone) SetFlag(f BoneFlag, on bool) {
	if b.null {
		return
	}
	if on {
		b.Flags |= f
	} else {
		b.Flags &^= f
	}
}

func (b *Bone) HasDestinationBone() bool { return b.hasFlag(BoneFlagDestinationBone) }
func (b *Bone) IsRotatable() bool { return b.hasFlag(BoneFlagRotatable) }
func (b *Bone) IsMovable() bool { return b.hasFlag(BoneFlagMovable) }
func (b *Bone) IsVisible() bool { return b.hasFlag(BoneFlagVisible) }
func (b *Bone) IsInteractive() bool { return b.hasFlag(BoneFlagInteractive) }
func (b *Bone) HasIK() bool { return b.hasFlag(BoneFlagIK) }
func (b *Bone) HasInherentRotation() bool { return b.hasFlag(BoneFlagInherentRotation) }
func (b *Bone) HasInherentTranslation() bool { return b.hasFlag(BoneFlagInherentTranslation) }
func (b *Bone) HasFixedAxis() bool { return b.hasFlag(BoneFlagFixedAxis) }
func (b *Bone) HasLocalAxes() bool { return b.hasFlag(BoneFlagLocalAxes) }
func (b *Bone) IsTransformedAfterPhysics() bool { return b.hasFlag(BoneFlagTransformAfterPhysics) }
func (b *Bone) IsTransformedByExternalParent() bool {
	return b.hasFlag(BoneFlagExternalParent)
}

func (b *Bone) Clone() *Bone {
	c := *b
	c.named = b.cloneNamed()
	c.IK.Links = nil
	if err := deepcopy.Copy(&c.IK.Links, b.IK.Links); err != nil {
		c.IK.Links = append([]IKLink(nil), b.IK.Links...)
	}
	return &c
}

func (b *Bone) EstimateSize(info *DataInfo) int {
	bsz := int(info.IndexSize(BoneIndex))
	sz := b.namesSize(info) + sizeofVector3 + bsz + sizeofInt + 2
	if b.HasDestinationBone() {
		sz += bsz
	} else {
		sz += sizeofVector3
	}
	if b.HasInherentRotation() || b.HasInherentTranslation() {
		sz += bsz + sizeofFloat
	}
	if b.HasFixedAxis() {
		sz += sizeofVector3
	}
	if b.HasLocalAxes() {
		sz += sizeofVector3 * 2
	}
	if b.IsTransformedByExternalParent() {
		sz += sizeofInt
	}
	if b.HasIK() {
		sz += bsz + sizeofInt + sizeofFloat + sizeofInt
		for _, l := range b.IK.Links {
			sz += bsz + 1
			if l.HasLimit {
				sz += sizeofVector3 * 2
			}
		}
	}
	return sz
}

func (b *Bone) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	b.read(d)
	return d.off, d.err
}

func (b *Bone) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	b.write(e)
	return e.off, e.err
}

func (b *Bone) read(d *decoder) {
	b.readNames(d)
	b.Origin = d.readVector3()
	b.ParentIndex = d.readIndex(BoneIndex)
	b.Layer = d.readInt()
	b.Flags = BoneFlag(d.readUint16())
	if d.err != nil {
		return
	}
	if b.Flags&^BoneFlagAll != 0 {
		log.Println("Unsupported bone flags : ", b.Flags&^BoneFlagAll)
	}
	if b.HasDestinationBone() {
		b.DestinationBoneIndex = d.readIndex(BoneIndex)
	} else {
		b.DestinationOrigin = d.readVector3()
	}
	if b.HasInherentRotation() || b.HasInherentTranslation() {
		b.InherentBoneIndex = d.readIndex(BoneIndex)
		b.InherentCoefficient = d.readFloat()
	}
	if b.HasFixedAxis() {
		b.FixedAxis = d.readVector3()
	}
	if b.HasLocalAxes() {
		b.LocalAxisX = d.readVector3()
		b.LocalAxisZ = d.readVector3()
	}
	if b.IsTransformedByExternalParent() {
		b.ExternalParentKey = d.readInt()
	}
	if b.HasIK() {
		b.IK.TargetBoneIndex = d.readIndex(BoneIndex)
		b.IK.LoopCount = d.readInt()
		b.IK.AngleLimit = d.readFloat()
		n := d.readInt()
		if n < 0 || n > len(d.data)-d.off {
			d.fail(ErrBufferUnderrun)
			return
		}
		b.IK.Links = make([]IKLink, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			l := IKLink{BoneIndex: d.readIndex(BoneIndex)}
			l.HasLimit = d.readUint8() != 0
			if l.HasLimit {
				l.LowerLimit = d.readVector3()
				l.UpperLimit = d.readVector3()
			}
			b.IK.Links = append(b.IK.Links, l)
		}
	}
}

func (b *Bone) write(e *encoder) {
	b.writeNames(e)
	e.writeVector3(b.Origin)
	e.writeIndex(BoneIndex, b.ParentIndex)
	e.writeInt(b.Layer)
	e.writeUint16(uint16(b.Flags))
	if b.HasDestinationBone() {
		e.writeIndex(BoneIndex, b.DestinationBoneIndex)
	} else {
		e.writeVector3(b.DestinationOrigin)
	}
	if b.HasInherentRotation() || b.HasInherentTranslation() {
		e.writeIndex(BoneIndex, b.InherentBoneIndex)
		e.writeFloat(b.InherentCoefficient)
	}
	if b.HasFixedAxis() {
		e.writeVector3(b.FixedAxis)
	}
	if b.HasLocalAxes() {
		e.writeVector3(b.LocalAxisX)
		e.writeVector3(b.LocalAxisZ)
	}
	if b.IsTransformedByExternalParent() {
		e.writeInt(b.ExternalParentKey)
	}
	if b.HasIK() {
		e.writeIndex(BoneIndex, b.IK.TargetBoneIndex)
		e.writeInt(b.IK.LoopCount)
		e.writeFloat(b.IK.AngleLimit)
		e.writeInt(len(b.IK.Links))
		for _, l := range b.IK.Links {
			e.writeIndex(BoneIndex, l.BoneIndex)
			if l.HasLimit {
				e.writeUint8(1)
				e.writeVector3(l.LowerLimit)
				e.writeVector3(l.UpperLimit)
			} else {
				e.writeUint8(0)
			}
		}
	}
}
