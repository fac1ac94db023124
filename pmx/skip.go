package pmx

import (
	"github.com/pkg/errors"
)

// The skip functions walk one record the way its read method does, validating the same
// discriminators, without building the entity.

func (d *decoder) skip(n int) {
	d.take(n)
}

func (d *decoder) skipText() {
	d.take(d.readInt())
}

func (d *decoder) skipNames() {
	d.skipText()
	d.skipText()
}

func (d *decoder) skipIndex(kind IndexKind) {
	d.skip(int(d.info.IndexSize(kind)))
}

// skipCount reads an element count that must fit in the rest of the data.
func (d *decoder) skipCount() int {
	n := d.readInt()
	if d.err != nil {
		return 0
	}
	if n < 0 || n > len(d.data)-d.off {
		d.fail(ErrBufferUnderrun)
		return 0
	}
	return n
}

func skipVertex(d *decoder) {
	d.skip(2*sizeofVector3 + sizeofVector2 + d.info.AdditionalUVs*sizeofVector4)
	t := VertexType(d.readUint8())
	if d.err != nil {
		return
	}
	if t > maxVertexType {
		d.fail(ErrInvalidVertexType)
		return
	}
	switch t {
	case Bdef1:
		d.skipIndex(BoneIndex)
	case Bdef2, Sdef:
		d.skipIndex(BoneIndex)
		d.skipIndex(BoneIndex)
		d.skip(sizeofFloat)
		if t == Sdef {
			d.skip(3 * sizeofVector3)
		}
	case Bdef4, Qdef:
		for i := 0; i < 4; i++ {
			d.skipIndex(BoneIndex)
		}
		d.skip(4 * sizeofFloat)
	}
	d.skip(sizeofFloat)
}

func skipMaterial(d *decoder) {
	d.skipNames()
	d.skip(sizeofVector4 + sizeofVector3 + sizeofFloat + sizeofVector3 + 1 + sizeofVector4 + sizeofFloat)
	d.skipIndex(TextureIndex)
	d.skipIndex(TextureIndex)
	mode := SphereMode(d.readUint8())
	if d.err != nil {
		return
	}
	if mode > SphereSubTexture {
		d.fail(ErrInvalidSphereMode)
		return
	}
	if d.readUint8() != 0 {
		d.skip(1)
	} else {
		d.skipIndex(TextureIndex)
	}
	d.skipText()
	d.skip(sizeofInt)
}

func skipBone(d *decoder) {
	d.skipNames()
	d.skip(sizeofVector3)
	d.skipIndex(BoneIndex)
	d.skip(sizeofInt)
	flags := BoneFlag(d.readUint16())
	if d.err != nil {
		return
	}
	if flags&BoneFlagDestinationBone != 0 {
		d.skipIndex(BoneIndex)
	} else {
		d.skip(sizeofVector3)
	}
	if flags&(BoneFlagInherentRotation|BoneFlagInherentTranslation) != 0 {
		d.skipIndex(BoneIndex)
		d.skip(sizeofFloat)
	}
	if flags&BoneFlagFixedAxis != 0 {
		d.skip(sizeofVector3)
	}
	if flags&BoneFlagLocalAxes != 0 {
		d.skip(2 * sizeofVector3)
	}
	if flags&BoneFlagExternalParent != 0 {
		d.skip(sizeofInt)
	}
	if flags&BoneFlagIK != 0 {
		d.skipIndex(BoneIndex)
		d.skip(sizeofInt + sizeofFloat)
		n := d.skipCount()
		for i := 0; i < n && d.err == nil; i++ {
			d.skipIndex(BoneIndex)
			if d.readUint8() != 0 {
				d.skip(2 * sizeofVector3)
			}
		}
	}
}

func skipMorph(d *decoder) {
	d.skipNames()
	d.skip(1)
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
	for i := 0; i < n && d.err == nil; i++ {
		switch {
		case t == MorphGroup || t == MorphFlip:
			d.skipIndex(MorphIndex)
			d.skip(sizeofFloat)
		case t == MorphVertex:
			d.skipIndex(VertexIndex)
			d.skip(sizeofVector3)
		case t == MorphBone:
			d.skipIndex(BoneIndex)
			d.skip(sizeofVector3 + sizeofVector4)
		case t.IsUV():
			d.skipIndex(VertexIndex)
			d.skip(sizeofVector4)
		case t == MorphMaterial:
			d.skipIndex(MaterialIndex)
			op := MaterialOperation(d.readUint8())
			if d.err == nil && op > MaterialAdd {
				d.fail(ErrInvalidMaterialOperation)
				return
			}
			d.skip(materialChannels * sizeofFloat)
		case t == MorphImpulse:
			d.skipIndex(RigidBodyIndex)
			d.skip(1 + 2*sizeofVector3)
		}
	}
}

func skipLabel(d *decoder) {
	d.skipNames()
	d.skip(1)
	n := d.skipCount()
	for i := 0; i < n && d.err == nil; i++ {
		switch LabelElementKind(d.readUint8()) {
		case LabelBone:
			d.skipIndex(BoneIndex)
		case LabelMorph:
			d.skipIndex(MorphIndex)
		default:
			d.fail(ErrInvalidLabelElement)
		}
	}
}

func skipRigidBody(d *decoder) {
	d.skipNames()
	d.skipIndex(BoneIndex)
	d.skip(1 + 2)
	shape := RigidBodyShape(d.readUint8())
	if d.err != nil {
		return
	}
	if shape > ShapeCapsule {
		d.fail(ErrInvalidRigidBodyShape)
		return
	}
	d.skip(3*sizeofVector3 + 5*sizeofFloat)
	t := RigidBodyType(d.readUint8())
	if d.err == nil && t > RigidBodyAlignedDynamic {
		d.fail(ErrInvalidRigidBodyType)
	}
}

func skipJoint(d *decoder) {
	d.skipNames()
	t := JointType(d.readUint8())
	if d.err != nil {
		return
	}
	if t > JointHinge {
		d.fail(ErrInvalidJointType)
		return
	}
	d.skipIndex(RigidBodyIndex)
	d.skipIndex(RigidBodyIndex)
	d.skip(8 * sizeofVector3)
}

// skipSections walks everything after the header, recording the count and offset of
// each section in d.info.
func skipSections(d *decoder) error {
	info := d.info
	info.Offsets[SectionModelInfo] = d.off
	for i := 0; i < 4; i++ {
		d.skipText()
	}
	if d.err != nil {
		return errors.Wrapf(d.err, "decoding %s", SectionModelInfo)
	}
	info.Counts[SectionModelInfo] = 1

	if err := skipEntities(d, SectionVertex, skipVertex); err != nil {
		return err
	}
	vsz := int(info.IndexSize(VertexIndex))
	d.skip(d.beginSection(SectionSurface, vsz) * vsz)
	if d.err != nil {
		return errors.Wrapf(d.err, "decoding %s", SectionSurface)
	}
	sections := []struct {
		s    Section
		skip func(d *decoder)
	}{
		{SectionTexture, (*decoder).skipText},
		{SectionMaterial, skipMaterial},
		{SectionBone, skipBone},
		{SectionMorph, skipMorph},
		{SectionLabel, skipLabel},
		{SectionRigidBody, skipRigidBody},
		{SectionJoint, skipJoint},
	}
	for _, sec := range sections {
		if err := skipEntities(d, sec.s, sec.skip); err != nil {
			return err
		}
	}
	info.Offsets[SectionSoftBody] = d.off
	return nil
}

func skipEntities(d *decoder, s Section, skip func(d *decoder)) error {
	return readEntities(d, s, func(int) { skip(d) })
}
