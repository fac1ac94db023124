package pmx

import (
	"github.com/binzume/pmxengine/geom"
)

type JointType uint8

const (
	JointSpring6DOF JointType = iota
	// PMX 2.1
	Joint6DOF
	JointP2P
	JointConeTwist
	JointSlider
	JointHinge
)

type Joint struct {
	named
	Type              JointType
	RigidBodyIndexA   int
	RigidBodyIndexB   int
	Position          geom.Vector3
	Rotation          geom.Vector3
	PositionLower     geom.Vector3
	PositionUpper     geom.Vector3
	RotationLower     geom.Vector3
	RotationUpper     geom.Vector3
	PositionStiffness geom.Vector3
	RotationStiffness geom.Vector3
}

var nullJoint = NewJoint()

func NullJoint() *Joint { return nullJoint }

func NewJoint() *Joint {
	return &Joint{named: newNamed(), RigidBodyIndexA: -1, RigidBodyIndexB: -1}
}

func (j *Joint) SetName(lang Language, name string) {
	j.setName(j, jointNames, lang, name)
}

func (j *Joint) Clone() *Joint {
	c := *j
	c.named = j.cloneNamed()
	return &c
}

func (j *Joint) EstimateSize(info *DataInfo) int {
	return j.namesSize(info) + 1 + int(info.IndexSize(RigidBodyIndex))*2 + sizeofVector3*8
}

func (j *Joint) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	j.read(d)
	return d.off, d.err
}

func (j *Joint) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	j.write(e)
	return e.off, e.err
}

func (j *Joint) read(d *decoder) {
	j.readNames(d)
	t := JointType(d.readUint8())
	if d.err != nil {
		return
	}
	if t > JointHinge {
		d.fail(ErrInvalidJointType)
		return
	}
	j.Type = t
	j.RigidBodyIndexA = d.readIndex(RigidBodyIndex)
	j.RigidBodyIndexB = d.readIndex(RigidBodyIndex)
	j.Position = d.readVector3()
	j.Rotation = d.readVector3()
	j.PositionLower = d.readVector3()
	j.PositionUpper = d.readVector3()
	j.RotationLower = d.readVector3()
	j.RotationUpper = d.readVector3()
	j.PositionStiffness = d.readVector3()
	j.RotationStiffness = d.readVector3()
}

func (j *Joint) write(e *encoder) {
	j.writeNames(e)
	e.writeUint8(uint8(j.Type))
	e.writeIndex(RigidBodyIndex, j.RigidBodyIndexA)
	e.writeIndex(RigidBodyIndex, j.RigidBodyIndexB)
	e.writeVector3(j.Position)
	e.writeVector3(j.Rotation)
	e.writeVector3(j.PositionLower)
	e.writeVector3(j.PositionUpper)
	e.writeVector3(j.RotationLower)
	e.writeVector3(j.RotationUpper)
	e.writeVector3(j.PositionStiffness)
	e.writeVector3(j.RotationStiffness)
}
