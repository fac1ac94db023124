package pmx

import (
	"github.com/binzume/pmxengine/geom"
)

type RigidBodyShape uint8

const (
	ShapeSphere RigidBodyShape = iota
	ShapeBox
	ShapeCapsule
)

type RigidBodyType uint8

const (
	// RigidBodyStatic follows its bone.
	RigidBodyStatic RigidBodyType = iota
	RigidBodyDynamic
	// RigidBodyAlignedDynamic is simulated but keeps the bone's position.
	RigidBodyAlignedDynamic
)

type RigidBody struct {
	named
	BoneIndex      int
	CollisionGroup uint8
	CollisionMask  uint16
	Shape          RigidBodyShape
	Size           geom.Vector3
	Position       geom.Vector3
	Rotation       geom.Vector3 // radians
	Mass           float32
	LinearDamping  float32
	AngularDamping float32
	Restitution    float32
	Friction       float32
	ObjectType     RigidBodyType
}

var nullRigidBody = NewRigidBody()

func NullRigidBody() *RigidBody { return nullRigidBody }

func NewRigidBody() *RigidBody {
	return &RigidBody{named: newNamed(), BoneIndex: -1, Mass: 1}
}

func (r *RigidBody) SetName(lang Language, name string) {
	r.setName(r, rigidBodyNames, lang, name)
}

// LocalTransform returns the body's offset in model space.
func (r *RigidBody) LocalTransform() *geom.Matrix4 {
	q := geom.NewEuler(r.Rotation.X, r.Rotation.Y, r.Rotation.Z, geom.RotationOrderYXZ).ToQuaternion()
	return geom.NewTRSMatrix4(&r.Position, q, &geom.Vector3{X: 1, Y: 1, Z: 1})
}

// WorldTransform places the body after its bone moved by skin, the bone's skinning
// transform.
func (r *RigidBody) WorldTransform(skin *geom.Matrix4) *geom.Matrix4 {
	return skin.Mul(r.LocalTransform())
}

// SkinningTransform is the inverse of WorldTransform: it returns the skinning transform
// of the bone that puts the body at world.
func (r *RigidBody) SkinningTransform(world *geom.Matrix4) *geom.Matrix4 {
	return world.Mul(r.LocalTransform().Inverse())
}

func (r *RigidBody) Clone() *RigidBody {
	c := *r
	c.named = r.cloneNamed()
	return &c
}

func (r *RigidBody) EstimateSize(info *DataInfo) int {
	return r.namesSize(info) + int(info.IndexSize(BoneIndex)) + 1 + 2 + 1 +
		sizeofVector3*3 + sizeofFloat*5 + 1
}

func (r *RigidBody) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	r.read(d)
	return d.off, d.err
}

func (r *RigidBody) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	r.write(e)
	return e.off, e.err
}

func (r *RigidBody) read(d *decoder) {
	r.readNames(d)
	r.BoneIndex = d.readIndex(BoneIndex)
	r.CollisionGroup = d.readUint8()
	r.CollisionMask = d.readUint16()
	shape := RigidBodyShape(d.readUint8())
	if d.err != nil {
		return
	}
	if shape > ShapeCapsule {
		d.fail(ErrInvalidRigidBodyShape)
		return
	}
	r.Shape = shape
	r.Size = d.readVector3()
	r.Position = d.readVector3()
	r.Rotation = d.readVector3()
	r.Mass = d.readFloat()
	r.LinearDamping = d.readFloat()
	r.AngularDamping = d.readFloat()
	r.Restitution = d.readFloat()
	r.Friction = d.readFloat()
	t := RigidBodyType(d.readUint8())
	if d.err != nil {
		return
	}
	if t > RigidBodyAlignedDynamic {
		d.fail(ErrInvalidRigidBodyType)
		return
	}
	r.ObjectType = t
}

func (r *RigidBody) write(e *encoder) {
	r.writeNames(e)
	e.writeIndex(BoneIndex, r.BoneIndex)
	e.writeUint8(r.CollisionGroup)
	e.writeUint16(r.CollisionMask)
	e.writeUint8(uint8(r.Shape))
	e.writeVector3(r.Size)
	e.writeVector3(r.Position)
	e.writeVector3(r.Rotation)
	e.writeFloat(r.Mass)
	e.writeFloat(r.LinearDamping)
	e.writeFloat(r.AngularDamping)
	e.writeFloat(r.Restitution)
	e.writeFloat(r.Friction)
	e.writeUint8(uint8(r.ObjectType))
}
