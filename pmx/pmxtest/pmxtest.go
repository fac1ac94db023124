// Package pmxtest builds small in-memory models for tests.
package pmxtest

import (
	"testing"

	"github.com/binzume/pmxengine/geom"
	"github.com/binzume/pmxengine/pmx"
)

// Bones adds n bones to m, chained so that bone i is the parent of bone i+1.
func Bones(m *pmx.Model, n int) []*pmx.Bone {
	var bones []*pmx.Bone
	for i := 0; i < n; i++ {
		b := pmx.NewBone()
		b.SetName(pmx.Japanese, "bone"+string(rune('A'+i)))
		b.SetName(pmx.English, "Bone"+string(rune('A'+i)))
		b.Flags = pmx.BoneFlagRotatable | pmx.BoneFlagMovable | pmx.BoneFlagVisible | pmx.BoneFlagInteractive
		b.Origin = geom.Vector3{Y: float32(i)}
		if i > 0 {
			b.ParentIndex = i - 1
		}
		m.AddBone(b)
		bones = append(bones, b)
	}
	return bones
}

// Vertex returns a detached BDEF1 vertex at p bound to bone.
func Vertex(p geom.Vector3, bone int) *pmx.Vertex {
	v := pmx.NewVertex()
	v.Origin = p
	v.Normal = geom.Vector3{Y: 1}
	v.Type = pmx.Bdef1
	v.BoneIndices[0] = bone
	return v
}

// Sample returns a model using every entity kind and every morph type.
func Sample() *pmx.Model {
	m := pmx.NewModel()
	m.SetName(pmx.Japanese, "サンプル")
	m.SetName(pmx.English, "sample")
	m.SetComment(pmx.Japanese, "テスト用")
	m.SetComment(pmx.English, "for tests")
	_ = m.SetAdditionalUVs(1)

	bones := Bones(m, 3)
	bones[1].Flags |= pmx.BoneFlagInherentRotation | pmx.BoneFlagFixedAxis
	bones[1].InherentBoneIndex = 0
	bones[1].InherentCoefficient = 0.5
	bones[1].FixedAxis = geom.Vector3{X: 1}
	bones[2].Flags |= pmx.BoneFlagDestinationBone | pmx.BoneFlagIK | pmx.BoneFlagLocalAxes
	bones[2].DestinationBoneIndex = 1
	bones[2].IK = pmx.IK{
		TargetBoneIndex: 0,
		LoopCount:       40,
		AngleLimit:      0.5,
		Links: []pmx.IKLink{
			{BoneIndex: 1, HasLimit: true, LowerLimit: geom.Vector3{X: -1}, UpperLimit: geom.Vector3{X: 1}},
			{BoneIndex: 0},
		},
	}
	bones[0].DestinationOrigin = geom.Vector3{Y: 1}

	positions := []geom.Vector3{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}
	for i, p := range positions {
		v := Vertex(p, 0)
		v.TexCoord = geom.Vector2{X: p.X, Y: p.Y}
		v.AdditionalUVs[0] = geom.Vector4{X: 0.5, W: 1}
		switch i {
		case 1:
			v.Type = pmx.Bdef2
			v.SetBone(0, 0, 0.75)
			v.SetBone(1, 1, 0.25)
		case 2:
			v.Type = pmx.Bdef4
			v.BoneIndices = [4]int{0, 1, 2, -1}
			v.Weights = [4]float32{0.5, 0.25, 0.25, 0}
		case 3:
			v.Type = pmx.Sdef
			v.SetBone(0, 1, 0.5)
			v.SetBone(1, 2, 0.5)
			v.SdefC = geom.Vector3{Y: 1}
			v.SdefR0 = geom.Vector3{Y: 1.5}
			v.SdefR1 = geom.Vector3{Y: 0.5}
		}
		m.AddVertex(v)
	}

	m.AddTexture("tex/body.png")
	m.AddTexture("tex/face.png")
	m.SetSurfaces([]int{0, 1, 2, 1, 3, 2})
	for i := 0; i < 2; i++ {
		mat := pmx.NewMaterial()
		mat.SetName(pmx.Japanese, "材質"+string(rune('1'+i)))
		mat.SetName(pmx.English, "material"+string(rune('1'+i)))
		mat.SetDiffuse(geom.Vector4{X: 1, Y: 0.5, Z: 0.25, W: 1})
		mat.SetSpecular(geom.Vector3{X: 0.1, Y: 0.1, Z: 0.1})
		mat.SetShininess(5)
		mat.SetAmbient(geom.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
		mat.SetEdgeColor(geom.Vector4{W: 1})
		mat.SetEdgeSize(1)
		mat.Flags = pmx.MaterialFlagCastingShadow | pmx.MaterialFlagEnableEdge
		mat.MainTextureIndex = i
		mat.SphereMode = pmx.SphereAdd
		mat.SphereTextureIndex = 1 - i
		mat.ToonShared = i == 0
		mat.ToonTextureIndex = 3
		if i == 1 {
			mat.ToonTextureIndex = 0
		}
		mat.UserDataArea = "memo"
		mat.SurfaceCount = 3
		m.AddMaterial(mat)
	}

	vm := pmx.NewMorph(pmx.MorphVertex)
	vm.SetName(pmx.Japanese, "あ")
	vm.SetName(pmx.English, "a")
	vm.Category = pmx.CategoryLip
	_ = vm.AddOffset(&pmx.VertexOffset{VertexIndex: 3, Position: geom.Vector3{Z: 1}})
	m.AddMorph(vm)

	gm := pmx.NewMorph(pmx.MorphGroup)
	gm.SetName(pmx.Japanese, "グループ")
	_ = gm.AddOffset(&pmx.GroupOffset{MorphIndex: 0, Weight: 0.5})
	m.AddMorph(gm)

	bm := pmx.NewMorph(pmx.MorphBone)
	bm.SetName(pmx.Japanese, "ボーン")
	_ = bm.AddOffset(&pmx.BoneOffset{BoneIndex: 1, Translation: geom.Vector3{X: 1}, Orientation: *geom.NewIdentityQuaternion()})
	m.AddMorph(bm)

	um := pmx.NewMorph(pmx.MorphUVA1)
	um.SetName(pmx.Japanese, "UV")
	_ = um.AddOffset(&pmx.UVOffset{VertexIndex: 0, Value: geom.Vector4{X: 0.25}})
	m.AddMorph(um)

	mm := pmx.NewMorph(pmx.MorphMaterial)
	mm.SetName(pmx.Japanese, "材質")
	mo := &pmx.MaterialOffset{MaterialIndex: pmx.MaterialOffsetAll, Operation: pmx.MaterialMultiply}
	mo.Diffuse = geom.Vector4{X: 0.5, Y: 0.5, Z: 0.5, W: 1}
	_ = mm.AddOffset(mo)
	m.AddMorph(mm)

	fm := pmx.NewMorph(pmx.MorphFlip)
	fm.SetName(pmx.Japanese, "フリップ")
	_ = fm.AddOffset(&pmx.FlipOffset{MorphIndex: 0, Weight: 1})
	m.AddMorph(fm)

	im := pmx.NewMorph(pmx.MorphImpulse)
	im.SetName(pmx.Japanese, "インパルス")
	_ = im.AddOffset(&pmx.ImpulseOffset{RigidBodyIndex: 0, Local: true, Velocity: geom.Vector3{Y: 1}})
	m.AddMorph(im)

	root := pmx.NewLabel()
	root.SetName(pmx.Japanese, "Root")
	root.SetName(pmx.English, "Root")
	root.Special = true
	root.AddBone(0)
	m.AddLabel(root)
	exp := pmx.NewLabel()
	exp.SetName(pmx.Japanese, "表情")
	exp.SetName(pmx.English, "Exp")
	exp.Special = true
	exp.AddMorph(0)
	exp.AddMorph(1)
	m.AddLabel(exp)

	for i := 0; i < 2; i++ {
		r := pmx.NewRigidBody()
		r.SetName(pmx.Japanese, "剛体"+string(rune('1'+i)))
		r.BoneIndex = i + 1
		r.CollisionGroup = uint8(i)
		r.CollisionMask = 0xfffe
		r.Shape = pmx.ShapeCapsule
		r.Size = geom.Vector3{X: 0.5, Y: 1}
		r.Position = geom.Vector3{Y: float32(i)}
		r.Mass = 1
		r.LinearDamping = 0.5
		r.AngularDamping = 0.5
		r.Friction = 0.5
		r.ObjectType = pmx.RigidBodyDynamic
		m.AddRigidBody(r)
	}
	j := pmx.NewJoint()
	j.SetName(pmx.Japanese, "ジョイント")
	j.RigidBodyIndexA = 0
	j.RigidBodyIndexB = 1
	j.PositionUpper = geom.Vector3{X: 0.1}
	j.RotationLower = geom.Vector3{Z: -0.5}
	j.RotationStiffness = geom.Vector3{X: 10}
	m.AddJoint(j)
	return m
}

// Bytes serializes m and fails the test on error.
func Bytes(t testing.TB, m *pmx.Model) []byte {
	t.Helper()
	data, err := m.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if len(data) != m.EstimateSize() {
		t.Fatalf("Bytes() wrote %d bytes, EstimateSize() = %d", len(data), m.EstimateSize())
	}
	return data
}

// Load parses data into a new model and fails the test on error.
func Load(t testing.TB, data []byte) *pmx.Model {
	t.Helper()
	m := pmx.NewModel()
	if err := m.Load(data); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return m
}
