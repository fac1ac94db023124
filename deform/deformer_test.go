package deform_test

import (
	"math"
	"testing"

	"github.com/binzume/pmxengine/config"
	"github.com/binzume/pmxengine/deform"
	"github.com/binzume/pmxengine/geom"
	"github.com/binzume/pmxengine/pmx"
	"github.com/binzume/pmxengine/pmx/pmxtest"
)

const eps = 1e-4

func near(a, b geom.Vector3) bool {
	return math.Abs(float64(a.X-b.X)) < eps && math.Abs(float64(a.Y-b.Y)) < eps && math.Abs(float64(a.Z-b.Z)) < eps
}

// twoBones returns a model with two root bones at the origin.
func twoBones() *pmx.Model {
	m := pmx.NewModel()
	for i := 0; i < 2; i++ {
		b := pmx.NewBone()
		b.SetName(pmx.Japanese, "bone"+string(rune('A'+i)))
		m.AddBone(b)
	}
	return m
}

func translate(d *deform.Deformer, bone int, t geom.Vector3) {
	d.SetBoneLocalTransform(bone, t, *geom.NewIdentityQuaternion())
}

func TestSkinBdef1Rest(t *testing.T) {
	m := twoBones()
	m.AddVertex(pmxtest.Vertex(geom.Vector3{}, 0))
	d := deform.New(m, nil)
	d.Update()
	if !near(d.Positions()[0], geom.Vector3{}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
	if !near(d.Normals()[0], geom.Vector3{Y: 1}) {
		t.Errorf("normal = %v", d.Normals()[0])
	}
}

func TestSkinBdef2(t *testing.T) {
	m := twoBones()
	full := pmx.NewVertex()
	full.Type = pmx.Bdef2
	full.SetBone(0, 0, 1)
	full.SetBone(1, 1, 0)
	m.AddVertex(full)
	m.AddVertex(pmxtest.Vertex(geom.Vector3{}, 0))
	half := pmx.NewVertex()
	half.Type = pmx.Bdef2
	half.SetBone(0, 0, 0.5)
	half.SetBone(1, 1, 0.5)
	m.AddVertex(half)

	d := deform.New(m, nil)
	translate(d, 0, geom.Vector3{X: 2})
	translate(d, 1, geom.Vector3{Y: 2})
	d.Update()

	p := d.Positions()
	if !near(p[0], p[1]) || !near(p[0], geom.Vector3{X: 2}) {
		t.Errorf("bdef2 with weight 1 = %v, bdef1 = %v", p[0], p[1])
	}
	if !near(p[2], geom.Vector3{X: 1, Y: 1}) {
		t.Errorf("bdef2 half = %v", p[2])
	}
}

func TestSkinBdef4(t *testing.T) {
	m := pmx.NewModel()
	for i := 0; i < 4; i++ {
		m.AddBone(pmx.NewBone())
	}
	mean := pmx.NewVertex()
	mean.Type = pmx.Bdef4
	mean.BoneIndices = [4]int{0, 1, 2, 3}
	mean.Weights = [4]float32{0.25, 0.25, 0.25, 0.25}
	m.AddVertex(mean)
	sum := mean.Clone()
	sum.Weights = [4]float32{1, 1, 1, 1}
	m.AddVertex(sum)

	d := deform.New(m, nil)
	translate(d, 0, geom.Vector3{X: 4})
	translate(d, 1, geom.Vector3{Y: 4})
	translate(d, 2, geom.Vector3{Z: 4})
	translate(d, 3, geom.Vector3{X: 4, Y: 4, Z: 4})
	d.Update()

	if !near(d.Positions()[0], geom.Vector3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("mean = %v", d.Positions()[0])
	}
	// weights are not renormalized
	if !near(d.Positions()[1], geom.Vector3{X: 8, Y: 8, Z: 8}) {
		t.Errorf("sum = %v", d.Positions()[1])
	}
}

func TestSkinSdef(t *testing.T) {
	m := twoBones()
	v := pmx.NewVertex()
	v.Origin = geom.Vector3{X: 1, Y: 2, Z: 3}
	v.Normal = geom.Vector3{Z: 1}
	v.Type = pmx.Sdef
	v.SetBone(0, 0, 0.3)
	v.SetBone(1, 1, 0.7)
	v.SdefC = geom.Vector3{Y: 1}
	v.SdefR0 = geom.Vector3{Y: 2}
	v.SdefR1 = geom.Vector3{Y: 0.5}
	m.AddVertex(v)

	d := deform.New(m, nil)
	d.Update()
	if !near(d.Positions()[0], v.Origin) {
		t.Errorf("rest = %v", d.Positions()[0])
	}

	translate(d, 0, geom.Vector3{X: 1, Z: -1})
	translate(d, 1, geom.Vector3{X: 1, Z: -1})
	d.Update()
	if !near(d.Positions()[0], geom.Vector3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("translated = %v", d.Positions()[0])
	}
	if !near(d.Normals()[0], v.Normal) {
		t.Errorf("normal = %v", d.Normals()[0])
	}
}

func TestSkinSdefRotation(t *testing.T) {
	m := twoBones()
	v := pmx.NewVertex()
	v.Origin = geom.Vector3{X: 1, Y: 2, Z: 3}
	v.Normal = geom.Vector3{X: 1}
	v.Type = pmx.Sdef
	v.SetBone(0, 0, 0.3)
	v.SetBone(1, 1, 0.7)
	v.SdefC = geom.Vector3{Y: 1}
	v.SdefR0 = geom.Vector3{Y: 2}
	v.SdefR1 = geom.Vector3{Y: 0.5}
	m.AddVertex(v)

	d := deform.New(m, nil)
	d.SetBoneLocalTransform(1, geom.Vector3{}, *geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, math.Pi/2))
	d.Update()

	// The rotation is 70% of the quarter turn, applied around C. The corrected centers
	// are (0, 1.525, 0) for bone 0 and (0, 0.775, 0) for bone 1, moved by each bone
	// and blended by weight.
	c, s := math.Cos(0.35*math.Pi), math.Sin(0.35*math.Pi)
	want := geom.Vector3{
		X: float32(c - s - 0.775*0.7),
		Y: float32(s + c + 1.525*0.3),
		Z: 3,
	}
	if !near(d.Positions()[0], want) {
		t.Errorf("position = %v want %v", d.Positions()[0], want)
	}
	if n := (geom.Vector3{X: float32(c), Y: float32(s)}); !near(d.Normals()[0], n) {
		t.Errorf("normal = %v want %v", d.Normals()[0], n)
	}
}

func TestBoneHierarchy(t *testing.T) {
	m := pmx.NewModel()
	pmxtest.Bones(m, 2)
	m.AddVertex(pmxtest.Vertex(geom.Vector3{X: 1, Y: 1}, 1))

	d := deform.New(m, nil)
	// quarter turn around Z at the root carries the child with it
	d.SetBoneLocalTransform(0, geom.Vector3{}, *geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, math.Pi/2))
	d.Update()

	if !near(d.Positions()[0], geom.Vector3{X: -1, Y: 1}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
	if tr := d.BoneWorldTransform(1).Translation(); !near(*tr, geom.Vector3{X: -1}) {
		t.Errorf("child origin = %v", tr)
	}
	if !near(d.Normals()[0], geom.Vector3{X: -1}) {
		t.Errorf("normal = %v", d.Normals()[0])
	}
}

func TestBoneInherentRotation(t *testing.T) {
	m := twoBones()
	b := m.BoneAt(1)
	b.Flags |= pmx.BoneFlagInherentRotation
	b.InherentBoneIndex = 0
	b.InherentCoefficient = 0.5
	m.AddVertex(pmxtest.Vertex(geom.Vector3{X: 1}, 1))

	d := deform.New(m, nil)
	d.SetBoneLocalTransform(0, geom.Vector3{}, *geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, math.Pi/2))
	d.Update()

	// half of a quarter turn
	if !near(d.Positions()[0], geom.Vector3{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
}

func TestBoneInherentTranslation(t *testing.T) {
	m := twoBones()
	b := m.BoneAt(1)
	b.Flags |= pmx.BoneFlagInherentTranslation
	b.InherentBoneIndex = 0
	b.InherentCoefficient = -1
	m.AddVertex(pmxtest.Vertex(geom.Vector3{}, 1))

	d := deform.New(m, nil)
	translate(d, 0, geom.Vector3{X: 3})
	d.Update()
	if !near(d.Positions()[0], geom.Vector3{X: -3}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
}

func TestBoneCycle(t *testing.T) {
	m := twoBones()
	m.BoneAt(0).ParentIndex = 1
	m.BoneAt(1).ParentIndex = 0
	m.BoneAt(0).Flags |= pmx.BoneFlagInherentRotation
	m.BoneAt(0).InherentBoneIndex = 0
	m.AddVertex(pmxtest.Vertex(geom.Vector3{X: 1}, 0))

	d := deform.New(m, nil)
	translate(d, 0, geom.Vector3{Y: 1})
	d.Update()

	// the link from bone 1 back to bone 0 is dropped
	if !near(d.Positions()[0], geom.Vector3{X: 1, Y: 1}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
}

func TestBoneWorldOverride(t *testing.T) {
	m := pmx.NewModel()
	pmxtest.Bones(m, 2)
	m.AddVertex(pmxtest.Vertex(geom.Vector3{Y: 1}, 1))

	d := deform.New(m, nil)
	d.SetBoneWorldTransform(0, geom.NewTRSMatrix4(&geom.Vector3{X: 5}, geom.NewIdentityQuaternion(), &geom.Vector3{X: 1, Y: 1, Z: 1}))
	d.Update()
	if !near(d.Positions()[0], geom.Vector3{X: 5, Y: 1}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
	if s := d.SkinningTransform(0).Translation(); !near(*s, geom.Vector3{X: 5}) {
		t.Errorf("skinning = %v", s)
	}

	d.ClearBoneOverrides()
	d.Update()
	if !near(d.Positions()[0], geom.Vector3{Y: 1}) {
		t.Errorf("position = %v", d.Positions()[0])
	}
}

func TestBoneWorldOverrideRotation(t *testing.T) {
	m := twoBones()
	v := pmx.NewVertex()
	v.Origin = geom.Vector3{X: 1}
	v.Normal = geom.Vector3{X: 1}
	v.Type = pmx.Sdef
	v.SetBone(0, 0, 1)
	v.SetBone(1, 1, 0)
	m.AddVertex(v)

	d := deform.New(m, nil)
	q := geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, math.Pi/2)
	d.SetBoneWorldTransform(0, geom.NewTRSMatrix4(&geom.Vector3{}, q, &geom.Vector3{X: 2, Y: 2, Z: 2}))
	d.Update()

	// sdef normals follow the rotation of the override without its scale
	if !near(d.Normals()[0], geom.Vector3{Y: 1}) {
		t.Errorf("normal = %v", d.Normals()[0])
	}
}

func nearMatrix(a, b *geom.Matrix4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func rigidBodyModel() *pmx.Model {
	m := pmx.NewModel()
	b := pmx.NewBone()
	b.Origin = geom.Vector3{Y: 1}
	m.AddBone(b)
	r := pmx.NewRigidBody()
	r.BoneIndex = 0
	r.Position = geom.Vector3{Y: 2}
	r.Rotation = geom.Vector3{Y: math.Pi / 2}
	m.AddRigidBody(r)
	m.AddVertex(pmxtest.Vertex(geom.Vector3{Y: 1}, 0))
	return m
}

func TestRigidBodyTransform(t *testing.T) {
	m := rigidBodyModel()
	d := deform.New(m, nil)
	translate(d, 0, geom.Vector3{X: 3})
	d.Update()
	if tr := d.RigidBodyTransform(0).Translation(); !near(*tr, geom.Vector3{X: 3, Y: 2}) {
		t.Errorf("body = %v", tr)
	}

	// putting the body where it already is leaves the bone alone
	before := *d.BoneWorldTransform(0)
	d.SetRigidBodyTransform(0, d.RigidBodyTransform(0))
	d.Update()
	if after := d.BoneWorldTransform(0); !nearMatrix(after, &before) {
		t.Errorf("bone moved from %v to %v", before, *after)
	}

	body := geom.NewTRSMatrix4(&geom.Vector3{X: 1, Y: 5}, geom.NewQuaternionFromAxisAngle(&geom.Vector3{Y: 1}, math.Pi/2), &geom.Vector3{X: 1, Y: 1, Z: 1})
	d.SetRigidBodyTransform(0, body)
	d.Update()
	if tr := d.BoneWorldTransform(0).Translation(); !near(*tr, geom.Vector3{X: 1, Y: 4}) {
		t.Errorf("bone = %v", tr)
	}
	if got := d.RigidBodyTransform(0); !nearMatrix(got, body) {
		t.Errorf("body = %v want %v", *got, *body)
	}
	if !near(d.Positions()[0], geom.Vector3{X: 1, Y: 4}) {
		t.Errorf("position = %v", d.Positions()[0])
	}

	// bodies without a bone are not simulated into the pose
	m.RigidBodies()[0].BoneIndex = -1
	d.ClearBoneOverrides()
	d.SetRigidBodyTransform(0, body)
	d.Update()
	if tr := d.BoneWorldTransform(0).Translation(); !near(*tr, geom.Vector3{X: 3, Y: 1}) {
		t.Errorf("unbound body moved the bone to %v", tr)
	}
}

func TestNormalizeNormals(t *testing.T) {
	m := twoBones()
	v := pmx.NewVertex()
	v.Normal = geom.Vector3{Y: 2}
	v.Type = pmx.Bdef1
	v.BoneIndices[0] = 0
	m.AddVertex(v)

	conf := config.Default()
	d := deform.New(m, conf)
	d.Update()
	if !near(d.Normals()[0], geom.Vector3{Y: 2}) {
		t.Errorf("normal = %v", d.Normals()[0])
	}

	conf.NormalizeNormals = true
	d.Update()
	if !near(d.Normals()[0], geom.Vector3{Y: 1}) {
		t.Errorf("normalized = %v", d.Normals()[0])
	}
}

func TestBounds(t *testing.T) {
	m := twoBones()
	m.AddVertex(pmxtest.Vertex(geom.Vector3{X: -1, Y: 2}, 0))
	m.AddVertex(pmxtest.Vertex(geom.Vector3{X: 3, Z: -4}, 1))

	d := deform.New(m, nil)
	translate(d, 1, geom.Vector3{Y: 1})
	d.Update()

	b := d.Bounds()
	if b.Min.X != -1 || b.Min.Y != 1 || b.Min.Z != -4 || b.Max.X != 3 || b.Max.Y != 2 || b.Max.Z != 0 {
		t.Errorf("bounds = %v", b)
	}
	if m.AABB() != b {
		t.Errorf("model AABB = %v", m.AABB())
	}
}

func TestAddEntitiesBetweenFrames(t *testing.T) {
	m := twoBones()
	d := deform.New(m, nil)
	d.Update()

	m.AddBone(pmx.NewBone())
	m.AddVertex(pmxtest.Vertex(geom.Vector3{X: 1}, 2))
	translate(d, 2, geom.Vector3{Z: 1})
	d.Update()
	if len(d.Positions()) != 1 || !near(d.Positions()[0], geom.Vector3{X: 1, Z: 1}) {
		t.Errorf("positions = %v", d.Positions())
	}
}

func TestRemoveBoneKeepsInputs(t *testing.T) {
	m := twoBones()
	m.AddVertex(pmxtest.Vertex(geom.Vector3{}, 1))
	d := deform.New(m, nil)
	translate(d, 1, geom.Vector3{X: 5})
	d.SetBoneWorldTransform(0, geom.NewTRSMatrix4(&geom.Vector3{Z: 9}, geom.NewIdentityQuaternion(), &geom.Vector3{X: 1, Y: 1, Z: 1}))
	d.Update()

	m.RemoveBone(m.BoneAt(0))
	d.Update()
	if tr := d.BoneWorldTransform(0).Translation(); !near(*tr, geom.Vector3{X: 5}) {
		t.Errorf("remaining bone = %v", tr)
	}
	if !near(d.Positions()[0], geom.Vector3{X: 5}) {
		t.Errorf("position = %v", d.Positions()[0])
	}

	// a bone added later starts at rest
	m.AddBone(pmx.NewBone())
	d.Update()
	if tr := d.BoneWorldTransform(1).Translation(); !near(*tr, geom.Vector3{}) {
		t.Errorf("new bone = %v", tr)
	}
}

func TestUpdateDoesNotAllocate(t *testing.T) {
	m := morphModel()
	groupMorph(m, "group", pmx.GroupOffset{MorphIndex: 0, Weight: 0.5})
	d := deform.New(m, nil)
	d.SetMorphWeight(1, 1)
	translate(d, 0, geom.Vector3{X: 1})
	d.Update()
	if n := testing.AllocsPerRun(10, d.Update); n != 0 {
		t.Errorf("Update allocates %v times", n)
	}
}

func TestUnknownBoneQueries(t *testing.T) {
	d := deform.New(twoBones(), nil)
	d.Update()
	if *d.BoneWorldTransform(5) != *geom.NewMatrix4() || *d.SkinningTransform(-1) != *geom.NewMatrix4() {
		t.Error("unknown bones should report identity")
	}
	if d.AdditionalUVs(0) != nil || d.AdditionalUVs(5) != nil {
		t.Error("additional UV channels are 1..4")
	}
}
