package pmx_test

import (
	"bytes"
	"testing"

	"github.com/binzume/pmxengine/geom"
	"github.com/binzume/pmxengine/pmx"
	"github.com/binzume/pmxengine/pmx/pmxtest"
	"github.com/pkg/errors"
)

func TestModelRoundTrip(t *testing.T) {
	m := pmxtest.Sample()
	data := pmxtest.Bytes(t, m)
	m2 := pmxtest.Load(t, data)

	if m2.Err() != pmx.NoError {
		t.Errorf("Err() = %v", m2.Err())
	}
	if m2.Name(pmx.Japanese) != "サンプル" || m2.Comment(pmx.English) != "for tests" {
		t.Errorf("model info = %q, %q", m2.Name(pmx.Japanese), m2.Comment(pmx.English))
	}
	if m2.AdditionalUVs() != 1 || m2.Encoding() != pmx.EncodingUTF16 || m2.Version() != 2.0 {
		t.Errorf("header = %v %v %v", m2.AdditionalUVs(), m2.Encoding(), m2.Version())
	}
	counts := []struct {
		name      string
		got, want int
	}{
		{"vertices", len(m2.Vertices()), 4},
		{"surfaces", len(m2.Surfaces()), 6},
		{"textures", len(m2.Textures()), 2},
		{"materials", len(m2.Materials()), 2},
		{"bones", len(m2.Bones()), 3},
		{"morphs", len(m2.Morphs()), 7},
		{"labels", len(m2.Labels()), 2},
		{"rigid bodies", len(m2.RigidBodies()), 2},
		{"joints", len(m2.Joints()), 1},
	}
	for _, c := range counts {
		if c.got != c.want {
			t.Errorf("%s = %d want %d", c.name, c.got, c.want)
		}
	}
	for i, want := range []int{0, 0, 0, 1} {
		if got := m2.Vertices()[i].MaterialIndex; got != want {
			t.Errorf("vertex %d material = %d want %d", i, got, want)
		}
	}
	if r := m2.Materials()[1].IndexRange(); r.Start != 3 || r.Count != 3 {
		t.Errorf("material 1 range = %+v", r)
	}
	if b := m2.Bones()[2]; b.Index() != 2 || b.Model() != m2 {
		t.Errorf("bone index = %d", b.Index())
	}

	if data2 := pmxtest.Bytes(t, m2); !bytes.Equal(data, data2) {
		t.Errorf("save after load differs: %d vs %d bytes", len(data), len(data2))
	}
}

func TestModelRoundTripUTF8(t *testing.T) {
	m := pmxtest.Sample()
	if err := m.SetEncoding(pmx.EncodingUTF8); err != nil {
		t.Fatal(err)
	}
	if err := m.SetVersion(2.1); err != nil {
		t.Fatal(err)
	}
	data := pmxtest.Bytes(t, m)
	m2 := pmxtest.Load(t, data)
	if m2.Encoding() != pmx.EncodingUTF8 || m2.Version() != 2.1 {
		t.Errorf("header = %v %v", m2.Encoding(), m2.Version())
	}
	if m2.FindMorph(pmx.Japanese, "あ") == nil {
		t.Errorf("morph name lost")
	}
	if !bytes.Equal(data, pmxtest.Bytes(t, m2)) {
		t.Errorf("save after load differs")
	}
}

func TestLoadSoftBodies(t *testing.T) {
	m := pmxtest.Sample()
	if err := m.SetVersion(2.1); err != nil {
		t.Fatal(err)
	}
	data := pmxtest.Bytes(t, m)
	// soft body count is the last field
	data[len(data)-4] = 1
	m2 := pmxtest.Load(t, data)
	if len(m2.Joints()) != 1 {
		t.Errorf("joints = %d", len(m2.Joints()))
	}
}

func TestLoadTruncated(t *testing.T) {
	data := pmxtest.Bytes(t, pmxtest.Sample())
	m := pmx.NewModel()
	for n := 0; n < len(data); n++ {
		if err := m.Load(pmxtest.Bytes(t, pmxtest.Sample())); err != nil {
			t.Fatal(err)
		}
		err := m.Load(data[:n])
		if !errors.Is(err, pmx.ErrBufferUnderrun) || m.Err() != pmx.ErrBufferUnderrun {
			t.Fatalf("Load(%d bytes) = %v, Err() = %v", n, err, m.Err())
		}
		if len(m.Vertices()) != 0 || len(m.Bones()) != 0 || len(m.Morphs()) != 0 || m.Name(pmx.Japanese) != "" {
			t.Fatalf("Load(%d bytes) left a partial model", n)
		}
		if m.FindBone(pmx.Japanese, "boneA") != nil {
			t.Fatalf("Load(%d bytes) left stale names", n)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	data := pmxtest.Bytes(t, pmxtest.Sample())
	cases := []struct {
		pos  int
		b    byte
		want pmx.ErrorCode
	}{
		{0, 'p', pmx.ErrInvalidSignature},
		{7, 0, pmx.ErrUnsupportedVersion},
		{9, 7, pmx.ErrInvalidEncoding},
		{10, 9, pmx.ErrInvalidAdditionalUVs},
		{13, 0, pmx.ErrInvalidIndexSize},
	}
	for _, c := range cases {
		broken := append([]byte(nil), data...)
		broken[c.pos] = c.b
		m := pmx.NewModel()
		err := m.Load(broken)
		if !errors.Is(err, c.want) || m.Err() != c.want {
			t.Errorf("byte %d = %d: Load() = %v, Err() = %v want %v", c.pos, c.b, err, m.Err(), c.want)
		}
	}
}

func TestPreparse(t *testing.T) {
	data := pmxtest.Bytes(t, pmxtest.Sample())
	m := pmx.NewModel()
	info, err := m.Preparse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Bones()) != 0 {
		t.Errorf("Preparse modified the model")
	}
	want := map[pmx.Section]int{
		pmx.SectionVertex: 4, pmx.SectionSurface: 6, pmx.SectionTexture: 2, pmx.SectionMaterial: 2,
		pmx.SectionBone: 3, pmx.SectionMorph: 7, pmx.SectionLabel: 2, pmx.SectionRigidBody: 2,
		pmx.SectionJoint: 1,
	}
	for s, n := range want {
		if info.Counts[s] != n {
			t.Errorf("%v count = %d want %d", s, info.Counts[s], n)
		}
	}
	for s := pmx.SectionVertex; s <= pmx.SectionJoint; s++ {
		if info.Offsets[s] <= info.Offsets[s-1] {
			t.Errorf("%v offset %d <= %d", s, info.Offsets[s], info.Offsets[s-1])
		}
	}
	if _, err := m.Preparse(data[:len(data)-1]); !errors.Is(err, pmx.ErrBufferUnderrun) {
		t.Errorf("Preparse(truncated) = %v", err)
	}
}

func TestPreparseMatchesLoad(t *testing.T) {
	data := pmxtest.Bytes(t, pmxtest.Sample())
	m := pmx.NewModel()
	info, err := m.Preparse(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Load(data); err != nil {
		t.Fatal(err)
	}
	loaded := m.Info()
	if info.Counts != loaded.Counts || info.Offsets != loaded.Offsets {
		t.Errorf("Preparse counts %v offsets %v, Load counts %v offsets %v",
			info.Counts, info.Offsets, loaded.Counts, loaded.Offsets)
	}

	// record discriminators are checked without building the records
	broken := append([]byte(nil), data...)
	broken[info.Offsets[pmx.SectionVertex]+4+32+info.AdditionalUVs*16] = 9
	if _, err := m.Preparse(broken); !errors.Is(err, pmx.ErrInvalidVertexType) {
		t.Errorf("Preparse(bad vertex type) = %v", err)
	}
	broken = append([]byte(nil), data...)
	broken[info.Offsets[pmx.SectionJoint]+4+(4+10)+4] = 6 // count, utf-16 names
	if _, err := m.Preparse(broken); !errors.Is(err, pmx.ErrInvalidJointType) {
		t.Errorf("Preparse(bad joint type) = %v", err)
	}
}

func TestSaveOverflow(t *testing.T) {
	m := pmxtest.Sample()
	buf := make([]byte, m.EstimateSize()-1)
	if _, err := m.Save(buf); !errors.Is(err, pmx.ErrBufferOverflow) {
		t.Errorf("Save(short) = %v", err)
	}
}

func TestSaveUnencodableName(t *testing.T) {
	m := pmxtest.Sample()
	m.Bones()[1].SetName(pmx.English, "arm\xfe")
	buf := make([]byte, m.EstimateSize())
	if _, err := m.Save(buf); !errors.Is(err, pmx.ErrInvalidEncoding) {
		t.Errorf("Save() = %v", err)
	}
}

func TestSaveWidensIndices(t *testing.T) {
	m := pmxtest.Load(t, pmxtest.Bytes(t, pmxtest.Sample()))
	if m.Info().IndexSizes[pmx.BoneIndex] != 1 {
		t.Fatalf("bone index size = %d", m.Info().IndexSizes[pmx.BoneIndex])
	}
	pmxtest.Bones(m, 200)
	last := m.Bones()[len(m.Bones())-1]
	m2 := pmxtest.Load(t, pmxtest.Bytes(t, m))
	if sz := m2.Info().IndexSizes[pmx.BoneIndex]; sz != 2 {
		t.Errorf("bone index size = %d want 2", sz)
	}
	if got := m2.Bones()[len(m2.Bones())-1].ParentIndex; got != last.ParentIndex {
		t.Errorf("last parent = %d want %d", got, last.ParentIndex)
	}
	if sz := m2.Info().IndexSizes[pmx.VertexIndex]; sz != 1 {
		t.Errorf("vertex index size = %d want 1", sz)
	}
}

func TestIndexLifecycle(t *testing.T) {
	m := pmx.NewModel()
	bones := pmxtest.Bones(m, 5)
	for i, b := range bones {
		if b.Index() != i {
			t.Errorf("bone %d index = %d", i, b.Index())
		}
	}
	m.AddBone(bones[1])
	if len(m.Bones()) != 5 {
		t.Errorf("adding an owned bone changed the count: %d", len(m.Bones()))
	}
	other := pmx.NewModel()
	other.AddBone(bones[1])
	if len(other.Bones()) != 0 || bones[1].Model() != m {
		t.Errorf("bone was moved to another model")
	}

	v := pmxtest.Vertex(geom.Vector3{}, 2)
	v.Type = pmx.Bdef2
	v.SetBone(1, 3, 0.5)
	m.AddVertex(v)
	l := pmx.NewLabel()
	l.AddBone(2)
	l.AddBone(4)
	m.AddLabel(l)
	r := pmx.NewRigidBody()
	r.BoneIndex = 2
	m.AddRigidBody(r)

	m.RemoveBone(bones[2])
	if bones[2].Index() != -1 || bones[2].Model() != nil {
		t.Errorf("removed bone still attached: %d", bones[2].Index())
	}
	for i, b := range m.Bones() {
		if b.Index() != i {
			t.Errorf("bone %d index = %d after remove", i, b.Index())
		}
	}
	if m.Bones()[2] != bones[3] {
		t.Errorf("bones did not shift")
	}
	if v.BoneIndices[0] != -1 || v.BoneIndices[1] != 2 {
		t.Errorf("vertex bones = %v", v.BoneIndices)
	}
	if m.VertexBone(v, 0) != pmx.NullBone() {
		t.Errorf("vertex bone 0 is not null")
	}
	if bones[3].ParentIndex != -1 || bones[4].ParentIndex != 2 {
		t.Errorf("parents = %d, %d", bones[3].ParentIndex, bones[4].ParentIndex)
	}
	if m.ParentBone(bones[3]) != pmx.NullBone() || m.ParentBone(bones[4]) != bones[3] {
		t.Errorf("ParentBone did not follow the removal")
	}
	if l.Elements[0].Index != -1 || l.Elements[1].Index != 3 {
		t.Errorf("label = %v", l.Elements)
	}
	if r.BoneIndex != -1 || m.RigidBodyBone(r) != pmx.NullBone() {
		t.Errorf("rigid body bone = %d", r.BoneIndex)
	}

	// a removed bone can be added again
	m.AddBone(bones[2])
	if bones[2].Index() != 4 {
		t.Errorf("re-added bone index = %d", bones[2].Index())
	}
}

func TestNullSentinel(t *testing.T) {
	m := pmx.NewModel()
	if m.BoneAt(0) != pmx.NullBone() || m.BoneAt(-1) != pmx.NullBone() {
		t.Errorf("BoneAt on empty model is not null")
	}
	b := m.BoneAt(3)
	if b.Index() != -1 || !b.IsNull() || b.Name(pmx.Japanese) != "" {
		t.Errorf("null bone = %d %v %q", b.Index(), b.IsNull(), b.Name(pmx.Japanese))
	}
	if m.ParentBone(b) != pmx.NullBone() || m.InherentBone(b) != pmx.NullBone() ||
		m.DestinationBone(b) != pmx.NullBone() || m.IKTargetBone(b) != pmx.NullBone() {
		t.Errorf("null bone references are not null")
	}
	v := m.VertexAt(0)
	if v != pmx.NullVertex() || m.VertexBone(v, 0) != pmx.NullBone() || m.VertexBone(v, 9) != pmx.NullBone() {
		t.Errorf("null vertex references are not null")
	}
	if m.VertexMaterial(v) != pmx.NullMaterial() {
		t.Errorf("null vertex material is not null")
	}
	mat := m.MaterialAt(1)
	if mat.Index() != -1 || mat.IndexRange().Count != 0 || mat.Diffuse() != (geom.Vector4{}) {
		t.Errorf("null material = %d %+v", mat.Index(), mat.Diffuse())
	}
	if m.MorphAt(0) != pmx.NullMorph() || len(m.MorphAt(0).Offsets) != 0 {
		t.Errorf("null morph")
	}
	if m.RigidBodyAt(0) != pmx.NullRigidBody() || m.JointAt(0) != pmx.NullJoint() || m.LabelAt(0) != pmx.NullLabel() {
		t.Errorf("null rigid body / joint / label")
	}
	if m.TextureAt(0) != "" {
		t.Errorf("texture on empty model")
	}

	var nilModel *pmx.Model
	if nilModel.BoneAt(0) != pmx.NullBone() {
		t.Errorf("nil model BoneAt")
	}

	m.AddBone(pmx.NullBone())
	if len(m.Bones()) != 0 {
		t.Errorf("null bone was added")
	}
	pmx.NullBone().SetName(pmx.Japanese, "x")
	if pmx.NullBone().Name(pmx.Japanese) != "" {
		t.Errorf("null bone was renamed")
	}
}

func TestNullSentinelReadOnly(t *testing.T) {
	m := pmx.NewModel()
	calls := 0
	listener := pmx.PropertyListenerFunc(func(ev *pmx.PropertyEvent) { calls++ })

	b := m.BoneAt(42)
	b.AddListener(listener)
	b.SetOrigin(geom.Vector3{X: 1, Y: 2, Z: 3})
	b.SetParentIndex(5)
	b.SetFlag(pmx.BoneFlagIK, true)
	if other := pmx.NewModel().BoneAt(0); other.Origin != (geom.Vector3{}) || other.ParentIndex != -1 || other.HasIK() {
		t.Errorf("null bone was modified: %+v", other.Origin)
	}

	v := m.VertexAt(7)
	v.AddListener(listener)
	v.SetOrigin(geom.Vector3{Y: 1})
	v.SetBone(0, 3, 0.5)
	if n := pmx.NullVertex(); n.Origin != (geom.Vector3{}) || n.BoneIndices[0] != -1 {
		t.Errorf("null vertex was modified: %+v %v", n.Origin, n.BoneIndices)
	}

	mat := m.MaterialAt(3)
	mat.AddListener(listener)
	mat.SetDiffuse(geom.Vector4{X: 1, W: 1})
	mat.SetEdgeSize(9)
	mat.MergeMorph(&pmx.MaterialOffset{Operation: pmx.MaterialAdd, MaterialValues: pmx.MaterialValues{Shininess: 4}}, 1)
	if n := pmx.NullMaterial(); n.Diffuse() != (geom.Vector4{}) || n.Shininess() != 0 {
		t.Errorf("null material was modified: %+v", n.Diffuse())
	}

	if err := m.MorphAt(2).AddOffset(&pmx.VertexOffset{VertexIndex: 1}); err != nil || len(pmx.NullMorph().Offsets) != 0 {
		t.Errorf("null morph AddOffset = %v, %d offsets", err, len(pmx.NullMorph().Offsets))
	}
	m.LabelAt(1).AddBone(0)
	m.LabelAt(1).AddMorph(0)
	if len(pmx.NullLabel().Elements) != 0 {
		t.Errorf("null label elements = %v", pmx.NullLabel().Elements)
	}

	// a listener registered on a placeholder never hears about real entities
	bone := pmx.NewBone()
	m.AddBone(bone)
	bone.SetOrigin(geom.Vector3{X: 1})
	if calls != 0 {
		t.Errorf("placeholder listeners were called %d times", calls)
	}
}

func TestRemoveVertex(t *testing.T) {
	m := pmxtest.Sample()
	m.RemoveVertex(m.Vertices()[0])
	if got := m.Surfaces(); len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 1 {
		t.Errorf("surfaces = %v", got)
	}
	if m.Materials()[0].SurfaceCount != 0 || m.Materials()[1].SurfaceCount != 3 {
		t.Errorf("surface counts = %d, %d", m.Materials()[0].SurfaceCount, m.Materials()[1].SurfaceCount)
	}
	if r := m.Materials()[1].IndexRange(); r.Start != 0 || r.Count != 3 {
		t.Errorf("material 1 range = %+v", r)
	}
	if got := m.Morphs()[0].Offsets[0].(*pmx.VertexOffset).VertexIndex; got != 2 {
		t.Errorf("vertex morph target = %d", got)
	}
	if got := m.Morphs()[3].Offsets[0].(*pmx.UVOffset).VertexIndex; got != -1 {
		t.Errorf("uv morph target = %d", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestRemoveMaterial(t *testing.T) {
	m := pmxtest.Sample()
	mm := m.Morphs()[4]
	_ = mm.AddOffset(&pmx.MaterialOffset{MaterialIndex: 0})
	_ = mm.AddOffset(&pmx.MaterialOffset{MaterialIndex: 1})

	first := m.Materials()[0]
	m.RemoveMaterial(first)
	if first.Index() != -1 || len(m.Materials()) != 1 {
		t.Errorf("material not removed")
	}
	if got := m.Surfaces(); len(got) != 3 || got[0] != 1 || got[1] != 3 {
		t.Errorf("surfaces = %v", got)
	}
	if r := m.Materials()[0].IndexRange(); r.Start != 0 || r.Count != 3 {
		t.Errorf("range = %+v", r)
	}
	if len(mm.Offsets) != 3 {
		t.Fatalf("material offsets = %d want 3", len(mm.Offsets))
	}
	want := []int{pmx.MaterialOffsetAll, pmx.MaterialOffsetNone, 0}
	for k, w := range want {
		if got := mm.Offsets[k].(*pmx.MaterialOffset).MaterialIndex; got != w {
			t.Errorf("offset %d target = %d want %d", k, got, w)
		}
	}

	// the orphaned offset survives a save and load
	loaded := pmx.NewModel()
	if err := loaded.Load(pmxtest.Bytes(t, m)); err != nil {
		t.Fatal(err)
	}
	if got := loaded.Morphs()[4].Offsets[1].(*pmx.MaterialOffset).MaterialIndex; got != pmx.MaterialOffsetNone {
		t.Errorf("loaded offset 1 target = %d", got)
	}
	if m.Vertices()[0].MaterialIndex != -1 || m.Vertices()[3].MaterialIndex != 0 {
		t.Errorf("vertex materials = %d, %d", m.Vertices()[0].MaterialIndex, m.Vertices()[3].MaterialIndex)
	}
}

func TestRemoveMorph(t *testing.T) {
	m := pmxtest.Sample()
	m.RemoveMorph(m.Morphs()[0])
	if got := m.Morphs()[0].Offsets[0].(*pmx.GroupOffset).MorphIndex; got != -1 {
		t.Errorf("group target = %d", got)
	}
	if got := m.Morphs()[4].Offsets[0].(*pmx.FlipOffset).MorphIndex; got != -1 {
		t.Errorf("flip target = %d", got)
	}
	exp := m.FindLabel(pmx.English, "Exp")
	if exp.Elements[0].Index != -1 || exp.Elements[1].Index != 0 {
		t.Errorf("label = %v", exp.Elements)
	}
	if m.FindMorph(pmx.Japanese, "あ") != nil {
		t.Errorf("removed morph still found by name")
	}
	if m.FindMorph(pmx.Japanese, "グループ").Index() != 0 {
		t.Errorf("name lookup returned a stale index")
	}
}

func TestRemoveRigidBody(t *testing.T) {
	m := pmxtest.Sample()
	m.RemoveRigidBody(m.RigidBodies()[0])
	j := m.Joints()[0]
	if j.RigidBodyIndexA != -1 || j.RigidBodyIndexB != 0 {
		t.Errorf("joint = %d, %d", j.RigidBodyIndexA, j.RigidBodyIndexB)
	}
	a, b := m.JointRigidBodies(j)
	if a != pmx.NullRigidBody() || b != m.RigidBodies()[0] {
		t.Errorf("JointRigidBodies did not follow the removal")
	}
	if got := m.Morphs()[6].Offsets[0].(*pmx.ImpulseOffset).RigidBodyIndex; got != -1 {
		t.Errorf("impulse target = %d", got)
	}
}

func TestRemoveTexture(t *testing.T) {
	m := pmxtest.Sample()
	m.RemoveTexture(0)
	m0, m1 := m.Materials()[0], m.Materials()[1]
	if m0.MainTextureIndex != -1 || m0.SphereTextureIndex != 0 || m0.ToonTextureIndex != 3 {
		t.Errorf("material 0 textures = %d %d %d", m0.MainTextureIndex, m0.SphereTextureIndex, m0.ToonTextureIndex)
	}
	if m1.MainTextureIndex != 0 || m1.SphereTextureIndex != -1 || m1.ToonTextureIndex != -1 {
		t.Errorf("material 1 textures = %d %d %d", m1.MainTextureIndex, m1.SphereTextureIndex, m1.ToonTextureIndex)
	}
	if m.TextureAt(0) != "tex/face.png" {
		t.Errorf("textures = %v", m.Textures())
	}
}

func TestNameLookup(t *testing.T) {
	m := pmx.NewModel()
	bones := pmxtest.Bones(m, 3)
	if m.FindBone(pmx.Japanese, "boneB") != bones[1] || m.FindBone(pmx.English, "BoneC") != bones[2] {
		t.Errorf("FindBone failed")
	}
	bones[1].SetName(pmx.Japanese, "renamed")
	if m.FindBone(pmx.Japanese, "boneB") != nil {
		t.Errorf("stale name after rename")
	}
	if m.FindBone(pmx.Japanese, "renamed") != bones[1] {
		t.Errorf("new name not found")
	}
	if m.FindBone(pmx.English, "BoneB") != bones[1] {
		t.Errorf("english name lost after japanese rename")
	}

	bones[2].SetName(pmx.Japanese, "renamed")
	if m.FindBone(pmx.Japanese, "renamed") != bones[1] {
		t.Errorf("duplicate name did not keep the first bone")
	}
	m.RemoveBone(bones[1])
	if m.FindBone(pmx.Japanese, "renamed") != bones[2] {
		t.Errorf("duplicate name not reassigned after remove")
	}
	if m.FindBone(pmx.Language(5), "renamed") != nil {
		t.Errorf("invalid language matched")
	}
}

func TestListeners(t *testing.T) {
	m := pmx.NewModel()
	b := pmx.NewBone()
	m.AddBone(b)

	var events []pmx.PropertyEvent
	l := pmx.PropertyListenerFunc(func(ev *pmx.PropertyEvent) {
		// listeners see the value before the change
		if ev.Property == pmx.PropertyName && b.Name(ev.Language) != ev.Old {
			t.Errorf("listener called after the change")
		}
		events = append(events, *ev)
	})
	b.AddListener(l)
	b.SetName(pmx.English, "arm")
	b.SetName(pmx.English, "arm")
	b.SetParentIndex(0)
	b.SetOrigin(geom.Vector3{X: 1})
	if len(events) != 3 {
		t.Fatalf("events = %d want 3", len(events))
	}
	if ev := events[0]; ev.Target != b || ev.Property != pmx.PropertyName || ev.Language != pmx.English || ev.Old != "" || ev.New != "arm" {
		t.Errorf("name event = %+v", ev)
	}
	if ev := events[1]; ev.Property != pmx.PropertyParent || ev.Old != -1 || ev.New != 0 {
		t.Errorf("parent event = %+v", ev)
	}
	b.RemoveListener(l)
	b.SetName(pmx.English, "leg")
	if len(events) != 3 {
		t.Errorf("removed listener was called")
	}

	mat := pmx.NewMaterial()
	var old, new interface{}
	mat.AddListener(pmx.PropertyListenerFunc(func(ev *pmx.PropertyEvent) {
		old, new = ev.Old, ev.New
	}))
	mat.SetShininess(10)
	if old != float32(0) || new != float32(10) {
		t.Errorf("shininess event = %v -> %v", old, new)
	}

	var props []pmx.Property
	m.AddListener(pmx.PropertyListenerFunc(func(ev *pmx.PropertyEvent) {
		props = append(props, ev.Property)
	}))
	m.SetName(pmx.Japanese, "model")
	m.SetOpacity(0.5)
	m.SetVisible(false)
	if len(props) != 3 || props[0] != pmx.PropertyName || props[1] != pmx.PropertyOpacity || props[2] != pmx.PropertyVisible {
		t.Errorf("model events = %v", props)
	}
}

func TestParentModel(t *testing.T) {
	a, b, c := pmx.NewModel(), pmx.NewModel(), pmx.NewModel()
	if err := a.SetParentModel(b); err != nil {
		t.Fatal(err)
	}
	if err := b.SetParentModel(c); err != nil {
		t.Fatal(err)
	}
	if err := c.SetParentModel(a); err != pmx.ErrParentCycle {
		t.Errorf("cycle: err = %v", err)
	}
	if err := a.SetParentModel(a); err != pmx.ErrParentCycle {
		t.Errorf("self: err = %v", err)
	}
	bones := pmxtest.Bones(b, 2)
	a.SetParentBoneIndex(1)
	if a.AttachmentBone() != bones[1] {
		t.Errorf("AttachmentBone() = %v", a.AttachmentBone())
	}
	if err := a.SetParentModel(nil); err != nil || a.AttachmentBone() != pmx.NullBone() {
		t.Errorf("detach: %v", err)
	}
}

func TestValidate(t *testing.T) {
	m := pmxtest.Sample()
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	m.SetSurfaces([]int{0, 1, 9, 0, 1, 2})
	if err := m.Validate(); err == nil {
		t.Errorf("out of range surface not reported")
	}
	m.SetSurfaces([]int{0, 1, 2, 0})
	if err := m.Validate(); err == nil {
		t.Errorf("partial triangle not reported")
	}
}

func TestResolve(t *testing.T) {
	m := pmxtest.Sample()
	b := m.Bones()[0]
	b.ParentIndex = 10
	b.InherentBoneIndex = -5
	v := m.Vertices()[0]
	v.BoneIndices[0] = 99
	mo := m.Morphs()[4].Offsets[0].(*pmx.MaterialOffset)
	mo.MaterialIndex = 7
	m.Resolve()
	if b.ParentIndex != -1 || b.InherentBoneIndex != -1 || v.BoneIndices[0] != -1 {
		t.Errorf("dangling indices kept: %d %d %d", b.ParentIndex, b.InherentBoneIndex, v.BoneIndices[0])
	}
	if mo.MaterialIndex != pmx.MaterialOffsetNone {
		t.Errorf("material offset = %d", mo.MaterialIndex)
	}
}
