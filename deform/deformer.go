// Package deform evaluates morphs and skins the vertices of a resolved pmx.Model.
package deform

import (
	"log"
	"slices"

	"github.com/binzume/pmxengine/config"
	"github.com/binzume/pmxengine/geom"
	"github.com/binzume/pmxengine/pmx"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"
)

// Deformer owns the per-frame buffers of one model. It is not safe for concurrent use,
// but deformers of different models can run in parallel.
type Deformer struct {
	model *pmx.Model
	conf  *config.Config

	// inputs are kept per entity and follow it when the model is edited
	boneKeys  []*pmx.Bone
	morphKeys []*pmx.Morph

	weights []float32
	active  []bool

	// morph results
	vertexOffsets []mgl32.Vec3
	uvOffsets     [5][]mgl32.Vec4
	boneMorphT    []mgl32.Vec3
	boneMorphR    []mgl32.Quat

	// animation input
	localT   []mgl32.Vec3
	localR   []mgl32.Quat
	override []*boneOverride

	bones bonePose

	positions []geom.Vector3
	normals   []geom.Vector3
	texCoords []geom.Vector2
	uvs       [4][]geom.Vector4
	bounds    r3.Box

	warned map[string]bool
}

// boneOverride is a world transform imposed on a bone from outside.
type boneOverride struct {
	world    mgl32.Mat4
	rotation mgl32.Quat
}

func New(model *pmx.Model, conf *config.Config) *Deformer {
	if conf == nil {
		conf = model.Config()
	}
	d := &Deformer{model: model, conf: conf, warned: map[string]bool{}}
	d.resize()
	return d
}

func (d *Deformer) Model() *pmx.Model {
	return d.model
}

// resize follows entities added to or removed from the model since the last frame.
func (d *Deformer) resize() {
	if morphs := d.model.Morphs(); !slices.Equal(d.morphKeys, morphs) {
		w := make([]float32, len(morphs))
		for i, j := range previousIndex(d.morphKeys, morphs) {
			if j >= 0 {
				w[i] = d.weights[j]
			}
		}
		d.weights = w
		d.active = make([]bool, len(morphs))
		d.morphKeys = append(d.morphKeys[:0], morphs...)
	}

	if bones := d.model.Bones(); !slices.Equal(d.boneKeys, bones) {
		nb := len(bones)
		t := make([]mgl32.Vec3, nb)
		r := make([]mgl32.Quat, nb)
		o := make([]*boneOverride, nb)
		for i, j := range previousIndex(d.boneKeys, bones) {
			if j < 0 {
				r[i] = mgl32.QuatIdent()
				continue
			}
			t[i], r[i], o[i] = d.localT[j], d.localR[j], d.override[j]
		}
		d.localT, d.localR, d.override = t, r, o
		d.boneMorphT = make([]mgl32.Vec3, nb)
		d.boneMorphR = make([]mgl32.Quat, nb)
		d.bones.resize(nb)
		d.boneKeys = append(d.boneKeys[:0], bones...)
	}

	nv := len(d.model.Vertices())
	if len(d.positions) != nv {
		d.vertexOffsets = make([]mgl32.Vec3, nv)
		for i := range d.uvOffsets {
			d.uvOffsets[i] = make([]mgl32.Vec4, nv)
		}
		d.positions = make([]geom.Vector3, nv)
		d.normals = make([]geom.Vector3, nv)
		d.texCoords = make([]geom.Vector2, nv)
		for i := range d.uvs {
			d.uvs[i] = make([]geom.Vector4, nv)
		}
	}
}

// previousIndex maps every entity of cur to its position in prev, -1 for new ones.
func previousIndex[T comparable](prev, cur []T) []int {
	at := make(map[T]int, len(prev))
	for i, v := range prev {
		at[v] = i
	}
	from := make([]int, len(cur))
	for i, v := range cur {
		if j, ok := at[v]; ok {
			from[i] = j
		} else {
			from[i] = -1
		}
	}
	return from
}

// warnOnce logs msg the first time it is seen by this deformer.
func (d *Deformer) warnOnce(msg string, v interface{}) {
	if d.warned[msg] {
		return
	}
	d.warned[msg] = true
	log.Println(msg, v)
}

// SetMorphWeight sets the weight of morph i. Weights are applied as given, without clamping.
func (d *Deformer) SetMorphWeight(i int, w float32) {
	d.resize()
	if i >= 0 && i < len(d.weights) {
		d.weights[i] = w
	}
}

func (d *Deformer) MorphWeight(i int) float32 {
	if i < 0 || i >= len(d.weights) {
		return 0
	}
	return d.weights[i]
}

func (d *Deformer) ResetMorphWeights() {
	for i := range d.weights {
		d.weights[i] = 0
	}
}

// SetBoneLocalTransform sets the animated translation and rotation of bone i relative to
// its rest pose.
func (d *Deformer) SetBoneLocalTransform(i int, t geom.Vector3, q geom.Quaternion) {
	d.resize()
	if i < 0 || i >= len(d.localT) {
		return
	}
	d.localT[i] = vec3(t)
	d.localR[i] = quat(q)
}

// SetBoneWorldTransform replaces the computed world transform of bone i, e.g. with the
// pose of a simulated rigid body. Children follow the overridden transform.
func (d *Deformer) SetBoneWorldTransform(i int, m *geom.Matrix4) {
	d.resize()
	if i < 0 || i >= len(d.override) || m == nil {
		return
	}
	_, q, _ := m.Decompose()
	d.override[i] = &boneOverride{world: mgl32.Mat4(*m), rotation: quat(*q)}
}

func (d *Deformer) ClearBoneOverrides() {
	for i := range d.override {
		d.override[i] = nil
	}
}

// Update evaluates the morphs, poses the bones and skins every vertex.
func (d *Deformer) Update() {
	d.resize()
	d.applyMorphs()
	d.poseBones()
	d.skin()
	d.model.SetAABB(d.bounds)
}

// Positions returns the skinned vertex positions of the last Update.
func (d *Deformer) Positions() []geom.Vector3 { return d.positions }

func (d *Deformer) Normals() []geom.Vector3 { return d.normals }

// TexCoords returns the texture coordinates with UV morphs applied.
func (d *Deformer) TexCoords() []geom.Vector2 { return d.texCoords }

// AdditionalUVs returns additional UV channel ch (1..4) with UVA morphs applied.
func (d *Deformer) AdditionalUVs(ch int) []geom.Vector4 {
	if ch < 1 || ch > len(d.uvs) {
		return nil
	}
	return d.uvs[ch-1]
}

// BoneWorldTransform returns the model space transform of bone i, identity for an
// unknown bone.
func (d *Deformer) BoneWorldTransform(i int) *geom.Matrix4 {
	if i < 0 || i >= len(d.bones.world) {
		return geom.NewMatrix4()
	}
	m := geom.Matrix4(d.bones.world[i])
	return &m
}

// SkinningTransform maps rest pose positions of vertices bound to bone i to their posed
// positions.
func (d *Deformer) SkinningTransform(i int) *geom.Matrix4 {
	m := geom.Matrix4(d.bones.skinMatrix(i))
	return &m
}

// RigidBodyTransform returns the world transform of rigid body i carried by its bone.
func (d *Deformer) RigidBodyTransform(i int) *geom.Matrix4 {
	r := d.model.RigidBodyAt(i)
	return r.WorldTransform(d.SkinningTransform(r.BoneIndex))
}

// SetRigidBodyTransform overrides the bone of rigid body i so that the body ends up at
// world, e.g. after a physics step. Bodies without a bone are ignored.
func (d *Deformer) SetRigidBodyTransform(i int, world *geom.Matrix4) {
	r := d.model.RigidBodyAt(i)
	b := d.model.BoneAt(r.BoneIndex)
	if r.IsNull() || b.IsNull() || world == nil {
		return
	}
	origin := geom.NewTRSMatrix4(&b.Origin, geom.NewIdentityQuaternion(), &geom.Vector3{X: 1, Y: 1, Z: 1})
	d.SetBoneWorldTransform(r.BoneIndex, r.SkinningTransform(world).Mul(origin))
}

// Bounds returns the box around the skinned positions.
func (d *Deformer) Bounds() r3.Box {
	return d.bounds
}

func vec3(v geom.Vector3) mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func vec4(v geom.Vector4) mgl32.Vec4 {
	return mgl32.Vec4{v.X, v.Y, v.Z, v.W}
}

func quat(q geom.Quaternion) mgl32.Quat {
	return mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}}
}

func toVector3(v mgl32.Vec3) geom.Vector3 {
	return geom.Vector3{X: v[0], Y: v[1], Z: v[2]}
}
