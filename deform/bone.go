package deform

import (
	"github.com/binzume/pmxengine/pmx"
	"github.com/go-gl/mathgl/mgl32"
)

type poseState uint8

const (
	unposed poseState = iota
	posing
	posed
)

// bonePose holds the transforms computed for every bone in one frame.
type bonePose struct {
	state  []poseState
	origin []mgl32.Vec3

	// local translation and rotation including inherent and morph contributions
	localT []mgl32.Vec3
	localR []mgl32.Quat

	world    []mgl32.Mat4
	rotation []mgl32.Quat
	skin     []mgl32.Mat4
}

func (p *bonePose) resize(n int) {
	p.state = make([]poseState, n)
	p.origin = make([]mgl32.Vec3, n)
	p.localT = make([]mgl32.Vec3, n)
	p.localR = make([]mgl32.Quat, n)
	p.world = make([]mgl32.Mat4, n)
	p.rotation = make([]mgl32.Quat, n)
	p.skin = make([]mgl32.Mat4, n)
	for i := 0; i < n; i++ {
		p.localR[i] = mgl32.QuatIdent()
		p.world[i] = mgl32.Ident4()
		p.rotation[i] = mgl32.QuatIdent()
		p.skin[i] = mgl32.Ident4()
	}
}

// skinMatrix returns the skinning transform of bone i. Absent bones do not move vertices.
func (p *bonePose) skinMatrix(i int) mgl32.Mat4 {
	if i < 0 || i >= len(p.skin) {
		return mgl32.Ident4()
	}
	return p.skin[i]
}

func (p *bonePose) skinRotation(i int) mgl32.Quat {
	if i < 0 || i >= len(p.rotation) {
		return mgl32.QuatIdent()
	}
	return p.rotation[i]
}

func (d *Deformer) poseBones() {
	for i, b := range d.model.Bones() {
		d.bones.state[i] = unposed
		d.bones.origin[i] = vec3(b.Origin)
	}
	for i := range d.model.Bones() {
		d.poseBone(i)
	}
}

// poseBone composes the world transform of bone i after its parent and inherent source.
// A bone reached again while it is being composed is ignored as a parent or source.
func (d *Deformer) poseBone(i int) {
	p := &d.bones
	if p.state[i] != unposed {
		return
	}
	p.state[i] = posing
	bones := d.model.Bones()
	b := bones[i]

	t := d.localT[i].Add(d.boneMorphT[i])
	r := d.localR[i].Mul(d.boneMorphR[i])
	if src := b.InherentBoneIndex; (b.HasInherentRotation() || b.HasInherentTranslation()) && src >= 0 && src < len(bones) {
		if p.state[src] == posing {
			d.warnOnce("Inherent bone cycle ignored : ", b.Name(pmx.Japanese))
		} else {
			d.poseBone(src)
			if b.HasInherentRotation() {
				r = mgl32.QuatSlerp(mgl32.QuatIdent(), p.localR[src], b.InherentCoefficient).Mul(r)
			}
			if b.HasInherentTranslation() {
				t = t.Add(p.localT[src].Mul(b.InherentCoefficient))
			}
		}
	}
	p.localT[i] = t
	p.localR[i] = r

	parentWorld := mgl32.Ident4()
	parentRotation := mgl32.QuatIdent()
	var parentOrigin mgl32.Vec3
	if pi := b.ParentIndex; pi >= 0 && pi < len(bones) {
		if p.state[pi] == posing {
			d.warnOnce("Parent bone cycle ignored : ", b.Name(pmx.Japanese))
		} else {
			d.poseBone(pi)
			parentWorld = p.world[pi]
			parentRotation = p.rotation[pi]
			parentOrigin = p.origin[pi]
		}
	}

	rel := p.origin[i].Sub(parentOrigin).Add(t)
	world := parentWorld.Mul4(mgl32.Translate3D(rel[0], rel[1], rel[2])).Mul4(r.Mat4())
	rotation := parentRotation.Mul(r)
	if o := d.override[i]; o != nil {
		world = o.world
		rotation = o.rotation
	}
	origin := p.origin[i]
	p.world[i] = world
	p.rotation[i] = rotation.Normalize()
	p.skin[i] = world.Mul4(mgl32.Translate3D(-origin[0], -origin[1], -origin[2]))
	p.state[i] = posed
}
