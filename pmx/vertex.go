package pmx

import (
	"github.com/binzume/pmxengine/geom"
)

type VertexType uint8

const (
	Bdef1 VertexType = iota
	Bdef2
	Bdef4
	Sdef
	// Qdef is stored like Bdef4 (PMX 2.1).
	Qdef
	maxVertexType = Qdef
)

func (t VertexType) String() string {
	switch t {
	case Bdef1:
		return "BDEF1"
	case Bdef2:
		return "BDEF2"
	case Bdef4:
		return "BDEF4"
	case Sdef:
		return "SDEF"
	case Qdef:
		return "QDEF"
	}
	return "unknown"
}

// BoneCount returns how many bone slots the type uses.
func (t VertexType) BoneCount() int {
	switch t {
	case Bdef1:
		return 1
	case Bdef2, Sdef:
		return 2
	case Bdef4, Qdef:
		return 4
	}
	return 0
}

type Vertex struct {
	entity
	Origin        geom.Vector3
	Normal        geom.Vector3
	TexCoord      geom.Vector2
	AdditionalUVs [4]geom.Vector4
	Type          VertexType
	BoneIndices   [4]int
	Weights       [4]float32
	SdefC         geom.Vector3
	SdefR0        geom.Vector3
	SdefR1        geom.Vector3
	EdgeSize      float32

	// MaterialIndex is derived from material surface ranges, it is not stored in the file.
	MaterialIndex int
}

var nullVertex = NewVertex()

// NullVertex returns the shared placeholder for absent vertex references.
func NullVertex() *Vertex { return nullVertex }

func NewVertex() *Vertex {
	return &Vertex{
		entity:        newEntity(),
		BoneIndices:   [4]int{-1, -1, -1, -1},
		Weights:       [4]float32{1, 0, 0, 0},
		EdgeSize:      1,
		MaterialIndex: -1,
	}
}

func (v *Vertex) SetOrigin(p geom.Vector3) {
	if v.null || v.Origin == p {
		return
	}
	v.notify(v, PropertyOrigin, v.Origin, p)
	v.Origin = p
}

// SetBone assigns slot i. Bdef2/Sdef keep the second weight complementary to the first.
func (v *Vertex) SetBone(i, boneIndex int, weight float32) {
	if v.null || i < 0 || i >= 4 {
		return
	}
	v.BoneIndices[i] = boneIndex
	v.Weights[i] = weight
	if v.Type == Bdef2 || v.Type == Sdef {
		if i == 0 {
			v.Weights[1] = 1 - weight
		} else if i == 1 {
			v.Weights[0] = 1 - weight
		}
	}
}

func (v *Vertex) Clone() *Vertex {
	c := *v
	c.entity = newEntity()
	return &c
}

func (v *Vertex) EstimateSize(info *DataInfo) int {
	sz := sizeofVector3*2 + sizeofVector2 + sizeofVector4*info.AdditionalUVs + 1
	bsz := int(info.IndexSize(BoneIndex))
	switch v.Type {
	case Bdef1:
		sz += bsz
	case Bdef2:
		sz += bsz*2 + sizeofFloat
	case Bdef4, Qdef:
		sz += bsz*4 + sizeofFloat*4
	case Sdef:
		sz += bsz*2 + sizeofFloat + sizeofVector3*3
	}
	return sz + sizeofFloat
}

func (v *Vertex) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	v.read(d)
	return d.off, d.err
}

func (v *Vertex) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	v.write(e)
	return e.off, e.err
}

func (v *Vertex) read(d *decoder) {
	v.Origin = d.readVector3()
	v.Normal = d.readVector3()
	v.TexCoord = d.readVector2()
	for i := 0; i < d.info.AdditionalUVs; i++ {
		v.AdditionalUVs[i] = d.readVector4()
	}
	t := VertexType(d.readUint8())
	if d.err != nil {
		return
	}
	if t > maxVertexType {
		d.fail(ErrInvalidVertexType)
		return
	}
	v.Type = t
	v.BoneIndices = [4]int{-1, -1, -1, -1}
	v.Weights = [4]float32{}
	switch t {
	case Bdef1:
		v.BoneIndices[0] = d.readIndex(BoneIndex)
		v.Weights[0] = 1
	case Bdef2, Sdef:
		v.BoneIndices[0] = d.readIndex(BoneIndex)
		v.BoneIndices[1] = d.readIndex(BoneIndex)
		v.Weights[0] = d.readFloat()
		v.Weights[1] = 1 - v.Weights[0]
		if t == Sdef {
			v.SdefC = d.readVector3()
			v.SdefR0 = d.readVector3()
			v.SdefR1 = d.readVector3()
		}
	case Bdef4, Qdef:
		for i := range v.BoneIndices {
			v.BoneIndices[i] = d.readIndex(BoneIndex)
		}
		for i := range v.Weights {
			v.Weights[i] = d.readFloat()
		}
	}
	v.EdgeSize = d.readFloat()
}

func (v *Vertex) write(e *encoder) {
	e.writeVector3(v.Origin)
	e.writeVector3(v.Normal)
	e.writeVector2(v.TexCoord)
	for i := 0; i < e.info.AdditionalUVs; i++ {
		e.writeVector4(v.AdditionalUVs[i])
	}
	if v.Type > maxVertexType {
		e.fail(ErrInvalidVertexType)
		return
	}
	e.writeUint8(uint8(v.Type))
	switch v.Type {
	case Bdef1:
		e.writeIndex(BoneIndex, v.BoneIndices[0])
	case Bdef2, Sdef:
		e.writeIndex(BoneIndex, v.BoneIndices[0])
		e.writeIndex(BoneIndex, v.BoneIndices[1])
		e.writeFloat(v.Weights[0])
		if v.Type == Sdef {
			e.writeVector3(v.SdefC)
			e.writeVector3(v.SdefR0)
			e.writeVector3(v.SdefR1)
		}
	case Bdef4, Qdef:
		for _, b := range v.BoneIndices {
			e.writeIndex(BoneIndex, b)
		}
		for _, w := range v.Weights {
			e.writeFloat(w)
		}
	}
	e.writeFloat(v.EdgeSize)
}
