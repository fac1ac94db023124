package pmx

import (
	"github.com/binzume/pmxengine/geom"
)

type MaterialFlag uint8

const (
	MaterialFlagDisableCulling    MaterialFlag = 0x01
	MaterialFlagCastingShadow     MaterialFlag = 0x02
	MaterialFlagCastingShadowMap  MaterialFlag = 0x04
	MaterialFlagEnableShadowMap   MaterialFlag = 0x08
	MaterialFlagEnableEdge        MaterialFlag = 0x10
	MaterialFlagEnableVertexColor MaterialFlag = 0x20
	MaterialFlagEnablePointDraw   MaterialFlag = 0x40
	MaterialFlagEnableLineDraw    MaterialFlag = 0x80
)

type SphereMode uint8

const (
	SphereDisabled SphereMode = iota
	SphereMultiply
	SphereAdd
	SphereSubTexture
)

// IndexRange is a contiguous run of the surface index array.
type IndexRange struct {
	Start int
	Count int
}

// MaterialValues is the set of channels a material morph can modify.
type MaterialValues struct {
	Diffuse     geom.Vector4
	Specular    geom.Vector3
	Shininess   float32
	Ambient     geom.Vector3
	EdgeColor   geom.Vector4
	EdgeSize    float32
	TextureTint geom.Vector4
	SphereTint  geom.Vector4
	ToonTint    geom.Vector4
}

const materialChannels = 28

type channels [materialChannels]float32

func (v *MaterialValues) channels() channels {
	return channels{
		v.Diffuse.X, v.Diffuse.Y, v.Diffuse.Z, v.Diffuse.W,
		v.Specular.X, v.Specular.Y, v.Specular.Z,
		v.Shininess,
		v.Ambient.X, v.Ambient.Y, v.Ambient.Z,
		v.EdgeColor.X, v.EdgeColor.Y, v.EdgeColor.Z, v.EdgeColor.W,
		v.EdgeSize,
		v.TextureTint.X, v.TextureTint.Y, v.TextureTint.Z, v.TextureTint.W,
		v.SphereTint.X, v.SphereTint.Y, v.SphereTint.Z, v.SphereTint.W,
		v.ToonTint.X, v.ToonTint.Y, v.ToonTint.Z, v.ToonTint.W,
	}
}

func (c *channels) values() MaterialValues {
	return MaterialValues{
		Diffuse:     geom.Vector4{X: c[0], Y: c[1], Z: c[2], W: c[3]},
		Specular:    geom.Vector3{X: c[4], Y: c[5], Z: c[6]},
		Shininess:   c[7],
		Ambient:     geom.Vector3{X: c[8], Y: c[9], Z: c[10]},
		EdgeColor:   geom.Vector4{X: c[11], Y: c[12], Z: c[13], W: c[14]},
		EdgeSize:    c[15],
		TextureTint: geom.Vector4{X: c[16], Y: c[17], Z: c[18], W: c[19]},
		SphereTint:  geom.Vector4{X: c[20], Y: c[21], Z: c[22], W: c[23]},
		ToonTint:    geom.Vector4{X: c[24], Y: c[25], Z: c[26], W: c[27]},
	}
}

var unitTint = geom.Vector4{X: 1, Y: 1, Z: 1, W: 1}

type Material struct {
	named
	values MaterialValues

	// morph state: current = values*mul + add
	mul channels
	add channels

	Flags              MaterialFlag
	MainTextureIndex   int
	SphereTextureIndex int
	SphereMode         SphereMode
	ToonShared         bool
	ToonTextureIndex   int
	UserDataArea       string
	SurfaceCount       int

	indexRange IndexRange
}

var nullMaterial = NewMaterial()

// NullMaterial returns the shared placeholder for absent material references.
func NullMaterial() *Material { return nullMaterial }

func NewMaterial() *Material {
	m := &Material{
		named:              newNamed(),
		MainTextureIndex:   -1,
		SphereTextureIndex: -1,
		ToonTextureIndex:   -1,
	}
	m.values.TextureTint = unitTint
	m.values.SphereTint = unitTint
	m.values.ToonTint = unitTint
	m.ResetMorph()
	return m
}

func (m *Material) SetName(lang Language, name string) {
	m.setName(m, materialNames, lang, name)
}

func (m *Material) HasFlag(f MaterialFlag) bool {
	return m != nil && m.Flags&f != 0
}

// IndexRange returns the run of surface indices drawn with this material.
func (m *Material) IndexRange() IndexRange {
	if m == nil {
		return IndexRange{}
	}
	return m.indexRange
}

// Base returns the stored values, without morphs.
func (m *Material) Base() MaterialValues {
	return m.values
}

// Current returns the values with the merged morphs applied.
func (m *Material) Current() MaterialValues {
	b := m.values.channels()
	for i := range b {
		b[i] = b[i]*m.mul[i] + m.add[i]
	}
	return b.values()
}

func (m *Material) Diffuse() geom.Vector4 { return m.Current().Diffuse }
func (m *Material) Specular() geom.Vector3 { return m.Current().Specular }
func (m *Material) Shininess() float32 { return m.Current().Shininess }
func (m *Material) Ambient() geom.Vector3 { return m.Current().Ambient }
func (m *Material) EdgeColor() geom.Vector4 { return m.Current().EdgeColor }
func (m *Material) EdgeSize() float32 { return m.Current().EdgeSize }

func (m *Material) SetDiffuse(v geom.Vector4) {
	if m.null || m.values.Diffuse == v {
		return
	}
	m.notify(m, PropertyDiffuse, m.values.Diffuse, v)
	m.values.Diffuse = v
}

func (m *Material) SetSpecular(v geom.Vector3) {
	if m.null || m.values.Specular == v {
		return
	}
	m.notify(m, PropertySpecular, m.values.Specular, v)
	m.values.Specular = v
}

func (m *Material) SetShininess(v float32) {
	if m.null || m.values.Shininess == v {
		return
	}
	m.notify(m, PropertyShininess, m.values.Shininess, v)
	m.values.Shininess = v
}

func (m *Material) SetAmbient(v geom.Vector3) {
	if m.null || m.values.Ambient == v {
		return
	}
	m.notify(m, PropertyAmbient, m.values.Ambient, v)
	m.values.Ambient = v
}

func (m *Material) SetEdgeColor(v geom.Vector4) {
	if m.null || m.values.EdgeColor == v {
		return
	}
	m.notify(m, PropertyEdgeColor, m.values.EdgeColor, v)
	m.values.EdgeColor = v
}

func (m *Material) SetEdgeSize(v float32) {
	if m.null || m.values.EdgeSize == v {
		return
	}
	m.notify(m, PropertyEdgeSize, m.values.EdgeSize, v)
	m.values.EdgeSize = v
}

// MergeMorph accumulates offset at weight w on top of the current morph state.
// Multiply offsets blend each channel from base (w=0) to base*delta (w=1).
func (m *Material) MergeMorph(offset *MaterialOffset, w float32) {
	if m.null || offset == nil {
		return
	}
	d := offset.MaterialValues.channels()
	switch offset.Operation {
	case MaterialMultiply:
		for i := range d {
			m.mul[i] *= (1 - w) + d[i]*w
		}
	case MaterialAdd:
		for i := range d {
			m.add[i] += d[i] * w
		}
	}
}

// ResetMorph discards every merged morph.
func (m *Material) ResetMorph() {
	if m.null {
		return
	}
	for i := range m.mul {
		m.mul[i] = 1
		m.add[i] = 0
	}
}

func (m *Material) Clone() *Material {
	c := *m
	c.named = m.cloneNamed()
	c.indexRange = IndexRange{}
	return &c
}

func (m *Material) EstimateSize(info *DataInfo) int {
	tsz := int(info.IndexSize(TextureIndex))
	sz := m.namesSize(info)
	sz += sizeofVector4 + sizeofVector3 + sizeofFloat + sizeofVector3 + 1
	sz += sizeofVector4 + sizeofFloat
	sz += tsz*2 + 1 + 1
	if m.ToonShared {
		sz++
	} else {
		sz += tsz
	}
	return sz + textSize(info, m.UserDataArea) + sizeofInt
}

func (m *Material) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	m.read(d)
	return d.off, d.err
}

func (m *Material) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	m.write(e)
	return e.off, e.err
}

func (m *Material) read(d *decoder) {
	m.readNames(d)
	m.values.Diffuse = d.readVector4()
	m.values.Specular = d.readVector3()
	m.values.Shininess = d.readFloat()
	m.values.Ambient = d.readVector3()
	m.Flags = MaterialFlag(d.readUint8())
	m.values.EdgeColor = d.readVector4()
	m.values.EdgeSize = d.readFloat()
	m.MainTextureIndex = d.readIndex(TextureIndex)
	m.SphereTextureIndex = d.readIndex(TextureIndex)
	mode := SphereMode(d.readUint8())
	if d.err != nil {
		return
	}
	if mode > SphereSubTexture {
		d.fail(ErrInvalidSphereMode)
		return
	}
	m.SphereMode = mode
	m.ToonShared = d.readUint8() != 0
	if m.ToonShared {
		m.ToonTextureIndex = int(d.readUint8())
	} else {
		m.ToonTextureIndex = d.readIndex(TextureIndex)
	}
	m.UserDataArea = d.readText()
	m.SurfaceCount = d.readInt()
	m.ResetMorph()
}

func (m *Material) write(e *encoder) {
	m.writeNames(e)
	e.writeVector4(m.values.Diffuse)
	e.writeVector3(m.values.Specular)
	e.writeFloat(m.values.Shininess)
	e.writeVector3(m.values.Ambient)
	e.writeUint8(uint8(m.Flags))
	e.writeVector4(m.values.EdgeColor)
	e.writeFloat(m.values.EdgeSize)
	e.writeIndex(TextureIndex, m.MainTextureIndex)
	e.writeIndex(TextureIndex, m.SphereTextureIndex)
	e.writeUint8(uint8(m.SphereMode))
	if m.ToonShared {
		e.writeUint8(1)
		e.writeUint8(uint8(m.ToonTextureIndex))
	} else {
		e.writeUint8(0)
		e.writeIndex(TextureIndex, m.ToonTextureIndex)
	}
	e.writeText(m.UserDataArea)
	e.writeInt(m.SurfaceCount)
}
