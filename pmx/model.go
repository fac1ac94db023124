package pmx

import (
	"github.com/binzume/pmxengine/config"
	"github.com/binzume/pmxengine/geom"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrParentCycle is returned when attaching a model under one of its own descendants.
var ErrParentCycle = errors.New("pmx: parent model would form a cycle")

type nameKind int

const (
	materialNames nameKind = iota
	boneNames
	morphNames
	labelNames
	rigidBodyNames
	jointNames
	nameKindCount
)

// Model owns every entity of one PMX document. Cross references between entities are
// indices into the model's collections, -1 meaning none.
type Model struct {
	observable
	conf *config.Config
	info DataInfo
	err  ErrorCode

	names    [languageCount]string
	comments [languageCount]string

	vertices    []*Vertex
	surfaces    []int
	textures    []string
	materials   []*Material
	bones       []*Bone
	morphs      []*Morph
	labels      []*Label
	rigidBodies []*RigidBody
	joints      []*Joint

	nameTables [nameKindCount][languageCount]map[string]int

	edgeWidth       float32
	edgeColor       geom.Vector4
	opacity         float32
	aabb            r3.Box
	scaleFactor     float32
	translation     geom.Vector3
	orientation     geom.Quaternion
	physics         bool
	visible         bool
	parent          *Model
	parentBoneIndex int
}

func NewModel() *Model {
	return NewModelWithConfig(config.Default())
}

func NewModelWithConfig(conf *config.Config) *Model {
	if conf == nil {
		conf = config.Default()
	}
	m := &Model{conf: conf}
	m.Reset()
	return m
}

// Reset discards every entity and restores the configured defaults.
func (m *Model) Reset() {
	for _, v := range m.vertices {
		v.detach()
	}
	for _, v := range m.materials {
		v.detach()
	}
	for _, v := range m.bones {
		v.detach()
	}
	for _, v := range m.morphs {
		v.detach()
	}
	for _, v := range m.labels {
		v.detach()
	}
	for _, v := range m.rigidBodies {
		v.detach()
	}
	for _, v := range m.joints {
		v.detach()
	}
	m.info = newDataInfoFromConfig(m.conf)
	m.names = [languageCount]string{}
	m.comments = [languageCount]string{}
	m.vertices = nil
	m.surfaces = nil
	m.textures = nil
	m.materials = nil
	m.bones = nil
	m.morphs = nil
	m.labels = nil
	m.rigidBodies = nil
	m.joints = nil
	m.edgeWidth = 1
	m.edgeColor = geom.Vector4{W: 1}
	m.opacity = 1
	m.aabb = r3.Box{}
	m.scaleFactor = 1
	m.translation = geom.Vector3{}
	m.orientation = *geom.NewIdentityQuaternion()
	m.physics = true
	m.visible = true
	m.parentBoneIndex = -1
	m.rebuildAllNames()
}

func (m *Model) Config() *config.Config {
	return m.conf
}

// Err returns the error code of the last Load, NoError after a successful one.
func (m *Model) Err() ErrorCode {
	return m.err
}

// Info returns the header of the last loaded document.
func (m *Model) Info() DataInfo {
	return m.info
}

func (m *Model) Name(lang Language) string {
	if lang < 0 || lang >= languageCount {
		return ""
	}
	return m.names[lang]
}

func (m *Model) SetName(lang Language, name string) {
	if lang < 0 || lang >= languageCount || m.names[lang] == name {
		return
	}
	m.notifyLang(m, PropertyName, lang, m.names[lang], name)
	m.names[lang] = name
}

func (m *Model) Comment(lang Language) string {
	if lang < 0 || lang >= languageCount {
		return ""
	}
	return m.comments[lang]
}

func (m *Model) SetComment(lang Language, comment string) {
	if lang < 0 || lang >= languageCount || m.comments[lang] == comment {
		return
	}
	m.notifyLang(m, PropertyComment, lang, m.comments[lang], comment)
	m.comments[lang] = comment
}

func (m *Model) Version() float32 {
	return m.info.Version
}

func (m *Model) SetVersion(v float32) error {
	if v != 2.0 && v != 2.1 {
		return ErrUnsupportedVersion
	}
	if m.info.Version != v {
		m.notify(m, PropertyVersion, m.info.Version, v)
		m.info.Version = v
	}
	return nil
}

func (m *Model) Encoding() TextEncoding {
	return m.info.Encoding
}

func (m *Model) SetEncoding(enc TextEncoding) error {
	if enc != EncodingUTF16 && enc != EncodingUTF8 {
		return ErrInvalidEncoding
	}
	if m.info.Encoding != enc {
		m.notify(m, PropertyEncoding, m.info.Encoding, enc)
		m.info.Encoding = enc
	}
	return nil
}

func (m *Model) AdditionalUVs() int {
	return m.info.AdditionalUVs
}

func (m *Model) SetAdditionalUVs(n int) error {
	if n < 0 || n > 4 {
		return ErrInvalidAdditionalUVs
	}
	if m.info.AdditionalUVs != n {
		m.notify(m, PropertyAdditionalUVs, m.info.AdditionalUVs, n)
		m.info.AdditionalUVs = n
	}
	return nil
}

func (m *Model) EdgeWidth() float32 {
	return m.edgeWidth
}

func (m *Model) SetEdgeWidth(v float32) {
	if m.edgeWidth != v {
		m.notify(m, PropertyEdgeWidth, m.edgeWidth, v)
		m.edgeWidth = v
	}
}

func (m *Model) EdgeColor() geom.Vector4 {
	return m.edgeColor
}

func (m *Model) SetEdgeColor(v geom.Vector4) {
	if m.edgeColor != v {
		m.notify(m, PropertyEdgeColor, m.edgeColor, v)
		m.edgeColor = v
	}
}

func (m *Model) Opacity() float32 {
	return m.opacity
}

func (m *Model) SetOpacity(v float32) {
	if m.opacity != v {
		m.notify(m, PropertyOpacity, m.opacity, v)
		m.opacity = v
	}
}

// AABB returns the bounds last stored with SetAABB, usually by a deformer.
func (m *Model) AABB() r3.Box {
	return m.aabb
}

func (m *Model) SetAABB(b r3.Box) {
	m.aabb = b
}

func (m *Model) ScaleFactor() float32 {
	return m.scaleFactor
}

func (m *Model) SetScaleFactor(v float32) {
	if m.scaleFactor != v {
		m.notify(m, PropertyScaleFactor, m.scaleFactor, v)
		m.scaleFactor = v
	}
}

func (m *Model) Translation() geom.Vector3 {
	return m.translation
}

func (m *Model) SetTranslation(v geom.Vector3) {
	if m.translation != v {
		m.notify(m, PropertyTranslation, m.translation, v)
		m.translation = v
	}
}

func (m *Model) Orientation() geom.Quaternion {
	return m.orientation
}

func (m *Model) SetOrientation(q geom.Quaternion) {
	if m.orientation != q {
		m.notify(m, PropertyOrientation, m.orientation, q)
		m.orientation = q
	}
}

func (m *Model) IsPhysicsEnabled() bool {
	return m.physics
}

func (m *Model) SetPhysicsEnabled(v bool) {
	if m.physics != v {
		m.notify(m, PropertyPhysics, m.physics, v)
		m.physics = v
	}
}

func (m *Model) IsVisible() bool {
	return m.visible
}

func (m *Model) SetVisible(v bool) {
	if m.visible != v {
		m.notify(m, PropertyVisible, m.visible, v)
		m.visible = v
	}
}

// ParentModel returns the model this one is attached to, or nil.
func (m *Model) ParentModel() *Model {
	return m.parent
}

// SetParentModel attaches m to p. A nil p detaches.
func (m *Model) SetParentModel(p *Model) error {
	for a := p; a != nil; a = a.parent {
		if a == m {
			return ErrParentCycle
		}
	}
	if m.parent != p {
		m.notify(m, PropertyParentModel, m.parent, p)
		m.parent = p
	}
	return nil
}

// ParentBoneIndex is the bone of the parent model this model follows, -1 for none.
func (m *Model) ParentBoneIndex() int {
	return m.parentBoneIndex
}

func (m *Model) SetParentBoneIndex(i int) {
	if m.parentBoneIndex != i {
		m.notify(m, PropertyParentBone, m.parentBoneIndex, i)
		m.parentBoneIndex = i
	}
}

// AttachmentBone resolves ParentBoneIndex against the parent model.
func (m *Model) AttachmentBone() *Bone {
	if m == nil || m.parent == nil {
		return nullBone
	}
	return m.parent.BoneAt(m.parentBoneIndex)
}

func (m *Model) Vertices() []*Vertex { return m.vertices }
func (m *Model) Surfaces() []int { return m.surfaces }
func (m *Model) Textures() []string { return m.textures }
func (m *Model) Materials() []*Material { return m.materials }
func (m *Model) Bones() []*Bone { return m.bones }
func (m *Model) Morphs() []*Morph { return m.morphs }
func (m *Model) Labels() []*Label { return m.labels }
func (m *Model) RigidBodies() []*RigidBody { return m.rigidBodies }
func (m *Model) Joints() []*Joint { return m.joints }

func (m *Model) nameCount(kind nameKind) int {
	switch kind {
	case materialNames:
		return len(m.materials)
	case boneNames:
		return len(m.bones)
	case morphNames:
		return len(m.morphs)
	case labelNames:
		return len(m.labels)
	case rigidBodyNames:
		return len(m.rigidBodies)
	case jointNames:
		return len(m.joints)
	}
	return 0
}

func (m *Model) namedAt(kind nameKind, i int) *named {
	switch kind {
	case materialNames:
		return &m.materials[i].named
	case boneNames:
		return &m.bones[i].named
	case morphNames:
		return &m.morphs[i].named
	case labelNames:
		return &m.labels[i].named
	case rigidBodyNames:
		return &m.rigidBodies[i].named
	case jointNames:
		return &m.joints[i].named
	}
	return nil
}

// rebuildNames refreshes the lookup of one entity kind. The first entity wins on duplicates.
func (m *Model) rebuildNames(kind nameKind) {
	n := m.nameCount(kind)
	for lang := range m.nameTables[kind] {
		t := make(map[string]int, n)
		for i := 0; i < n; i++ {
			name := m.namedAt(kind, i).names[lang]
			if _, exists := t[name]; !exists && name != "" {
				t[name] = i
			}
		}
		m.nameTables[kind][lang] = t
	}
}

func (m *Model) rebuildAllNames() {
	for kind := nameKind(0); kind < nameKindCount; kind++ {
		m.rebuildNames(kind)
	}
}

func (m *Model) findName(kind nameKind, lang Language, name string) int {
	if lang < 0 || lang >= languageCount {
		return -1
	}
	if i, ok := m.nameTables[kind][lang][name]; ok {
		return i
	}
	return -1
}
