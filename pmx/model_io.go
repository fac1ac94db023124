package pmx

import (
	"log"

	"github.com/pkg/errors"
)

func (d *decoder) beginSection(s Section, minSize int) int {
	d.info.Offsets[s] = d.off
	n := d.readInt()
	if d.err == nil && (n < 0 || n*minSize > len(d.data)-d.off) {
		d.fail(ErrBufferUnderrun)
	}
	if d.err != nil {
		return 0
	}
	d.info.Counts[s] = n
	return n
}

func readEntities(d *decoder, s Section, read func(i int)) error {
	n := d.beginSection(s, 1)
	for i := 0; i < n && d.err == nil; i++ {
		read(i)
	}
	if d.err != nil {
		return errors.Wrapf(d.err, "decoding %s", s)
	}
	return nil
}

// readSections reads everything after the header into m.
func readSections(d *decoder, m *Model) error {
	info := d.info
	info.Offsets[SectionModelInfo] = d.off
	var text [4]string
	for i := range text {
		text[i] = d.readText()
	}
	if d.err != nil {
		return errors.Wrapf(d.err, "decoding %s", SectionModelInfo)
	}
	info.Counts[SectionModelInfo] = 1
	m.names = [languageCount]string{text[0], text[1]}
	m.comments = [languageCount]string{text[2], text[3]}

	err := readEntities(d, SectionVertex, func(i int) {
		v := NewVertex()
		v.read(d)
		v.model, v.index = m, i
		m.vertices = append(m.vertices, v)
	})
	if err != nil {
		return err
	}

	vsz := int(info.IndexSize(VertexIndex))
	n := d.beginSection(SectionSurface, vsz)
	m.surfaces = make([]int, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		m.surfaces = append(m.surfaces, d.readIndex(VertexIndex))
	}
	if d.err != nil {
		return errors.Wrapf(d.err, "decoding %s", SectionSurface)
	}

	err = readEntities(d, SectionTexture, func(i int) {
		m.textures = append(m.textures, d.readText())
	})
	if err != nil {
		return err
	}

	err = readEntities(d, SectionMaterial, func(i int) {
		v := NewMaterial()
		v.read(d)
		v.model, v.index = m, i
		m.materials = append(m.materials, v)
	})
	if err != nil {
		return err
	}

	err = readEntities(d, SectionBone, func(i int) {
		v := NewBone()
		v.read(d)
		v.model, v.index = m, i
		m.bones = append(m.bones, v)
	})
	if err != nil {
		return err
	}

	err = readEntities(d, SectionMorph, func(i int) {
		v := NewMorph(MorphVertex)
		v.read(d)
		v.model, v.index = m, i
		m.morphs = append(m.morphs, v)
	})
	if err != nil {
		return err
	}

	err = readEntities(d, SectionLabel, func(i int) {
		v := NewLabel()
		v.read(d)
		v.model, v.index = m, i
		m.labels = append(m.labels, v)
	})
	if err != nil {
		return err
	}

	err = readEntities(d, SectionRigidBody, func(i int) {
		v := NewRigidBody()
		v.read(d)
		v.model, v.index = m, i
		m.rigidBodies = append(m.rigidBodies, v)
	})
	if err != nil {
		return err
	}

	err = readEntities(d, SectionJoint, func(i int) {
		v := NewJoint()
		v.read(d)
		v.model, v.index = m, i
		m.joints = append(m.joints, v)
	})
	if err != nil {
		return err
	}

	// Soft bodies (2.1) are not supported. Their data is skipped.
	info.Offsets[SectionSoftBody] = d.off
	if rest := len(d.data) - d.off; rest > 0 {
		if info.Version >= 2.1 && rest >= sizeofInt {
			if n := d.readInt(); n > 0 {
				log.Println("Unsupported soft bodies : ", n)
			}
		} else {
			log.Println("Ignored trailing bytes : ", rest)
		}
	}
	return nil
}

// Preparse validates the header and walks every section without touching the model.
// The returned info carries the declared counts and the offset of each section.
func (m *Model) Preparse(data []byte) (*DataInfo, error) {
	info := &DataInfo{}
	d := newDecoder(data, info)
	if err := info.readHeader(d); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", SectionHeader)
	}
	if err := skipSections(d); err != nil {
		return nil, err
	}
	return info, nil
}

// Load replaces the contents of m with the document in data. On failure m is left empty
// and Err reports the cause.
func (m *Model) Load(data []byte) error {
	m.Reset()
	info, err := m.Preparse(data)
	if err == nil {
		info = &DataInfo{}
		d := newDecoder(data, info)
		err = info.readHeader(d)
		if err == nil {
			err = readSections(d, m)
		}
	}
	if err != nil {
		m.Reset()
		m.err = errorCodeOf(err)
		return err
	}
	m.err = NoError
	m.info = *info
	m.Resolve()
	m.rebuildAllNames()
	return nil
}

// saveInfo returns the header Save writes. Loaded index widths are kept while they can
// still address every entity.
func (m *Model) saveInfo() DataInfo {
	info := m.info
	counts := [indexKindCount]int{
		VertexIndex:    len(m.vertices),
		TextureIndex:   len(m.textures),
		MaterialIndex:  len(m.materials),
		BoneIndex:      len(m.bones),
		MorphIndex:     len(m.morphs),
		RigidBodyIndex: len(m.rigidBodies),
	}
	for kind, n := range counts {
		req := requiredIndexSize(IndexKind(kind), n)
		if !isValidIndexSize(info.IndexSizes[kind]) || info.IndexSizes[kind] < req {
			info.IndexSizes[kind] = req
		}
	}
	return info
}

func (m *Model) modelInfoSize(info *DataInfo) int {
	return textSize(info, m.names[Japanese]) + textSize(info, m.names[English]) +
		textSize(info, m.comments[Japanese]) + textSize(info, m.comments[English])
}

// EstimateSize returns the exact number of bytes Save writes.
func (m *Model) EstimateSize() int {
	info := m.saveInfo()
	sz := headerSize() + m.modelInfoSize(&info)
	sz += sizeofInt
	for _, v := range m.vertices {
		sz += v.EstimateSize(&info)
	}
	sz += sizeofInt + len(m.surfaces)*int(info.IndexSize(VertexIndex))
	sz += sizeofInt
	for _, t := range m.textures {
		sz += textSize(&info, t)
	}
	sz += sizeofInt
	for _, v := range m.materials {
		sz += v.EstimateSize(&info)
	}
	sz += sizeofInt
	for _, v := range m.bones {
		sz += v.EstimateSize(&info)
	}
	sz += sizeofInt
	for _, v := range m.morphs {
		sz += v.EstimateSize(&info)
	}
	sz += sizeofInt
	for _, v := range m.labels {
		sz += v.EstimateSize(&info)
	}
	sz += sizeofInt
	for _, v := range m.rigidBodies {
		sz += v.EstimateSize(&info)
	}
	sz += sizeofInt
	for _, v := range m.joints {
		sz += v.EstimateSize(&info)
	}
	if info.Version >= 2.1 {
		sz += sizeofInt
	}
	return sz
}

// Save writes the document into data, which must hold at least EstimateSize bytes.
func (m *Model) Save(data []byte) (int, error) {
	info := m.saveInfo()
	e := newEncoder(data, &info)
	info.writeHeader(e)
	e.writeText(m.names[Japanese])
	e.writeText(m.names[English])
	e.writeText(m.comments[Japanese])
	e.writeText(m.comments[English])

	e.writeInt(len(m.vertices))
	for _, v := range m.vertices {
		v.write(e)
	}
	if e.err != nil {
		return e.off, errors.Wrapf(e.err, "encoding %s", SectionVertex)
	}
	e.writeInt(len(m.surfaces))
	for _, idx := range m.surfaces {
		e.writeIndex(VertexIndex, idx)
	}
	e.writeInt(len(m.textures))
	for _, t := range m.textures {
		e.writeText(t)
	}
	e.writeInt(len(m.materials))
	for _, v := range m.materials {
		v.write(e)
	}
	if e.err != nil {
		return e.off, errors.Wrapf(e.err, "encoding %s", SectionMaterial)
	}
	e.writeInt(len(m.bones))
	for _, v := range m.bones {
		v.write(e)
	}
	if e.err != nil {
		return e.off, errors.Wrapf(e.err, "encoding %s", SectionBone)
	}
	e.writeInt(len(m.morphs))
	for _, v := range m.morphs {
		v.write(e)
	}
	if e.err != nil {
		return e.off, errors.Wrapf(e.err, "encoding %s", SectionMorph)
	}
	e.writeInt(len(m.labels))
	for _, v := range m.labels {
		v.write(e)
	}
	e.writeInt(len(m.rigidBodies))
	for _, v := range m.rigidBodies {
		v.write(e)
	}
	e.writeInt(len(m.joints))
	for _, v := range m.joints {
		v.write(e)
	}
	if info.Version >= 2.1 {
		e.writeInt(0)
	}
	if e.err != nil {
		return e.off, errors.Wrap(e.err, "encoding model")
	}
	return e.off, nil
}

// Bytes returns the serialized document.
func (m *Model) Bytes() ([]byte, error) {
	buf := make([]byte, m.EstimateSize())
	n, err := m.Save(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
