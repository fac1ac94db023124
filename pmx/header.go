package pmx

import (
	"fmt"
	"unicode/utf8"

	"github.com/binzume/pmxengine/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var signature = []byte("PMX ")

// TextEncoding is the string codec declared in the header.
type TextEncoding uint8

const (
	EncodingUTF16 TextEncoding = 0
	EncodingUTF8  TextEncoding = 1
)

// IndexKind selects which declared index width applies to a reference field.
type IndexKind int

const (
	VertexIndex IndexKind = iota
	TextureIndex
	MaterialIndex
	BoneIndex
	MorphIndex
	RigidBodyIndex
	indexKindCount
)

// Section names the blocks of a .pmx file in file order.
type Section int

const (
	SectionHeader Section = iota
	SectionModelInfo
	SectionVertex
	SectionSurface
	SectionTexture
	SectionMaterial
	SectionBone
	SectionMorph
	SectionLabel
	SectionRigidBody
	SectionJoint
	SectionSoftBody
	sectionCount
)

var sectionNames = [sectionCount]string{
	"header", "model info", "vertices", "surfaces", "textures", "materials",
	"bones", "morphs", "labels", "rigid bodies", "joints", "soft bodies",
}

func (s Section) String() string {
	if s < 0 || s >= sectionCount {
		return "unknown"
	}
	return sectionNames[s]
}

// DataInfo carries everything an entity needs to encode or decode itself.
type DataInfo struct {
	Version       float32
	Encoding      TextEncoding
	AdditionalUVs int
	IndexSizes    [indexKindCount]uint8

	// Filled by Preparse.
	Counts  [sectionCount]int
	Offsets [sectionCount]int
}

const headerInfoSize = 8

// NewDataInfo returns an info with every index width set to sz.
func NewDataInfo(encoding TextEncoding, additionalUVs int, sz uint8) *DataInfo {
	info := &DataInfo{Version: 2.0, Encoding: encoding, AdditionalUVs: additionalUVs}
	for i := range info.IndexSizes {
		info.IndexSizes[i] = sz
	}
	return info
}

func newDataInfoFromConfig(conf *config.Config) DataInfo {
	info := DataInfo{Version: conf.Version, AdditionalUVs: conf.AdditionalUVs}
	if conf.Encoding == config.EncodingUTF8 {
		info.Encoding = EncodingUTF8
	}
	return info
}

func (info *DataInfo) IndexSize(kind IndexKind) uint8 {
	return info.IndexSizes[kind]
}

func (info *DataInfo) textEncoding() encoding.Encoding {
	if info.Encoding == EncodingUTF8 {
		return unicode.UTF8
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

func (info *DataInfo) decodeText(b []byte) (string, error) {
	if info.Encoding == EncodingUTF8 {
		return string(b), nil
	}
	s, err := info.textEncoding().NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return string(s), nil
}

// encodeText rejects strings that UTF-16 cannot carry without substitution.
func (info *DataInfo) encodeText(s string) ([]byte, error) {
	if info.Encoding == EncodingUTF8 {
		return []byte(s), nil
	}
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: %q is not valid utf-8", ErrInvalidEncoding, s)
	}
	b, err := info.textEncoding().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return b, nil
}

func isValidIndexSize(sz uint8) bool {
	return sz == 1 || sz == 2 || sz == 4
}

func headerSize() int {
	return len(signature) + sizeofFloat + 1 + headerInfoSize
}

func (info *DataInfo) readHeader(d *decoder) error {
	sig := d.take(len(signature))
	if d.err != nil {
		return d.err
	}
	if string(sig) != string(signature) {
		return ErrInvalidSignature
	}
	info.Version = d.readFloat()
	n := int(d.readUint8())
	if d.err != nil {
		return d.err
	}
	if info.Version != 2.0 && info.Version != 2.1 {
		return ErrUnsupportedVersion
	}
	if n < headerInfoSize {
		return ErrInvalidHeader
	}
	attrs := d.take(n)
	if d.err != nil {
		return d.err
	}
	info.Encoding = TextEncoding(attrs[0])
	if info.Encoding != EncodingUTF16 && info.Encoding != EncodingUTF8 {
		return ErrInvalidEncoding
	}
	info.AdditionalUVs = int(attrs[1])
	if info.AdditionalUVs > 4 {
		return ErrInvalidAdditionalUVs
	}
	for i := range info.IndexSizes {
		info.IndexSizes[i] = attrs[2+i]
		if !isValidIndexSize(info.IndexSizes[i]) {
			return ErrInvalidIndexSize
		}
	}
	return nil
}

func (info *DataInfo) writeHeader(e *encoder) {
	e.writeBytes(signature)
	e.writeFloat(info.Version)
	e.writeUint8(headerInfoSize)
	e.writeUint8(uint8(info.Encoding))
	e.writeUint8(uint8(info.AdditionalUVs))
	for _, sz := range info.IndexSizes {
		e.writeUint8(sz)
	}
}

// requiredIndexSize returns the narrowest width able to address count entities.
// Vertex indices are unsigned, everything else needs room for -1.
func requiredIndexSize(kind IndexKind, count int) uint8 {
	if kind == VertexIndex {
		if count <= 0x100 {
			return 1
		} else if count <= 0x10000 {
			return 2
		}
		return 4
	}
	if count <= 0x80 {
		return 1
	} else if count <= 0x8000 {
		return 2
	}
	return 4
}
