package pmx

import (
	"github.com/tiendc/go-deepcopy"
)

type LabelElementKind uint8

const (
	LabelBone LabelElementKind = iota
	LabelMorph
)

// LabelElement references either a bone or a morph, selected by Kind.
type LabelElement struct {
	Kind  LabelElementKind
	Index int
}

type Label struct {
	named
	Special  bool
	Elements []LabelElement
}

var nullLabel = NewLabel()

func NullLabel() *Label { return nullLabel }

func NewLabel() *Label {
	return &Label{named: newNamed()}
}

func (l *Label) SetName(lang Language, name string) {
	l.setName(l, labelNames, lang, name)
}

func (l *Label) AddBone(boneIndex int) {
	if l.null {
		return
	}
	l.Elements = append(l.Elements, LabelElement{Kind: LabelBone, Index: boneIndex})
}

func (l *Label) AddMorph(morphIndex int) {
	if l.null {
		return
	}
	l.Elements = append(l.Elements, LabelElement{Kind: LabelMorph, Index: morphIndex})
}

func (l *Label) Clone() *Label {
	c := *l
	c.named = l.cloneNamed()
	c.Elements = nil
	if err := deepcopy.Copy(&c.Elements, l.Elements); err != nil {
		c.Elements = append([]LabelElement(nil), l.Elements...)
	}
	return &c
}

func (l *Label) EstimateSize(info *DataInfo) int {
	sz := l.namesSize(info) + 1 + sizeofInt
	for _, el := range l.Elements {
		sz++
		if el.Kind == LabelBone {
			sz += int(info.IndexSize(BoneIndex))
		} else {
			sz += int(info.IndexSize(MorphIndex))
		}
	}
	return sz
}

func (l *Label) Read(data []byte, info *DataInfo) (int, error) {
	d := newDecoder(data, info)
	l.read(d)
	return d.off, d.err
}

func (l *Label) Write(data []byte, info *DataInfo) (int, error) {
	e := newEncoder(data, info)
	l.write(e)
	return e.off, e.err
}

func (l *Label) read(d *decoder) {
	l.readNames(d)
	l.Special = d.readUint8() != 0
	n := d.readInt()
	if d.err != nil {
		return
	}
	if n < 0 || n > len(d.data)-d.off {
		d.fail(ErrBufferUnderrun)
		return
	}
	l.Elements = make([]LabelElement, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		kind := LabelElementKind(d.readUint8())
		switch kind {
		case LabelBone:
			l.Elements = append(l.Elements, LabelElement{Kind: kind, Index: d.readIndex(BoneIndex)})
		case LabelMorph:
			l.Elements = append(l.Elements, LabelElement{Kind: kind, Index: d.readIndex(MorphIndex)})
		default:
			d.fail(ErrInvalidLabelElement)
		}
	}
}

func (l *Label) write(e *encoder) {
	l.writeNames(e)
	if l.Special {
		e.writeUint8(1)
	} else {
		e.writeUint8(0)
	}
	e.writeInt(len(l.Elements))
	for _, el := range l.Elements {
		e.writeUint8(uint8(el.Kind))
		switch el.Kind {
		case LabelBone:
			e.writeIndex(BoneIndex, el.Index)
		case LabelMorph:
			e.writeIndex(MorphIndex, el.Index)
		default:
			e.fail(ErrInvalidLabelElement)
		}
	}
}
