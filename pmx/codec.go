package pmx

import (
	"encoding/binary"
	"math"

	"github.com/binzume/pmxengine/geom"
)

// decoder reads little-endian values from a byte slice. The first failure sticks and
// every later read returns zero values.
type decoder struct {
	data []byte
	off  int
	info *DataInfo
	err  error
}

func newDecoder(data []byte, info *DataInfo) *decoder {
	return &decoder{data: data, info: info}
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > len(d.data)-d.off {
		d.fail(ErrBufferUnderrun)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) readUint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) readUint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *decoder) readUint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) readInt() int {
	return int(int32(d.readUint32()))
}

func (d *decoder) readFloat() float32 {
	return math.Float32frombits(d.readUint32())
}

func (d *decoder) readVector2() geom.Vector2 {
	return geom.Vector2{X: d.readFloat(), Y: d.readFloat()}
}

func (d *decoder) readVector3() geom.Vector3 {
	return geom.Vector3{X: d.readFloat(), Y: d.readFloat(), Z: d.readFloat()}
}

func (d *decoder) readVector4() geom.Vector4 {
	return geom.Vector4{X: d.readFloat(), Y: d.readFloat(), Z: d.readFloat(), W: d.readFloat()}
}

func (d *decoder) readVInt(sz uint8) int {
	switch sz {
	case 1:
		return int(int8(d.readUint8()))
	case 2:
		return int(int16(d.readUint16()))
	case 4:
		return int(int32(d.readUint32()))
	}
	d.fail(ErrInvalidIndexSize)
	return -1
}

func (d *decoder) readVUInt(sz uint8) int {
	switch sz {
	case 1:
		return int(d.readUint8())
	case 2:
		return int(d.readUint16())
	case 4:
		return int(int32(d.readUint32()))
	}
	d.fail(ErrInvalidIndexSize)
	return -1
}

func (d *decoder) readIndex(kind IndexKind) int {
	sz := d.info.IndexSize(kind)
	if kind == VertexIndex {
		return d.readVUInt(sz)
	}
	return d.readVInt(sz)
}

func (d *decoder) readText() string {
	n := d.readInt()
	b := d.take(n)
	if b == nil {
		return ""
	}
	s, err := d.info.decodeText(b)
	if err != nil {
		d.fail(err)
	}
	return s
}

// encoder writes into a preallocated byte slice.
type encoder struct {
	data []byte
	off  int
	info *DataInfo
	err  error
}

func newEncoder(data []byte, info *DataInfo) *encoder {
	return &encoder{data: data, info: info}
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) reserve(n int) []byte {
	if e.err != nil {
		return nil
	}
	if n > len(e.data)-e.off {
		e.fail(ErrBufferOverflow)
		return nil
	}
	b := e.data[e.off : e.off+n]
	e.off += n
	return b
}

func (e *encoder) writeBytes(v []byte) {
	if b := e.reserve(len(v)); b != nil {
		copy(b, v)
	}
}

func (e *encoder) writeUint8(v uint8) {
	if b := e.reserve(1); b != nil {
		b[0] = v
	}
}

func (e *encoder) writeUint16(v uint16) {
	if b := e.reserve(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (e *encoder) writeUint32(v uint32) {
	if b := e.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (e *encoder) writeInt(v int) {
	e.writeUint32(uint32(int32(v)))
}

func (e *encoder) writeFloat(v float32) {
	e.writeUint32(math.Float32bits(v))
}

func (e *encoder) writeVector2(v geom.Vector2) {
	e.writeFloat(v.X)
	e.writeFloat(v.Y)
}

func (e *encoder) writeVector3(v geom.Vector3) {
	e.writeFloat(v.X)
	e.writeFloat(v.Y)
	e.writeFloat(v.Z)
}

func (e *encoder) writeVector4(v geom.Vector4) {
	e.writeFloat(v.X)
	e.writeFloat(v.Y)
	e.writeFloat(v.Z)
	e.writeFloat(v.W)
}

func (e *encoder) writeVInt(sz uint8, v int) {
	switch sz {
	case 1:
		e.writeUint8(uint8(int8(v)))
	case 2:
		e.writeUint16(uint16(int16(v)))
	case 4:
		e.writeUint32(uint32(int32(v)))
	default:
		e.fail(ErrInvalidIndexSize)
	}
}

func (e *encoder) writeIndex(kind IndexKind, v int) {
	e.writeVInt(e.info.IndexSize(kind), v)
}

func (e *encoder) writeText(s string) {
	b, err := e.info.encodeText(s)
	if err != nil {
		e.fail(err)
		return
	}
	e.writeInt(len(b))
	e.writeBytes(b)
}

const (
	sizeofFloat   = 4
	sizeofInt     = 4
	sizeofVector2 = 2 * sizeofFloat
	sizeofVector3 = 3 * sizeofFloat
	sizeofVector4 = 4 * sizeofFloat
)

// textSize counts only the length prefix for text that cannot be encoded;
// the write reports the failure.
func textSize(info *DataInfo, s string) int {
	b, _ := info.encodeText(s)
	return sizeofInt + len(b)
}
