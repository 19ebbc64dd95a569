package libio

import (
	"encoding/binary"
	"errors"
	"io"
)

// BinaryReader reads fixed size values and remembers the first error.
// All reads after an error are no-ops that return false.
type BinaryReader struct {
	Order binary.ByteOrder
	Src   io.Reader
	// Offset is the number of bytes consumed, LastOffset the offset before the last read.
	Offset     int
	LastOffset int
	Err        error
	buf        [8]byte
}

func NewBinaryReader(src io.Reader) *BinaryReader {
	return &BinaryReader{Order: binary.LittleEndian, Src: src}
}

func (br *BinaryReader) fill(n int) bool {
	if br.Err != nil {
		return false
	}
	nread, err := io.ReadFull(br.Src, br.buf[:n])
	br.LastOffset = br.Offset
	br.Offset += nread
	br.Err = err
	return err == nil
}

func (br *BinaryReader) Read(p []byte) (n int, err error) {
	if br.Err != nil {
		return 0, br.Err
	}
	n, err = br.Src.Read(p)
	br.LastOffset = br.Offset
	br.Offset += n
	return n, err
}

func (br *BinaryReader) ReadUInt16(i *uint16) bool {
	if !br.fill(2) {
		return false
	}
	*i = br.Order.Uint16(br.buf[:2])
	return true
}

func (br *BinaryReader) ReadUInt32(i *uint32) bool {
	if !br.fill(4) {
		return false
	}
	*i = br.Order.Uint32(br.buf[:4])
	return true
}

func (br *BinaryReader) ReadRef(data any) bool {
	if br.Err != nil {
		return false
	}
	br.Err = binary.Read(br.Src, br.Order, data)
	br.LastOffset = br.Offset
	if br.Err == nil {
		br.Offset += binary.Size(data)
	}
	return br.Err == nil
}

// MergeErr joins the sticky error into *err.
func (br *BinaryReader) MergeErr(err *error) {
	if br.Err != nil {
		*err = errors.Join(*err, br.Err)
	}
}

// BinaryWriter is the writing counterpart of BinaryReader.
type BinaryWriter struct {
	Order binary.ByteOrder
	Dst   io.Writer
	Err   error
	buf   [8]byte
}

func NewBinaryWriter(dst io.Writer) *BinaryWriter {
	return &BinaryWriter{Order: binary.LittleEndian, Dst: dst}
}

func (bw *BinaryWriter) WriteBytes(p []byte) bool {
	if bw.Err != nil {
		return false
	}
	_, bw.Err = bw.Dst.Write(p)
	return bw.Err == nil
}

func (bw *BinaryWriter) Write(p []byte) (n int, err error) {
	if bw.Err != nil {
		return 0, bw.Err
	}
	return bw.Dst.Write(p)
}

func (bw *BinaryWriter) WriteUInt16(i uint16) bool {
	bw.Order.PutUint16(bw.buf[:2], i)
	return bw.WriteBytes(bw.buf[:2])
}

func (bw *BinaryWriter) WriteUInt32(i uint32) bool {
	bw.Order.PutUint32(bw.buf[:4], i)
	return bw.WriteBytes(bw.buf[:4])
}

func (bw *BinaryWriter) WriteRef(data any) bool {
	if bw.Err != nil {
		return false
	}
	bw.Err = binary.Write(bw.Dst, bw.Order, data)
	return bw.Err == nil
}

func (bw *BinaryWriter) MergeErr(err *error) {
	if bw.Err != nil {
		*err = errors.Join(*err, bw.Err)
	}
}
