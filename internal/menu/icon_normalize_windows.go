//go:build windows

package menu

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/example/pwabridge/internal/logging"
)

// icoHeader is an ICONDIR followed by a single ICONDIRENTRY.
type icoHeader struct {
	Reserved   uint16
	Kind       uint16
	Count      uint16
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved2  uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

const icoHeaderSize = 22

// platformNormalizeIcon converts site icons to the ICO container the
// Windows tray requires.
func platformNormalizeIcon(data []byte) []byte {
	if isICO(data) {
		return data
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logging.Debugf("decode site icon: %v", err)
		return nil
	}

	pngData := data
	if format != "png" {
		buf := new(bytes.Buffer)
		if err := png.Encode(buf, img); err != nil {
			logging.Debugf("convert site icon to png: %v", err)
			return nil
		}
		pngData = buf.Bytes()
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil
	}

	header := icoHeader{
		Kind:       1,
		Count:      1,
		Width:      icoDimension(bounds.Dx()),
		Height:     icoDimension(bounds.Dy()),
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(len(pngData)),
		Offset:     icoHeaderSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, icoHeaderSize+len(pngData)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		logging.Debugf("wrap site icon as ico: %v", err)
		return nil
	}
	buf.Write(pngData)
	return buf.Bytes()
}

// icoDimension encodes 256 and larger as 0.
func icoDimension(v int) uint8 {
	if v >= 256 {
		return 0
	}
	return uint8(v)
}

func isICO(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte{0, 0, 1, 0})
}
