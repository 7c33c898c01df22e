package disk

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LogicalOrder reports the sector order a logical image file name implies.
func LogicalOrder(filename string) (SectorOrder, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".dsk", ".do":
		return SectorOrderDOS33, true
	case ".po":
		return SectorOrderProDOS, true
	case ".cpm":
		return SectorOrderCPM, true
	case ".2mg", ".2img":
		return SectorOrderProDOS, true
	}
	return SectorOrderLinear, false
}

// IsLogical reports whether the file name is a sector image rather than a
// physical track container.
func IsLogical(filename string) bool {
	_, ok := LogicalOrder(filename)
	return ok
}

// LoadImage reads a logical sector image. The type comes from the size and
// the order from the extension; 2MG files use their header.
func LoadImage(data []byte, filename string, opts Options) (*Image, *Report, error) {
	if Is2MG(data) {
		return Load2MG(data, opts)
	}
	order, ok := LogicalOrder(filename)
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnsupported, "%q is not a sector image", filename)
	}
	id := DiskTypeForSize(len(data))
	if id == DT_NONE {
		return nil, nil, errors.Wrapf(ErrBadSize, "%d bytes", len(data))
	}
	if opts.Type != DT_NONE && opts.Type != id {
		return nil, nil, errors.Wrapf(ErrGeometry, "%d bytes is not a %v image", len(data), opts.Type)
	}
	if id == DT_840K {
		order = SectorOrderDOS33
	}
	img, err := NewImageFromData(id, order, append([]byte(nil), data...))
	if err != nil {
		return nil, nil, err
	}
	if _, err := InterleaveFor(id, order); err != nil {
		return nil, nil, err
	}
	if opts.Volume != 0 {
		img.Volume = opts.Volume
	}
	return img, nil, nil
}

// SaveImage renders the image for filename, reordering sectors to suit
// the extension.
func SaveImage(img *Image, filename string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".2mg" || ext == ".2img" {
		return Save2MG(img)
	}
	order, ok := LogicalOrder(filename)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "%q is not a sector image", filename)
	}
	if img.Type.ID == DT_840K {
		order = img.Order
	}
	out, err := img.Reorder(order)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Reorder returns a copy of the image with its sectors arranged in order.
func (img *Image) Reorder(order SectorOrder) (*Image, error) {
	from, err := InterleaveFor(img.Type.ID, img.Order)
	if err != nil {
		return nil, err
	}
	to, err := InterleaveFor(img.Type.ID, order)
	if err != nil {
		return nil, err
	}
	out := &Image{
		Type:   img.Type,
		Order:  order,
		Volume: img.Volume,
		Data:   make([]byte, len(img.Data)),
	}
	for t := 0; t < img.Type.Tracks; t++ {
		for h := 0; h < img.Type.Heads; h++ {
			for p := range from {
				src, err := img.Sector(t, h, from[p])
				if err != nil {
					return nil, err
				}
				dst, err := out.Sector(t, h, to[p])
				if err != nil {
					return nil, err
				}
				copy(dst, src)
			}
		}
	}
	return out, nil
}
