package disk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const STD_BYTES_PER_SECTOR = 256
const STD_TRACKS_PER_DISK = 35
const STD_SECTORS_PER_TRACK = 16
const STD_DISK_BYTES = STD_TRACKS_PER_DISK * STD_SECTORS_PER_TRACK * STD_BYTES_PER_SECTOR

const AGAT_840K_TRACKS = 80
const AGAT_840K_HEADS = 2
const AGAT_840K_SECTORS_PER_TRACK = 21
const AGAT_840K_DISK_BYTES = AGAT_840K_TRACKS * AGAT_840K_HEADS * AGAT_840K_SECTORS_PER_TRACK * STD_BYTES_PER_SECTOR

const DEFAULT_VOLUME = 254

// Encoding is the physical encoding family of a track.
type Encoding int

const (
	EncodingGCR Encoding = iota
	EncodingAgatMFM
)

func (e Encoding) String() string {
	switch e {
	case EncodingGCR:
		return "GCR 6-and-2"
	case EncodingAgatMFM:
		return "Agat MFM"
	}
	return "Unknown"
}

// InterfaceMode mirrors the HxC floppy interface mode byte.
type InterfaceMode int

const (
	IFM_IBMPC_DD InterfaceMode = iota
	IFM_IBMPC_HD
	IFM_AtariST_DD
	IFM_AtariST_HD
	IFM_Amiga_DD
	IFM_Amiga_HD
	IFM_CPC_DD
	IFM_GenericShugart_DD
	IFM_IBMPC_ED
	IFM_MSX2_DD
	IFM_C64_DD
	IFM_EmuShugart_DD
)

type DiskTypeID int

const (
	DT_NONE DiskTypeID = iota
	DT_140K
	DT_840K
)

func (id DiskTypeID) String() string {
	switch id {
	case DT_140K:
		return "140k"
	case DT_840K:
		return "840k"
	}
	return "none"
}

// ParseDiskType accepts the names printed by DiskTypeID.String and a few aliases.
func ParseDiskType(s string) (DiskTypeID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "140k", "140", "apple", "agat140", "gcr":
		return DT_140K, nil
	case "840k", "840", "agat840", "agat", "mfm":
		return DT_840K, nil
	}
	return DT_NONE, errors.Errorf("unknown disk type %q", s)
}

// Geometry is the shape of a logical image and the physical parameters of
// the media it came from.
type Geometry struct {
	Heads      int
	Tracks     int
	Sectors    int
	SectorSize int
	BitRate    int // kbit/s
	RPM        int
	Encoding   Encoding
	Interface  InterfaceMode
}

// DiskType couples an identifier with its geometry.
type DiskType struct {
	ID DiskTypeID
	Geometry
}

func GetDiskType(id DiskTypeID) DiskType {
	switch id {
	case DT_140K:
		return DiskType{
			ID: id,
			Geometry: Geometry{
				Heads:      1,
				Tracks:     STD_TRACKS_PER_DISK,
				Sectors:    STD_SECTORS_PER_TRACK,
				SectorSize: STD_BYTES_PER_SECTOR,
				BitRate:    250,
				RPM:        300,
				Encoding:   EncodingGCR,
				Interface:  IFM_GenericShugart_DD,
			},
		}
	case DT_840K:
		return DiskType{
			ID: id,
			Geometry: Geometry{
				Heads:      AGAT_840K_HEADS,
				Tracks:     AGAT_840K_TRACKS,
				Sectors:    AGAT_840K_SECTORS_PER_TRACK,
				SectorSize: STD_BYTES_PER_SECTOR,
				BitRate:    250,
				RPM:        300,
				Encoding:   EncodingAgatMFM,
				Interface:  IFM_GenericShugart_DD,
			},
		}
	}
	return DiskType{ID: DT_NONE}
}

func (dt DiskType) String() string {
	switch dt.ID {
	case DT_140K:
		return "Apple II / Agat 140KB (GCR)"
	case DT_840K:
		return "Agat 840KB (MFM)"
	}
	return "Unrecognized"
}

func (g Geometry) TrackSize() int {
	return g.Sectors * g.SectorSize
}

func (g Geometry) Size() int {
	return g.Tracks * g.Heads * g.TrackSize()
}

// Offset returns the byte offset of (track, head, sector) in a logical buffer.
func (g Geometry) Offset(track, head, sector int) (int, error) {
	if track < 0 || track >= g.Tracks || head < 0 || head >= g.Heads || sector < 0 || sector >= g.Sectors {
		return -1, errors.Wrapf(ErrSectorRange, "track %d head %d sector %d", track, head, sector)
	}
	return ((track*g.Heads+head)*g.Sectors + sector) * g.SectorSize, nil
}

// DiskTypeForSize maps a raw logical image size to a disk type.
func DiskTypeForSize(size int) DiskTypeID {
	switch size {
	case STD_DISK_BYTES:
		return DT_140K
	case AGAT_840K_DISK_BYTES:
		return DT_840K
	}
	return DT_NONE
}

func Checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Image is the logical sector buffer of one disk.
type Image struct {
	Type   DiskType
	Order  SectorOrder
	Volume byte
	Data   []byte
}

func NewImage(id DiskTypeID, order SectorOrder) (*Image, error) {
	dt := GetDiskType(id)
	if dt.ID == DT_NONE {
		return nil, errors.Wrapf(ErrGeometry, "disk type %v", id)
	}
	return &Image{
		Type:   dt,
		Order:  order,
		Volume: DEFAULT_VOLUME,
		Data:   make([]byte, dt.Size()),
	}, nil
}

// NewImageFromData wraps data without copying it.
func NewImageFromData(id DiskTypeID, order SectorOrder, data []byte) (*Image, error) {
	dt := GetDiskType(id)
	if dt.ID == DT_NONE {
		return nil, errors.Wrapf(ErrGeometry, "disk type %v", id)
	}
	if len(data) != dt.Size() {
		return nil, errors.Wrapf(ErrBadSize, "%d bytes for %s, expected %d", len(data), dt, dt.Size())
	}
	return &Image{
		Type:   dt,
		Order:  order,
		Volume: DEFAULT_VOLUME,
		Data:   data,
	}, nil
}

func (img *Image) Offset(track, head, sector int) (int, error) {
	return img.Type.Offset(track, head, sector)
}

// Sector returns a slice aliasing the logical sector inside Data.
func (img *Image) Sector(track, head, sector int) ([]byte, error) {
	off, err := img.Offset(track, head, sector)
	if err != nil {
		return nil, err
	}
	return img.Data[off : off+img.Type.SectorSize], nil
}

// Track returns a slice aliasing all logical sectors of one track side.
func (img *Image) Track(track, head int) ([]byte, error) {
	off, err := img.Offset(track, head, 0)
	if err != nil {
		return nil, err
	}
	return img.Data[off : off+img.Type.TrackSize()], nil
}

func (img *Image) Checksum() string {
	return Checksum(img.Data)
}

func (img *Image) String() string {
	return fmt.Sprintf("%s, %s order, volume %d, %d bytes", img.Type, img.Order, img.Volume, len(img.Data))
}
