package disk

import "github.com/paleotronic/nibm8/loggy"

// physicalTrack is one side of one track in container form.
type physicalTrack interface {
	load(img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult
}

// gcrTrack is a circular nibble stream of one revolution.
type gcrTrack []byte

func (t gcrTrack) at(pos int) byte {
	return t[pos%len(t)]
}

func (t gcrTrack) matches(pos int, seq []byte) bool {
	for i, b := range seq {
		if t.at(pos+i) != b {
			return false
		}
	}
	return true
}

func (t gcrTrack) read(pos, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = t.at(pos + i)
	}
	return out
}

func (t gcrTrack) load(img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult {
	return scanGCR(t, img, track, head, il, log)
}

// gcrCellTrack is a GCR track stored as half-cells (HFE, HxC MFM).
type gcrCellTrack []byte

func (t gcrCellTrack) load(img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult {
	return scanGCR(gcrTrack(NibblesFromCells(t)), img, track, head, il, log)
}

// scanGCR walks one revolution of nibbles and stores every sector found.
func scanGCR(t gcrTrack, img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult {
	sectors := img.Type.Sectors
	tr := newTrackResult(track, head, sectors, il)
	n := len(t)
	if n == 0 {
		return tr
	}

	buf := make([]byte, STD_BYTES_PER_SECTOR)
	pos := 0
	for pos < n {
		a := -1
		for q := pos; q < n; q++ {
			if t.matches(q, GCR_ADDRESS_PROLOGUE) {
				a = q
				break
			}
		}
		if a < 0 {
			break
		}

		var status SectorStatus
		p := a + len(GCR_ADDRESS_PROLOGUE)
		addr := DecodeAddress(t.read(p, GCR_ADDRESS_BYTES))
		p += GCR_ADDRESS_BYTES
		if !addr.Valid() {
			status |= SectorAddressChecksum
		}
		// DE AA is enough; the last epilogue byte is often clipped.
		if !t.matches(p, GCR_EPILOGUE[:2]) {
			status |= SectorAddressEpilogue
		}
		p += len(GCR_EPILOGUE)

		d := -1
		for q := p; q < a+n; q++ {
			if t.matches(q, GCR_DATA_PROLOGUE) {
				d = q
				break
			}
			if t.matches(q, GCR_ADDRESS_PROLOGUE) {
				break
			}
		}
		if d < 0 {
			log.Debugf("T%02d.%d: address for sector %d has no data field", track, head, addr.Sector)
			pos = p
			continue
		}

		p = d + len(GCR_DATA_PROLOGUE)
		if !DecodeGCR62(t.read(p, GCR_DATA_BYTES), buf) {
			status |= SectorDataChecksum
		}
		p += GCR_DATA_BYTES
		if !t.matches(p, GCR_EPILOGUE[:2]) {
			status |= SectorDataEpilogue
		}
		pos = p + len(GCR_EPILOGUE)

		if addr.Valid() && int(addr.Track) != track {
			status |= SectorWrongTrack
		}
		store(img, &tr, il, int(addr.Sector), addr.Volume, status, buf, log)
	}

	return tr
}

// agatStream is a circular Agat track addressed in symbols: one position
// holds one data byte or one desync mark.
type agatStream interface {
	Len() int
	MarkAt(pos int) bool
	ByteAt(pos int) byte
}

// agatCellTrack is an Agat MFM stream that may not be byte aligned.
type agatCellTrack []byte

func (t agatCellTrack) load(img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult {
	words, ok := AgatWordsFromCells(t)
	if !ok {
		log.Debugf("T%02d.%d: no desync mark in %d stream bytes", track, head, len(t))
		return newTrackResult(track, head, img.Type.Sectors, il)
	}
	return scanAgat(aimTrack(words), img, track, head, il, log)
}

// aimTrack holds AIM words: data in the low byte, control in the high byte.
// Cell streams are framed into the same words before scanning.
type aimTrack []uint16

const AIM_MARK = 0x01

func (t aimTrack) Len() int {
	return len(t)
}

func (t aimTrack) MarkAt(pos int) bool {
	return t[pos%len(t)]>>8 == AIM_MARK
}

func (t aimTrack) ByteAt(pos int) byte {
	return byte(t[pos%len(t)])
}

func (t aimTrack) load(img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult {
	return scanAgat(t, img, track, head, il, log)
}

// agatMarkAt returns the position after a desync and mark starting at pos,
// or -1. A resync byte between the two is skipped.
func agatMarkAt(s agatStream, pos int, mark [2]byte) int {
	if !s.MarkAt(pos) {
		return -1
	}
	p := pos + 1
	if s.ByteAt(p) == AGAT_RESYNC.Byte() && !s.MarkAt(p) {
		p++
	}
	if s.MarkAt(p) || s.ByteAt(p) != mark[0] || s.ByteAt(p+1) != mark[1] {
		return -1
	}
	return p + 2
}

// AgatTrackID is the track byte of an Agat address field.
func AgatTrackID(track, head int) byte {
	return byte(track*2 + head)
}

// scanAgat is scanGCR for Agat fields: desync, FF, mark, V T S, 5A and
// desync, FF, mark, 256 bytes, checksum, 5A. The FF may be missing.
func scanAgat(s agatStream, img *Image, track, head int, il Interleave, log *loggy.Logger) TrackResult {
	sectors := img.Type.Sectors
	tr := newTrackResult(track, head, sectors, il)
	n := s.Len()
	if n == 0 {
		return tr
	}

	buf := make([]byte, STD_BYTES_PER_SECTOR)
	pos := 0
	for pos < n {
		a, f := -1, -1
		for q := pos; q < n; q++ {
			if f = agatMarkAt(s, q, AGAT_ADDRESS_MARK); f >= 0 {
				a = q
				break
			}
		}
		if a < 0 {
			break
		}

		var status SectorStatus
		volume, trackID, sector := s.ByteAt(f), s.ByteAt(f+1), s.ByteAt(f+2)
		// Agat address fields carry no checksum; the track byte stands in.
		if trackID != AgatTrackID(track, head) {
			status |= SectorAddressChecksum
		}
		if s.ByteAt(f+3) != AGAT_EPILOGUE {
			status |= SectorAddressEpilogue
		}
		p := f + 4

		d := -1
		for q := p; q < a+n; q++ {
			if d = agatMarkAt(s, q, AGAT_DATA_MARK); d >= 0 {
				break
			}
			if agatMarkAt(s, q, AGAT_ADDRESS_MARK) >= 0 {
				break
			}
		}
		if d < 0 {
			log.Debugf("T%02d.%d: address for sector %d has no data field", track, head, sector)
			pos = p
			continue
		}

		p = d
		for i := range buf {
			buf[i] = s.ByteAt(p + i)
		}
		p += len(buf)
		if s.ByteAt(p) != AgatChecksum(buf) {
			status |= SectorDataChecksum
		}
		if s.ByteAt(p+1) != AGAT_EPILOGUE {
			status |= SectorDataEpilogue
		}
		pos = p + 2

		store(img, &tr, il, int(sector), volume, status, buf, log)
	}

	return tr
}

// store copies a decoded sector into the image unless a clean copy of the
// same physical sector is already there.
func store(img *Image, tr *TrackResult, il Interleave, physical int, volume byte, status SectorStatus, data []byte, log *loggy.Logger) {
	if physical < 0 || physical >= len(tr.Sectors) {
		tr.Dropped++
		log.Debugf("T%02d.%d: dropped sector number %d", tr.Track, tr.Head, physical)
		return
	}
	prev := &tr.Sectors[physical]
	if prev.Status.Clean() {
		if !status.Clean() {
			log.Debugf("T%02d.%d: kept clean copy of sector %d over damaged duplicate", tr.Track, tr.Head, physical)
		}
		return
	}
	dst, err := img.Sector(tr.Track, tr.Head, il.Logical(physical))
	if err != nil {
		tr.Dropped++
		return
	}
	copy(dst, data)
	prev.Volume = volume
	prev.Status = status
}
