package disk

import (
	"fmt"
	"strings"
)

// SectorStatus collects the integrity problems found in one sector.
type SectorStatus uint8

const (
	SectorAddressChecksum SectorStatus = 1 << iota
	SectorAddressEpilogue
	SectorDataChecksum
	SectorDataEpilogue
	SectorWrongTrack
	SectorMissing
)

const SectorOK SectorStatus = 0

func (s SectorStatus) Clean() bool {
	return s == SectorOK
}

func (s SectorStatus) String() string {
	if s == SectorOK {
		return "ok"
	}
	var parts []string
	names := []struct {
		flag SectorStatus
		name string
	}{
		{SectorAddressChecksum, "address checksum"},
		{SectorAddressEpilogue, "address epilogue"},
		{SectorDataChecksum, "data checksum"},
		{SectorDataEpilogue, "data epilogue"},
		{SectorWrongTrack, "wrong track"},
		{SectorMissing, "not found"},
	}
	for _, n := range names {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

type SectorResult struct {
	Physical int
	Logical  int
	Volume   byte
	Status   SectorStatus
}

type TrackResult struct {
	Track   int
	Head    int
	Sectors []SectorResult // one entry per physical sector, in physical order
	Dropped int            // address fields with an out of range sector number
}

func newTrackResult(track, head, sectors int, il Interleave) TrackResult {
	tr := TrackResult{Track: track, Head: head, Sectors: make([]SectorResult, sectors)}
	for p := range tr.Sectors {
		tr.Sectors[p] = SectorResult{Physical: p, Logical: il.Logical(p), Status: SectorMissing}
	}
	return tr
}

func (tr TrackResult) Clean() bool {
	for _, s := range tr.Sectors {
		if !s.Status.Clean() {
			return false
		}
	}
	return true
}

// Errors counts the sectors with any problem.
func (tr TrackResult) Errors() int {
	n := 0
	for _, s := range tr.Sectors {
		if !s.Status.Clean() {
			n++
		}
	}
	return n
}

func (tr TrackResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "T%02d.%d:", tr.Track, tr.Head)
	for _, s := range tr.Sectors {
		switch {
		case s.Status.Clean():
			b.WriteString(" .")
		case s.Status&SectorMissing != 0:
			b.WriteString(" -")
		default:
			b.WriteString(" X")
		}
	}
	if tr.Dropped > 0 {
		fmt.Fprintf(&b, "  (%d dropped)", tr.Dropped)
	}
	return b.String()
}

// Report is the outcome of decoding a whole container.
type Report struct {
	Format string
	Type   DiskType
	Order  SectorOrder
	Volume byte
	Tracks []TrackResult
}

func (r *Report) Clean() bool {
	for _, t := range r.Tracks {
		if !t.Clean() {
			return false
		}
	}
	return true
}

// Errors counts damaged or missing sectors across the disk.
func (r *Report) Errors() int {
	n := 0
	for _, t := range r.Tracks {
		n += t.Errors()
	}
	return n
}

// Count returns how many sectors carry the given flag.
func (r *Report) Count(flag SectorStatus) int {
	n := 0
	for _, t := range r.Tracks {
		for _, s := range t.Sectors {
			if s.Status&flag != 0 {
				n++
			}
		}
	}
	return n
}

// Problems lists every damaged sector.
func (r *Report) Problems() []string {
	var out []string
	for _, t := range r.Tracks {
		for _, s := range t.Sectors {
			if !s.Status.Clean() {
				out = append(out, fmt.Sprintf("track %d head %d sector %d (logical %d): %s", t.Track, t.Head, s.Physical, s.Logical, s.Status))
			}
		}
	}
	return out
}

func (r *Report) Message() string {
	if r.Clean() {
		return fmt.Sprintf("%s: %s decoded, %d tracks, no errors", r.Format, r.Type, len(r.Tracks))
	}
	return fmt.Sprintf("%s: %s decoded with errors in %d sectors (%d checksum, %d missing)",
		r.Format, r.Type, r.Errors(),
		r.Count(SectorAddressChecksum|SectorDataChecksum), r.Count(SectorMissing))
}

func (r *Report) String() string {
	var b strings.Builder
	b.WriteString(r.Message())
	b.WriteString("\n")
	for _, t := range r.Tracks {
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	return b.String()
}
