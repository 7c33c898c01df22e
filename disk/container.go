package disk

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/paleotronic/nibm8/loggy"
	"github.com/paleotronic/nibm8/panic"
	"github.com/pkg/errors"
)

// Options configures Decode and Encode.
type Options struct {
	Type    DiskTypeID // DT_NONE takes the type from the container
	Order   SectorOrder
	Volume  byte
	Workers int
	Strict  bool // an unclean decode returns ErrIntegrity
	Logger  *loggy.Logger
}

func DefaultOptions() Options {
	return Options{
		Type:    DT_NONE,
		Order:   SectorOrderDOS33,
		Volume:  DEFAULT_VOLUME,
		Workers: runtime.NumCPU(),
	}
}

// Container is a physical track file format.
type Container interface {
	Name() string
	Description() string
	Extensions() []string
	Supports(id DiskTypeID) bool
	// Probe returns the disk type when data carries this container's
	// signature or exact size, DT_NONE otherwise.
	Probe(data []byte) DiskTypeID
	// Open validates the framing and splits data into tracks.
	Open(data []byte, hint DiskTypeID) (*TrackSet, error)
	// EncodeTrack renders one track side in container form.
	EncodeTrack(img *Image, track, head int, il Interleave) ([]byte, error)
	// Assemble frames rendered tracks, indexed track*heads+head, into a file.
	Assemble(dt DiskType, tracks [][]byte) ([]byte, error)
}

// TrackSet is an opened container: one physical track per side.
type TrackSet struct {
	Type   DiskType
	tracks []physicalTrack
}

func newTrackSet(dt DiskType) *TrackSet {
	return &TrackSet{
		Type:   dt,
		tracks: make([]physicalTrack, dt.Tracks*dt.Heads),
	}
}

func (ts *TrackSet) set(track, head int, t physicalTrack) {
	ts.tracks[track*ts.Type.Heads+head] = t
}

// Tracks is the number of track sides present.
func (ts *TrackSet) Tracks() int {
	n := 0
	for _, t := range ts.tracks {
		if t != nil {
			n++
		}
	}
	return n
}

var registry = []Container{HFE, HXC_MFM, NIB, NIC, AIM}

func Containers() []Container {
	return append([]Container(nil), registry...)
}

// LookupContainer finds a container by name or file extension.
func LookupContainer(name string) (Container, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	for _, c := range registry {
		if c.Name() == name {
			return c, nil
		}
		for _, ext := range c.Extensions() {
			if ext == name {
				return c, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrUnsupported, "no container named %q", name)
}

// DetectContainer identifies a physical container by signature, then by
// exact size, then by the file name extension.
func DetectContainer(data []byte, filename string) (Container, DiskTypeID, error) {
	for _, c := range registry {
		if id := c.Probe(data); id != DT_NONE {
			return c, id, nil
		}
	}
	if ext := filepath.Ext(filename); ext != "" {
		if c, err := LookupContainer(ext); err == nil {
			return c, DT_NONE, nil
		}
	}
	return nil, DT_NONE, errors.Wrapf(ErrUnsupported, "%d bytes, name %q", len(data), filename)
}

type trackJob struct {
	index, track, head int
}

// forEachTrack fans the track sides of dt out to opts.Workers goroutines.
// The first error stops nothing but is returned once all jobs finish.
func forEachTrack(dt DiskType, opts Options, job func(index, track, head int) error) error {
	total := dt.Tracks * dt.Heads
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	jobs := make(chan trackJob, total)
	for t := 0; t < dt.Tracks; t++ {
		for h := 0; h < dt.Heads; h++ {
			jobs <- trackJob{index: t*dt.Heads + h, track: t, head: h}
		}
	}
	close(jobs)

	var wg sync.WaitGroup
	var em sync.Mutex
	var first error

	fail := func(err error) {
		em.Lock()
		if first == nil {
			first = err
		}
		em.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				panic.Do(
					func() {
						if err := job(j.index, j.track, j.head); err != nil {
							fail(err)
						}
					},
					func(r interface{}) {
						opts.Logger.Errorf("T%02d.%d: %v", j.track, j.head, r)
						fail(errors.Errorf("track %d head %d: %v", j.track, j.head, r))
					},
				)
			}
		}()
	}
	wg.Wait()

	return first
}

// Decode reads every track of a container into a new Image.
func Decode(c Container, data []byte, opts Options) (*Image, *Report, error) {
	log := opts.Logger

	ts, err := c.Open(data, opts.Type)
	if err != nil {
		return nil, nil, errors.Wrap(err, c.Name())
	}

	il, err := InterleaveFor(ts.Type.ID, opts.Order)
	if err != nil {
		return nil, nil, err
	}

	img, err := NewImage(ts.Type.ID, opts.Order)
	if err != nil {
		return nil, nil, err
	}
	img.Volume = opts.Volume

	report := &Report{
		Format: c.Name(),
		Type:   ts.Type,
		Order:  opts.Order,
		Tracks: make([]TrackResult, len(ts.tracks)),
	}
	for i := range report.Tracks {
		report.Tracks[i] = newTrackResult(i/ts.Type.Heads, i%ts.Type.Heads, ts.Type.Sectors, il)
	}

	err = forEachTrack(ts.Type, opts, func(index, track, head int) error {
		pt := ts.tracks[index]
		if pt == nil {
			log.Debugf("T%02d.%d: not present in %s", track, head, c.Name())
			return nil
		}
		report.Tracks[index] = pt.load(img, track, head, il, log)
		log.Debugf("%s", report.Tracks[index].String())
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	img.Volume = report.firstVolume(opts.Volume)
	report.Volume = img.Volume

	log.Logf("%s", report.Message())

	if opts.Strict && !report.Clean() {
		return img, report, errors.Wrap(ErrIntegrity, report.Message())
	}
	return img, report, nil
}

func (r *Report) firstVolume(def byte) byte {
	for _, t := range r.Tracks {
		for _, s := range t.Sectors {
			if s.Status.Clean() {
				return s.Volume
			}
		}
	}
	return def
}

// Encode renders an Image into a container. The image's own sector order
// decides which logical sector lands on each physical sector.
func Encode(c Container, img *Image, opts Options) ([]byte, error) {
	if !c.Supports(img.Type.ID) {
		return nil, errors.Wrapf(ErrGeometry, "%s cannot hold %s", c.Name(), img.Type)
	}
	if len(img.Data) != img.Type.Size() {
		return nil, errors.Wrapf(ErrBadSize, "image holds %d bytes, expected %d", len(img.Data), img.Type.Size())
	}

	il, err := InterleaveFor(img.Type.ID, img.Order)
	if err != nil {
		return nil, err
	}

	work := *img
	if opts.Volume != 0 {
		work.Volume = opts.Volume
	}

	tracks := make([][]byte, img.Type.Tracks*img.Type.Heads)
	err = forEachTrack(img.Type, opts, func(index, track, head int) error {
		t, err := c.EncodeTrack(&work, track, head, il)
		if err != nil {
			return errors.Wrapf(err, "track %d head %d", track, head)
		}
		tracks[index] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := c.Assemble(img.Type, tracks)
	if err != nil {
		return nil, err
	}
	opts.Logger.Logf("%s: encoded %s as %d bytes", c.Name(), img.Type, len(out))
	return out, nil
}

// checkHint rejects a caller supplied disk type that differs from the one
// the container describes.
func checkHint(name string, hint, found DiskTypeID) error {
	if hint != DT_NONE && hint != found {
		return errors.Wrapf(ErrGeometry, "%s holds a %v disk, %v requested", name, found, hint)
	}
	return nil
}

// encodeCells renders a track as cells for the bitstream containers.
func encodeCells(img *Image, track, head int, il Interleave) ([]byte, error) {
	if img.Type.Encoding == EncodingAgatMFM {
		syms, err := BuildAgatTrack(img, track, head, il, AGAT_MFM_LAYOUT)
		if err != nil {
			return nil, err
		}
		return EncodeAgatMFMSymbols(syms), nil
	}
	nibbles, err := BuildGCRTrack(img, track, head, il, GCR_BITSTREAM_LAYOUT)
	if err != nil {
		return nil, err
	}
	return SpreadGCR(nibbles), nil
}

// cellTrack wraps cells from a bitstream container in the right scanner.
func cellTrack(enc Encoding, cells []byte) physicalTrack {
	if enc == EncodingAgatMFM {
		return agatCellTrack(cells)
	}
	return gcrCellTrack(cells)
}

// diskTypeForGeometry maps track and side counts found in a header.
func diskTypeForGeometry(tracks, sides int) DiskTypeID {
	for _, id := range []DiskTypeID{DT_140K, DT_840K} {
		dt := GetDiskType(id)
		if dt.Tracks == tracks && dt.Heads == sides {
			return id
		}
	}
	return DT_NONE
}
