package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paleotronic/nibm8/disk"
	"github.com/paleotronic/nibm8/loggy"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// codecFlags holds the flags shared by the commands that drive the codec.
type codecFlags struct {
	diskType string
	order    string
	volume   uint8
	workers  int
	strict   bool
	format   string
}

func (cf *codecFlags) register(fs *pflag.FlagSet, withFormat bool) {
	fs.StringVarP(&cf.diskType, "type", "t", "", `Disk type (140k|840k), default: from the input`)
	fs.StringVarP(&cf.order, "order", "o", "", `Sector order (dos|prodos|cpm|raw), default: from the file name`)
	fs.Uint8Var(&cf.volume, "volume", disk.DEFAULT_VOLUME, `Volume number for address fields`)
	fs.IntVarP(&cf.workers, "workers", "w", runtime.NumCPU(), `Tracks processed in parallel`)
	fs.BoolVar(&cf.strict, "strict", false, `Fail when any sector has integrity errors`)
	if withFormat {
		fs.StringVarP(&cf.format, "format", "f", "", `Container (nib|nic|hfe|mfm|aim), default: from the file extension`)
	}
}

// options converts the flags into codec options. The volume only
// overrides the image's own volume when it was given explicitly.
func (cf *codecFlags) options(fs *pflag.FlagSet) (disk.Options, error) {
	opts := disk.DefaultOptions()
	opts.Logger = loggy.Get(0)
	opts.Strict = cf.strict
	if cf.workers > 0 {
		opts.Workers = cf.workers
	}
	if cf.diskType != "" {
		id, err := disk.ParseDiskType(cf.diskType)
		if err != nil {
			return opts, err
		}
		opts.Type = id
	}
	if cf.order != "" {
		so, err := disk.ParseSectorOrder(cf.order)
		if err != nil {
			return opts, err
		}
		opts.Order = so
	}
	opts.Volume = 0
	if fs.Changed("volume") {
		if cf.volume == 0 {
			return opts, errors.New("volume must be between 1 and 255")
		}
		opts.Volume = cf.volume
	}
	return opts, nil
}

// decodeOptions are options for reading: the volume falls back to the
// default when no sector yields one.
func decodeOptions(opts disk.Options) disk.Options {
	if opts.Volume == 0 {
		opts.Volume = disk.DEFAULT_VOLUME
	}
	return opts
}

// loaded is an image read from a file along with where it came from.
type loaded struct {
	Filename  string
	Container disk.Container // nil for logical images
	Image     *disk.Image
	Report    *disk.Report // nil unless track data was decoded
}

func (l *loaded) Source() string {
	if l.Container != nil {
		return l.Container.Name()
	}
	if disk.IsLogical(l.Filename) {
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(l.Filename)), ".")
	}
	return "2mg"
}

// loadBytes reads either a logical image or a physical container. Logical
// images are recognised by 2MG magic or extension; anything else goes
// through container detection.
func loadBytes(data []byte, filename string, opts disk.Options, force disk.Container) (*loaded, error) {
	opts = decodeOptions(opts)
	l := &loaded{Filename: filename}

	if force == nil && (disk.Is2MG(data) || disk.IsLogical(filename)) {
		img, report, err := disk.LoadImage(data, filename, opts)
		if img == nil {
			return nil, err
		}
		l.Image, l.Report = img, report
		if report != nil {
			l.Container = disk.NIB
		}
		return l, err
	}

	c := force
	if c == nil {
		var id disk.DiskTypeID
		var err error
		c, id, err = disk.DetectContainer(data, filename)
		if err != nil {
			return nil, err
		}
		if opts.Type == disk.DT_NONE {
			opts.Type = id
		}
	}

	img, report, err := disk.Decode(c, data, opts)
	l.Container, l.Image, l.Report = c, img, report
	if err != nil {
		if img != nil && errors.Cause(err) == disk.ErrIntegrity {
			return l, err
		}
		return nil, err
	}
	return l, nil
}

func loadFile(filename string, opts disk.Options, format string) (*loaded, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var force disk.Container
	if format != "" {
		if force, err = disk.LookupContainer(format); err != nil {
			return nil, err
		}
	}
	l, err := loadBytes(data, filename, opts, force)
	if l != nil && opts.Logger != nil {
		opts.Logger.Logf("loaded %s as %s: %s", filename, l.Source(), l.Image)
	}
	return l, err
}

// outputContainer picks the container for filename, or nil if the file is
// a logical image.
func outputContainer(filename, format string) (disk.Container, error) {
	if format != "" {
		return disk.LookupContainer(format)
	}
	if disk.IsLogical(filename) {
		return nil, nil
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, errors.Wrapf(disk.ErrUnsupported, "cannot tell the output format of %q, use --format", filename)
	}
	return disk.LookupContainer(ext)
}

// renderImage produces the bytes to store img as filename.
func renderImage(img *disk.Image, filename, format string, opts disk.Options) ([]byte, error) {
	c, err := outputContainer(filename, format)
	if err != nil {
		return nil, err
	}
	if c == nil {
		work := *img
		if opts.Volume != 0 {
			work.Volume = opts.Volume
		}
		return disk.SaveImage(&work, filename)
	}
	return disk.Encode(c, img, opts)
}

func saveFile(img *disk.Image, filename, format string, opts disk.Options) error {
	data, err := renderImage(img, filename, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}
	opts.Logger.Logf("wrote %s (%d bytes)", filename, len(data))
	return nil
}

// reinterpret applies an explicit --order to a logical image, whose order
// otherwise comes from its extension. Decoded images already use it.
func (cf *codecFlags) reinterpret(l *loaded, opts disk.Options) error {
	if cf.order == "" || l.Report != nil {
		return nil
	}
	if _, err := disk.InterleaveFor(l.Image.Type.ID, opts.Order); err != nil {
		return err
	}
	l.Image.Order = opts.Order
	return nil
}
