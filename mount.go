package main

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/paleotronic/nibm8/disk"
	"github.com/spf13/cobra"
)

// diskRoot is the root directory of a mounted disk:
//
//	image.dsk        the logical sector image
//	report.txt       decode report, or a note for sector images
//	tracks/TT.H.bin  one file per track side
type diskRoot struct {
	fs.Inode

	image    *disk.Image
	report   *disk.Report
	source   string
	loadedAt time.Time
}

var _ = (fs.NodeOnAdder)((*diskRoot)(nil))

func newDiskRoot(l *loaded) *diskRoot {
	return &diskRoot{
		image:    l.Image,
		report:   l.Report,
		source:   l.Filename,
		loadedAt: time.Now(),
	}
}

// imageData is in DOS order for 140k disks and in the image order for 840k.
func (d *diskRoot) imageData() ([]byte, error) {
	return disk.SaveImage(d.image, "image.dsk")
}

func (d *diskRoot) reportText() []byte {
	if d.report == nil {
		return []byte(fmt.Sprintf("%s: sector image, %s\nsha256 %s\n", d.source, d.image, d.image.Checksum()))
	}
	text := fmt.Sprintf("%s\n%s", d.source, d.report)
	for _, p := range d.report.Problems() {
		text += "  " + p + "\n"
	}
	return []byte(text)
}

func trackName(track, head int) string {
	return fmt.Sprintf("%02d.%d.bin", track, head)
}

func (d *diskRoot) OnAdd(ctx context.Context) {
	p := &d.Inode

	data, err := d.imageData()
	if err != nil {
		data = d.image.Data
	}

	mtime := d.loadedAt
	p.AddChild("image.dsk", p.NewPersistentInode(ctx, &memFile{data: data, mtime: mtime}, fs.StableAttr{Ino: 2}), true)
	p.AddChild("report.txt", p.NewPersistentInode(ctx, &memFile{data: d.reportText(), mtime: mtime}, fs.StableAttr{Ino: 3}), true)

	dir := p.NewPersistentInode(ctx, &fs.Inode{}, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: 4})
	p.AddChild("tracks", dir, true)

	dt := d.image.Type
	for t := 0; t < dt.Tracks; t++ {
		for h := 0; h < dt.Heads; h++ {
			tr, err := d.image.Track(t, h)
			if err != nil {
				continue
			}
			child := dir.NewPersistentInode(ctx, &memFile{data: tr, mtime: mtime}, fs.StableAttr{
				Ino: 1000 + uint64(t*dt.Heads+h),
			})
			dir.AddChild(trackName(t, h), child, true)
		}
	}
}

// memFile is a read-only file backed by a byte slice.
type memFile struct {
	fs.Inode

	data  []byte
	mtime time.Time
}

var _ = (fs.NodeReader)((*memFile)(nil))
var _ = (fs.NodeOpener)((*memFile)(nil))
var _ = (fs.NodeGetattrer)((*memFile)(nil))

func (f *memFile) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off < 0 {
		return fuse.ReadResultData([]byte{}), syscall.EINVAL
	}
	if off >= int64(len(f.data)) {
		return fuse.ReadResultData([]byte{}), 0
	}

	end := off + int64(len(dest))
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}

	return fuse.ReadResultData(f.data[off:end]), 0
}

func (f *memFile) Open(ctx context.Context, openFlags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	if openFlags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (f *memFile) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0444
	out.Size = uint64(len(f.data))
	out.Mtime = uint64(f.mtime.Unix())
	out.Ctime = uint64(f.mtime.Unix())
	return 0
}

var mountFlags codecFlags
var mountDebug bool

var mountCmd = &cobra.Command{
	Use:   "mount IMAGE MOUNTPOINT",
	Short: "Mount a decoded disk as a read-only filesystem",
	Long: `Decode IMAGE and expose it under MOUNTPOINT as image.dsk, report.txt
and one tracks/TT.H.bin file per track side. Unmount to exit.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := mountFlags.options(cmd.Flags())
		if err != nil {
			return err
		}
		l, err := loadFile(args[0], opts, mountFlags.format)
		if err != nil {
			return err
		}
		if l.Report != nil {
			fmt.Fprintln(cmd.OutOrStdout(), l.Report.Message())
		}

		fo := &fs.Options{}
		fo.Debug = mountDebug
		fo.FsName = args[0]
		fo.Name = "nibm8"

		server, err := fs.Mount(args[1], newDiskRoot(l), fo)
		if err != nil {
			return err
		}
		opts.Logger.Logf("mounted %s on %s", args[0], args[1])

		server.Wait()
		return nil
	},
}

func init() {
	mountFlags.register(mountCmd.Flags(), true)
	mountCmd.Flags().BoolVar(&mountDebug, "debug", false, `Print FUSE debug information`)
	rootCmd.AddCommand(mountCmd)
}
