package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paleotronic/nibm8/disk"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:                   "detect FILE...",
	Short:                 "Identify disk image files",
	Long:                  `Identify the container or logical image type of each file and print its SHA-256 checksum.`,
	Args:                  cobra.MinimumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, filename := range args {
			data, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			if err := describe(cmd.OutOrStdout(), filename, data); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", filename, err)
			}
		}
		return nil
	},
}

// describe prints what a file looks like without decoding its tracks.
func describe(w io.Writer, filename string, data []byte) error {
	if disk.Is2MG(data) {
		h := &disk.Header2MG{}
		h.SetData(data[:disk.PREAMBLE_2MG_SIZE])
		fmt.Fprintf(w, "%s: 2mg image (format %d, creator %q, volume %d), %d bytes\n",
			filename, h.GetImageFormat(), h.GetCreatorID(), h.GetVolume(), len(data))
	} else if order, ok := disk.LogicalOrder(filename); ok {
		id := disk.DiskTypeForSize(len(data))
		if id == disk.DT_NONE {
			return errors.Wrapf(disk.ErrBadSize, "%d bytes", len(data))
		}
		fmt.Fprintf(w, "%s: %s order sector image, %s, %d bytes\n", filename, order, disk.GetDiskType(id), len(data))
	} else {
		c, id, err := disk.DetectContainer(data, filename)
		if err != nil {
			return err
		}
		kind := "unrecognized layout"
		if id != disk.DT_NONE {
			kind = disk.GetDiskType(id).String()
		}
		fmt.Fprintf(w, "%s: %s (%s), %s, %d bytes\n", filename, c.Name(), c.Description(), kind, len(data))
	}
	fmt.Fprintf(w, "  sha256 %s\n", disk.Checksum(data))
	return nil
}

var readFlags codecFlags

var readCmd = &cobra.Command{
	Use:   "read INPUT OUTPUT",
	Short: "Decode a track image into a sector image",
	Long: `Decode the physical tracks of INPUT (.nib .nic .hfe .mfm .aim) into a
logical sector image. The sector order of OUTPUT follows its extension.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !disk.IsLogical(args[1]) {
			return errors.Wrapf(disk.ErrUnsupported, "%s is not a sector image name", args[1])
		}
		return convert(cmd, &readFlags, args[0], args[1])
	},
}

var writeFlags codecFlags

var writeCmd = &cobra.Command{
	Use:   "write INPUT OUTPUT",
	Short: "Encode a sector image into a track image",
	Long: `Encode the logical sector image INPUT (.dsk .do .po .cpm .2mg) into the
physical track container named by OUTPUT or --format.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !disk.IsLogical(args[0]) {
			return errors.Wrapf(disk.ErrUnsupported, "%s is not a sector image name", args[0])
		}
		c, err := outputContainer(args[1], writeFlags.format)
		if err != nil {
			return err
		}
		if c == nil {
			return errors.Wrapf(disk.ErrUnsupported, "%s is not a track image name", args[1])
		}
		return convert(cmd, &writeFlags, args[0], args[1])
	},
}

var convertFlags codecFlags

var convertCmd = &cobra.Command{
	Use:   "convert INPUT OUTPUT",
	Short: "Convert between any two supported formats",
	Long: `Read INPUT in any supported format and store it as OUTPUT. Track images
are decoded first; --format selects the output container.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convert(cmd, &convertFlags, args[0], args[1])
	},
}

func convert(cmd *cobra.Command, cf *codecFlags, in, out string) error {
	opts, err := cf.options(cmd.Flags())
	if err != nil {
		return err
	}
	l, err := loadFile(in, opts, "")
	if err != nil {
		if l != nil && l.Report != nil {
			fmt.Fprintln(cmd.OutOrStdout(), l.Report.String())
		}
		return err
	}
	if err := cf.reinterpret(l, opts); err != nil {
		return err
	}
	if l.Report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), l.Report.Message())
	}
	if err := saveFile(l.Image, out, cf.format, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", in, out)
	return nil
}

var verifyFlags codecFlags

var verifyCmd = &cobra.Command{
	Use:   "verify FILE...",
	Short: "Decode track images and report integrity errors",
	Long: `Decode every track of each FILE and print a per track sector map.
The exit status is 1 when any sector failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := verifyFlags.options(cmd.Flags())
		if err != nil {
			return err
		}
		opts.Strict = false
		w := cmd.OutOrStdout()
		bad := 0
		for _, filename := range args {
			l, err := loadFile(filename, opts, verifyFlags.format)
			if err != nil {
				return errors.Wrap(err, filename)
			}
			if l.Report == nil {
				fmt.Fprintf(w, "%s: %s sector image, nothing to verify\n", filename, l.Source())
				continue
			}
			fmt.Fprintf(w, "%s\n%s\n", filename, l.Report)
			for _, p := range l.Report.Problems() {
				fmt.Fprintf(w, "  %s\n", p)
			}
			if !l.Report.Clean() {
				bad++
			}
		}
		if bad > 0 {
			return errors.Wrapf(disk.ErrIntegrity, "%d of %d files", bad, len(args))
		}
		return nil
	},
}

func init() {
	readFlags.register(readCmd.Flags(), false)
	writeFlags.register(writeCmd.Flags(), true)
	convertFlags.register(convertCmd.Flags(), true)
	verifyFlags.register(verifyCmd.Flags(), true)
	rootCmd.AddCommand(detectCmd, readCmd, writeCmd, convertCmd, verifyCmd)
}
