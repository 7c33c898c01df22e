package main

/*
nibm8 converts Apple II and Agat floppy images between physical track
containers (.nib, .nic, .hfe, .mfm, .aim) and logical sector images
(.dsk, .do, .po, .cpm, .2mg).

Decoding reports every sector whose address or data field failed its
checksum, went missing, or turned up on the wrong track.
*/

import (
	"fmt"
	"os"
	"runtime"

	"github.com/paleotronic/nibm8/disk"
	"github.com/paleotronic/nibm8/loggy"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func binpath() string {

	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE") + "/NibM8"
	}
	return os.Getenv("HOME") + "/NibM8"

}

var verbose bool
var logDir string

var rootCmd = &cobra.Command{
	Use:   "nibm8",
	Short: "Apple II / Agat physical track codec",
	Long: `nibm8 decodes physical floppy track images (.nib .nic .hfe .mfm .aim)
into logical sector images (.dsk .do .po .cpm .2mg) and encodes them back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loggy.ECHO = verbose
		if verbose {
			loggy.MinLevel = loggy.LevelDebug
		}
		loggy.LogFolder = logDir
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr, including per track detail")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Folder for log files (empty disables file logging)")
}

func main() {
	err := rootCmd.Execute()
	loggy.Close()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	// integrity problems exit 1, everything else 2
	if errors.Cause(err) == disk.ErrIntegrity {
		os.Exit(1)
	}
	os.Exit(2)
}
