package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/paleotronic/nibm8/disk"
	"github.com/paleotronic/nibm8/loggy"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const MAXVOL = 8

var commandList map[string]*shellCommand
var commandVolumes [MAXVOL]*loaded
var commandTarget int = -1
var commandOptions = disk.DefaultOptions()

var shellOut io.Writer = os.Stdout

func mountDsk(l *loaded) (int, error) {

	var fr []int

	for i, d := range commandVolumes {
		if d == nil {
			fr = append(fr, i)
		} else if l.Filename == d.Filename {
			commandVolumes[i] = l
			return i, nil
		}
	}

	if len(fr) == 0 {
		return -1, errors.New("No free slots")
	}

	commandVolumes[fr[0]] = l

	return fr[0], nil

}

func current() *loaded {
	if commandTarget < 0 || commandTarget >= MAXVOL {
		return nil
	}
	return commandVolumes[commandTarget]
}

func smartSplit(line string) (string, []string) {

	var out []string

	var inqq bool
	var lastEscape bool
	var chunk string

	add := func() {
		if chunk != "" {
			out = append(out, chunk)
			chunk = ""
		}
	}

	for _, ch := range line {
		switch {
		case ch == '"':
			inqq = !inqq
			add()
		case ch == ' ':
			if inqq || lastEscape {
				chunk += string(ch)
			} else {
				add()
			}
			lastEscape = false
		case ch == '\\' && !inqq:
			lastEscape = true
		default:
			chunk += string(ch)
		}
	}

	add()

	if len(out) == 0 {
		return "", out
	}

	return out[0], out[1:]
}

func getPrompt(t int) string {

	if t == -1 || commandVolumes[t] == nil {
		return fmt.Sprintf("nib:%d:%s> ", 0, "<no disk>")
	}

	l := commandVolumes[t]
	return fmt.Sprintf("nib:%d:%s:%s> ", t, filepath.Base(l.Filename), l.Image.Order)
}

type shellCommand struct {
	Name             string
	Description      string
	MinArgs, MaxArgs int
	Code             func(args []string) int
	NeedsMount       bool
	Context          shellCommandContext
	Text             []string
}

type shellCommandContext int

const (
	sccNone shellCommandContext = 1 << iota
	sccLocal
	sccCommand
	sccOrder
	sccContainer
)

type shellCompleter struct {
}

func hasPrefix(str []rune, prefix []rune) bool {
	if len(prefix) > len(str) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if str[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (sc *shellCompleter) Do(line []rune, pos int) ([][]rune, int) {

	prefix := ""
	chunk := ""
	for _, ch := range line {
		if ch == ' ' {
			prefix = chunk
			break
		} else {
			chunk += string(ch)
		}
	}

	chunk = ""
	cprefix := ""
	var lastEscape bool
	for i := 0; i < pos; i++ {
		ch := line[i]
		switch {
		case ch == '\\':
			lastEscape = true
		case ch == ' ' && !lastEscape:
			cprefix = chunk
			chunk = ""
			lastEscape = false
		default:
			chunk += string(ch)
		}
	}
	if chunk != "" {
		cprefix = chunk
	}

	var context shellCommandContext = sccNone
	cmd, match := commandList[prefix]
	if match {
		context = cmd.Context
	} else {
		context = sccCommand
	}

	var items [][]rune
	switch context {
	case sccCommand:
		for k := range commandList {
			items = append(items, []rune(k))
		}
	case sccOrder:
		for _, o := range []string{"dos", "prodos", "cpm", "raw"} {
			items = append(items, []rune(o))
		}
	case sccContainer:
		for _, c := range disk.Containers() {
			items = append(items, []rune(c.Name()))
		}
	case sccLocal:
		files, err := filepath.Glob(cprefix + "*")
		if err != nil {
			return items, 0
		}
		for _, v := range files {
			items = append(items, []rune(v))
		}
	}

	if len(items) == 0 {
		return [][]rune(nil), 0
	}

	var filt [][]rune
	for _, v := range items {
		if hasPrefix(v, []rune(cprefix)) {
			filt = append(filt, shellEscape(v[len(cprefix):]))
		}
	}
	return filt, len(cprefix)
}

func shellEscape(str []rune) []rune {
	out := make([]rune, 0)
	for _, v := range str {
		if v == ' ' {
			out = append(out, '\\')
		}
		out = append(out, v)
	}
	return out
}

func init() {
	commandList = map[string]*shellCommand{
		"mount": &shellCommand{
			Name:        "mount",
			Description: "Load a disk image into a slot",
			MinArgs:     1,
			MaxArgs:     2,
			Code:        shellMount,
			NeedsMount:  false,
			Context:     sccLocal,
			Text: []string{
				"mount <diskfile> [<container>]",
				"",
				"Decodes a track image (or loads a sector image) and switches to",
				"the new slot. The container is detected unless given.",
			},
		},
		"unmount": &shellCommand{
			Name:        "unmount",
			Description: "Release a slot",
			MinArgs:     0,
			MaxArgs:     1,
			Code:        shellUnmount,
			NeedsMount:  true,
			Context:     sccNone,
			Text: []string{
				"unmount <slot>",
				"",
				"Unmount the disk in the specified slot (or current slot)",
			},
		},
		"help": &shellCommand{
			Name:        "help",
			Description: "Shows this help",
			MinArgs:     0,
			MaxArgs:     1,
			Code:        shellHelp,
			NeedsMount:  false,
			Context:     sccCommand,
			Text: []string{
				"help <command>",
				"",
				"Display specific help for command or list of commands",
			},
		},
		"info": &shellCommand{
			Name:        "info",
			Description: "Information about the current disk",
			MinArgs:     0,
			MaxArgs:     0,
			Code:        shellInfo,
			NeedsMount:  true,
			Context:     sccNone,
			Text: []string{
				"info",
				"",
				"Source format, disk type, sector order, volume and checksum.",
			},
		},
		"report": &shellCommand{
			Name:        "report",
			Description: "Per track sector map of the last decode",
			MinArgs:     0,
			MaxArgs:     0,
			Code:        shellReport,
			NeedsMount:  true,
			Context:     sccNone,
			Text: []string{
				"report",
				"",
				"One line per track side: '.' clean, '-' not found, 'X' damaged,",
				"followed by every damaged sector.",
			},
		},
		"sector": &shellCommand{
			Name:        "sector",
			Description: "Hex dump a logical sector",
			MinArgs:     2,
			MaxArgs:     3,
			Code:        shellSector,
			NeedsMount:  true,
			Context:     sccNone,
			Text: []string{
				"sector <track> <sector> [<head>]",
				"",
				"Numbers may be decimal or $hex.",
			},
		},
		"track": &shellCommand{
			Name:        "track",
			Description: "Hex dump the logical sectors of a track",
			MinArgs:     1,
			MaxArgs:     2,
			Code:        shellTrack,
			NeedsMount:  true,
			Context:     sccNone,
			Text: []string{
				"track <track> [<head>]",
			},
		},
		"raw": &shellCommand{
			Name:        "raw",
			Description: "Hex dump a track as the container would store it",
			MinArgs:     1,
			MaxArgs:     3,
			Code:        shellRaw,
			NeedsMount:  true,
			Context:     sccContainer,
			Text: []string{
				"raw <track> [<head>] [<container>]",
				"",
				"Encodes one track side and dumps the result, using the",
				"container the disk came from unless one is named.",
			},
		},
		"order": &shellCommand{
			Name:        "order",
			Description: "Change the sector order of the current disk",
			MinArgs:     1,
			MaxArgs:     1,
			Code:        shellOrder,
			NeedsMount:  true,
			Context:     sccOrder,
			Text: []string{
				"order <dos|prodos|cpm|raw>",
				"",
				"Moves sectors so the image is in the named order.",
			},
		},
		"volume": &shellCommand{
			Name:        "volume",
			Description: "Set the volume number used when encoding",
			MinArgs:     1,
			MaxArgs:     1,
			Code:        shellVolume,
			NeedsMount:  true,
			Context:     sccNone,
			Text: []string{
				"volume <1-255>",
			},
		},
		"save": &shellCommand{
			Name:        "save",
			Description: "Write the current disk to a file",
			MinArgs:     1,
			MaxArgs:     2,
			Code:        shellSave,
			NeedsMount:  true,
			Context:     sccLocal,
			Text: []string{
				"save <file> [<container>]",
				"",
				"The extension picks a sector image (.dsk .do .po .cpm .2mg) or",
				"a track container. Existing files are backed up first.",
			},
		},
		"formats": &shellCommand{
			Name:        "formats",
			Description: "List track containers",
			MinArgs:     0,
			MaxArgs:     0,
			Code:        shellFormats,
			NeedsMount:  false,
			Context:     sccNone,
		},
		"quit": &shellCommand{
			Name:        "quit",
			Description: "Leave this place",
			MinArgs:     -1,
			MaxArgs:     -1,
			Code:        shellQuit,
			NeedsMount:  false,
			Context:     sccNone,
		},
		"disks": &shellCommand{
			Name:        "disks",
			Description: "List mounted slots",
			MinArgs:     0,
			MaxArgs:     0,
			Code:        shellDisks,
			NeedsMount:  false,
			Context:     sccNone,
		},
		"target": &shellCommand{
			Name:        "target",
			Description: "Select the slot other commands act on",
			MinArgs:     1,
			MaxArgs:     1,
			Code:        shellPrefix,
			NeedsMount:  false,
			Context:     sccNone,
			Text: []string{
				"target <slot>",
			},
		},
		"ls": &shellCommand{
			Name:        "ls",
			Description: "List local files and what they contain",
			MinArgs:     0,
			MaxArgs:     -1,
			Code:        shellListFiles,
			NeedsMount:  false,
			Context:     sccLocal,
		},
		"cd": &shellCommand{
			Name:        "cd",
			Description: "Change local directory",
			MinArgs:     0,
			MaxArgs:     1,
			Code:        shellCd,
			NeedsMount:  false,
			Context:     sccLocal,
		},
	}
}

func shellProcess(line string) int {
	line = strings.TrimSpace(line)

	verb, args := smartSplit(line)

	if verb != "" {
		verb = strings.ToLower(verb)
		if verb == "exit" {
			verb = "quit"
		}
		command, ok := commandList[verb]
		if ok {
			var cok = true
			if command.MinArgs != -1 {
				if len(args) < command.MinArgs {
					os.Stderr.WriteString(fmt.Sprintf("%s expects at least %d arguments\n", verb, command.MinArgs))
					cok = false
				}
			}
			if command.MaxArgs != -1 {
				if len(args) > command.MaxArgs {
					os.Stderr.WriteString(fmt.Sprintf("%s expects at most %d arguments\n", verb, command.MaxArgs))
					cok = false
				}
			}
			if command.NeedsMount {
				if current() == nil {
					os.Stderr.WriteString(fmt.Sprintf("%s only works on mounted disks\n", verb))
					cok = false
				}
			}
			if cok {
				return command.Code(args)
			}
			return -1
		}
		os.Stderr.WriteString(fmt.Sprintf("Unrecognized command: %s\n", verb))
		return -1
	}

	return 0
}

func shellDo() {

	ac := &shellCompleter{}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 getPrompt(commandTarget),
		HistoryFile:            binpath() + "/.shell_history",
		DisableAutoSaveHistory: false,
		AutoComplete:           ac,
	})
	if err != nil {
		loggy.Get(0).Errorf("readline: %v", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}

		r := shellProcess(line)
		if r == 999 {
			return
		}

		rl.SetPrompt(getPrompt(commandTarget))
	}

}

// shellBatch runs one command per line and stops at the first failure.
func shellBatch(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	for i, l := range strings.Split(string(data), "\n") {
		switch shellProcess(l) {
		case -1:
			return errors.Errorf("script failed at line %d: %s", i+1, l)
		case 999:
			return nil
		}
	}
	return nil
}

func parseNumber(s string) (int, error) {
	base := 10
	if strings.HasPrefix(s, "$") {
		s, base = s[1:], 16
	} else if strings.HasPrefix(strings.ToLower(s), "0x") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseInt(s, base, 32)
	return int(v), err
}

func parseNumbers(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := parseNumber(a)
		if err != nil {
			return nil, errors.Errorf("invalid number: %s", a)
		}
		out[i] = v
	}
	return out, nil
}

func shellMount(args []string) int {

	format := ""
	if len(args) > 1 {
		format = args[1]
	}

	l, err := loadFile(args[0], commandOptions, format)
	if l == nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return -1
	}

	slotid, err := mountDsk(l)
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return -1
	}

	commandTarget = slotid
	if l.Report != nil {
		fmt.Fprintln(shellOut, l.Report.Message())
	}
	os.Stderr.WriteString(fmt.Sprintf("mount disk in slot %d\n", slotid))

	return 0
}

func shellUnmount(args []string) int {

	if len(args) > 0 {
		if shellPrefix(args) == -1 {
			return -1
		}
	}

	if commandVolumes[commandTarget] != nil {

		commandVolumes[commandTarget] = nil
		commandTarget = -1

		os.Stderr.WriteString("Unmounted volume\n")

	}

	return 0
}

func shellHelp(args []string) int {

	if len(args) == 0 {
		keys := make([]string, 0)
		for k := range commandList {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			info := commandList[k]
			fmt.Fprintf(shellOut, "%-10s %s\n", info.Name, info.Description)
		}
	} else {
		command := strings.ToLower(args[0])
		if details, ok := commandList[command]; ok && details.Text != nil {
			for _, l := range details.Text {
				fmt.Fprintln(shellOut, l)
			}
		} else {
			os.Stderr.WriteString("No help available for " + command + "\n")
		}
	}

	return 0
}

func shellInfo(args []string) int {

	l := current()
	fullpath, _ := filepath.Abs(l.Filename)

	fmt.Fprintf(shellOut, "Disk path   : %s\n", fullpath)
	fmt.Fprintf(shellOut, "Source      : %s\n", l.Source())
	fmt.Fprintf(shellOut, "Disk type   : %s\n", l.Image.Type)
	fmt.Fprintf(shellOut, "Geometry    : %d tracks, %d heads, %d sectors of %d bytes\n",
		l.Image.Type.Tracks, l.Image.Type.Heads, l.Image.Type.Sectors, l.Image.Type.SectorSize)
	fmt.Fprintf(shellOut, "Sector Order: %s\n", l.Image.Order)
	fmt.Fprintf(shellOut, "Volume      : %d\n", l.Image.Volume)
	fmt.Fprintf(shellOut, "Size        : %d bytes\n", len(l.Image.Data))
	fmt.Fprintf(shellOut, "SHA256      : %s\n", l.Image.Checksum())
	if l.Report != nil {
		fmt.Fprintf(shellOut, "Decode      : %s\n", l.Report.Message())
	}

	return 0
}

func shellReport(args []string) int {
	l := current()
	if l.Report == nil {
		fmt.Fprintf(shellOut, "%s was loaded as a sector image, no tracks were decoded\n", l.Filename)
		return 0
	}
	fmt.Fprint(shellOut, l.Report.String())
	for _, p := range l.Report.Problems() {
		fmt.Fprintln(shellOut, "  "+p)
	}
	return 0
}

func shellSector(args []string) int {
	n, err := parseNumbers(args)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	head := 0
	if len(n) > 2 {
		head = n[2]
	}
	img := current().Image
	data, err := img.Sector(n[0], head, n[1])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	off, _ := img.Offset(n[0], head, n[1])
	disk.Dump(shellOut, data, off)
	return 0
}

func shellTrack(args []string) int {
	n, err := parseNumbers(args)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	head := 0
	if len(n) > 1 {
		head = n[1]
	}
	img := current().Image
	data, err := img.Track(n[0], head)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	off, _ := img.Offset(n[0], head, 0)
	disk.Dump(shellOut, data, off)
	return 0
}

func shellRaw(args []string) int {
	l := current()

	c := l.Container
	if len(args) > 1 {
		if tc, err := disk.LookupContainer(args[len(args)-1]); err == nil {
			c = tc
			args = args[:len(args)-1]
		}
	}
	if c == nil {
		c = disk.HFE
	}
	n, err := parseNumbers(args)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	head := 0
	if len(n) > 1 {
		head = n[1]
	}
	if !c.Supports(l.Image.Type.ID) {
		os.Stderr.WriteString(fmt.Sprintf("%s cannot hold a %s disk\n", c.Name(), l.Image.Type.ID))
		return -1
	}
	il, err := disk.InterleaveFor(l.Image.Type.ID, l.Image.Order)
	if err == nil {
		_, err = l.Image.Offset(n[0], head, 0)
	}
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	data, err := c.EncodeTrack(l.Image, n[0], head, il)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	fmt.Fprintf(shellOut, "%s track %d head %d, %d bytes\n", c.Name(), n[0], head, len(data))
	disk.Dump(shellOut, data, 0)
	return 0
}

func shellOrder(args []string) int {
	so, err := disk.ParseSectorOrder(args[0])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	l := current()
	img, err := l.Image.Reorder(so)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return -1
	}
	l.Image = img
	fmt.Fprintf(shellOut, "Sector order is now %s\n", so)
	return 0
}

func shellVolume(args []string) int {
	v, err := parseNumber(args[0])
	if err != nil || v < 1 || v > 255 {
		os.Stderr.WriteString("Volume must be between 1 and 255\n")
		return -1
	}
	current().Image.Volume = byte(v)
	return 0
}

func fts() string {
	t := time.Now()
	return fmt.Sprintf(
		"%.4d%.2d%.2d%.2d%.2d%.2d",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
	)
}

func backupFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	path, _ = filepath.Abs(path)
	path = strings.Replace(path, ":", "", -1)
	path = strings.Replace(path, "\\", "/", -1)

	bpath := binpath() + "/backup/" + path + "." + fts()
	os.MkdirAll(filepath.Dir(bpath), 0755)

	if err := os.WriteFile(bpath, data, 0644); err != nil {
		return err
	}

	os.Stderr.WriteString("Backed up disk to: " + bpath + "\n")

	return nil
}

func shellSave(args []string) int {
	format := ""
	if len(args) > 1 {
		format = args[1]
	}

	if _, err := os.Stat(args[0]); err == nil {
		if err := backupFile(args[0]); err != nil {
			os.Stderr.WriteString("Backup failed: " + err.Error() + "\n")
			return -1
		}
	}

	opts := commandOptions
	opts.Volume = 0
	if err := saveFile(current().Image, args[0], format, opts); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return -1
	}
	fmt.Fprintln(shellOut, "Saved disk "+args[0])
	return 0
}

func shellFormats(args []string) int {
	for _, c := range disk.Containers() {
		fmt.Fprintf(shellOut, "%-5s %-40s .%s\n", c.Name(), c.Description(), strings.Join(c.Extensions(), " ."))
	}
	return 0
}

func shellQuit(args []string) int {

	return 999

}

func shellDisks(args []string) int {

	fmt.Fprintln(shellOut, "Mounted Volumes")
	for i, d := range commandVolumes {
		if d != nil {
			fmt.Fprintf(shellOut, "%d:%s (%s, %s)\n", i, d.Filename, d.Source(), d.Image.Type.ID)
		}
	}

	return 0
}

func shellPrefix(args []string) int {

	slotid, err := parseNumber(args[0])
	if err != nil {
		os.Stderr.WriteString("Invalid slot number: " + args[0] + "\n")
		return -1
	}

	if slotid < 0 || slotid >= MAXVOL {
		os.Stderr.WriteString(fmt.Sprintf("Valid slots are %d to %d.\n", 0, MAXVOL-1))
		return -1
	}

	d := commandVolumes[slotid]
	if d == nil {
		os.Stderr.WriteString(fmt.Sprintf("Nothing mounted in slot %d (use disks to see mounts)\n", slotid))
		return -1
	}

	commandTarget = slotid

	return 0

}

func shellCd(args []string) int {

	if len(args) > 0 {
		err := os.Chdir(args[0])
		if err != nil {
			os.Stderr.WriteString("Change directory failed: " + err.Error() + "\n")
			return -1
		}
	}

	wd, _ := os.Getwd()
	os.Stderr.WriteString("Working directory is now " + wd + "\n")
	return 0

}

func shellListFiles(args []string) int {

	if len(args) == 0 {
		wd, _ := os.Getwd()
		args = append(args, wd+"/*.*")
	}

	fmt.Fprintf(shellOut, "%8s  %-24s  %s\n", "BYTES", "KIND", "NAME")
	for _, a := range args {

		files, err := filepath.Glob(a)
		if err != nil {
			os.Stderr.WriteString("Error reading path " + a + ": " + err.Error() + "\n")
			continue
		}

		for _, f := range files {
			fi, err := os.Stat(f)
			if err != nil || fi.IsDir() {
				continue
			}
			fmt.Fprintf(shellOut, "%8d  %-24s  %s\n", fi.Size(), fileKind(f), fi.Name())
		}
	}

	return 0
}

// fileKind guesses what a local file holds from its name and size.
func fileKind(filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "unreadable"
	}
	if disk.Is2MG(data) {
		return "2mg image"
	}
	if order, ok := disk.LogicalOrder(filename); ok {
		if id := disk.DiskTypeForSize(len(data)); id != disk.DT_NONE {
			return fmt.Sprintf("%s %s image", id, order)
		}
		return "sector image (bad size)"
	}
	c, id, err := disk.DetectContainer(data, filename)
	if err != nil {
		return "local file"
	}
	if id == disk.DT_NONE {
		return c.Name() + " (unrecognized)"
	}
	return fmt.Sprintf("%s %s", id, c.Name())
}

var shellFlags codecFlags
var shellBatchFile string

var shellCmd = &cobra.Command{
	Use:   "shell [FILE]",
	Short: "Interactive disk shell",
	Long: `Start an interactive shell for inspecting decoded disks: sector and
track dumps, integrity reports, reordering and saving.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := shellFlags.options(cmd.Flags())
		if err != nil {
			return err
		}
		opts.Strict = false
		commandOptions = opts

		if len(args) > 0 {
			if shellMount(args) == -1 {
				return errors.Errorf("cannot load %s", args[0])
			}
		}

		switch shellBatchFile {
		case "":
			shellDo()
			return nil
		case "-", "stdin":
			return shellBatch(os.Stdin)
		}
		f, err := os.Open(shellBatchFile)
		if err != nil {
			return err
		}
		defer f.Close()
		return shellBatch(f)
	},
}

func init() {
	shellFlags.register(shellCmd.Flags(), false)
	shellCmd.Flags().StringVar(&shellBatchFile, "batch", "", `Run commands from a file ("stdin" for standard input) and exit`)
	rootCmd.AddCommand(shellCmd)
}
