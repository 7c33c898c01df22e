package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/paleotronic/nibm8/disk"
	"github.com/paleotronic/nibm8/loggy"
	"github.com/paleotronic/nibm8/panic"
	"github.com/spf13/cobra"
)

var trackFileRegex = regexp.MustCompile("(?i)[.](nib|nic|hfe|mfm|aim|2mg)$")

const loaderWorkers = 8

// scanTally counts outcomes per source format.
type scanTally struct {
	Files, Clean, Damaged, Failed int
}

type scanResult struct {
	Path    string
	Format  string
	Report  *disk.Report
	Err     error
	Elapsed time.Duration
}

// scanner decodes every track image below a directory with a pool of
// workers, one logger per worker.
type scanner struct {
	opts    disk.Options
	workers int

	mu      sync.Mutex
	tallies map[string]*scanTally
	results []scanResult
}

func newScanner(opts disk.Options, workers int) *scanner {
	if workers < 1 {
		workers = loaderWorkers
	}
	return &scanner{
		opts:    opts,
		workers: workers,
		tallies: make(map[string]*scanTally),
	}
}

func (s *scanner) tally(format string) *scanTally {
	t, ok := s.tallies[format]
	if !ok {
		t = &scanTally{}
		s.tallies[format] = t
	}
	return t
}

func (s *scanner) record(r scanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tally(r.Format)
	t.Files++
	switch {
	case r.Err != nil:
		t.Failed++
	case r.Report == nil || r.Report.Clean():
		t.Clean++
	default:
		t.Damaged++
	}
	s.results = append(s.results, r)
}

func (s *scanner) analyze(id int, filename string) scanResult {
	start := time.Now()
	opts := s.opts
	opts.Logger = loggy.Get(id)
	// tracks of one file stay on this worker
	opts.Workers = 1

	r := scanResult{Path: filename, Format: "?"}
	l, err := loadFile(filename, opts, "")
	if l != nil {
		r.Format = l.Source()
		r.Report = l.Report
	}
	r.Err = err
	r.Elapsed = time.Since(start)
	return r
}

func (s *scanner) walk(dir string) error {

	incoming := make(chan string, 16)

	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(i int) {

			id := 1 + i
			l := loggy.Get(id)

			for filename := range incoming {

				panic.Do(
					func() {
						s.record(s.analyze(id, filename))
					},
					func(r interface{}) {
						l.Errorf("Error processing volume: %s", filename)
						l.Errorf(string(debug.Stack()))
						s.record(scanResult{Path: filename, Format: "?", Err: fmt.Errorf("panic: %v", r)})
					},
				)

			}

			wg.Done()

		}(i)
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			loggy.Get(0).Errorf(err.Error())
			return err
		}
		if !info.IsDir() && trackFileRegex.MatchString(path) {
			incoming <- path
		}
		return nil
	})

	close(incoming)
	wg.Wait()

	s.mu.Lock()
	sort.Slice(s.results, func(i, j int) bool { return s.results[i].Path < s.results[j].Path })
	s.mu.Unlock()

	return err
}

// damaged reports whether any file failed or decoded with errors.
func (s *scanner) damaged() bool {
	for _, t := range s.tallies {
		if t.Damaged > 0 || t.Failed > 0 {
			return true
		}
	}
	return false
}

func (s *scanner) print(w io.Writer, duration time.Duration, details bool) {

	if details {
		for _, r := range s.results {
			switch {
			case r.Err != nil:
				fmt.Fprintf(w, "FAIL  %s: %v\n", r.Path, r.Err)
			case r.Report == nil:
				fmt.Fprintf(w, "OK    %s\n", r.Path)
			case r.Report.Clean():
				fmt.Fprintf(w, "OK    %s (%s)\n", r.Path, r.Report.Type.ID)
			default:
				fmt.Fprintf(w, "BAD   %s: %d sectors\n", r.Path, r.Report.Errors())
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=============================================================")
	fmt.Fprintf(w, " nibm8 scan report (%d Workers, %v)\n", s.workers, duration)
	fmt.Fprintln(w, "=============================================================")

	var names []string
	for f := range s.tallies {
		names = append(names, f)
	}
	sort.Strings(names)

	total := scanTally{}
	fmt.Fprintf(w, "%-10s %6s %6s %6s %6s\n", "Format", "Files", "Clean", "Bad", "Failed")
	for _, f := range names {
		t := s.tallies[f]
		fmt.Fprintf(w, "%-10s %6d %6d %6d %6d\n", f, t.Files, t.Clean, t.Damaged, t.Failed)
		total.Files += t.Files
		total.Clean += t.Clean
		total.Damaged += t.Damaged
		total.Failed += t.Failed
	}

	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-10s %6d %6d %6d %6d\n", "Total", total.Files, total.Clean, total.Damaged, total.Failed)

	fmt.Fprintln(w)
}

var scanFlags codecFlags
var scanDetails bool

var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "Verify every track image below a directory",
	Long: `Walk DIR, decode every .nib .nic .hfe .mfm .aim and .2mg file with a pool of
workers and print a per format summary. The exit status is 1 when any file
failed or has damaged sectors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := scanFlags.options(cmd.Flags())
		if err != nil {
			return err
		}
		opts.Strict = false

		start := time.Now()
		s := newScanner(opts, scanFlags.workers)
		if err := s.walk(args[0]); err != nil {
			return err
		}
		s.print(cmd.OutOrStdout(), time.Since(start), scanDetails)

		if s.damaged() {
			return disk.ErrIntegrity
		}
		return nil
	},
}

func init() {
	scanFlags.register(scanCmd.Flags(), false)
	scanCmd.Flags().BoolVar(&scanDetails, "details", false, `List every file, not just the summary`)
	rootCmd.AddCommand(scanCmd)
}
