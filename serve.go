package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paleotronic/nibm8/disk"
	"github.com/paleotronic/nibm8/loggy"
	"github.com/paleotronic/nibm8/panic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// MAX_UPLOAD bounds request bodies; the largest container is an 840k HFE.
const MAX_UPLOAD = 4 << 20

type apiServer struct {
	opts disk.Options
	log  *loggy.Logger
}

type formatInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extensions  []string `json:"extensions"`
	DiskTypes   []string `json:"disk_types"`
}

type detectInfo struct {
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind"`
	Container string `json:"container,omitempty"`
	DiskType  string `json:"disk_type"`
	Size      int    `json:"size"`
	SHA256    string `json:"sha256"`
}

type reportInfo struct {
	Format   string   `json:"format"`
	DiskType string   `json:"disk_type"`
	Order    string   `json:"order"`
	Volume   int      `json:"volume"`
	Clean    bool     `json:"clean"`
	Errors   int      `json:"errors"`
	Message  string   `json:"message"`
	Tracks   []string `json:"tracks"`
	Problems []string `json:"problems"`
	SHA256   string   `json:"sha256"`
}

func newRouter(opts disk.Options) *mux.Router {
	s := &apiServer{opts: opts, log: opts.Logger}
	r := mux.NewRouter()
	r.HandleFunc("/formats", s.formats).Methods(http.MethodGet)
	r.HandleFunc("/detect", s.detect).Methods(http.MethodPost)
	r.HandleFunc("/decode/{format}", s.decode).Methods(http.MethodPost)
	r.HandleFunc("/report/{format}", s.report).Methods(http.MethodPost)
	r.HandleFunc("/encode/{format}", s.encode).Methods(http.MethodPost)
	r.Use(s.recoverer)
	return r
}

// recoverer turns a panic in a handler into a 500.
func (s *apiServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		panic.Do(
			func() { next.ServeHTTP(w, r) },
			func(p interface{}) {
				s.log.Errorf("%s %s: %v", r.Method, r.URL.Path, p)
				http.Error(w, "internal error", http.StatusInternalServerError)
			},
		)
		s.log.Debugf("%s %s in %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// fail maps codec errors onto HTTP status codes.
func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	switch errors.Cause(err) {
	case disk.ErrUnsupported:
		status = http.StatusUnsupportedMediaType
	case disk.ErrIntegrity:
		status = http.StatusUnprocessableEntity
	}
	s.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, err.Error(), status)
}

func (s *apiServer) body(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MAX_UPLOAD+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MAX_UPLOAD {
		return nil, errors.Wrapf(disk.ErrBadSize, "upload larger than %d bytes", MAX_UPLOAD)
	}
	return data, nil
}

// options applies the type, order, volume and strict query parameters.
func (s *apiServer) options(r *http.Request) (disk.Options, error) {
	opts := s.opts
	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		id, err := disk.ParseDiskType(v)
		if err != nil {
			return opts, err
		}
		opts.Type = id
	}
	if v := q.Get("order"); v != "" {
		so, err := disk.ParseSectorOrder(v)
		if err != nil {
			return opts, err
		}
		opts.Order = so
	}
	if v := q.Get("volume"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 255 {
			return opts, errors.Errorf("invalid volume %q", v)
		}
		opts.Volume = byte(n)
	}
	if v := q.Get("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.Errorf("invalid strict %q", v)
		}
		opts.Strict = b
	}
	return opts, nil
}

func (s *apiServer) formats(w http.ResponseWriter, r *http.Request) {
	var out []formatInfo
	for _, c := range disk.Containers() {
		fi := formatInfo{Name: c.Name(), Description: c.Description(), Extensions: c.Extensions()}
		for _, id := range []disk.DiskTypeID{disk.DT_140K, disk.DT_840K} {
			if c.Supports(id) {
				fi.DiskTypes = append(fi.DiskTypes, id.String())
			}
		}
		out = append(out, fi)
	}
	writeJSON(w, out)
}

func (s *apiServer) detect(w http.ResponseWriter, r *http.Request) {
	data, err := s.body(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := r.URL.Query().Get("name")
	info := detectInfo{Name: name, Size: len(data), SHA256: disk.Checksum(data), DiskType: disk.DT_NONE.String()}

	switch {
	case disk.Is2MG(data):
		info.Kind = "2mg"
	case disk.IsLogical(name):
		info.Kind = "sector"
		info.DiskType = disk.DiskTypeForSize(len(data)).String()
	default:
		c, id, err := disk.DetectContainer(data, name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		info.Kind = "container"
		info.Container = c.Name()
		info.DiskType = id.String()
	}
	writeJSON(w, info)
}

// decodeBody decodes the uploaded container named by the format variable.
func (s *apiServer) decodeBody(w http.ResponseWriter, r *http.Request) (*disk.Image, *disk.Report, bool) {
	c, err := disk.LookupContainer(mux.Vars(r)["format"])
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	opts, err := s.options(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	data, err := s.body(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	img, report, err := disk.Decode(c, data, decodeOptions(opts))
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return img, report, true
}

// decode returns the logical image, in the requested order, as the body.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request) {
	img, report, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("X-Disk-Type", img.Type.ID.String())
	w.Header().Set("X-Sector-Order", img.Order.String())
	w.Header().Set("X-Volume", strconv.Itoa(int(img.Volume)))
	w.Header().Set("X-Decode-Errors", strconv.Itoa(report.Errors()))
	w.Write(img.Data)
}

func (s *apiServer) report(w http.ResponseWriter, r *http.Request) {
	img, report, ok := s.decodeBody(w, r)
	if !ok {
		return
	}
	info := reportInfo{
		Format:   report.Format,
		DiskType: report.Type.ID.String(),
		Order:    report.Order.String(),
		Volume:   int(report.Volume),
		Clean:    report.Clean(),
		Errors:   report.Errors(),
		Message:  report.Message(),
		Problems: report.Problems(),
		SHA256:   img.Checksum(),
	}
	for _, t := range report.Tracks {
		info.Tracks = append(info.Tracks, t.String())
	}
	if info.Problems == nil {
		info.Problems = []string{}
	}
	writeJSON(w, info)
}

// encode takes a logical image body; its type comes from the size and its
// order from the order parameter (DOS when absent).
func (s *apiServer) encode(w http.ResponseWriter, r *http.Request) {
	c, err := disk.LookupContainer(mux.Vars(r)["format"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := s.body(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var img *disk.Image
	if disk.Is2MG(data) {
		img, _, err = disk.Load2MG(data, opts)
	} else {
		id := disk.DiskTypeForSize(len(data))
		if opts.Type != disk.DT_NONE && opts.Type != id {
			err = errors.Wrapf(disk.ErrGeometry, "%d bytes is not a %v image", len(data), opts.Type)
		} else {
			img, err = disk.NewImageFromData(id, opts.Order, data)
		}
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out, err := disk.Encode(c, img, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=disk.%s", c.Extensions()[0]))
	w.Write(out)
}

var serveFlags codecFlags
var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the codec over HTTP",
	Long: `Serve the codec over HTTP:

  GET  /formats            track containers
  POST /detect?name=F      identify an upload
  POST /decode/{format}    track image in, sector image out
  POST /report/{format}    track image in, JSON integrity report out
  POST /encode/{format}    sector image in, track image out

The type, order, volume and strict query parameters override the flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := serveFlags.options(cmd.Flags())
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           newRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		}
		opts.Logger.Logf("listening on %s", serveAddr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveFlags.register(serveCmd.Flags(), false)
	serveCmd.Flags().StringVarP(&serveAddr, "listen", "l", "localhost:6581", `Address to listen on`)
	rootCmd.AddCommand(serveCmd)
}
