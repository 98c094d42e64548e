// Package web serves a small status page for a running slideshow: the
// current slide, a PNG of what is on screen and framebuffer diagnostics.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image/png"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/drummonds/slideframe/internal/display"
	"github.com/drummonds/slideframe/internal/fb"
	"github.com/drummonds/slideframe/internal/logging"
	"github.com/drummonds/slideframe/internal/slideshow"
)

//go:embed template
var content embed.FS

// StatusSource reports the slide on screen. *slideshow.Loop implements it.
type StatusSource interface {
	Status() *slideshow.Status
}

// Options configures a Server.
type Options struct {
	Listen string
	// Device is the framebuffer shown on /diag; empty disables it.
	Device   string
	Status   StatusSource
	Snapshot display.Snapshotter
	Logger   *slog.Logger
}

// Server is the status web server.
type Server struct {
	opts Options
	tmpl *template.Template
	now  func() time.Time

	listener net.Listener
	server   *http.Server
}

// New parses the page template and builds the routes.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	tmpl, err := template.ParseFS(content, "template/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	s := &Server{opts: opts, tmpl: tmpl, now: time.Now}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /current.png", s.handleCurrent)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /diag", s.handleDiag)
	return mux
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	s.listener = listener
	s.opts.Logger.Info("web server listening", logging.String("address", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(listener) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

type field struct {
	Name  string
	Value string
}

type section struct {
	Heading string
	Fields  []field
	Err     string
}

type page struct {
	Title    string
	Status   *slideshow.Status
	ShownAgo string
	HasImage bool
	Sections []section
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "slideframe", HasImage: s.opts.Snapshot != nil}
	if s.opts.Status != nil {
		p.Status = s.opts.Status.Status()
	}
	if p.Status != nil && !p.Status.ShownAt.IsZero() {
		p.ShownAgo = humanize.RelTime(p.Status.ShownAt, s.now(), "ago", "from now")
	}
	s.render(w, p)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if s.opts.Snapshot == nil {
		http.NotFound(w, r)
		return
	}
	img := s.opts.Snapshot.Snapshot()
	if img == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.opts.Logger.Debug("write snapshot", logging.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st *slideshow.Status
	if s.opts.Status != nil {
		st = s.opts.Status.Status()
	}
	if st == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no slide shown yet")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "slideframe diagnostics"}
	if s.opts.Device == "" {
		p.Sections = append(p.Sections, section{Heading: "Framebuffer", Err: "no framebuffer configured"})
	} else {
		p.Sections = append(p.Sections, framebufferInfo(s.opts.Device)...)
	}
	s.render(w, p)
}

func (s *Server) render(w http.ResponseWriter, p page) {
	var sb strings.Builder
	if err := s.tmpl.Execute(&sb, p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(sb.String()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.opts.Logger.Debug("write json", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// framebufferInfo reads the fixed and variable screen info of device.
func framebufferInfo(device string) []section {
	finfo, vinfo, err := fb.Query(device)
	if err != nil {
		return []section{{Heading: "Framebuffer " + device, Err: err.Error()}}
	}
	fixed := section{
		Heading: "Fixed screen info " + device,
		Fields: []field{
			{"Id", strings.TrimRight(string(finfo.Id[:]), "\x00")},
			{"Memory start", fmt.Sprintf("0x%x", finfo.Smem_start)},
			{"Memory length", humanize.IBytes(uint64(finfo.Smem_len))},
			{"Type", fmt.Sprint(finfo.Type)},
			{"Type aux", fmt.Sprint(finfo.Type_aux)},
			{"Visual", fmt.Sprint(finfo.Visual)},
			{"X pan step", fmt.Sprint(finfo.Xpanstep)},
			{"Y pan step", fmt.Sprint(finfo.Ypanstep)},
			{"Y wrap step", fmt.Sprint(finfo.Ywrapstep)},
			{"Line length", humanize.Comma(int64(finfo.Line_length)) + " bytes"},
			{"MMIO start", fmt.Sprintf("0x%x", finfo.Mmio_start)},
			{"MMIO length", humanize.IBytes(uint64(finfo.Mmio_len))},
			{"Accelerator", fmt.Sprint(finfo.Accel)},
			{"Capabilities", fmt.Sprintf("0x%x", finfo.Capabilities)},
		},
	}
	variable := section{
		Heading: "Variable screen info",
		Fields: []field{
			{"Resolution", fmt.Sprintf("%dx%d", vinfo.Xres, vinfo.Yres)},
			{"Virtual", fmt.Sprintf("%dx%d", vinfo.XresVirtual, vinfo.YresVirtual)},
			{"Offset", fmt.Sprintf("%d,%d", vinfo.Xoffset, vinfo.Yoffset)},
			{"Bits per pixel", fmt.Sprint(vinfo.BitsPerPixel)},
			{"Red", bitfield(vinfo.Red)},
			{"Green", bitfield(vinfo.Green)},
			{"Blue", bitfield(vinfo.Blue)},
			{"Alpha", bitfield(vinfo.Transp)},
			{"Physical size", fmt.Sprintf("%dx%d mm", vinfo.Width, vinfo.Height)},
			{"Rotate", fmt.Sprint(vinfo.Rotate)},
		},
	}
	return []section{fixed, variable}
}

func bitfield(b fb.Bitfield) string {
	return fmt.Sprintf("offset %d length %d", b.Offset, b.Length)
}
