// Package web serves decoded sprites and voxel slices over HTTP for
// previewing a data directory in a browser.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"net/http"
	"os"
	"strconv"

	"github.com/bodgit/apoc"
	"github.com/bodgit/apoc/codec"
	"github.com/bodgit/apoc/render"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
)

// Handler serves resources through a Loader.
type Handler struct {
	loader  *apoc.Loader
	palette color.Palette
}

// NewHandler constructs a web handler resolving requests with l and
// colouring sprites with p.
func NewHandler(l *apoc.Loader, p color.Palette) *Handler {
	return &Handler{
		loader:  l,
		palette: p,
	}
}

// RegisterRoutes adds the handler's routes to r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sprite.{ext:png|gif}", h.spriteHandler).Queries("r", "{r}")
	r.HandleFunc("/sheet.{ext:png|gif}", h.sheetHandler).Queries("r", "{r}")
	r.HandleFunc("/slice.png", h.sliceHandler).Queries("r", "{r}")
	r.HandleFunc("/set.json", h.setHandler).Queries("r", "{r}")
}

func options(r *http.Request) *render.Options {
	o := &render.Options{}
	q := r.URL.Query()
	if s := q.Get("scale"); s != "" {
		o.Scale, _ = strconv.Atoi(s)
		// ignore invalid scale
	}
	if c := q.Get("colors"); c != "" {
		o.Colors, _ = strconv.Atoi(c)
		// ignore invalid colors
	}
	o.Crop = q.Get("crop") != ""
	return o
}

// status maps a load error to an HTTP status.
func status(err error) int {
	if os.IsNotExist(errors.Cause(err)) {
		return http.StatusNotFound
	}
	switch errors.Cause(err) {
	case apoc.ErrBadRequest:
		return http.StatusBadRequest
	case codec.ErrOutOfBounds:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	glog.Errorf("web: %s: %v", r.URL, err)
	http.Error(w, err.Error(), status(err))
}

func writeImage(w http.ResponseWriter, buf *bytes.Buffer, f render.Format) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Cache-Control", "public; max-age=3600")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *Handler) spriteHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := render.ParseFormat(vars["ext"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.loader.Image(vars["r"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if m == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	o := options(r)
	var buf bytes.Buffer
	if err := render.Encode(&buf, render.Sprite(m, h.palette, o), f, o); err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, &buf, f)
}

func (h *Handler) sheetHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := render.ParseFormat(vars["ext"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cols := 16
	if c := r.URL.Query().Get("cols"); c != "" {
		if cols, err = strconv.Atoi(c); err != nil {
			http.Error(w, "cols not a number", http.StatusBadRequest)
			return
		}
	}

	s, err := h.loader.ImageSet(vars["r"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	o := options(r)
	var buf bytes.Buffer
	if err := render.Encode(&buf, render.Sheet(s, h.palette, cols, o), f, o); err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, &buf, f)
}

func (h *Handler) sliceHandler(w http.ResponseWriter, r *http.Request) {
	sl, err := h.loader.Slice(mux.Vars(r)["r"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, render.Slice(sl, options(r)), render.PNG, nil); err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, &buf, render.PNG)
}

// Sprite summarises one member of a set.
type Sprite struct {
	Index   int    `json:"index"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Error   string `json:"error,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// Set summarises a sprite sheet.
type Set struct {
	Request   string   `json:"request"`
	Origin    string   `json:"origin"`
	ID        string   `json:"id"`
	MaxWidth  int      `json:"max_width"`
	MaxHeight int      `json:"max_height"`
	Sprites   []Sprite `json:"sprites"`
}

func (h *Handler) setHandler(w http.ResponseWriter, r *http.Request) {
	req := mux.Vars(r)["r"]
	s, err := h.loader.ImageSet(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	o := options(r)
	set := Set{
		Request:   req,
		Origin:    s.Origin,
		ID:        fmt.Sprintf("%016x", uint64(s.ID)),
		MaxWidth:  s.MaxWidth(),
		MaxHeight: s.MaxHeight(),
		Sprites:   make([]Sprite, 0, s.Len()),
	}
	for i := 0; i < s.Len(); i++ {
		sp := Sprite{Index: i}
		if err := s.Err(i); err != nil {
			sp.Error = err.Error()
		}
		if m := s.Image(i); m != nil {
			sp.Width, sp.Height = m.Width, m.Height
			var buf bytes.Buffer
			if err := render.Encode(&buf, render.Sprite(m, h.palette, o), render.PNG, nil); err != nil {
				h.fail(w, r, err)
				return
			}
			sp.Preview = dataurl.New(buf.Bytes(), "image/png").String()
		}
		set.Sprites = append(set.Sprites, sp)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(set); err != nil {
		glog.Errorf("web: %s: %v", r.URL, err)
	}
}
