package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/apoc"
	"github.com/bodgit/apoc/loftemps"
	"github.com/bodgit/apoc/pck"
	"github.com/bodgit/apoc/render"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
)

func describe(w io.Writer, v interface{}) {
	switch v := v.(type) {
	case *pck.ImageSet:
		fmt.Fprintf(w, "%s: %d sprites, %d failed, largest %dx%d\n", v.Origin, v.Len(), v.Errors(), v.MaxWidth(), v.MaxHeight())
		for i := 0; i < v.Len(); i++ {
			switch m := v.Image(i); {
			case v.Err(i) != nil:
				fmt.Fprintf(w, "%5d  error: %v\n", i, v.Err(i))
			case m == nil:
				fmt.Fprintf(w, "%5d  blank\n", i)
			default:
				fmt.Fprintf(w, "%5d  %dx%d %v\n", i, m.Width, m.Height, m.Tight())
			}
		}
	case *pck.Image:
		if v == nil {
			fmt.Fprintln(w, "blank")
			return
		}
		fmt.Fprintf(w, "%dx%d %v\n", v.Width, v.Height, v.Tight())
	case *loftemps.LOFTemps:
		fmt.Fprintf(w, "%d slices\n", v.Len())
		for i := 0; i < v.Len(); i++ {
			s := v.Slice(i)
			fmt.Fprintf(w, "%5d  %dx%d %d set\n", i, s.Width, s.Height, s.Count())
		}
	case *loftemps.Slice:
		fmt.Fprintf(w, "%dx%d %d set\n", v.Width, v.Height, v.Count())
	}
}

// resource loads req and renders it, whatever it decodes to.
func resource(l *apoc.Loader, p color.Palette, req string, cols int, o *render.Options) (image.Image, error) {
	v, err := l.Load(req)
	if err != nil {
		return nil, err
	}

	switch v := v.(type) {
	case *pck.ImageSet:
		return render.Sheet(v, p, cols, o), nil
	case *pck.Image:
		if v == nil {
			return nil, errors.Errorf("%s: blank sprite", req)
		}
		return render.Sprite(v, p, o), nil
	case *loftemps.LOFTemps:
		if v.Len() == 0 {
			return nil, errors.Errorf("%s: no slices", req)
		}
		return render.Slice(v.Slice(0), o), nil
	case *loftemps.Slice:
		return render.Slice(v, o), nil
	}
	return nil, errors.Errorf("%s: cannot render %T", req, v)
}

func export(l *apoc.Loader, p color.Palette, req, file string, cols int, o *render.Options) error {
	f, err := render.ParseFormat(filepath.Ext(file))
	if err != nil {
		return err
	}

	img, err := resource(l, p, req, cols, o)
	if err != nil {
		return err
	}

	out, err := os.Create(file)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := render.Encode(out, img, f, o); err != nil {
		return err
	}

	return out.Close()
}

func printDataURL(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := render.Encode(&buf, img, render.PNG, nil); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, dataurl.New(buf.Bytes(), "image/png").String())
	return err
}

func printSlice(w io.Writer, s *loftemps.Slice) {
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if s.At(x, y) {
				fmt.Fprint(w, solid.Sprint("#"))
			} else {
				fmt.Fprint(w, empty.Sprint("."))
			}
		}
		fmt.Fprintln(w)
	}
}

func printSlices(l *apoc.Loader, args []string) error {
	req := fmt.Sprintf("%s:%s:%s", apoc.LOFTemps, args[0], args[1])
	if len(args) > 2 {
		if _, err := strconv.Atoi(args[2]); err != nil {
			return errors.Wrapf(apoc.ErrBadRequest, "record %q", args[2])
		}
		s, err := l.Slice(req + ":" + args[2])
		if err != nil {
			return err
		}
		printSlice(os.Stdout, s)
		return nil
	}

	lt, err := l.LOFTemps(req)
	if err != nil {
		return err
	}
	for i := 0; i < lt.Len(); i++ {
		fmt.Printf("slice %d\n", i)
		printSlice(os.Stdout, lt.Slice(i))
	}
	return nil
}
