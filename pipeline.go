package apoc

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/apoc/pck"
)

const scanWorkers = 10

// findTab returns the TAB file paired with the PCK file name among names,
// matching the base name case-insensitively.
func findTab(name string, names []string) (string, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, n := range names {
		if strings.EqualFold(filepath.Ext(n), ".tab") && strings.EqualFold(strings.TrimSuffix(n, filepath.Ext(n)), base) {
			return n, true
		}
	}
	return "", false
}

// sheetFormat guesses the format of a sheet from its name. Strategy tiles
// and shadows cannot be told apart from the data.
func sheetFormat(name string) pck.Format {
	base := strings.ToLower(filepath.Base(name))
	switch {
	case strings.HasPrefix(base, "strat"):
		return pck.Strat
	case strings.Contains(base, "shadow"):
		return pck.Shadow
	}
	return pck.Auto
}

// sheet is a PCK data file and its TAB, both in dir.
type sheet struct {
	dir   string
	data  string
	index string
}

func (s sheet) path() string {
	return filepath.Join(s.dir, s.data)
}

// pairSheets returns every PCK file in dir that has a TAB beside it.
func (ix *Indexer) pairSheets(dir string) ([]sheet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		// Ignore anything that isn't a normal file
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}

	var sheets []sheet
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".pck") {
			continue
		}
		tabName, ok := findTab(name, names)
		if !ok {
			ix.logger.Printf("No index for \"%s\"\n", filepath.Join(dir, name))
			continue
		}
		sheets = append(sheets, sheet{dir: dir, data: name, index: tabName})
	}
	return sheets, nil
}

// findSheets walks base and sends every sheet found along the way.
func (ix *Indexer) findSheets(ctx context.Context, base string) (<-chan sheet, <-chan error, error) {
	out := make(chan sheet)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.WalkDir(base, func(dir string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			// Sheets are paired a directory at a time
			if !d.IsDir() {
				return nil
			}
			if d.Name()[0] == '.' && dir != base {
				return filepath.SkipDir
			}

			sheets, err := ix.pairSheets(dir)
			if err != nil {
				return err
			}
			for _, s := range sheets {
				select {
				case out <- s:
				case <-ctx.Done():
					return errors.New("walk cancelled")
				}
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (ix *Indexer) indexSheet(base string, sh sheet) error {
	data, err := os.Open(sh.path())
	if err != nil {
		return err
	}
	defer data.Close()

	index, err := os.Open(filepath.Join(sh.dir, sh.index))
	if err != nil {
		return err
	}
	defer index.Close()

	f := sheetFormat(sh.data)
	if f == pck.Auto {
		if f, err = pck.Detect(data); err != nil {
			ix.logger.Printf("Skipping \"%s\": %s\n", sh.path(), err)
			return nil
		}
	}

	s, err := pck.DecodeAll(data, index, f, &ix.opts)
	if err != nil {
		ix.logger.Printf("Skipping \"%s\": %s\n", sh.path(), err)
		return nil
	}
	if n := s.Errors(); n > 0 {
		ix.logger.Printf("%d of %d sprites in \"%s\" failed to decode\n", n, s.Len(), sh.path())
	}

	rel, err := filepath.Rel(base, sh.path())
	if err != nil {
		return err
	}
	if _, err = ix.db.AddSheet(filepath.ToSlash(rel), f, s); err != nil {
		return err
	}
	ix.logger.Printf("Indexed \"%s\" as %v, %d sprites\n", rel, f, s.Len())
	return nil
}

func (ix *Indexer) sheetWorker(ctx context.Context, base string, in <-chan sheet) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for sh := range in {
			if ctx.Err() != nil {
				return
			}
			if err := ix.indexSheet(base, sh); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path, decodes every PCK sheet that has a matching TAB file and
// stores the result in the catalog, keyed by the sheet path relative to
// path. The walk pairs sheets while the workers decode them, so a large
// directory is spread over every worker. Sheets that fail to decode are
// logged and skipped.
func (ix *Indexer) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	sheets, errc, err := ix.findSheets(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := ix.sheetWorker(ctx, dir, sheets)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
