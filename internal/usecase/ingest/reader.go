package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/anveshak/tilesearch/internal/domain"
)

// tileRow is one decoded feature-file row.
type tileRow struct {
	Zoom     int
	X        int
	Y        int
	Vector   []float32
	ByteSize int64
}

// reader streams tile rows out of a scope's parquet feature files.
// Files live under dataDir/<dataset>/<footprint>/*.parquet, or directly
// under dataDir/<dataset>/ for whole-dataset scopes.
type reader struct {
	files []string
}

func newReader(dataDir string, scope domain.Scope) (*reader, error) {
	dir := filepath.Join(dataDir, scope.Dataset())
	if scope.Footprint() != "" {
		dir = filepath.Join(dir, scope.Footprint())
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob feature files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no feature files under %s", domain.ErrDatasetNotFound, dir)
	}
	sort.Strings(files)
	return &reader{files: files}, nil
}

// readRowsCallback is invoked per row. Returning false stops the read.
type readRowsCallback func(row tileRow) bool

// ReadRows streams every row of every feature file in order.
func (r *reader) ReadRows(cb readRowsCallback) error {
	for _, path := range r.files {
		if err := r.readFile(path, cb); err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// tileColumns holds leaf-level column indexes resolved by name.
type tileColumns struct {
	zoom   int
	x      int
	y      int
	vector int // list column, leaf index
	bytes  int
}

func resolveTileColumns(pf *parquet.File) (tileColumns, error) {
	cols := tileColumns{zoom: -1, x: -1, y: -1, vector: -1, bytes: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case "zoom":
			cols.zoom = i
		case "x":
			cols.x = i
		case "y":
			cols.y = i
		case "vector":
			cols.vector = i
		case "bytes":
			cols.bytes = i
		}
	}
	if cols.zoom < 0 || cols.x < 0 || cols.y < 0 || cols.vector < 0 {
		return cols, fmt.Errorf("feature file missing required columns (zoom, x, y, vector)")
	}
	return cols, nil
}

func (r *reader) readFile(path string, cb readRowsCallback) error {
	h, err := openParquet(path)
	if err != nil {
		return err
	}
	defer h.Close()

	cols, err := resolveTileColumns(h.pf)
	if err != nil {
		return err
	}

	for _, rg := range h.pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, 256)

		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if !cb(rowToTile(buf[i], cols)) {
					return nil
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return nil
}

// rowToTile extracts a tileRow from a generic parquet row. The vector
// list column contributes one value per element, all with the leaf index.
func rowToTile(row parquet.Row, cols tileColumns) tileRow {
	var t tileRow
	for _, v := range row {
		switch v.Column() {
		case cols.zoom:
			t.Zoom = int(v.Int64())
		case cols.x:
			t.X = int(v.Int64())
		case cols.y:
			t.Y = int(v.Int64())
		case cols.vector:
			if !v.IsNull() {
				t.Vector = append(t.Vector, v.Float())
			}
		case cols.bytes:
			if !v.IsNull() {
				t.ByteSize = v.Int64()
			}
		}
	}
	return t
}

// parquetHandle wraps parquet.File + underlying os.File for proper cleanup.
type parquetHandle struct {
	pf   *parquet.File
	file *os.File
}

func (h *parquetHandle) Close() {
	_ = h.file.Close()
}

func openParquet(path string) (*parquetHandle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &parquetHandle{pf: pf, file: f}, nil
}
