package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"return-insight/pkg/models"

	"github.com/schollz/progressbar/v3"
)

// DefaultPath est le fichier lu quand aucun chemin n'est configuré.
const DefaultPath = "DataSales.csv"

// Options contrôle le chargement.
type Options struct {
	// Progress reçoit une barre de progression en octets ; nil = silencieux.
	Progress io.Writer
}

// Load lit le CSV à path. Toute erreur est une *DataLoadError.
func Load(path string, opts Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		size := int64(-1)
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		bar = progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("loading "+path),
			progressbar.OptionShowBytes(true),
		)
		r = io.TeeReader(f, bar)
	}

	frame, err := Read(r, path)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// Read décode un CSV avec en-tête. Les colonnes sont repérées par nom, les autres ignorées.
func Read(r io.Reader, source string) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataLoadError{Path: source, Err: errors.New("empty file")}
		}
		return nil, &DataLoadError{Path: source, Err: fmt.Errorf("read header: %w", err)}
	}
	cols := make([]string, len(header))
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[i] = h
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	if err := requireColumns(idx); err != nil {
		return nil, &DataLoadError{Path: source, Err: err}
	}
	catIdx, hasCat := idx[ColumnCategory]

	var rows []models.SaleRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DataLoadError{Path: source, Err: err}
		}
		returned, err := ParseReturned(rec[idx[ColumnReturned]])
		if err != nil {
			return nil, &DataLoadError{Path: source, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		row := models.SaleRow{Product: rec[idx[ColumnProduct]], Returned: returned}
		if hasCat {
			row.Category = rec[catIdx]
		}
		rows = append(rows, row)
	}
	return NewFrame(source, cols, rows), nil
}

func requireColumns(idx map[string]int) error {
	var missing []string
	for _, c := range []string{ColumnProduct, ColumnReturned} {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseReturned accepte 0/1 (y compris "1.0" écrit par pandas) et true/false.
func ParseReturned(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || (v != 0 && v != 1) {
		return 0, fmt.Errorf("column Returned must be 0 or 1, got %q", s)
	}
	return int(v), nil
}
