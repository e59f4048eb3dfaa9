package importer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// DefaultMaxRows bounds how many records a single file may carry.
const DefaultMaxRows = 5000

// DecodeOptions configures both decoders.
type DecodeOptions struct {
	// MaxRows rejects files with more data rows; zero means DefaultMaxRows.
	MaxRows int
	// Normalizer is used by the tabular decoder; nil means a lenient one.
	Normalizer *Normalizer
}

func (o DecodeOptions) maxRows() int {
	if o.MaxRows > 0 {
		return o.MaxRows
	}
	return DefaultMaxRows
}

func (o DecodeOptions) normalizer() *Normalizer {
	if o.Normalizer != nil {
		return o.Normalizer
	}
	return NewNormalizer(PolicyLenient, nil)
}

// DecodeWorkbook reads the first sheet of a spreadsheet, uses its header row
// as field paths and normalizes every data row. Number cells are read as
// their stored value so display formats such as thousands separators do not
// leak into records. Date and boolean cells keep their displayed text.
func DecodeWorkbook(r io.Reader, kind EntityKind, opts DecodeOptions) ([]Record, error) {
	rows, err := ReadSheetRows(r, opts.maxRows())
	if err != nil {
		return nil, err
	}
	return opts.normalizer().NormalizeAll(kind, rows), nil
}

// oleMagic opens every legacy BIFF (.xls) file.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ReadSheetRows extracts the first sheet as flat rows without normalizing.
// Both OOXML workbooks and legacy BIFF files are accepted.
func ReadSheetRows(r io.Reader, maxRows int) ([]FlatRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}

	var grid [][]string
	if bytes.HasPrefix(data, oleMagic) {
		grid, err = readLegacyGrid(data)
	} else {
		grid, err = readWorkbookGrid(data)
	}
	if err != nil {
		return nil, err
	}
	return gridRows(grid, maxRows)
}

func readWorkbookGrid(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet := sheets[0]

	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", ErrUnreadableWorkbook, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", ErrUnreadableWorkbook, err)
	}

	for i, row := range shown {
		if i >= len(raw) {
			break
		}
		for col, text := range row {
			if col >= len(raw[i]) || raw[i][col] == text {
				continue
			}
			row[col] = storedNumber(f, sheet, col+1, i+1, text, raw[i][col])
		}
	}
	return shown, nil
}

// storedNumber returns the unformatted value of a number cell, or the
// displayed text for anything that is not a plain number.
func storedNumber(f *excelize.File, sheet string, col, row int, shown, raw string) string {
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return shown
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return shown
	}
	switch typ, _ := f.GetCellType(sheet, cell); typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
	default:
		return shown
	}
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return shown
	}
	style, err := f.GetStyle(idx)
	if err != nil || isDateStyle(style) {
		return shown
	}
	return raw
}

func isDateStyle(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch n := style.NumFmt; {
	case n >= 14 && n <= 22, n >= 27 && n <= 36, n >= 45 && n <= 47, n >= 50 && n <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format renders a date or
// time. Quoted literals, bracketed sections and escaped characters are ignored.
func isDateFormatCode(code string) bool {
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}

func readLegacyGrid(data []byte) (grid [][]string, err error) {
	// A compound file is a 512 byte header plus at least one 512 byte sector.
	// The BIFF reader only handles 512 byte sectors (shift 9 at offset 30).
	if len(data) < 1024 || data[30] != 9 || data[31] != 0 {
		return nil, fmt.Errorf("%w: truncated or unsupported compound file", ErrUnreadableWorkbook)
	}

	// The BIFF reader panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyWorkbook
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for col := 0; col < row.LastCol(); col++ {
			cells = append(cells, row.Col(col))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// gridRows turns a header row plus data rows into flat rows. Blank rows and
// columns with an empty header are skipped.
func gridRows(rows [][]string, maxRows int) ([]FlatRow, error) {
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var out []FlatRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		if maxRows > 0 && len(out) >= maxRows {
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyRows, maxRows)
		}

		flat := make(FlatRow, 0, len(header))
		for col, key := range header {
			if key == "" {
				continue
			}
			var v any
			if col < len(row) && row[col] != "" {
				v = row[col]
			}
			flat = append(flat, Field{Key: key, Value: v})
		}
		out = append(out, flat)
	}

	if len(out) == 0 {
		return nil, ErrNoDataRows
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// FileFormat is the decoder a file is routed to.
type FileFormat string

const (
	FormatJSON  FileFormat = "json"
	FormatExcel FileFormat = "excel"
)

// DetectFormat routes by extension; anything but .json/.xlsx/.xls fails.
func DetectFormat(filename string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".xlsx", ".xls":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFile, filename)
}

// DecodeFile dispatches to the JSON or tabular decoder by file extension.
func DecodeFile(filename string, data []byte, kind EntityKind, opts DecodeOptions) ([]Record, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var records []Record
	switch format {
	case FormatJSON:
		records, err = DecodeJSON(data, opts)
	default:
		records, err = DecodeWorkbook(bytes.NewReader(data), kind, opts)
	}

	m := getMetrics()
	if err != nil {
		m.decodeTotal.WithLabelValues(string(kind), string(format), "error").Inc()
		return nil, err
	}
	m.decodeTotal.WithLabelValues(string(kind), string(format), "ok").Inc()
	m.decodedRecords.WithLabelValues(string(kind)).Add(float64(len(records)))
	return records, nil
}
