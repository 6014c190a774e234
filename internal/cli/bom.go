package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	perrors "github.com/matzehuels/bomcheck/pkg/errors"
)

// defaultBOMColumn is the header most EDA tools use for the manufacturer
// part number.
const defaultBOMColumn = "Part Number"

// utf8BOM prefixes the first header cell of CSV files exported by Excel.
const utf8BOM = "\ufeff"

// readBOMFile reads part numbers from column of the CSV file at path.
func readBOMFile(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open BOM: %w", err)
	}
	defer f.Close()

	parts, err := readBOM(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parts, nil
}

// errNoSelection is returned when the column picker is closed without a choice.
var errNoSelection = errors.New("no BOM column selected")

// readBOMHeaderFile returns the header row of the CSV file at path and the
// first data row, which may be empty.
func readBOMHeaderFile(path string) (header, sample []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open BOM: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err = cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: BOM is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read BOM header: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	sample, err = cr.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: read BOM: %w", path, err)
	}
	return header, sample, nil
}

// readBOM reads part numbers from the named column of a CSV BOM.
// The header match ignores case and surrounding space. Empty cells are
// skipped and repeated part numbers are returned once, in first-seen order.
func readBOM(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("BOM is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read BOM header: %w", err)
	}

	column = strings.TrimSpace(strings.TrimPrefix(column, utf8BOM))
	idx := -1
	for i, h := range header {
		h = strings.TrimPrefix(h, utf8BOM)
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("no %q column in BOM (columns: %s)", column, strings.Join(header, ", "))
	}

	var parts []string
	seen := make(map[string]bool)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read BOM: %w", err)
		}
		if idx >= len(record) {
			continue
		}
		pn := strings.TrimSpace(record[idx])
		if pn == "" || seen[pn] {
			continue
		}
		if err := perrors.ValidatePartNumber(pn); err != nil {
			line, _ := cr.FieldPos(idx)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		seen[pn] = true
		parts = append(parts, pn)
	}
	return parts, nil
}
