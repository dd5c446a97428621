package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
)

// ReadShapefile reads the requested attribute columns of every shape in
// path. Columns the file lacks are simply absent from the record.
func ReadShapefile(path string, columns []string) ([]Record, error) {
	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".shp") {
		path = strings.TrimSuffix(path, ext) + ".shp"
	}
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer dec.Close()

	present := make(map[string]bool)
	for _, f := range dec.Fields() {
		present[f.String()] = true
	}
	var wanted []string
	for _, c := range columns {
		if present[c] {
			wanted = append(wanted, c)
		}
	}

	var records []Record
	for {
		_, fields, more := dec.DecodeRowFields(wanted...)
		if !more {
			break
		}
		trimmed := make(map[string]string, len(fields))
		for k, v := range fields {
			trimmed[k] = strings.TrimSpace(v)
		}
		records = append(records, Record{Fields: trimmed})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return records, nil
}
