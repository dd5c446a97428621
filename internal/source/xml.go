package source

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"forestgen/internal/forest"
)

// forestElement is the element name carrying region metadata.
const forestElement = "forest"

// ReadXML collects the attributes of every <forest> element, at any depth,
// in document order.
func ReadXML(r io.Reader) ([]Record, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	var records []Record
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse region metadata: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != forestElement {
			continue
		}
		fields := make(map[string]string, len(start.Attr))
		for _, attr := range start.Attr {
			fields[attr.Name.Local] = attr.Value
		}
		records = append(records, Record{Fields: fields})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no forest entries found in xml file", forest.ErrNoRegions)
	}
	return records, nil
}
