package envelope

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
)

// XMLRoot is the name of the document element.
const XMLRoot = "response"

const (
	xmlItem  = "item"
	xmlEntry = "entry"
)

// xmlName matches keys that are safe to emit as element names.
var xmlName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// MarshalXML encodes the document as <response> with one child element per
// key. Maps become nested elements in key order, lists repeat <item>, and
// null values are empty elements. A key that is not a plain XML name is
// written as <entry key="..."> instead.
func (e Envelope) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	doc, err := e.Generic()
	if err != nil {
		return err
	}
	if err := writeXML(enc, XMLRoot, doc); err != nil {
		return err
	}
	return enc.Flush()
}

func writeXML(enc *xml.Encoder, name string, v any) error {
	return writeElement(enc, elementFor(name), v)
}

func elementFor(key string) xml.StartElement {
	if xmlName.MatchString(key) {
		return xml.StartElement{Name: xml.Name{Local: key}}
	}
	return xml.StartElement{
		Name: xml.Name{Local: xmlEntry},
		Attr: []xml.Attr{{Name: xml.Name{Local: "key"}, Value: key}},
	}
}

func writeElement(enc *xml.Encoder, start xml.StartElement, v any) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch x := v.(type) {
	case nil:
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeXML(enc, k, x[k]); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range x {
			if err := writeElement(enc, xml.StartElement{Name: xml.Name{Local: xmlItem}}, item); err != nil {
				return err
			}
		}
	default:
		if err := enc.EncodeToken(xml.CharData(fmt.Sprint(x))); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}
