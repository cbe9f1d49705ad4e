package http

import (
	"encoding/json"
	"encoding/xml"
	"io"

	"github.com/artpar/hoops/domain/envelope"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Representation encodes envelopes for one media type.
type Representation struct {
	Format      string // value accepted by output_format
	ContentType string
	encode      func(io.Writer, envelope.Envelope) error
}

// Encode writes env to w.
func (r Representation) Encode(w io.Writer, env envelope.Envelope) error {
	return r.encode(w, env)
}

// Built-in representations.
var (
	JSON    = Representation{Format: "json", ContentType: "application/json", encode: encodeJSON}
	XML     = Representation{Format: "xml", ContentType: "application/xml", encode: encodeXML}
	TextXML = Representation{Format: "xml", ContentType: "text/xml", encode: encodeXML}
	YAML    = Representation{Format: "yaml", ContentType: "application/x-yaml", encode: encodeYAML}
	CBOR    = Representation{Format: "cbor", ContentType: "application/cbor", encode: encodeCBOR}
)

// cborMode sorts map keys so equal documents encode to equal bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("http: CBOR encoder initialization failed: " + err.Error())
	}
}

func encodeJSON(w io.Writer, env envelope.Envelope) error {
	b, err := json.MarshalIndent(env, "", "    ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func encodeXML(w io.Writer, env envelope.Envelope) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(env)
}

func encodeYAML(w io.Writer, env envelope.Envelope) error {
	doc, err := env.Generic()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func encodeCBOR(w io.Writer, env envelope.Envelope) error {
	doc, err := env.Generic()
	if err != nil {
		return err
	}
	b, err := cborMode.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
