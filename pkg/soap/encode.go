package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"rkd-client/pkg/rkd"
)

// EnvelopeNamespace is the SOAP 1.2 envelope namespace.
const EnvelopeNamespace = "http://www.w3.org/2003/05/soap-envelope"

const envelopePrefix = "s"

// Encode renders req as a SOAP 1.2 envelope. messageID, when non-empty, is
// added to the header as adr:MessageID. Field order is sorted so the output
// is stable for a given descriptor.
func Encode(req *rkd.RequestDescriptor, messageID string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	attrs := []xml.Attr{{Name: xml.Name{Local: "xmlns:" + envelopePrefix}, Value: EnvelopeNamespace}}
	prefixes := make([]string, 0, len(req.Namespaces))
	for p := range req.Namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + p}, Value: req.Namespaces[p]})
	}

	envelope := xml.StartElement{Name: xml.Name{Local: envelopePrefix + ":Envelope"}, Attr: attrs}
	if err := enc.EncodeToken(envelope); err != nil {
		return nil, err
	}

	header := req.Header.Clone()
	if messageID != "" {
		header[rkd.PrefixAddressing+":MessageID"] = messageID
	}
	if err := encodeElement(enc, envelopePrefix+":Header", header); err != nil {
		return nil, err
	}

	body := rkd.Fields{rkd.PrefixOperation + ":" + req.Operation.RequestElement(): req.Body}
	if err := encodeElement(enc, envelopePrefix+":Body", body); err != nil {
		return nil, err
	}

	if err := enc.EncodeToken(envelope.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, name string, value interface{}) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch v := value.(type) {
	case nil:
	case rkd.Fields:
		for _, k := range v.Keys() {
			if err := encodeElement(enc, k, v[k]); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		f := rkd.Fields(v)
		for _, k := range f.Keys() {
			if err := encodeElement(enc, k, f[k]); err != nil {
				return err
			}
		}
	case []interface{}:
		return fmt.Errorf("element %s: repeated values must be encoded by the caller", name)
	case string:
		if err := enc.EncodeToken(xml.CharData(v)); err != nil {
			return err
		}
	default:
		if err := enc.EncodeToken(xml.CharData(fmt.Sprint(v))); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}
