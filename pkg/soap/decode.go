package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"rkd-client/pkg/rkd"
)

type element struct {
	name     string
	text     strings.Builder
	children []*element
}

// Decode parses a SOAP envelope and returns the children of its Body keyed
// by snake_case element name. Leaf elements become strings, repeated
// siblings become []interface{}. A Body holding a Fault yields *rkd.FaultError.
func Decode(data []byte) (rkd.Fields, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, err
	}
	if root.name != "envelope" {
		return nil, &rkd.MalformedResponseError{Key: "envelope", Reason: fmt.Sprintf("root element is %q", root.name)}
	}

	var body *element
	for _, c := range root.children {
		if c.name == "body" {
			body = c
			break
		}
	}
	if body == nil {
		return nil, &rkd.MalformedResponseError{Key: "body", Reason: "envelope has no body"}
	}

	fields := toFields(body)
	if fault, ok := fields["fault"]; ok {
		return nil, faultFrom(fault)
	}
	return fields, nil
}

func parseTree(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		stack []*element
		root  *element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &rkd.MalformedResponseError{Key: "envelope", Reason: err.Error()}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: rkd.SnakeCase(t.Name.Local)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, &rkd.MalformedResponseError{Key: "envelope", Reason: "empty document"}
	}
	return root, nil
}

func toFields(el *element) rkd.Fields {
	out := rkd.Fields{}
	for _, c := range el.children {
		v := toValue(c)
		switch existing := out[c.name].(type) {
		case nil:
			out[c.name] = v
		case []interface{}:
			out[c.name] = append(existing, v)
		default:
			out[c.name] = []interface{}{existing, v}
		}
	}
	return out
}

func toValue(el *element) interface{} {
	if len(el.children) == 0 {
		return strings.TrimSpace(el.text.String())
	}
	return toFields(el)
}

// faultFrom reads SOAP 1.2 (Code/Value, Reason/Text) and SOAP 1.1
// (faultcode, faultstring) faults.
func faultFrom(v interface{}) *rkd.FaultError {
	f, ok := v.(rkd.Fields)
	if !ok {
		s, _ := v.(string)
		return &rkd.FaultError{Reason: s}
	}

	fault := &rkd.FaultError{}
	if code, ok := f["code"].(rkd.Fields); ok {
		fault.Code, _ = code["value"].(string)
	}
	if reason, ok := f["reason"].(rkd.Fields); ok {
		fault.Reason = firstString(reason["text"])
	}
	if fault.Code == "" {
		fault.Code, _ = f["faultcode"].(string)
	}
	if fault.Reason == "" {
		fault.Reason, _ = f["faultstring"].(string)
	}
	return fault
}

func firstString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			s, _ := t[0].(string)
			return s
		}
	}
	return ""
}
