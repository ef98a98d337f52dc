package idoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrParse is the sentinel behind every *ParseError.
var ErrParse = errors.New("idoc parse failure")

// ParseError reports input that is not a well-formed XML document.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("idoc: parse at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads one XML document and returns its root element. Declared
// encodings other than UTF-8 (ISO-8859-1 is common for IDoc exports) are
// transcoded while reading.
func Parse(data []byte) (*Node, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader is Parse for a stream.
func ParseReader(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)
	fail := func(err error) (*Node, error) {
		return nil, &ParseError{Offset: dec.InputOffset(), Err: err}
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return fail(fmt.Errorf("second root element <%s>", t.Name.Local))
			}
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: attrName(a.Name), Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return fail(errors.New("character data outside the root element"))
				}
				continue
			}
			n := stack[len(stack)-1]
			n.Text += string(t)
			n.hasText = true
		}
	}
	if root == nil {
		return fail(errors.New("no root element"))
	}
	if len(stack) > 0 {
		return fail(fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Name))
	}
	return root, nil
}

func attrName(n xml.Name) string {
	switch {
	case n.Space == "":
		return n.Local
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	case n.Space == "xml" || strings.HasPrefix(n.Space, "http://www.w3.org/XML/"):
		return "xml:" + n.Local
	default:
		return n.Local
	}
}
