package mapping

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bydm/internal/pathaddr"
)

// Option configures Parse.
type Option func(*loader)

// WithLenient keeps unclassifiable entries as *InvalidRule instead of
// failing the whole load.
func WithLenient() Option {
	return func(l *loader) { l.lenient = true }
}

type loader struct {
	lenient bool
}

// LoadFile reads and parses a mapping file from the local filesystem.
func LoadFile(path string, opts ...Option) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("read %s", path), Err: err}
	}
	defer f.Close()
	return Load(f, opts...)
}

// Load parses a mapping configuration from r.
func Load(r io.Reader, opts ...Option) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConfigError{Msg: "read", Err: err}
	}
	return Parse(data, opts...)
}

// Parse parses JSON or YAML mapping data.
func Parse(data []byte, opts ...Option) (*Config, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, configErr("", "empty document")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Msg: "decode", Err: err}
	}
	root := resolve(&doc)
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolve(root.Content[0])
	}
	if root.Kind != yaml.MappingNode {
		return nil, configErr("", "root must be an object")
	}
	mappings := lookupKey(root, "mappings")
	if mappings == nil {
		return nil, configErr("", `missing "mappings"`)
	}
	if mappings.Kind != yaml.MappingNode {
		return nil, configErr("mappings", "must be an object")
	}

	segments := NewGroup()
	for i := 0; i+1 < len(mappings.Content); i += 2 {
		name := mappings.Content[i].Value
		at := "mappings." + name
		rule, err := l.entry(at, name, resolve(mappings.Content[i+1]))
		if err != nil {
			return nil, err
		}
		if _, ok := rule.(*GroupRule); !ok {
			if _, invalid := rule.(*InvalidRule); !invalid {
				if !l.lenient {
					return nil, configErr(at, "top-level segment entries must be groups of field rules")
				}
				rule = &InvalidRule{Source: name, Reason: "top-level segment entry is not a group"}
			}
		}
		segments.add(Entry{Name: name, Rule: rule})
	}
	return &Config{Segments: segments}, nil
}

// entry classifies one configuration value.
func (l *loader) entry(at, name string, node *yaml.Node) (Rule, error) {
	if node.Kind != yaml.MappingNode {
		return l.invalid(at, name, fmt.Sprintf("expected an object, got %s", kindName(node)))
	}
	target := lookupKey(node, "target")
	if target == nil {
		g, err := l.group(at, node)
		if err != nil {
			return nil, err
		}
		return &GroupRule{Source: name, Group: g}, nil
	}

	targetRaw, ok := scalar(target)
	if !ok {
		return l.invalid(at, name, `"target" must be a string`)
	}
	path, err := pathaddr.Parse(targetRaw)
	if err != nil {
		return nil, &ConfigError{Path: at + ".target", Msg: "bad target path", Err: err}
	}

	isArray, err := boolKey(at, node, "isArray")
	if err != nil {
		return nil, err
	}
	if isArray {
		return l.array(at, name, node, path, targetRaw)
	}
	return l.leaf(at, name, node, path, targetRaw)
}

func (l *loader) invalid(at, name, reason string) (Rule, error) {
	if l.lenient {
		return &InvalidRule{Source: name, Reason: reason}, nil
	}
	return nil, configErr(at, "%s", reason)
}

func (l *loader) group(at string, node *yaml.Node) (*Group, error) {
	g := NewGroup()
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		rule, err := l.entry(at+"."+name, name, resolve(node.Content[i+1]))
		if err != nil {
			return nil, err
		}
		g.add(Entry{Name: name, Rule: rule})
	}
	return g, nil
}

func (l *loader) array(at, name string, node *yaml.Node, path pathaddr.Path, raw string) (Rule, error) {
	m := lookupKey(node, "mapping")
	if m == nil || m.Kind != yaml.MappingNode {
		return l.invalid(at, name, `array rule requires a "mapping" object`)
	}
	elem := NewGroup()
	for i := 0; i+1 < len(m.Content); i += 2 {
		sub := m.Content[i].Value
		subAt := at + ".mapping." + sub
		rule, err := l.entry(subAt, sub, resolve(m.Content[i+1]))
		if err != nil {
			return nil, err
		}
		switch rule.(type) {
		case *LeafRule, *InvalidRule:
		default:
			if rule, err = l.invalid(subAt, sub, "array element mappings may only contain leaf rules"); err != nil {
				return nil, err
			}
		}
		elem.add(Entry{Name: sub, Rule: rule})
	}
	return &ArrayRule{Source: name, Target: path, TargetRaw: raw, Element: elem}, nil
}

func (l *loader) leaf(at, name string, node *yaml.Node, path pathaddr.Path, raw string) (Rule, error) {
	rule := &LeafRule{Source: name, Target: path, TargetRaw: raw}

	if v := lookupKey(node, "validation"); v != nil && !isNull(v) {
		s, ok := scalar(v)
		kind, known := ParseValidation(s)
		if !ok || !known {
			return l.invalid(at, name, fmt.Sprintf("unknown validation %q", v.Value))
		}
		rule.Validation = kind
	}

	if d := lookupKey(node, "default_value"); d != nil && !isNull(d) {
		s, ok := scalar(d)
		if !ok {
			return l.invalid(at, name, `"default_value" must be a scalar`)
		}
		if s != "" {
			rule.Default, rule.HasDefault = s, true
		}
	}

	spec, err := l.transform(at, node)
	if err != nil {
		if l.lenient {
			return &InvalidRule{Source: name, Reason: err.Msg}, nil
		}
		return nil, err
	}
	rule.Transform = spec
	return rule, nil
}

// transform reads "transformation". Besides the object form it accepts the
// bare-string form used by older configurations, where the lookup table sits
// next to it under "conditions".
func (l *loader) transform(at string, node *yaml.Node) (*TransformSpec, *ConfigError) {
	t := lookupKey(node, "transformation")
	if t == nil || isNull(t) {
		return nil, nil
	}
	tAt := at + ".transformation"

	var (
		kindRaw string
		table   *yaml.Node
	)
	switch t.Kind {
	case yaml.ScalarNode:
		kindRaw = t.Value
		table = lookupKey(node, "conditions")
	case yaml.MappingNode:
		typ := lookupKey(t, "type")
		if typ == nil {
			return nil, configErr(tAt, `missing "type"`)
		}
		kindRaw, _ = scalar(typ)
		table = lookupKey(t, "values")
		if table == nil {
			table = lookupKey(t, "conditions")
		}
	default:
		return nil, configErr(tAt, "expected a string or an object, got %s", kindName(t))
	}

	switch strings.ToUpper(strings.TrimSpace(kindRaw)) {
	case "", "NONE", "DIRECT":
		return nil, nil
	case string(TransformUpper):
		return &TransformSpec{Kind: TransformUpper}, nil
	case string(TransformLower):
		return &TransformSpec{Kind: TransformLower}, nil
	case string(TransformMap):
		values, err := stringTable(tAt, table)
		if err != nil {
			return nil, err
		}
		return &TransformSpec{Kind: TransformMap, Values: values}, nil
	case string(TransformConditional), "CONDITIONAL_MAP":
		values, err := stringTable(tAt, table)
		if err != nil {
			return nil, err
		}
		spec := &TransformSpec{Kind: TransformConditional, Values: values}
		if d, ok := values["default"]; ok {
			spec.Default, spec.HasDefault = d, true
			delete(values, "default")
		}
		return spec, nil
	default:
		return nil, configErr(tAt, "unknown transformation %q", kindRaw)
	}
}

func stringTable(at string, node *yaml.Node) (map[string]string, *ConfigError) {
	if node == nil || isNull(node) {
		return nil, configErr(at, "missing value table")
	}
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return nil, configErr(at, "value table must be an object")
	}
	out := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i].Value
		v, ok := scalar(node.Content[i+1])
		if !ok {
			return nil, configErr(at+"."+k, "table values must be scalars")
		}
		out[k] = v
	}
	return out, nil
}

func boolKey(at string, node *yaml.Node, key string) (bool, error) {
	v := lookupKey(node, key)
	if v == nil || isNull(v) {
		return false, nil
	}
	s, ok := scalar(v)
	if !ok {
		return false, configErr(at+"."+key, "must be a boolean")
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, configErr(at+"."+key, "must be a boolean, got %q", s)
	}
	return b, nil
}

// --- yaml.Node helpers ---

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func lookupKey(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolve(node.Content[i+1])
		}
	}
	return nil
}

func scalar(node *yaml.Node) (string, bool) {
	node = resolve(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return "", false
	}
	if isNull(node) {
		return "", true
	}
	return node.Value, true
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) {
			return "null"
		}
		return "scalar " + strconv.Quote(node.Value)
	case yaml.SequenceNode:
		return "array"
	case yaml.MappingNode:
		return "object"
	default:
		return "unknown node"
	}
}
