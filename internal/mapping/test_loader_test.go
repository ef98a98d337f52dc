package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customerConfig = `{
  "mappings": {
    "E1KNA1M": {
      "KUNNR": {"target": "location.0.customerId", "validation": "number"},
      "LAND1": {
        "target": "location.0.address.country",
        "transformation": {"type": "MAP", "values": {"US": "USA", "DE": "DEU"}}
      },
      "NAME1": {"target": "location.0.name", "validation": "TEXT", "default_value": "UNKNOWN"},
      "E1KNVKM": {
        "target": "location.0.contacts",
        "isArray": true,
        "mapping": {
          "NAME1": {"target": "name"},
          "TELF1": {"target": "phone.number"}
        }
      },
      "E1KNA11": {
        "KATR1": {"target": "location.0.attributes.type", "transformation": "UPPERCASE"}
      }
    }
  }
}`

func TestParse_ClassifiesEntries(t *testing.T) {
	cfg, err := Parse([]byte(customerConfig))
	require.NoError(t, err)

	seg, ok := cfg.Segment("E1KNA1M")
	require.True(t, ok)
	group, ok := seg.(*GroupRule)
	require.True(t, ok, "segment should be a group, got %T", seg)

	names := make([]string, 0, group.Group.Len())
	for _, e := range group.Group.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"KUNNR", "LAND1", "NAME1", "E1KNVKM", "E1KNA11"}, names)

	kunnr, _ := group.Group.Lookup("KUNNR")
	leaf := kunnr.(*LeafRule)
	assert.Equal(t, ValidationNumber, leaf.Validation)
	assert.Equal(t, "location.0.customerId", leaf.Target.String())
	assert.Nil(t, leaf.Transform)

	land1, _ := group.Group.Lookup("LAND1")
	spec := land1.(*LeafRule).Transform
	require.NotNil(t, spec)
	assert.Equal(t, TransformMap, spec.Kind)
	assert.Equal(t, map[string]string{"US": "USA", "DE": "DEU"}, spec.Values)

	name1, _ := group.Group.Lookup("NAME1")
	assert.True(t, name1.(*LeafRule).HasDefault)
	assert.Equal(t, "UNKNOWN", name1.(*LeafRule).Default)

	contacts, _ := group.Group.Lookup("E1KNVKM")
	arr, ok := contacts.(*ArrayRule)
	require.True(t, ok)
	assert.Equal(t, "location.0.contacts", arr.TargetRaw)
	require.Equal(t, 2, arr.Element.Len())
	tel, _ := arr.Element.Lookup("TELF1")
	assert.Equal(t, "phone.number", tel.(*LeafRule).TargetRaw)

	nested, _ := group.Group.Lookup("E1KNA11")
	sub, ok := nested.(*GroupRule)
	require.True(t, ok)
	katr, _ := sub.Group.Lookup("KATR1")
	assert.Equal(t, TransformUpper, katr.(*LeafRule).Transform.Kind)

	assert.Equal(t, Stats{Segments: 1, Leaves: 6, Arrays: 1, Groups: 2}, cfg.Stats())
}

func TestParse_StringTransformationWithConditions(t *testing.T) {
	cfg, err := Parse([]byte(`{
  "mappings": {
    "SEG": {
      "PARVW": {
        "target": "partner.role",
        "transformation": "CONDITIONAL",
        "conditions": {"AG": "SOLD_TO", "WE": "SHIP_TO", "default": "OTHER"}
      },
      "SPRAS": {"target": "language", "transformation": "map", "conditions": {"E": "en"}},
      "ORT01": {"target": "city", "transformation": "NONE"}
    }
  }
}`))
	require.NoError(t, err)
	seg, _ := cfg.Segment("SEG")
	g := seg.(*GroupRule).Group

	parvw, _ := g.Lookup("PARVW")
	spec := parvw.(*LeafRule).Transform
	require.NotNil(t, spec)
	assert.Equal(t, TransformConditional, spec.Kind)
	assert.True(t, spec.HasDefault)
	assert.Equal(t, "OTHER", spec.Default)
	assert.NotContains(t, spec.Values, "default")

	spras, _ := g.Lookup("SPRAS")
	assert.Equal(t, TransformMap, spras.(*LeafRule).Transform.Kind)

	ort, _ := g.Lookup("ORT01")
	assert.Nil(t, ort.(*LeafRule).Transform)
}

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(`
mappings:
  E1KNA1M:
    KUNNR:
      target: location.0.customerId
      validation: NUMBER
    E1KNVKM:
      target: location.0.contacts
      isArray: true
      mapping:
        NAME1:
          target: name
`))
	require.NoError(t, err)
	assert.Equal(t, Stats{Segments: 1, Leaves: 2, Arrays: 1, Groups: 1}, cfg.Stats())
}

func TestParse_StrictErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		path string
	}{
		{"empty", ``, ""},
		{"missing mappings", `{"other": {}}`, ""},
		{"mappings not object", `{"mappings": []}`, "mappings"},
		{"top-level leaf", `{"mappings": {"SEG": {"target": "a"}}}`, "mappings.SEG"},
		{"scalar entry", `{"mappings": {"SEG": {"F": "a.b"}}}`, "mappings.SEG.F"},
		{"bad target", `{"mappings": {"SEG": {"F": {"target": "a..b"}}}}`, "mappings.SEG.F.target"},
		{"unknown validation", `{"mappings": {"SEG": {"F": {"target": "a", "validation": "DATE"}}}}`, "mappings.SEG.F"},
		{"unknown transformation", `{"mappings": {"SEG": {"F": {"target": "a", "transformation": {"type": "REVERSE"}}}}}`, "mappings.SEG.F.transformation"},
		{"map without values", `{"mappings": {"SEG": {"F": {"target": "a", "transformation": {"type": "MAP"}}}}}`, "mappings.SEG.F.transformation"},
		{"array without mapping", `{"mappings": {"SEG": {"F": {"target": "a", "isArray": true}}}}`, "mappings.SEG.F"},
		{"nested group in array", `{"mappings": {"SEG": {"F": {"target": "a", "isArray": true, "mapping": {"G": {"X": {"target": "x"}}}}}}}`, "mappings.SEG.F.mapping.G"},
		{"isArray not bool", `{"mappings": {"SEG": {"F": {"target": "a", "isArray": "maybe"}}}}`, "mappings.SEG.F.isArray"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.path, cerr.Path)
		})
	}
}

func TestParse_LenientKeepsInvalidEntries(t *testing.T) {
	cfg, err := Parse([]byte(`{
  "mappings": {
    "SEG": {
      "GOOD": {"target": "a"},
      "BAD": "a.b",
      "WEIRD": {"target": "b", "validation": "DATE"}
    },
    "LEAF": {"target": "c"}
  }
}`), WithLenient())
	require.NoError(t, err)

	seg, _ := cfg.Segment("SEG")
	g := seg.(*GroupRule).Group
	bad, _ := g.Lookup("BAD")
	assert.IsType(t, &InvalidRule{}, bad)
	weird, _ := g.Lookup("WEIRD")
	assert.IsType(t, &InvalidRule{}, weird)

	leaf, ok := cfg.Segment("LEAF")
	require.True(t, ok)
	inv, ok := leaf.(*InvalidRule)
	require.True(t, ok)
	assert.Contains(t, inv.Reason, "not a group")

	assert.Equal(t, 3, cfg.Stats().Invalid)
}

func TestLoad_ReaderAndFile(t *testing.T) {
	cfg, err := Load(strings.NewReader(customerConfig))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Segments.Len())

	path := filepath.Join(t.TempDir(), "customer.json")
	require.NoError(t, os.WriteFile(path, []byte(customerConfig), 0o644))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Segments.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGroup_DuplicateReplaces(t *testing.T) {
	g := NewGroup(
		Entry{Name: "A", Rule: &LeafRule{Source: "A", TargetRaw: "x"}},
		Entry{Name: "B", Rule: &LeafRule{Source: "B", TargetRaw: "y"}},
		Entry{Name: "A", Rule: &LeafRule{Source: "A", TargetRaw: "z"}},
	)
	require.Equal(t, 2, g.Len())
	a, _ := g.Lookup("A")
	assert.Equal(t, "z", a.(*LeafRule).TargetRaw)
	assert.Equal(t, "A", g.Entries[0].Name)
}

func TestParseValidation(t *testing.T) {
	for in, want := range map[string]ValidationKind{
		"":       ValidationNone,
		"none":   ValidationNone,
		"number": ValidationNumber,
		" TEXT ": ValidationText,
	} {
		got, ok := ParseValidation(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseValidation("DATE")
	assert.False(t, ok)
}
