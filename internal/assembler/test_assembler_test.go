package assembler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bydm/internal/diag"
	"bydm/internal/idoc"
	"bydm/internal/mapping"
	"bydm/internal/util/jsonutil"
	"bydm/internal/value"
)

const kunnrConfig = `{"mappings": {"E1KNA1M": {"KUNNR": {"target": "location.0.customerId", "validation": "NUMBER"}}}}`

func load(t *testing.T, cfgJSON, xml string) (*mapping.Config, *idoc.Node) {
	t.Helper()
	cfg, err := mapping.Parse([]byte(cfgJSON))
	require.NoError(t, err)
	root, err := idoc.Parse([]byte(xml))
	require.NoError(t, err)
	return cfg, root
}

func TestAssemble_EndToEnd(t *testing.T) {
	cfg, root := load(t, kunnrConfig, `<DEBMAS><E1KNA1M><KUNNR>0001234567</KUNNR></E1KNA1M></DEBMAS>`)
	template := map[string]any{"location": []any{map[string]any{}}}

	res := Assemble(root, cfg, template, nil, Options{})
	assert.True(t, res.AllValid)
	assert.Equal(t, map[string]any{
		"location":          []any{map[string]any{"customerId": "0001234567"}},
		KeyUnmappedSegments: []any{},
		KeyUnmappedSummary:  map[string]any{},
		KeyMappingUsage:     map[string]any{"location.0.customerId": 1},
	}, res.Output, spew.Sdump(res.Output))

	raw, err := jsonutil.MarshalIndent(res.Output)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"unmappedSegments": []`)
	assert.Equal(t, map[string]any{"location": []any{map[string]any{}}}, template, "template must not change")
}

func TestAssemble_UnmappedSegments(t *testing.T) {
	cfg, root := load(t, kunnrConfig, `<DEBMAS>
  <ZZFOO><A>1</A></ZZFOO>
  <E1KNA1M><KUNNR>1</KUNNR></E1KNA1M>
  <ZZFOO SEGMENT="1"><A>2</A></ZZFOO>
</DEBMAS>`)

	rec := diag.NewRecorder(nil)
	res := Assemble(root, cfg, map[string]any{}, rec, Options{})

	assert.Equal(t, []any{
		map[string]any{"ZZFOO": map[string]any{"A": "1"}},
		map[string]any{"ZZFOO": map[string]any{"@SEGMENT": "1", "A": "2"}},
	}, res.Output[KeyUnmappedSegments])
	assert.Equal(t, map[string]any{"ZZFOO": 2}, res.Output[KeyUnmappedSummary])
	assert.Equal(t, map[string]int{"ZZFOO": 2}, res.Unmapped)
	assert.Equal(t, 2, rec.Count(diag.KindUnmappedSegment))
}

func TestAssemble_SingleUnmappedSegment(t *testing.T) {
	cfg, root := load(t, kunnrConfig, `<DEBMAS><ZZFOO><A>1</A></ZZFOO></DEBMAS>`)
	res := Assemble(root, cfg, nil, nil, Options{})
	segs := res.Output[KeyUnmappedSegments].([]any)
	require.Len(t, segs, 1)
	assert.Contains(t, segs[0], "ZZFOO")
	assert.Equal(t, map[string]any{"ZZFOO": 1}, res.Output[KeyUnmappedSummary])
}

func TestAssemble_SeedsRootArray(t *testing.T) {
	cases := []struct {
		name     string
		template map[string]any
	}{
		{"absent", map[string]any{"header": "h"}},
		{"empty", map[string]any{"header": "h", "location": []any{}}},
		{"not an array", map[string]any{"header": "h", "location": "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, root := load(t, kunnrConfig, `<D><E1KNA1M><KUNNR>42</KUNNR></E1KNA1M></D>`)
			res := Assemble(root, cfg, tc.template, nil, Options{})
			assert.Equal(t, "h", res.Output["header"])
			assert.Equal(t, []any{map[string]any{"customerId": "42"}}, res.Output["location"])
		})
	}
}

func TestAssemble_CustomRootArrayField(t *testing.T) {
	cfg, root := load(t, `{"mappings": {"E1EDK01": {"BELNR": {"target": "orders.0.id"}}}}`,
		`<ORDERS05><E1EDK01><BELNR>4711</BELNR></E1EDK01></ORDERS05>`)
	res := Assemble(root, cfg, map[string]any{}, nil, Options{RootArrayField: "orders"})
	assert.Equal(t, []any{map[string]any{"id": "4711"}}, res.Output["orders"])
	assert.NotContains(t, res.Output, "location")
}

func TestAssemble_LooksThroughEnvelope(t *testing.T) {
	cfg, root := load(t, kunnrConfig, `<DEBMAS06><IDOC BEGIN="1">
  <EDI_DC40 SEGMENT="1"><TABNAM>EDI_DC40</TABNAM></EDI_DC40>
  <E1KNA1M SEGMENT="1"><KUNNR>7</KUNNR></E1KNA1M>
</IDOC></DEBMAS06>`)
	res := Assemble(root, cfg, map[string]any{}, nil, Options{})
	assert.Equal(t, []any{map[string]any{"customerId": "7"}}, res.Output["location"])
	assert.Equal(t, map[string]any{"EDI_DC40": 1}, res.Output[KeyUnmappedSummary])
}

func TestAssemble_ArrayFanOutKeepsOrder(t *testing.T) {
	const n = 25
	var b strings.Builder
	b.WriteString("<D>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<ITEM><ID>%d</ID></ITEM>", i)
	}
	b.WriteString("</D>")
	cfg, root := load(t, `{"mappings": {"D": {"ITEM": {"target": "items", "isArray": true, "mapping": {"ID": {"target": "id"}}}}}}`,
		"<ROOT>"+b.String()+"</ROOT>")
	res := Assemble(root, cfg, map[string]any{}, nil, Options{})
	items := res.Output["items"].([]any)
	require.Len(t, items, n)
	for i, it := range items {
		assert.Equal(t, fmt.Sprint(i), it.(map[string]any)["id"])
	}
	assert.Equal(t, n, res.Usage["items"])
}

func TestAssemble_Deterministic(t *testing.T) {
	cfgJSON := `{"mappings": {"E1KNA1M": {
  "KUNNR": {"target": "location.0.customerId", "validation": "NUMBER"},
  "LAND1": {"target": "location.0.address.country", "transformation": {"type": "MAP", "values": {"US": "USA"}}},
  "E1KNVKM": {"target": "location.0.contacts", "isArray": true, "mapping": {"NAME1": {"target": "name"}}}
}}}`
	xml := `<DEBMAS><E1KNA1M><KUNNR>1</KUNNR><LAND1>US</LAND1>
<E1KNVKM><NAME1>b</NAME1></E1KNVKM><E1KNVKM><NAME1>a</NAME1></E1KNVKM></E1KNA1M>
<ZZFOO><X>1</X></ZZFOO><ZZBAR/></DEBMAS>`
	template := map[string]any{"location": []any{map[string]any{"type": "CUSTOMER"}}, "meta": map[string]any{"v": "1"}}

	var first []byte
	for i := 0; i < 5; i++ {
		cfg, root := load(t, cfgJSON, xml)
		raw, err := jsonutil.MarshalIndent(Assemble(root, cfg, template, nil, Options{}).Output)
		require.NoError(t, err)
		if first == nil {
			first = raw
			continue
		}
		assert.Equal(t, string(first), string(raw))
	}
}

func TestAssemble_ValidationOutcome(t *testing.T) {
	cfg, root := load(t, kunnrConfig, `<D><E1KNA1M><KUNNR>12a</KUNNR></E1KNA1M></D>`)
	res := Assemble(root, cfg, map[string]any{}, nil, Options{Validator: value.Validator{}})
	assert.False(t, res.AllValid)
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, []any{map[string]any{}}, res.Output["location"])
	assert.Equal(t, map[string]any{}, res.Output[KeyMappingUsage])
}

func TestAssemble_InvalidTopLevelEntry(t *testing.T) {
	cfg, err := mapping.Parse([]byte(`{"mappings": {"E1KNA1M": {"target": "x"}}}`), mapping.WithLenient())
	require.NoError(t, err)
	root, err := idoc.Parse([]byte(`<D><E1KNA1M><KUNNR>1</KUNNR></E1KNA1M></D>`))
	require.NoError(t, err)

	rec := diag.NewRecorder(nil)
	res := Assemble(root, cfg, map[string]any{}, rec, Options{})
	assert.Equal(t, 1, rec.Count(diag.KindInvalidMapping))
	assert.NotContains(t, res.Output, "x")
	assert.Equal(t, map[string]any{}, res.Output[KeyUnmappedSummary])
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
