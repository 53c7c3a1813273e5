package namelist

import (
	"reflect"
	"strings"
	"testing"
)

const aqueous = `! aqueous reactions
&Aqueous
  name     = 'FeII_oxidation'   ! Fe(II) -> Fe(III)
  type     = 'catabolic',
  stoich   = '1.0 Fe++ -1.0 Fe+++'
  keq      = 7.765
/

&AqueousKinetics
  name = 'FeII_oxidation'
  label = 'default'
  rate1 = 1.0E-03
/
`

func TestParse(t *testing.T) {
	nml, err := Parse(strings.NewReader(aqueous))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(nml.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(nml.Groups))
	}

	g, ok := nml.Find("aqueous", "FeII_oxidation")
	if !ok {
		t.Fatal("Expected to find Aqueous FeII_oxidation")
	}
	tests := map[string]string{
		"name":   "'FeII_oxidation'",
		"TYPE":   "'catabolic'",
		"stoich": "'1.0 Fe++ -1.0 Fe+++'",
		"keq":    "7.765",
	}
	for key, want := range tests {
		if got, _ := g.Get(key); got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}

	if got := nml.Reactions("AqueousKinetics"); !reflect.DeepEqual(got, []string{"FeII_oxidation"}) {
		t.Errorf("Reactions = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unterminated": "&Aqueous\n  name = 'x'\n",
		"stray end":    "/\n",
		"no equals":    "&Aqueous\n  name 'x'\n/\n",
		"no name":      "&\n/\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(input)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestParseOneLineGroups(t *testing.T) {
	input := "&Aqueous name='FeII_oxidation', type = 'catabolic', keq=7.765 /\n" +
		"&AqueousKinetics\tname = 'FeII_oxidation', label = 'a,b'\n" +
		"  rates = 1.0, 2.0, rate1 = 1.0E-03 /\n"
	nml, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(nml.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(nml.Groups))
	}

	tests := []struct {
		group, key, want string
	}{
		{"Aqueous", "name", "'FeII_oxidation'"},
		{"Aqueous", "type", "'catabolic'"},
		{"Aqueous", "keq", "7.765"},
		{"AqueousKinetics", "label", "'a,b'"},
		{"AqueousKinetics", "rates", "1.0, 2.0"},
		{"AqueousKinetics", "rate1", "1.0E-03"},
	}
	for _, tt := range tests {
		g, ok := nml.Find(tt.group, "FeII_oxidation")
		if !ok {
			t.Fatalf("Expected to find %s FeII_oxidation", tt.group)
		}
		if got, _ := g.Get(tt.key); got != tt.want {
			t.Errorf("%s %s = %q, want %q", tt.group, tt.key, got, tt.want)
		}
	}
}

func TestStripCommentKeepsQuotedBang(t *testing.T) {
	if got := stripComment(`label = 'a!b' ! note`); got != `label = 'a!b' ` {
		t.Errorf("stripComment = %q", got)
	}
}

func TestCloneAndWrite(t *testing.T) {
	nml, err := Parse(strings.NewReader(aqueous))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	clone := nml.Clone()
	g, _ := clone.Find("AqueousKinetics", "FeII_oxidation")
	g.Set("rate1", "2.5")
	g.Set("rate2", "'new'")

	orig, _ := nml.Find("AqueousKinetics", "FeII_oxidation")
	if v, _ := orig.Get("rate1"); v != "1.0E-03" {
		t.Errorf("Clone shares params with the original: rate1 = %s", v)
	}

	var b strings.Builder
	if _, err := clone.WriteTo(&b); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	out := b.String()
	for _, want := range []string{"&AqueousKinetics\n", "  rate1 = 2.5\n", "  rate2 = 'new'\n", "/\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	again, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse of written file failed: %v", err)
	}
	if len(again.Groups) != 2 {
		t.Errorf("Expected 2 groups after rewrite, got %d", len(again.Groups))
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		"'a'":  "a",
		`"b"`:  "b",
		"'c\"": "'c\"",
		"7":    "7",
		"'":    "'",
	}
	for in, want := range tests {
		if got := Unquote(in); got != want {
			t.Errorf("Unquote(%q) = %q, want %q", in, got, want)
		}
	}
}
