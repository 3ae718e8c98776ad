package plan

import (
	"bytes"
	"context"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/factoryflow/pkg/calc"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

const gearText = `
gear;0.5;assembler;2,iron plate
iron plate;3.2;furnace;iron ore
`

func expand(t *testing.T, text, spec string, tree bool) (*recipe.Database, *calc.State) {
	t.Helper()
	db, err := recipe.Decode(strings.NewReader(text), recipe.FormatText)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	targets, owned, err := recipe.ParseSpec(spec, db.Items())
	if err != nil {
		t.Fatalf("ParseSpec(%q): %v", spec, err)
	}
	st, err := calc.New(db, calc.Options{Tree: tree}).Expand(context.Background(), targets, owned)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return db, st
}

func names(reg *item.Registry, amounts []item.Amount) []string {
	var out []string
	for _, a := range amounts {
		out = append(out, reg.Format(a))
	}
	return out
}

func TestRequiredGroups(t *testing.T) {
	db, st := expand(t, gearText, "5,gear", false)
	levels := RequiredGroups(st)
	if len(levels) != 3 {
		t.Fatalf("levels = %d, want 3", len(levels))
	}
	want := [][]string{{"5 gear"}, {"10 iron plate"}, {"10 iron ore"}}
	for i, lvl := range levels {
		if lvl.Depth != i {
			t.Errorf("level %d depth = %d", i, lvl.Depth)
		}
		if got := names(db.Items(), lvl.Items); !slices.Equal(got, want[i]) {
			t.Errorf("level %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestRequiredGroupsOrdersByID(t *testing.T) {
	// b is interned before a, so it sorts first within the level.
	db, st := expand(t, "x;1;f;1,b;1,a\n", "1,x", false)
	levels := RequiredGroups(st)
	if len(levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(levels))
	}
	if got := names(db.Items(), levels[1].Items); !slices.Equal(got, []string{"1 b", "1 a"}) {
		t.Errorf("level 1 = %v", got)
	}
}

func TestRequiredGroupsSkipsEmptyLevels(t *testing.T) {
	// iron plate is fully covered, so iron ore (depth 2) has zero demand.
	_, st := expand(t, gearText, "5,gear;12,iron plate", false)
	levels := RequiredGroups(st)
	if len(levels) != 2 {
		t.Fatalf("levels = %+v, want depth 0 and 1 only", levels)
	}
	if RequiredGroups(calc.New(mustDB(t), calc.Options{}).State()) != nil {
		t.Error("zero state must have no levels")
	}
}

func mustDB(t *testing.T) *recipe.Database {
	t.Helper()
	db, err := recipe.Decode(strings.NewReader(gearText), recipe.FormatText)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestSurplusItems(t *testing.T) {
	db, st := expand(t, gearText, "5,gear;12,iron plate", false)
	if got := names(db.Items(), SurplusItems(st)); !slices.Equal(got, []string{"2 iron plate"}) {
		t.Errorf("SurplusItems = %v", got)
	}
}

func TestFactories(t *testing.T) {
	db, st := expand(t, `
gear;0.5;assembler;2,iron plate
circuit;0.5;assembler;3,copper cable;1,iron plate
iron plate;3.2;furnace;iron ore
`, "5,gear + 1,circuit", false)

	got := Factories(db, st)
	want := []FactoryCount{
		{Factory: "assembler", Count: 2.5 + 0.5},
		{Factory: "furnace", Count: 11 * 3.2},
	}
	if len(got) != len(want) {
		t.Fatalf("Factories = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i].Factory != want[i].Factory || math.Abs(got[i].Count-want[i].Count) > 1e-9 {
			t.Errorf("factory %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildTree(t *testing.T) {
	db, st := expand(t, gearText+"x;1;f;1,gear;2,iron plate\n", "1,x;2,gear", true)
	p := Build(db, st)

	var got []string
	for _, tl := range p.Tree {
		got = append(got, strings.Repeat(".", tl.Depth)+tl.Item)
	}
	// gear is covered by owned stock, so the zero-amount plate below it is
	// skipped along with its ore.
	want := []string{"x", ".gear", ".iron plate", "..iron ore"}
	if !slices.Equal(got, want) {
		t.Errorf("tree = %v, want %v", got, want)
	}
}

func TestBuildLines(t *testing.T) {
	db, st := expand(t, gearText, "5,gear", false)
	p := Build(db, st)

	want := []Line{
		{Depth: 0, Item: "gear", Rate: 5, Factory: "assembler", Factories: 2.5},
		{Depth: 1, Item: "iron plate", Rate: 10, Factory: "furnace", Factories: 32},
		{Depth: 2, Item: "iron ore", Rate: 10},
	}
	if !slices.Equal(p.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", p.Lines, want)
	}
	if len(p.Levels()) != 3 || p.Items() != 3 {
		t.Errorf("Levels() = %d, Items() = %d", len(p.Levels()), p.Items())
	}
	if p.Tree != nil || p.Surplus != nil {
		t.Errorf("unexpected tree/surplus: %+v", p)
	}
}

func TestWriteText(t *testing.T) {
	db, st := expand(t, gearText, "5,gear;1,iron ore", false)
	var buf bytes.Buffer
	if err := WriteText(&buf, Build(db, st)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	want := `--- Required products ---
gear            :    5/s - 2.5 assembler

iron plate      :   10/s -  32 furnace

iron ore        :   10/s
--- Needed factories ---
assembler       : 2.5
furnace         :  32
`
	// Owned ore is netted against demand; the required rate stays gross.
	if buf.String() != want {
		t.Errorf("WriteText:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteTextSurplusAndTree(t *testing.T) {
	db, st := expand(t, gearText, "1,gear;3,iron plate", true)
	var buf bytes.Buffer
	if err := WriteText(&buf, Build(db, st)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, s := range []string{
		"--- Additional products ---\niron plate      :    1/s\n",
		"--- Tree View ---\ngear 1/s - 0.5 assembler\n  iron plate 2/s - 6.4 furnace\n",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	if strings.Contains(out, "iron ore") {
		t.Errorf("zero-demand iron ore must be omitted:\n%s", out)
	}
}

func TestWriteCSV(t *testing.T) {
	db, st := expand(t, gearText, "5,gear", false)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Build(db, st)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv rows = %d, want 4:\n%s", len(lines), buf.String())
	}
	if lines[0] != "depth,item,rate,factory,factories" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "0,gear,5,assembler,2.5" {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func TestWriteJSONReadable(t *testing.T) {
	db, st := expand(t, gearText, "5,gear;2,iron plate", true)
	p := Build(db, st)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, p); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !slices.Equal(got.Lines, p.Lines) || !slices.Equal(got.Tree, p.Tree) {
		t.Errorf("decoded plan differs: %+v", got)
	}
}
