package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/factoryflow/internal/config"
	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/plan"
)

const recipesText = `# gears can be stamped or cast
gear;0.5;assembler;2,iron plate
gear;1;foundry;1,molten iron
iron plate;3.2;furnace;iron ore
`

// testEnv isolates config and cache directories and provides a recipe file.
type testEnv struct {
	dir     string
	recipes string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, key := range []string{"RECIPES", "CACHE", "CACHE_DIR", "MAX_DEPTH"} {
		t.Setenv("FACTORYFLOW_"+key, "")
		os.Unsetenv("FACTORYFLOW_" + key)
	}

	path := filepath.Join(dir, "recipes.txt")
	if err := os.WriteFile(path, []byte(recipesText), 0o644); err != nil {
		t.Fatal(err)
	}
	return &testEnv{dir: dir, recipes: path}
}

func (e *testEnv) configPath() string {
	return filepath.Join(e.dir, "config", appName, "config.toml")
}

// run executes the CLI with args and stdin, returning stdout.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func planRate(p *plan.Plan, name string) float64 {
	for _, ln := range p.Lines {
		if ln.Item == name {
			return ln.Rate
		}
	}
	return -1
}

func decodePlan(t *testing.T, out string) *plan.Plan {
	t.Helper()
	p, err := plan.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	return p
}

func TestCalcText(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "calc", "-r", env.recipes, "4,gear")

	for _, want := range []string{
		"Required products", "gear", "iron plate", "iron ore", "raw",
		"Needed factories", "assembler", "25.6", "furnace",
		"3 items", "fresh",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Tree view") {
		t.Error("tree view shown without --tree")
	}
	if strings.Contains(out, "Additional products") {
		t.Error("surplus section shown without surplus")
	}
}

func TestCalcTree(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "calc", "-r", env.recipes, "--tree", "4,gear")

	if !strings.Contains(out, "Tree view") {
		t.Fatalf("tree view missing:\n%s", out)
	}
	if !strings.Contains(out, "      8/s iron ore") {
		t.Errorf("iron ore should be indented three levels:\n%s", out)
	}
}

func TestCalcJSON(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		args  []string
		item  string
		rate  float64
		lines int
	}{
		{"plain", []string{"4,gear"}, "iron ore", 8, 3},
		{"owned in spec", []string{"4,gear;2,iron plate"}, "iron ore", 6, 3},
		{"owned flag", []string{"4,gear", "--owned", "2,iron plate"}, "iron ore", 6, 3},
		{"select override", []string{"4,gear", "--select", "gear=1"}, "molten iron", 4, 2},
		{"several targets", []string{"2,gear + 1,iron plate"}, "iron plate", 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"calc", "-r", env.recipes, "-f", "json"}, tt.args...)
			p := decodePlan(t, env.mustRun(t, args...))
			if got := planRate(p, tt.item); got != tt.rate {
				t.Errorf("rate(%s) = %g, want %g", tt.item, got, tt.rate)
			}
			if len(p.Lines) != tt.lines {
				t.Errorf("lines = %d, want %d", len(p.Lines), tt.lines)
			}
		})
	}
}

func TestCalcOutputFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "plan.csv")

	out := env.mustRun(t, "calc", "-r", env.recipes, "-f", "csv", "-o", path, "4,gear")

	if !strings.Contains(out, "Wrote csv plan") || !strings.Contains(out, path) {
		t.Errorf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "depth,item,rate,factory,factories\n0,gear,4,assembler,2\n") {
		t.Errorf("csv = %q", data)
	}
}

func TestCalcDOT(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "calc", "-r", env.recipes, "-f", "dot", "4,gear")

	if !strings.HasPrefix(out, "digraph G {") || !strings.Contains(out, "n0 -> n1;") {
		t.Errorf("dot output = %q", out)
	}
}

func TestCalcErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		code ferrors.Code
	}{
		{"unknown item", []string{"calc", "-r", env.recipes, "1,copper"}, ferrors.ErrCodeNotFound},
		{"negative", []string{"calc", "-r", env.recipes, "--", "-1,gear"}, ferrors.ErrCodeInvalidFormat},
		{"bad format", []string{"calc", "-r", env.recipes, "-f", "gif", "1,gear"}, ferrors.ErrCodeInvalidInput},
		{"png needs output", []string{"calc", "-r", env.recipes, "-f", "png", "1,gear"}, ferrors.ErrCodeInvalidInput},
		{"bad select", []string{"calc", "-r", env.recipes, "--select", "gear", "1,gear"}, ferrors.ErrCodeInvalidInput},
		{"select out of range", []string{"calc", "-r", env.recipes, "--select", "gear=7", "1,gear"}, ferrors.ErrCodeInvalidInput},
		{"no recipes", []string{"calc", "1,gear"}, ferrors.ErrCodeInvalidInput},
		{"missing recipe file", []string{"calc", "-r", filepath.Join(env.dir, "nope.txt"), "1,gear"}, ferrors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := ferrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestCalcCycle(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "cycle.txt")
	if err := os.WriteFile(path, []byte("a;1;f;b\nb;1;f;a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := env.run(t, "", "calc", "-r", path, "1,a")

	if !ferrors.Is(err, ferrors.ErrCodeCycle) {
		t.Errorf("err = %v, want CYCLE_DETECTED", err)
	}
}

func TestRecipesFromConfig(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := filepath.Join(env.dir, "custom.toml")
	if err := os.WriteFile(cfgPath, []byte("recipes = \""+filepath.ToSlash(env.recipes)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := env.mustRun(t, "--config", cfgPath, "items")

	if !strings.Contains(out, "molten iron") {
		t.Errorf("items from configured recipe file missing:\n%s", out)
	}
}

func TestItems(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "items", "-r", env.recipes)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "gear" || !strings.HasPrefix(lines[1], "iron ore") || !strings.Contains(lines[1], "(raw)") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestRecipes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("all", func(t *testing.T) {
		out := env.mustRun(t, "recipes", "-r", env.recipes)
		want := "2 iron plate -> gear (assembler)\nmolten iron -> gear (foundry)\niron ore -> iron plate (furnace)\n"
		if out != want {
			t.Errorf("recipes =\n%s\nwant\n%s", out, want)
		}
	})

	t.Run("candidates", func(t *testing.T) {
		out := env.mustRun(t, "recipes", "-r", env.recipes, "Gear")
		if !strings.Contains(out, "0) 2 iron plate -> gear (assembler)") || !strings.Contains(out, "1) molten iron -> gear (foundry)") {
			t.Errorf("candidates:\n%s", out)
		}
	})

	t.Run("raw", func(t *testing.T) {
		out := env.mustRun(t, "recipes", "-r", env.recipes, "iron ore")
		if !strings.Contains(out, "iron ore is a raw material") {
			t.Errorf("raw:\n%s", out)
		}
	})

	t.Run("dot", func(t *testing.T) {
		out := env.mustRun(t, "recipes", "-r", env.recipes, "--dot")
		if !strings.HasPrefix(out, "digraph") {
			t.Errorf("dot:\n%s", out)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := env.run(t, "", "recipes", "-r", env.recipes, "copper")
		if !ferrors.Is(err, ferrors.ErrCodeNotFound) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestOptional(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "optional", "-r", env.recipes)

	if !strings.Contains(out, "gear") || !strings.Contains(out, "1) molten iron -> gear (foundry)") {
		t.Errorf("optional:\n%s", out)
	}
	if strings.Contains(out, "furnace") {
		t.Errorf("single-recipe items listed:\n%s", out)
	}
}

func TestSelectSavesConfig(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "select", "-r", env.recipes, "gear", "1")
	if !strings.Contains(out, "gear now uses: molten iron -> gear (foundry)") {
		t.Errorf("select output:\n%s", out)
	}

	cfg, err := config.Load(env.configPath())
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Selection["gear"]; got != 1 {
		t.Errorf("saved selection = %d, want 1", got)
	}

	// Later invocations pick the saved recipe up.
	p := decodePlan(t, env.mustRun(t, "calc", "-r", env.recipes, "-f", "json", "4,gear"))
	if got := planRate(p, "molten iron"); got != 4 {
		t.Errorf("molten iron = %g, want 4", got)
	}
}

func TestSelectErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		code ferrors.Code
	}{
		{"out of range", []string{"gear", "5"}, ferrors.ErrCodeInvalidInput},
		{"not a number", []string{"gear", "x"}, ferrors.ErrCodeInvalidInput},
		{"unknown item", []string{"copper", "0"}, ferrors.ErrCodeNotFound},
		{"raw material", []string{"iron ore", "0"}, ferrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, "", append([]string{"select", "-r", env.recipes}, tt.args...)...)
			if got := ferrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
	if _, err := os.Stat(env.configPath()); !os.IsNotExist(err) {
		t.Error("failed selections must not write the config")
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "version")

	if !strings.Contains(out, "version") || !strings.Contains(out, "dev") {
		t.Errorf("version output:\n%s", out)
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.dir, "plans")
	t.Setenv("FACTORYFLOW_CACHE_DIR", dir)

	out := env.mustRun(t, "cache", "path")
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	out = env.mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("clear on missing dir: %q", out)
	}

	// Populate through the file backend.
	t.Setenv("FACTORYFLOW_CACHE", "file")
	env.mustRun(t, "calc", "-r", env.recipes, "-f", "json", "4,gear")
	env.mustRun(t, "calc", "-r", env.recipes, "-f", "json", "2,gear")

	out = env.mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cleared 2 cached entries") {
		t.Errorf("clear output: %q", out)
	}
}

func TestFileCacheHit(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FACTORYFLOW_CACHE", "file")

	first := env.mustRun(t, "calc", "-r", env.recipes, "4,gear")
	second := env.mustRun(t, "calc", "-r", env.recipes, "4,gear")
	refreshed := env.mustRun(t, "calc", "-r", env.recipes, "--refresh", "4,gear")

	if !strings.Contains(first, "fresh") {
		t.Errorf("first run should compute:\n%s", first)
	}
	if !strings.Contains(second, "cached") {
		t.Errorf("second run should hit the cache:\n%s", second)
	}
	if !strings.Contains(refreshed, "fresh") {
		t.Errorf("--refresh should recompute:\n%s", refreshed)
	}
}

func TestParseSelect(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		index   int
		wantErr bool
	}{
		{"gear=1", "gear", 1, false},
		{" iron plate = 0 ", "iron plate", 0, false},
		{"gear", "", 0, true},
		{"=1", "", 0, true},
		{"gear=one", "", 0, true},
	}
	for _, tt := range tests {
		name, idx, err := parseSelect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSelect(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if name != tt.name || idx != tt.index {
			t.Errorf("parseSelect(%q) = %q, %d; want %q, %d", tt.in, name, idx, tt.name, tt.index)
		}
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("displayAddr(:8080) = %q", got)
	}
	if got := displayAddr("0.0.0.0:80"); got != "0.0.0.0:80" {
		t.Errorf("displayAddr(0.0.0.0:80) = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		want []string
		not  []string
	}{
		{
			name: "recipes offers every item",
			args: []string{"__complete", "recipes", "-r", env.recipes, ""},
			want: []string{"gear", "iron ore", "molten iron"},
		},
		{
			name: "select offers optional items",
			args: []string{"__complete", "select", "-r", env.recipes, ""},
			want: []string{"gear"},
			not:  []string{"iron ore"},
		},
		{
			name: "select offers candidate indices",
			args: []string{"__complete", "select", "-r", env.recipes, "gear", ""},
			want: []string{"0\t2 iron plate -> gear (assembler)", "1\tmolten iron -> gear (foundry)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := env.mustRun(t, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w+"\n") {
					t.Errorf("missing %q:\n%s", w, out)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out, n) {
					t.Errorf("unexpected %q:\n%s", n, out)
				}
			}
		})
	}
}
