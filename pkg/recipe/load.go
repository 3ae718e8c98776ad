package recipe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
)

// Format identifies a recipe file syntax.
type Format string

// Supported recipe file formats.
const (
	FormatText Format = "text"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// DetectFormat picks a format from a file extension. Anything other than
// .toml, .yaml and .yml is treated as the text format.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Decode reads recipes in the given format into a fresh registry and builds
// a database from them.
func Decode(r io.Reader, format Format) (*Database, error) {
	reg := item.NewRegistry()
	var (
		recipes []*Recipe
		err     error
	)
	switch format {
	case FormatText:
		recipes, err = ParseText(r, reg)
	case FormatTOML:
		recipes, err = DecodeTOML(r, reg)
	case FormatYAML:
		recipes, err = DecodeYAML(r, reg)
	default:
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "unsupported recipe format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return NewDatabase(reg, recipes)
}

// LoadFile reads and validates a recipe file, detecting its format from the
// extension.
func LoadFile(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "recipe file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	db, err := Decode(f, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return db, nil
}

// WriteText writes recipes in the text format accepted by [ParseText].
// Output is deterministic, which makes it usable as a content fingerprint.
func WriteText(w io.Writer, reg *item.Registry, recipes []*Recipe) error {
	for _, r := range recipes {
		fields := []string{
			joinTokens(reg, r.Results, "+"),
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			r.Factory,
		}
		if len(r.Ingredients) > 0 {
			fields = append(fields, joinTokens(reg, r.Ingredients, ";"))
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ";")); err != nil {
			return err
		}
	}
	return nil
}

func joinTokens(reg *item.Registry, amounts []item.Amount, sep string) string {
	toks := make([]string, len(amounts))
	for i, a := range amounts {
		toks[i] = strconv.FormatFloat(a.Amount, 'g', -1, 64) + "," + reg.Name(a.Item)
	}
	return strings.Join(toks, sep)
}
