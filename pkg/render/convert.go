package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
)

// rsvgBinary converts SVG to raster and print formats.
const rsvgBinary = "rsvg-convert"

// ToPDF converts an SVG plan drawing to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts an SVG plan drawing to PNG, scaled by zoom.
func ToPNG(ctx context.Context, svg []byte, zoom float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "--zoom", fmt.Sprintf("%.2f", zoom))
}

// rsvgConvert pipes svg through rsvg-convert. A missing binary is reported
// as UNSUPPORTED so servers can answer 501 instead of 500.
func rsvgConvert(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeUnsupported, err,
			"%s output needs librsvg (brew install librsvg, apt install librsvg2-bin)", format)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", rsvgBinary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
