package planner

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/factoryflow/pkg/cache"
	"github.com/matzehuels/factoryflow/pkg/calc"
	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/observability"
	"github.com/matzehuels/factoryflow/pkg/plan"
	"github.com/matzehuels/factoryflow/pkg/recipe"
	"github.com/matzehuels/factoryflow/pkg/render"
)

// Runner executes plan requests with caching.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	MaxDepth int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// PlanWithCacheInfo returns the plan for req and whether it came from the
// cache.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, db *recipe.Database, req Request) (p *plan.Plan, hit bool, err error) {
	start := time.Now()
	defer func() {
		items := 0
		if p != nil {
			items = p.Items()
		}
		observability.Planner().OnPlan(ctx, items, hit, time.Since(start), err)
	}()

	if err := req.Validate(db); err != nil {
		return nil, false, err
	}

	reg := db.Items()
	key := r.Keyer.PlanKey(db.Fingerprint(), cache.PlanKeyOpts{
		Targets:  tokens(reg, req.Targets),
		Owned:    tokens(reg, req.Owned),
		Tree:     req.Tree,
		MaxDepth: r.MaxDepth,
	})

	if !req.Refresh {
		if p, ok := r.cachedPlan(ctx, key); ok {
			r.Logger.Debug("plan cache hit", "targets", len(req.Targets))
			return p, true, nil
		}
	}

	engine := calc.New(db, calc.Options{MaxDepth: r.MaxDepth, Tree: req.Tree})
	st, err := engine.Expand(ctx, req.Targets, req.Owned)
	if err != nil {
		return nil, false, fmt.Errorf("expand: %w", err)
	}
	p = plan.Build(db, st)

	r.Logger.Info("expanded demand",
		"targets", len(req.Targets),
		"items", p.Items(),
		"depth", st.MaxDepth(),
		"duration", time.Since(start))

	var buf bytes.Buffer
	if err := plan.WriteJSON(&buf, p); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLPlan); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "plan", buf.Len())
		}
	}
	return p, false, nil
}

// Plan is a convenience wrapper that calls PlanWithCacheInfo and discards the cache hit info.
func (r *Runner) Plan(ctx context.Context, db *recipe.Database, req Request) (*plan.Plan, error) {
	p, _, err := r.PlanWithCacheInfo(ctx, db, req)
	return p, err
}

func (r *Runner) cachedPlan(ctx context.Context, key string) (*plan.Plan, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "plan")
		return nil, false
	}
	p, err := plan.ReadJSON(bytes.NewReader(data))
	if err != nil {
		// Undecodable entries are recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, "plan")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "plan")
	return p, true
}

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Format   Format
	Detailed bool    // rates and factory counts in graph labels
	Scale    float64 // PNG scale factor, 0 means 2
}

// RenderWithCacheInfo writes p in the requested format. Graphviz-backed
// formats are cached by plan content.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, p *plan.Plan, opts RenderOptions) ([]byte, bool, error) {
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	switch opts.Format {
	case FormatText:
		err := plan.WriteText(&buf, p)
		return buf.Bytes(), false, err
	case FormatJSON:
		err := plan.WriteJSON(&buf, p)
		return buf.Bytes(), false, err
	case FormatCSV:
		err := plan.WriteCSV(&buf, p)
		return buf.Bytes(), false, err
	}

	dot := render.ToDOT(p, render.Options{Detailed: opts.Detailed})
	if opts.Format == FormatDOT {
		return []byte(dot), false, nil
	}

	key := r.Keyer.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{
		Format:   string(opts.Format),
		Detailed: opts.Detailed,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	start := time.Now()
	data, err := renderGraph(ctx, dot, opts)
	switch {
	case err == nil:
	case ferrors.GetCode(err) != "", ctx.Err() != nil:
		return nil, false, err
	default:
		return nil, false, ferrors.Wrap(ferrors.ErrCodeInternal, err, "render %s", opts.Format)
	}
	r.Logger.Debug("rendered plan", "format", opts.Format, "bytes", len(data), "duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, p *plan.Plan, opts RenderOptions) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, p, opts)
	return data, err
}

func renderGraph(ctx context.Context, dot string, opts RenderOptions) ([]byte, error) {
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch opts.Format {
	case FormatPNG:
		scale := opts.Scale
		if scale <= 0 {
			scale = 2
		}
		return render.ToPNG(ctx, svg, scale)
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	}
	return svg, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
