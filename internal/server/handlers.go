package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/factoryflow/pkg/buildinfo"
	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/observability"
	"github.com/matzehuels/factoryflow/pkg/plan"
	"github.com/matzehuels/factoryflow/pkg/planner"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// AmountJSON is an item amount by name.
type AmountJSON struct {
	Item   string  `json:"item" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// PlanRequest is the body of POST /v1/plan. Either Spec or Targets is set.
type PlanRequest struct {
	Spec     string       `json:"spec,omitempty" validate:"required_without=Targets,excluded_with=Targets"`
	Targets  []AmountJSON `json:"targets,omitempty" validate:"max=1000,dive"`
	Owned    []AmountJSON `json:"owned,omitempty" validate:"max=1000,dive"`
	Tree     bool         `json:"tree,omitempty"`
	Format   string       `json:"format,omitempty" validate:"omitempty,oneof=text json csv dot svg png pdf"`
	Detailed bool         `json:"detailed,omitempty"`
	Refresh  bool         `json:"refresh,omitempty"`
}

// PlanResponse is the JSON plan with its cache status.
type PlanResponse struct {
	Cached bool `json:"cached"`
	*plan.Plan
}

// SelectRequest is the body of PUT /v1/items/{name}/recipe.
type SelectRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

// HealthResponse reports liveness and build info.
type HealthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
	Items   int `json:"items"`
	Recipes int `json:"recipes"`
}

// ItemView describes one item.
type ItemView struct {
	Name     string `json:"name"`
	Raw      bool   `json:"raw"`
	Recipes  int    `json:"recipes"`
	Selected int    `json:"selected"`
}

// RecipeView describes one recipe.
type RecipeView struct {
	Index       int          `json:"index"`
	Results     []AmountJSON `json:"results"`
	Ingredients []AmountJSON `json:"ingredients"`
	Time        float64      `json:"time"`
	Factory     string       `json:"factory"`
	Text        string       `json:"text"`
	Selected    bool         `json:"selected,omitempty"`
}

// ItemRecipes lists the candidates for one item.
type ItemRecipes struct {
	Item     string       `json:"item"`
	Selected int          `json:"selected"`
	Recipes  []RecipeView `json:"recipes"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := HealthResponse{
		Status:  "ok",
		Info:    buildinfo.Get(),
		Items:   s.db.Items().Len(),
		Recipes: len(s.db.Recipes()),
	}
	s.mu.RUnlock()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg := s.db.Items()
	items := make([]ItemView, 0, reg.Len())
	for _, id := range reg.Sorted() {
		n := len(s.db.Candidates(id))
		items = append(items, ItemView{
			Name:     reg.Name(id),
			Raw:      n == 0,
			Recipes:  n,
			Selected: s.db.Selected(id),
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg := s.db.Items()
	recipes := make([]RecipeView, 0, len(s.db.Recipes()))
	for i, rc := range s.db.Recipes() {
		recipes = append(recipes, recipeView(reg, i, rc))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (s *Server) handleItemRecipes(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view, err := s.itemRecipes(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body SelectRequest
	if err := s.decode(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	name := item.Normalize(chi.URLParam(r, "name"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.SelectByName(name, *body.Index); err != nil {
		s.respondError(w, r, err)
		return
	}
	observability.Planner().OnSelect(r.Context(), name, *body.Index)
	s.logger.Info("selected recipe", "id", RequestIDFrom(r.Context()), "item", name, "index", *body.Index)
	if s.onSelect != nil {
		if err := s.onSelect(name, *body.Index); err != nil {
			s.logger.Warn("could not persist selection", "item", name, "error", err)
		}
	}

	view, err := s.itemRecipes(name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body PlanRequest
	if err := s.decode(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	format := planner.Format(body.Format)
	if format == "" {
		format = planner.FormatJSON
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	p, hit, err := s.plan(ctx, body, format.Graphical())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	if format == planner.FormatJSON {
		s.respondJSON(w, http.StatusOK, PlanResponse{Cached: hit, Plan: p})
		return
	}

	data, err := s.runner.Render(ctx, p, planner.RenderOptions{Format: format, Detailed: body.Detailed})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// plan resolves body against the database and runs the planner under the
// read lock. The returned plan does not reference the database.
func (s *Server) plan(ctx context.Context, body PlanRequest, tree bool) (*plan.Plan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var req planner.Request
	if body.Spec != "" {
		parsed, err := planner.ParseRequest(s.db, body.Spec)
		if err != nil {
			return nil, false, err
		}
		req = parsed
	} else {
		reg := s.db.Items()
		var err error
		if req.Targets, err = resolve(reg, body.Targets); err != nil {
			return nil, false, err
		}
		if req.Owned, err = resolve(reg, body.Owned); err != nil {
			return nil, false, err
		}
	}
	if body.Spec != "" && len(body.Owned) > 0 {
		owned, err := resolve(s.db.Items(), body.Owned)
		if err != nil {
			return nil, false, err
		}
		req.Owned = append(req.Owned, owned...)
	}
	req.Tree = body.Tree || tree
	req.Refresh = body.Refresh

	return s.runner.PlanWithCacheInfo(ctx, s.db, req)
}

func (s *Server) itemRecipes(name string) (ItemRecipes, error) {
	reg := s.db.Items()
	id, ok := reg.Lookup(name)
	if !ok {
		return ItemRecipes{}, ferrors.Wrap(ferrors.ErrCodeNotFound, recipe.ErrUnknownItem, "%q", item.Normalize(name))
	}
	sel := s.db.Selected(id)
	view := ItemRecipes{Item: reg.Name(id), Selected: sel, Recipes: []RecipeView{}}
	for i, rc := range s.db.Candidates(id) {
		rv := recipeView(reg, i, rc)
		rv.Selected = i == sel
		view.Recipes = append(view.Recipes, rv)
	}
	return view, nil
}

func resolve(reg *item.Registry, amounts []AmountJSON) ([]item.Amount, error) {
	out := make([]item.Amount, 0, len(amounts))
	for _, a := range amounts {
		id, ok := reg.Lookup(a.Item)
		if !ok {
			return nil, ferrors.Wrap(ferrors.ErrCodeNotFound, recipe.ErrUnknownItem, "%q", item.Normalize(a.Item))
		}
		out = append(out, item.Amount{Amount: a.Amount, Item: id})
	}
	return out, nil
}

func recipeView(reg *item.Registry, index int, rc *recipe.Recipe) RecipeView {
	return RecipeView{
		Index:       index,
		Results:     amountsJSON(reg, rc.Results),
		Ingredients: amountsJSON(reg, rc.Ingredients),
		Time:        rc.Time,
		Factory:     rc.Factory,
		Text:        recipe.FormatRecipe(reg, rc),
	}
}

func amountsJSON(reg *item.Registry, amounts []item.Amount) []AmountJSON {
	out := make([]AmountJSON, len(amounts))
	for i, a := range amounts {
		out[i] = AmountJSON{Item: reg.Name(a.Item), Amount: a.Amount}
	}
	return out
}
