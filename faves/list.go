package faves

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
)

// ListHandler lists a user's favorites. Without a username it lists the
// current user's favorites and requires authentication; with one it lists
// that user's favorites publicly.
type ListHandler[T any] struct {
	base
	targets Targets[T]
	users   Users
	filter  func([]Favorite[T]) []Favorite[T]
}

// NewListHandler returns a ListHandler. cfg.Store and cfg.Targets are
// required; cfg.Users is needed to serve username routes. The default
// template is "list.html".
func NewListHandler[T any](cfg Config[T]) (*ListHandler[T], error) {
	if cfg.Targets == nil {
		return nil, errors.New("faves: Config.Targets is required")
	}
	b, err := newBase(cfg.Options, "list.html")
	if err != nil {
		return nil, err
	}
	filter := cfg.ExtraFilter
	if filter == nil {
		filter = func(f []Favorite[T]) []Favorite[T] { return f }
	}
	return &ListHandler[T]{base: b, targets: cfg.Targets, users: cfg.Users, filter: filter}, nil
}

type listJSON[T any] struct {
	User      string        `json:"user"`
	IsSelf    bool          `json:"is_self"`
	Favorites []Favorite[T] `json:"favorites"`
}

type listXML[T any] struct {
	XMLName   xml.Name      `xml:"favorites"`
	User      string        `xml:"user,attr"`
	IsSelf    bool          `xml:"is_self,attr"`
	Favorites []Favorite[T] `xml:"favorite"`
}

// ServeHTTP implements http.Handler.
func (h *ListHandler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, authenticated := h.opts.CurrentUser(r)

	var owner User
	if username := h.opts.Username(r); username == "" {
		if !authenticated {
			h.fail(w, r, ErrAuthenticationRequired)
			return
		}
		owner = viewer
	} else {
		if h.users == nil {
			h.fail(w, r, fmt.Errorf("no user lookup configured for %q: %w", username, ErrNotFound))
			return
		}
		u, err := h.users.UserByUsername(ctx, username)
		if err != nil {
			h.fail(w, r, fmt.Errorf("resolving user %q: %w", username, err))
			return
		}
		owner = u
	}

	favorites, err := h.Favorites(ctx, owner.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	isSelf := authenticated && viewer.ID == owner.ID
	h.respond(w, r, payload{
		status: http.StatusOK,
		json:   listJSON[T]{User: owner.Username, IsSelf: isSelf, Favorites: favorites},
		xml:    listXML[T]{User: owner.Username, IsSelf: isSelf, Favorites: favorites},
		html: map[string]any{
			"favorites":     favorites,
			"favorite_user": owner,
			"is_self":       isSelf,
		},
	})
}

// Favorites returns the user's favorites with their targets attached,
// newest first, after the configured extra filter. Records whose target no
// longer resolves are left out.
func (h *ListHandler[T]) Favorites(ctx context.Context, userID int64) ([]Favorite[T], error) {
	records, err := h.opts.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}

	targets, err := h.resolve(ctx, records)
	if err != nil {
		return nil, err
	}

	favorites := make([]Favorite[T], 0, len(records))
	for _, rec := range records {
		t, ok := targets[rec.TargetID]
		if !ok {
			continue
		}
		favorites = append(favorites, Favorite[T]{Record: rec, Target: t})
	}

	favorites = h.filter(favorites)
	if favorites == nil {
		favorites = []Favorite[T]{}
	}
	return favorites, nil
}

// resolve looks up the targets of records, in one call when the lookup
// supports batching.
func (h *ListHandler[T]) resolve(ctx context.Context, records []Record) (map[int64]T, error) {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.TargetID)
	}
	if len(ids) == 0 {
		return map[int64]T{}, nil
	}

	if batch, ok := h.targets.(BatchTargets[T]); ok {
		targets, err := batch.TargetsByID(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolving favorite targets: %w", err)
		}
		return targets, nil
	}

	targets := make(map[int64]T, len(ids))
	for _, id := range ids {
		t, err := h.targets.Target(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving favorite target %d: %w", id, err)
		}
		targets[id] = t
	}
	return targets, nil
}
