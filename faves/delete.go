package faves

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
)

// DeleteHandler removes the current user's favorite for a target. Removing
// a favorite that does not exist succeeds.
type DeleteHandler[T any] struct {
	base
	targets Targets[T]
}

// NewDeleteHandler returns a DeleteHandler. cfg.Store and cfg.Targets are
// required; the default template is "deleted.html".
func NewDeleteHandler[T any](cfg Config[T]) (*DeleteHandler[T], error) {
	if cfg.Targets == nil {
		return nil, errors.New("faves: Config.Targets is required")
	}
	b, err := newBase(cfg.Options, "deleted.html")
	if err != nil {
		return nil, err
	}
	return &DeleteHandler[T]{base: b, targets: cfg.Targets}, nil
}

type deletedJSON[T any] struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
	Item    T      `json:"item"`
}

type deletedXML[T any] struct {
	XMLName xml.Name `xml:"unfavorite"`
	Deleted int64    `xml:"deleted,attr"`
	Item    T        `xml:"item"`
}

// ServeHTTP implements http.Handler.
func (h *DeleteHandler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	pk, err := h.parsePK(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	item, err := h.targets.Target(ctx, pk)
	if err != nil {
		h.fail(w, r, fmt.Errorf("resolving target %d: %w", pk, err))
		return
	}

	n, err := h.opts.Store.Delete(ctx, user.ID, pk)
	if err != nil {
		h.fail(w, r, fmt.Errorf("deleting favorite: %w", err))
		return
	}

	h.log.Info("favorite deleted", "user_id", user.ID, "target_id", pk, "deleted", n)

	if h.redirectNext(w, r) {
		return
	}

	h.respond(w, r, payload{
		status: http.StatusOK,
		json:   deletedJSON[T]{Status: "unfavorited", Deleted: n, Item: item},
		xml:    deletedXML[T]{Deleted: n, Item: item},
		html: map[string]any{
			"num_deleted": n,
			"item":        item,
		},
	})
}
