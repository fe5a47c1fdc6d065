package faves

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
)

// CreateHandler favorites a target for the current user. Repeating the
// request for an already favorited target succeeds without a duplicate.
type CreateHandler[T any] struct {
	base
	targets Targets[T]
}

// NewCreateHandler returns a CreateHandler. cfg.Store and cfg.Targets are
// required; the default template is "created.html".
func NewCreateHandler[T any](cfg Config[T]) (*CreateHandler[T], error) {
	if cfg.Targets == nil {
		return nil, errors.New("faves: Config.Targets is required")
	}
	b, err := newBase(cfg.Options, "created.html")
	if err != nil {
		return nil, err
	}
	return &CreateHandler[T]{base: b, targets: cfg.Targets}, nil
}

type createdJSON[T any] struct {
	Status   string `json:"status"`
	Created  bool   `json:"created"`
	Favorite Record `json:"favorite"`
	Item     T      `json:"item"`
}

type createdXML[T any] struct {
	XMLName xml.Name `xml:"favorite"`
	Created bool     `xml:"created,attr"`
	Record
	Item T `xml:"item"`
}

// ServeHTTP implements http.Handler.
func (h *CreateHandler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	rec, created, err := h.opts.Store.GetOrCreate(ctx, user.ID, pk)
	if err != nil {
		h.fail(w, r, fmt.Errorf("creating favorite: %w", err))
		return
	}

	h.log.Info("favorite created", "user_id", user.ID, "target_id", pk, "created", created)

	if h.redirectNext(w, r) {
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(w, r, payload{
		status: status,
		json:   createdJSON[T]{Status: "favorited", Created: created, Favorite: rec, Item: item},
		xml:    createdXML[T]{Created: created, Record: rec, Item: item},
		html: map[string]any{
			"favorite": rec,
			"created":  created,
			"item":     item,
		},
	})
}
