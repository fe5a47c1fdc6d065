package faves

import (
	_ "embed"
	"net/http"
	"strconv"
)

// Labels and marker classes understood by the client script.
const (
	LabelAdd    = "Add as Favorite"
	LabelRemove = "Remove as Favorite"

	ClassFave   = "fave"
	ClassUnfave = "unfave"

	linkIDPrefix = "favorite_"
)

//go:embed static/faves.js
var script []byte

// Script returns the client integration script.
func Script() []byte {
	return script
}

// ScriptHandler serves the client integration script.
func ScriptHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(script)
	})
}

// LinkState returns the marker class and label for a favorite link whose
// target is, or is not, currently favorited.
func LinkState(favorited bool) (class, label string) {
	if favorited {
		return ClassUnfave, LabelRemove
	}
	return ClassFave, LabelAdd
}

// LinkID returns the element id the client script expects for target pk.
func LinkID(pk int64) string {
	return linkIDPrefix + strconv.FormatInt(pk, 10)
}
