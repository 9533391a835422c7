// Package wlog is the structured-logging sink used by ioreactor for its
// warnings: a small Logger interface with a level gate, plus a
// concrete implementation backed by log/slog via
// github.com/joeycumines/logiface and github.com/joeycumines/logiface-slog.
//
// Grounded on the retrieved eventloop module's own logging.go: same
// "single entry-point method plus a level-enabled query" interface shape,
// same "swap in a real structured-logging backend" intent, but wired to
// an actual third-party framework rather than eventloop's hand-rolled
// DefaultLogger (pretty/JSON dual-mode writer), since nothing in this
// runtime needs eventloop's own microtask/promise-specific log fields.
package wlog
