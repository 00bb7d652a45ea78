// Package entitybuf keeps presentation surfaces synchronized with live URI
// resolutions.
//
// A binding ties a URI pattern — possibly contextual, e.g. "@frame/scopes" —
// to a surface. The pattern is parsed once at bind time but re-resolved on
// every trigger: focus changes, entity lifecycle events, field changes and
// configuration reloads can all move what the pattern points at. The
// controller re-runs the resolver, renders the resulting collection with the
// binding's render function, and pushes the text to the surface.
//
// Rendering is storm-proof along two axes:
//
//   - Dirty suppression: content identical to the last render is not pushed
//     again, so high-frequency triggers cannot cause redraw flicker.
//   - Last-writer-wins: every refresh bumps the binding's generation; a
//     refresh that was superseded while resolving discards its result, so a
//     stale resolution can never overwrite a newer one.
//
// Resolution failures degrade, they never tear down a binding: the surface
// shows an error state once and the next trigger retries.
package entitybuf
