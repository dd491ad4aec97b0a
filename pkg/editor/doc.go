/*
Package editor is the interactive authoring surface over a graph.Model.

A Session translates pointer, wheel, drop and keyboard events into model mutations.
It keeps an explicit interaction mode (idle, dragging a node, drawing a link, panning),
a selection that drives the property panel, and a camera mapping world space onto the
screen. Everything a client draws (node boxes, link curves, minimap, palette, notices)
is derived from the session, either as a View snapshot or as an SVG preview.
*/
package editor
