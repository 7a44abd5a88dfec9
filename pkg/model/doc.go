// Package model defines the data shared by every stage of the lazy option
// pipeline: widgets declared by the host page, the option records returned
// by a remote source, the options a widget ends up holding, and the ordered
// grouping of widgets by source identifier.
//
// Widgets are created by the host (or by pkg/dom when hydrating an HTML
// document) before the pipeline runs. Only the populator mutates them, and
// only through SetOptions, which mirrors the new list onto the bound Element
// when one is present.
package model
