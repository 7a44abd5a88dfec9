// Package dom binds the lazy option pipeline to an HTML document held as a
// golang.org/x/net/html node tree.
//
// Widgets are <select> elements carrying a source attribute
// (data-lazy-source by default). Each one is exposed as a model.Widget whose
// Element writes populated options back into the tree as <option> nodes
// tagged with data-lazy-option, so a repeated population replaces rather
// than duplicates them. Owning forms are resolved through the select's form
// attribute or its nearest ancestor <form>.
package dom
