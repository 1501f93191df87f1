// Package inspect produces a static report of a module binary: its
// sections, exports with WIT-style signatures, globals and custom
// sections. Custom sections can be filtered with a glob pattern such as
// "te*" or "{test,name}".
package inspect
