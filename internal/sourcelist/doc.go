// Package sourcelist parses the human-edited markdown source list into typed
// entries and registers new sources in it.
//
// The file is split into sections by markdown headers. Three section names map
// to a fixed entry kind ("Youtube Videos", "Youtube Channels", "Blogs"); any
// other section infers the kind from each URL. A line contributes an entry
// only when it contains an http(s) URL. Text before the URL may carry a
// "[Category]" prefix and a title; text after it may carry "tags:",
// "category:" and "author:" hints.
package sourcelist
