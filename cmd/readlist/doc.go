// Command readlist maintains a cached, deduplicated index of the blogs and
// videos named in a markdown reading list and generates LLM summaries for
// them.
//
// Typical use:
//
//	readlist config init
//	readlist sources add https://example.com/blog --kind blog
//	readlist refresh
//	readlist list --type blog_article
//	readlist show <content_id>
package main
