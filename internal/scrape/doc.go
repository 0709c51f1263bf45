// Package scrape turns blog pages into candidate article links and article
// bodies.
//
// Page-specific heuristics sit behind Strategy. SelectorStrategy applies CSS
// selector lists with goquery; ReadabilityStrategy swaps the body extractor for
// go-readability output converted to markdown. When a listing page yields no
// article links the scraper follows the page's advertised RSS/Atom feed.
package scrape
