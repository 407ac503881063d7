// Package retriever exposes the two knowledge base lookup paths behind
// one capability.
//
//   - [FromEngine]: ranked FTS5 search over the persisted index
//   - [FromRecall]: heuristic lookup straight from disk, no database
//   - [Fallback]: tries one retriever and falls back to another when
//     the first cannot reach its storage
//
// # Usage
//
//	primary, _ := retriever.FromEngine(search.New(st))
//	secondary, _ := retriever.FromRecall(recall.New(0), "cmos")
//	r, _ := retriever.Fallback(primary, secondary)
//
//	hits, err := r.Retrieve(ctx, "trigger registry", 5)
//
// Invalid queries are never retried on the secondary: an empty or
// malformed query fails the same way on both paths.
package retriever
