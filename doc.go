// Package recall is a semantic search store for a private journal.
//
// A Database owns an entry store and a lazily initialized embedding service.
// Entries go in through an ingestion pipeline, get embedded in the background,
// and come back out of a searcher ranked by cosine similarity lifted with
// lexical evidence from the query.
//
//	db, err := recall.NewDatabase("/path/to/db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	searcher, err := db.NewSearcher()
//	results, err := searcher.SearchEntries(ctx, "hiking trip", nil)
package recall
