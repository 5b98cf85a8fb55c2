// Package reembed rebuilds the stored vectors of journal entries, typically
// after switching to a new or updated embedding model.
//
// Entries are visited in timestamp order and embedded in batches with retry
// and exponential backoff. Vectors are normalized before they are written so
// stored embeddings stay comparable under cosine similarity.
package reembed
