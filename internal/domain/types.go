package domain

// Document is the scraped form of one source: an identifier (usually the
// URL) and the plain-text chunks extracted from it, in document order.
type Document struct {
	SourceID string
	Chunks   []string
}

// Chunk is the atomic retrievable unit of text.
type Chunk struct {
	SourceID string
	Content  string
}

// MetadataRecord pairs a Chunk with its ordinal, the join key into the vector index.
type MetadataRecord struct {
	Ordinal int
	Chunk   Chunk
}

// Neighbor is a single vector index hit.
type Neighbor struct {
	Ordinal  int
	Distance float64
}

// QueryResult holds the records for a query ranked by ascending distance.
type QueryResult []MetadataRecord

// Texts returns the chunk contents in ranked order.
func (r QueryResult) Texts() []string {
	out := make([]string, len(r))
	for i, rec := range r {
		out[i] = rec.Chunk.Content
	}
	return out
}
