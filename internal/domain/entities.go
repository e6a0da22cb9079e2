package domain

type Document struct {
	ID   string
	Path string
}

// Chunk is one word-bounded segment of a document's extracted text.
// Source is the path of the document the text came from.
type Chunk struct {
	ID      string `json:"id"`
	DocID   string `json:"doc_id"`
	Source  string `json:"source"`
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}

// ScoredChunk is a retrieval hit. Position is the chunk's offset in the
// vector store, shared by the index and the metadata.
type ScoredChunk struct {
	Chunk    Chunk
	Score    float64
	Position int
}

// Answer is the outcome of one question. When answer generation fails,
// Err carries the failure and Sources still holds the retrieved passages.
type Answer struct {
	Question string
	Text     string
	Sources  []ScoredChunk
	Canned   bool
	Err      error
}

// Degraded reports whether retrieval succeeded but generation did not.
func (a *Answer) Degraded() bool {
	return a.Err != nil
}

// SourceTexts returns the text of every source in rank order.
func (a *Answer) SourceTexts() []string {
	texts := make([]string, len(a.Sources))
	for i, s := range a.Sources {
		texts[i] = s.Chunk.Text
	}
	return texts
}
