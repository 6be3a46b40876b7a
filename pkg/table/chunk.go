package table

// Chunk is a half-open row span [Start, End).
type Chunk struct {
	Start int
	End   int
}

// Chunks splits the table's rows into spans of at most size rows.
// A size of zero or less yields a single span covering every row.
func (t *Table) Chunks(size int) []Chunk {
	if t.rows == 0 {
		return nil
	}
	if size <= 0 || size >= t.rows {
		return []Chunk{{Start: 0, End: t.rows}}
	}
	chunks := make([]Chunk, 0, (t.rows+size-1)/size)
	for start := 0; start < t.rows; start += size {
		end := start + size
		if end > t.rows {
			end = t.rows
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
	}
	return chunks
}
