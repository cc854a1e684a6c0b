package steam

// MaxIDsPerBatch is the hard upper bound of steam IDs accepted by one
// GetPlayerSummaries call. Upstream limit, not a tunable.
const MaxIDsPerBatch = 100

// ChunkIDs partitions ids into batches of at most size elements, preserving
// order. A size below 1 falls back to MaxIDsPerBatch.
func ChunkIDs(ids []string, size int) [][]string {
	if size < 1 {
		size = MaxIDsPerBatch
	}
	if len(ids) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
