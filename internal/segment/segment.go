package segment

// Split cuts text into consecutive chunks of at most limit runes each.
// Concatenating the chunks reproduces the input exactly; splitting is
// fixed-width and does not respect word boundaries. Empty input yields
// no chunks. A non-positive limit returns the input as a single chunk.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}

	if limit <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)

	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
