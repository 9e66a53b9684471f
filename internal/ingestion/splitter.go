package ingestion

import "strings"

const (
	// Chunking parameters. Chunk counts are deterministic for a given
	// input, which retrieval tests rely on.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order, coarsest first; the empty string
// means a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into overlapping chunks of bounded size, preferring
// to break at paragraph, line, sentence and word boundaries in that
// order.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		// Keep the default size/overlap ratio.
		chunkOverlap = chunkSize / 5
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split returns the chunks of text. Whitespace-only chunks are dropped.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{strings.TrimSpace(text)}
	}

	sep, rest := pickSeparator(text, separators)

	if sep == "" {
		return s.hardCut(text)
	}

	pieces := strings.SplitAfter(text, sep)

	// Pieces still over budget descend to finer separators.
	fitted := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if len(piece) > s.chunkSize {
			fitted = append(fitted, s.split(piece, rest)...)
			continue
		}
		if strings.TrimSpace(piece) != "" {
			fitted = append(fitted, piece)
		}
	}

	return s.merge(fitted)
}

func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// hardCut slices text into fixed windows advancing by chunkSize-overlap.
func (s *Splitter) hardCut(text string) []string {
	step := s.chunkSize - s.chunkOverlap

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// merge greedily packs pieces into chunks up to chunkSize, carrying the
// tail pieces forward so consecutive chunks overlap by roughly
// chunkOverlap characters.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	windowLen := 0

	flush := func() {
		if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if windowLen+len(piece) > s.chunkSize && windowLen > 0 {
			flush()
			// Shrink the window to at most the overlap before starting
			// the next chunk.
			for windowLen > s.chunkOverlap && len(window) > 0 {
				windowLen -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		windowLen += len(piece)
	}

	flush()

	return chunks
}
