package chunk

import (
	"strings"
	"unicode"
)

// splitParagraphs greedily packs blank-line separated paragraphs into chunks of at most
// ChunkSize characters. Each new buffer is seeded with the trailing Overlap characters of
// the buffer just closed. A buffer is only closed once it reaches MinChunkSize, and an
// undersized final buffer is folded into the previous chunk.
func (c *Chunker) splitParagraphs(text string) []string {
	var pieces []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		pieces = append(pieces, c.cutParagraph(paragraph)...)
	}

	var chunks []string
	var buffer string
	// fresh is the part of buffer that did not come from the overlap seed
	var fresh string

	for _, piece := range pieces {
		if buffer != "" &&
			runeLen(buffer)+runeLen(piece) > c.opts.ChunkSize &&
			runeLen(trimmed(buffer)) >= c.opts.MinChunkSize {
			chunks = append(chunks, trimmed(buffer))
			if c.opts.Overlap > 0 && runeLen(buffer) > c.opts.Overlap {
				buffer = tail(buffer, c.opts.Overlap) + "\n\n" + piece
			} else {
				buffer = piece
			}
			fresh = piece
			continue
		}
		if buffer == "" {
			buffer = piece
			fresh = piece
		} else {
			buffer += "\n\n" + piece
			fresh += "\n\n" + piece
		}
	}

	rest := trimmed(buffer)
	if rest == "" {
		return chunks
	}
	if len(chunks) > 0 && runeLen(rest) < c.opts.MinChunkSize {
		if extra := trimmed(fresh); extra != "" {
			chunks[len(chunks)-1] += "\n\n" + extra
		}
		return chunks
	}
	return append(chunks, rest)
}

// cutParagraph breaks a paragraph longer than ChunkSize into pieces of at most ChunkSize
// characters, preferring whitespace in the second half of each window as the cut point.
func (c *Chunker) cutParagraph(paragraph string) []string {
	size := c.opts.ChunkSize
	if runeLen(paragraph) <= size {
		return []string{paragraph}
	}

	var pieces []string
	rest := paragraph
	for runeLen(rest) > size {
		cut := runeOffset(rest, size)
		next := cut
		if ws := strings.LastIndexFunc(rest[:cut], unicode.IsSpace); ws > cut/2 {
			cut = ws
			next = ws
		}
		if piece := strings.TrimRightFunc(rest[:cut], unicode.IsSpace); piece != "" {
			pieces = append(pieces, piece)
		}
		rest = strings.TrimLeftFunc(rest[next:], unicode.IsSpace)
	}
	if rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}
