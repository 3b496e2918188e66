package chunk

import (
	"regexp"
	"strings"
)

var headingPattern = regexp.MustCompile(`^#{1,6}\s+.+$`)

// section accumulates the lines between two headings.
type section struct {
	heading string
	start   int // line number of the first accumulated line
	lines   []string
	length  int // rune length of the lines joined with "\n"
}

func (s *section) add(line string) {
	if len(s.lines) > 0 {
		s.length++
	}
	s.lines = append(s.lines, line)
	s.length += runeLen(line)
}

func (s *section) body() string {
	return trimmed(strings.Join(s.lines, "\n"))
}

func (s *section) reset(start int) {
	s.start = start
	s.lines = s.lines[:0]
	s.length = 0
}

// splitByHeadings chunks markup text section by section. Each heading line opens a new
// section labelled with that heading. Sections that grow beyond twice the chunk size are
// flushed through the paragraph splitter.
func (c *Chunker) splitByHeadings(text string) []Chunk {
	lines := strings.Split(text, "\n")
	current := &section{heading: IntroductionHeading, start: 1}
	var chunks []Chunk

	for i, line := range lines {
		lineNumber := i + 1

		if headingPattern.MatchString(line) {
			chunks = c.closeSection(chunks, current, lineNumber-1)
			current.heading = strings.TrimSpace(line)
			current.add(line)
			continue
		}

		current.add(line)
		if current.length > 2*c.opts.ChunkSize {
			chunks = c.flushOversized(chunks, current, lineNumber)
		}
	}
	chunks = c.closeSection(chunks, current, len(lines))

	if len(chunks) == 0 {
		if content := trimmed(text); content != "" {
			chunks = append(chunks, Chunk{
				Content:   content,
				Heading:   FallbackHeading,
				StartLine: 1,
				EndLine:   len(lines),
			})
		}
	}
	return chunks
}

// closeSection emits the accumulated section ending at endLine. An undersized section is
// appended to the previous chunk, or kept in the section as a prefix of the next one when
// nothing has been emitted yet.
func (c *Chunker) closeSection(chunks []Chunk, s *section, endLine int) []Chunk {
	body := s.body()
	switch {
	case body == "":
		s.reset(endLine + 1)
	case runeLen(body) >= c.opts.MinChunkSize:
		chunks = append(chunks, Chunk{
			Content:   body,
			Heading:   s.heading,
			StartLine: s.start,
			EndLine:   endLine,
		})
		s.reset(endLine + 1)
	case len(chunks) > 0:
		last := &chunks[len(chunks)-1]
		last.Content += "\n\n" + body
		last.EndLine = endLine
		s.reset(endLine + 1)
	}
	return chunks
}

// flushOversized splits the section through the paragraph splitter. Sub-chunks share the
// section heading and get line ranges apportioned evenly over the section's lines, which
// approximates where each paragraph actually sits.
func (c *Chunker) flushOversized(chunks []Chunk, s *section, lineNumber int) []Chunk {
	subChunks := c.splitParagraphs(s.body())
	if len(subChunks) == 0 {
		s.reset(lineNumber + 1)
		return chunks
	}
	if len(subChunks) == 1 && runeLen(subChunks[0]) < c.opts.MinChunkSize {
		if len(chunks) == 0 {
			// keep accumulating until the section is large enough to stand alone
			return chunks
		}
		return c.closeSection(chunks, s, lineNumber)
	}

	linesPerChunk := max(1, (lineNumber-s.start+1)/len(subChunks))
	for i, content := range subChunks {
		start := min(s.start+i*linesPerChunk, lineNumber)
		end := min(s.start+(i+1)*linesPerChunk-1, lineNumber)
		if i == len(subChunks)-1 {
			end = lineNumber
		}
		chunks = append(chunks, Chunk{
			Content:   content,
			Heading:   s.heading,
			StartLine: start,
			EndLine:   end,
		})
	}
	s.reset(lineNumber + 1)
	return chunks
}
