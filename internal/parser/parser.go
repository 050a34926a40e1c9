package parser

import "strings"

// WrapText splits text into chunks of at most width characters, breaking on
// word boundaries. Runs of whitespace collapse to a single space. Words
// longer than width are cut, filling the current chunk before spilling into
// the next one. Chunk boundaries only ever drop a single separating space.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	w := wrapper{width: width}
	for _, word := range words {
		w.add(word)
	}
	w.flush()
	return w.chunks
}

type wrapper struct {
	width  int
	chunks []string
	line   []rune
}

func (w *wrapper) add(word string) {
	runes := []rune(word)
	n := len(runes)

	if n <= w.width {
		if len(w.line) > 0 && len(w.line)+1+n > w.width {
			w.flush()
		}
		if len(w.line) > 0 {
			w.line = append(w.line, ' ')
		}
		w.line = append(w.line, runes...)
		return
	}

	// long word
	if len(w.line) > 0 {
		if room := w.width - len(w.line) - 1; room > 0 {
			w.line = append(w.line, ' ')
			w.line = append(w.line, runes[:room]...)
			runes = runes[room:]
		}
		w.flush()
	}
	for len(runes) > w.width {
		w.line = append(w.line, runes[:w.width]...)
		runes = runes[w.width:]
		w.flush()
	}
	w.line = append(w.line, runes...)
}

func (w *wrapper) flush() {
	if len(w.line) == 0 {
		return
	}
	w.chunks = append(w.chunks, string(w.line))
	w.line = w.line[:0]
}
