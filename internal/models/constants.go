package models

const (
	MaxChunkSize     = 8000
	ValuePlaceholder = "N/A"
	FallbackAnswer   = "I couldn't find relevant information to answer your question."
)

var (
	// RefusalPrefixes are matched against the lowercased model output.
	RefusalPrefixes = []string{"i don't", "i cannot", "no information"}

	PromptTemplate = `Context: %s

Question: %s

Based on the context provided, please answer the question. If the information is not available in the context, please say so.`
)
