package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

// CountTokens estimates the token length of text for the given model.
// Unknown models fall back to the cl100k_base encoding; if even that
// fails the byte-per-4 heuristic keeps the budget check working.
func CountTokens(modelName, text string) int {
	tke, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		log.Warn().Err(err).Str("model", modelName).Msg("No tokenizer available, estimating tokens")
		return len(text) / 4
	}
	return len(tke.Encode(text, nil, nil))
}
