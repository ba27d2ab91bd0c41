package text

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// fallbackEncoding is used for models tiktoken does not know, Claude included.
const fallbackEncoding = "cl100k_base"

// getTokenizer returns a cached encoder for model.
func getTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	if tkm, ok := tokenizerCache[model]; ok {
		tokenizerCacheMu.RUnlock()
		return tkm, nil
	}
	tokenizerCacheMu.RUnlock()

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}

	tokenizerCache[model] = tkm
	return tkm, nil
}

// EstimateTokens counts the tokens of text for model. The count is an
// estimate for logging; providers bill with their own tokenizers.
func EstimateTokens(text, model string) (int, error) {
	tkm, err := getTokenizer(model)
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}
