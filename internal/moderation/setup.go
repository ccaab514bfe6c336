package moderation

import "github.com/campusnest/forum/internal/apiclient"

// ProviderKeys holds the API keys of the hosted classifiers. An empty key
// disables that provider.
type ProviderKeys struct {
	Perspective string
	OpenAI      string
}

// DefaultStages returns the production stage order: the local filter, then
// Perspective, OpenAI and finally the language model. Providers without a
// key return no verdict and are skipped.
func DefaultStages(api *apiclient.Client, keys ProviderKeys, llm Generator) []Stage {
	return []Stage{
		NewFilter(DefaultLexicon()).Stage(),
		NewPerspective(api, keys.Perspective),
		NewOpenAI(api, keys.OpenAI),
		NewLLM(llm, SourceGemini),
	}
}
