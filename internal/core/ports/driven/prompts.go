package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptClassify asks for a JSON category proposal.
	// The template expects three %s placeholders: categories, locations, document text.
	PromptClassify = "classify"

	// PromptExtract asks a vision model to transcribe a scanned page.
	// This prompt has no format placeholders.
	PromptExtract = "extract"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in defaults.
	SetPromptStore(store PromptStore)
}
