package model

// IntentKind classifies what a rule extracted from an utterance
type IntentKind string

const (
	IntentFact     IntentKind = "fact"     // Subject/predicate/object triple
	IntentQuestion IntentKind = "question" // Question to be clarified later
	IntentConcept  IntentKind = "concept"  // Knowledge entry
)

// Intent is the structured record a rule action produces.
// Only the fields relevant to Kind are populated.
type Intent struct {
	Kind IntentKind `json:"kind"`

	// fact
	Subject   string `json:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object,omitempty"`
	Source    string `json:"source,omitempty"`

	// question
	Text   string   `json:"text,omitempty"`
	Tokens []string `json:"tokens,omitempty"`

	// concept
	Title         string        `json:"title,omitempty"`
	Content       string        `json:"content,omitempty"`
	KnowledgeType KnowledgeType `json:"knowledge_type,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
}
