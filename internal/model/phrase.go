package model

import (
	"fmt"
	"strings"
)

// PhraseType is the classification assigned to an utterance
type PhraseType int

const (
	PhraseUnknown   PhraseType = iota // Could not be classified
	PhraseStatement                   // Declarative sentence ("кот это животное")
	PhraseQuestion                    // Question ("что такое гравитация?")
	PhraseCommand                     // Command ("/help", "покажи факты")
)

func (p PhraseType) String() string {
	switch p {
	case PhraseStatement:
		return "statement"
	case PhraseQuestion:
		return "question"
	case PhraseCommand:
		return "command"
	default:
		return "unknown"
	}
}

// KnowledgeType categorizes a knowledge entry
type KnowledgeType string

const (
	KnowledgeFact       KnowledgeType = "fact"
	KnowledgeConcept    KnowledgeType = "concept"
	KnowledgeDefinition KnowledgeType = "definition"
	KnowledgeRule       KnowledgeType = "rule"
	KnowledgeEvent      KnowledgeType = "event"
)

// ParseKnowledgeType converts a stored string into a KnowledgeType.
// Case and surrounding spaces are ignored.
func ParseKnowledgeType(s string) (KnowledgeType, error) {
	switch t := KnowledgeType(strings.ToLower(strings.TrimSpace(s))); t {
	case KnowledgeFact, KnowledgeConcept, KnowledgeDefinition, KnowledgeRule, KnowledgeEvent:
		return t, nil
	default:
		return "", fmt.Errorf("unknown knowledge type: %q", s)
	}
}

// Utterance is one raw input together with its derived tokens and type
type Utterance struct {
	Text   string     `json:"text"`
	Tokens []string   `json:"tokens"`
	Type   PhraseType `json:"type"`
}
