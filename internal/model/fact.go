package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Fact is a stored subject-predicate-object triple
type Fact struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Source    string `json:"source,omitempty"` // Text the fact was extracted from
	Timestamp string `json:"timestamp"`        // RFC 3339, UTC
}

// NewFact creates a fact with a fresh id and the current timestamp
func NewFact(subject, predicate, object, source string) Fact {
	return Fact{
		ID:        uuid.New().String(),
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Source:    source,
		Timestamp: Timestamp(),
	}
}

// SameTriple reports whether both facts carry an identical triple.
// Comparison is case-sensitive.
func (f Fact) SameTriple(subject, predicate, object string) bool {
	return f.Subject == subject && f.Predicate == predicate && f.Object == object
}

// String renders the fact as "subject — predicate — object"
func (f Fact) String() string {
	return fmt.Sprintf("%s — %s — %s", f.Subject, f.Predicate, f.Object)
}

// KnowledgeEntry is a richer unit of stored content than a fact
type KnowledgeEntry struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Type    KnowledgeType `json:"type"`
	Tags    []string      `json:"tags"`
	Created string        `json:"created"`
}

// NewKnowledgeEntry creates an entry with a fresh id and creation time
func NewKnowledgeEntry(title, content string, kind KnowledgeType, tags []string) KnowledgeEntry {
	if tags == nil {
		tags = []string{}
	}
	return KnowledgeEntry{
		ID:      uuid.New().String(),
		Title:   title,
		Content: content,
		Type:    kind,
		Tags:    append([]string(nil), tags...),
		Created: Timestamp(),
	}
}

// HasTag reports whether tag is one of the entry's tags
func (k KnowledgeEntry) HasTag(tag string) bool {
	for _, t := range k.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Timestamp returns the current UTC time in RFC 3339 format
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
