package model

import "testing"

func TestParseKnowledgeType(t *testing.T) {
	tests := []struct {
		in      string
		want    KnowledgeType
		wantErr bool
	}{
		{"fact", KnowledgeFact, false},
		{"Concept", KnowledgeConcept, false},
		{" definition ", KnowledgeDefinition, false},
		{"rule", KnowledgeRule, false},
		{"event", KnowledgeEvent, false},
		{"planet", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKnowledgeType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKnowledgeType(%q): unexpected error state: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Expected %q for %q, got %q", tt.want, tt.in, got)
		}
	}
}
