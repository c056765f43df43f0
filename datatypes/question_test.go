// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for request validation

package datatypes

import "testing"

// =============================================================================
// Question Validation Tests
// =============================================================================

func TestQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{
			name: "valid",
			q: Question{
				ConversationID: "9f86d081-8292-44cc-a3f5-2d04f2a7bc61",
				Text:           "Who is the mayor of Taggia?",
			},
		},
		{
			name: "valid with tags",
			q: Question{
				ConversationID: "conv-1",
				Text:           "What is new?",
				Tags:           []Tag{{Name: "type", Value: "news"}},
			},
		},
		{
			name:    "missing conversation",
			q:       Question{Text: "Who?"},
			wantErr: true,
		},
		{
			name:    "blank conversation",
			q:       Question{ConversationID: "   ", Text: "Who?"},
			wantErr: true,
		},
		{
			name:    "missing text",
			q:       Question{ConversationID: "conv-1"},
			wantErr: true,
		},
		{
			name:    "whitespace text",
			q:       Question{ConversationID: "conv-1", Text: " \t "},
			wantErr: true,
		},
		{
			name: "tag with blank value",
			q: Question{
				ConversationID: "conv-1",
				Text:           "Who?",
				Tags:           []Tag{{Name: "type", Value: "  "}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Search Validation Tests
// =============================================================================

func TestSearch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Search
		wantErr bool
	}{
		{name: "valid", s: Search{Text: "mayor of Taggia"}},
		{name: "empty text", s: Search{}, wantErr: true},
		{name: "whitespace text", s: Search{Text: "  "}, wantErr: true},
		{
			name:    "bad tag name",
			s:       Search{Text: "news", Tags: []Tag{{Name: "", Value: "x"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Defaults Tests
// =============================================================================

func TestDefaultAskOptions(t *testing.T) {
	opts := DefaultAskOptions()
	if !opts.Reformulate {
		t.Error("Reformulate should default to true")
	}
	if opts.MinimumRelevance != 0 {
		t.Errorf("MinimumRelevance = %v, want 0", opts.MinimumRelevance)
	}
	if opts.Index != DefaultIndex {
		t.Errorf("Index = %q, want %q", opts.Index, DefaultIndex)
	}
}

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()
	if opts.MinimumRelevance != 0 {
		t.Errorf("MinimumRelevance = %v, want 0", opts.MinimumRelevance)
	}
	if opts.Index != DefaultIndex {
		t.Errorf("Index = %q, want %q", opts.Index, DefaultIndex)
	}
}
