package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectBoardLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"kanban"},
			want: []string{"kanban"},
		},
		{
			name: "direct board id first token",
			in:   []string{"kanban", "3"},
			want: []string{"kanban", "boards", "show", "3"},
		},
		{
			name: "direct board id after value flag",
			in:   []string{"kanban", "--api-url", "http://localhost:8000", "3"},
			want: []string{"kanban", "--api-url", "http://localhost:8000", "boards", "show", "3"},
		},
		{
			name: "direct board id after equals flag",
			in:   []string{"kanban", "--format=text", "3"},
			want: []string{"kanban", "--format=text", "boards", "show", "3"},
		},
		{
			name: "direct board id after bool flag",
			in:   []string{"kanban", "--pretty", "12"},
			want: []string{"kanban", "--pretty", "boards", "show", "12"},
		},
		{
			name: "direct board id after double dash",
			in:   []string{"kanban", "--board", "1", "--", "2"},
			want: []string{"kanban", "--board", "1", "--", "boards", "show", "2"},
		},
		{
			name: "value flag argument is not the id",
			in:   []string{"kanban", "--board", "1"},
			want: []string{"kanban", "--board", "1"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"kanban", "boards", "show", "3"},
			want: []string{"kanban", "boards", "show", "3"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"kanban", "wat"},
			want: []string{"kanban", "wat"},
		},
		{
			name: "non-numeric token not rewritten",
			in:   []string{"kanban", "3a"},
			want: []string{"kanban", "3a"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectBoardLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewrite(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
