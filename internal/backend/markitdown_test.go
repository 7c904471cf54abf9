// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkitdownBackend_Convert(t *testing.T) {
	rt := &fakeRuntime{output: "# From container\n"}
	b, err := NewMarkitdownBackend(context.Background(), rt)
	require.NoError(t, err)

	res, err := b.Convert(context.Background(), "<h1>From container</h1>")
	require.NoError(t, err)

	assert.Equal(t, "# From container\n", res.MarkdownContent)
	assert.Equal(t, "<h1>From container</h1>", rt.gotStdin)
	assert.Equal(t, markitdownArgs, rt.gotArgs)
}

func TestMarkitdownBackend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rt      *fakeRuntime
		wantMsg string
	}{
		{name: "container fails", rt: &fakeRuntime{runErr: errors.New("exit status 2")}, wantMsg: "exit status 2"},
		{name: "empty output", rt: &fakeRuntime{}, wantMsg: "empty output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewMarkitdownBackend(context.Background(), tt.rt)
			require.NoError(t, err)

			_, err = b.Convert(context.Background(), "<p>x</p>")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
