package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent(NaturalKey("p1", "fib"))
		b := IDFromContent(NaturalKey("p1", "fib"))
		assert.Equal(t, a, b)
	})

	t.Run("distinct keys produce distinct ids", func(t *testing.T) {
		a := IDFromContent(NaturalKey("p1", "fib"))
		b := IDFromContent(NaturalKey("p2", "fib"))
		c := IDFromContent(NaturalKey("p1", "fact"))
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a, c)
	})
}

func TestNaturalKey(t *testing.T) {
	assert.Equal(t, "(p1,fib)", NaturalKey("p1", "fib"))

	doc := &SnippetDocument{ProjectID: "p1", Name: "fib"}
	assert.Equal(t, NaturalKey("p1", "fib"), doc.Key())
}

func TestSnippetDocumentMUSRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := SnippetDocument{
		Id:          IDFromContent(NaturalKey("p1", "fib")),
		ProjectID:   "p1",
		Name:        "fib",
		Code:        "def fib(n):\n    return n if n < 2 else fib(n-1) + fib(n-2)",
		Language:    "python",
		Description: "recursive fibonacci",
		Vector:      []float32{0.1, -0.5, 0.25},
		InsertedAt:  now,
		UpdatedAt:   now,
	}

	bs := make([]byte, SnippetDocumentMUS.Size(doc))
	n := SnippetDocumentMUS.Marshal(doc, bs)
	require.Equal(t, len(bs), n)

	got, n, err := SnippetDocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	require.Equal(t, len(bs), n)
	assert.Equal(t, doc, got)
}

func TestSnippetDocumentMUSTruncated(t *testing.T) {
	doc := SnippetDocument{Id: 42, ProjectID: "p1", Name: "n", Code: "c"}
	bs := make([]byte, SnippetDocumentMUS.Size(doc))
	SnippetDocumentMUS.Marshal(doc, bs)

	_, _, err := SnippetDocumentMUS.Unmarshal(bs[:len(bs)/2])
	assert.Error(t, err)
}
