package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBufferNewestFirst(t *testing.T) {
	buf := NewLogBuffer(10)
	buf.Add(LogEntry{Message: "first"})
	buf.Add(LogEntry{Message: "second"})
	buf.Add(LogEntry{Message: "third"})

	entries := buf.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "first", entries[2].Message)
}

func TestLogBufferOverwritesOldest(t *testing.T) {
	buf := NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		buf.Add(LogEntry{Message: fmt.Sprintf("entry-%d", i)})
	}

	assert.Equal(t, 3, buf.Len())
	entries := buf.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry-5", entries[0].Message)
	assert.Equal(t, "entry-3", entries[2].Message)
}

func TestLogBufferRecentLimit(t *testing.T) {
	buf := NewLogBuffer(10)
	for i := 0; i < 6; i++ {
		buf.Add(LogEntry{Message: fmt.Sprintf("entry-%d", i)})
	}

	entries := buf.Recent(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "entry-5", entries[0].Message)
}

func TestLogBufferDefaultSize(t *testing.T) {
	buf := NewLogBuffer(0)
	buf.Add(LogEntry{Message: "ok"})
	assert.Equal(t, 1, buf.Len())
}
