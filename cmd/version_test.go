package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf, "/tmp/adaptest.db")

	out := buf.String()
	assert.Contains(t, out, "adaptest "+version)
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, "v1.x envelopes")
	assert.Contains(t, out, "database: /tmp/adaptest.db")
}
