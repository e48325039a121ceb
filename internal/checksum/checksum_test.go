package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStable(t *testing.T) {
	data := []byte("%PDF-1.7 fake heat sheet")
	assert.Equal(t, Compute(data), Compute(data))
	assert.Len(t, Compute(data), 32)
}

func TestComputeSingleByteMutation(t *testing.T) {
	a := []byte("%PDF-1.7 fake heat sheet")
	b := append([]byte(nil), a...)
	b[len(b)-1] ^= 0x01
	assert.NotEqual(t, Compute(a), Compute(b))
}

func TestComputeEmpty(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Compute(nil))
}
