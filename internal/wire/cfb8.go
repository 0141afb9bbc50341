package wire

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// cfb8 is 8-bit cipher feedback mode: one block encryption per byte, with
// the shift register fed by ciphertext.
type cfb8 struct {
	block   cipher.Block
	sr      []byte
	out     []byte
	decrypt bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) cipher.Stream {
	bs := block.BlockSize()
	return &cfb8{
		block:   block,
		sr:      append(make([]byte, 0, bs), iv[:bs]...),
		out:     make([]byte, bs),
		decrypt: decrypt,
	}
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("wire: cfb8 output smaller than input")
	}
	last := len(c.sr) - 1
	for i, in := range src {
		c.block.Encrypt(c.out, c.sr)
		ct := in
		out := in ^ c.out[0]
		if !c.decrypt {
			ct = out
		}
		dst[i] = out
		copy(c.sr, c.sr[1:])
		c.sr[last] = ct
	}
}

// NewCFB8Pair returns the encrypting and decrypting halves keyed the way
// game clients expect: AES-128 with the shared secret as both key and IV.
func NewCFB8Pair(secret []byte) (enc, dec cipher.Stream, err error) {
	if len(secret) != 16 {
		return nil, nil, fmt.Errorf("shared secret must be 16 bytes, got %d", len(secret))
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, nil, err
	}
	return newCFB8(block, secret, false), newCFB8(block, secret, true), nil
}
