package quiclb

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/quic-go/quic-lb/internal/protocol"
)

// writeFirstByte writes the first byte of a connection ID. The top two bits
// always carry the rotation bits. The low six bits carry the connection ID
// length minus one if the length is encoded, and keep whatever the caller
// prefilled otherwise. It must run before any cipher pass, those cover the
// bytes from position 1 onward.
func writeFirstByte(cid []byte, rotationBits uint8, encodesLength bool) {
	if encodesLength {
		cid[0] = rotationBits<<6 | byte(len(cid)-1)
	} else {
		cid[0] &= 0x3f
		cid[0] |= rotationBits << 6
	}
}

// decodeServerID reads a big-endian server ID.
func decodeServerID(b []byte) uint64 {
	var sid uint64
	for _, c := range b {
		sid = sid<<8 | uint64(c)
	}
	return sid
}

// A routingCodec writes routing information into a connection ID and
// recovers the server ID from it. Codecs only touch their own fields,
// trailing bytes are for server use and stay untouched.
type routingCodec interface {
	encode(cid []byte)
	decode(cid []byte) uint64
}

type clearCodec struct {
	serverID []byte
}

func (c *clearCodec) encode(cid []byte) {
	copy(cid[1:], c.serverID)
}

func (c *clearCodec) decode(cid []byte) uint64 {
	return decodeServerID(cid[1 : 1+len(c.serverID)])
}

// streamCipherCodec implements the stream cipher encoding:
//
//	Stream Cipher CID {
//	  First Octet (8),
//	  Nonce (64..120),
//	  Encrypted Server ID (8..128-len(Nonce)),
//	  For Server Use (0..152-len(Nonce)-len(Encrypted Server ID)),
//	}
//
// The caller prefills the nonce field with fresh entropy. Three mask passes
// couple the nonce and the server ID, so an observer can't recover either
// field on its own. The transform is an involution: running the same three
// passes over an encoded connection ID yields the plaintext fields again.
type streamCipherCodec struct {
	block    cipher.Block
	nonceLen int
	serverID []byte
}

func (c *streamCipherCodec) encode(cid []byte) {
	nonce := cid[1 : 1+c.nonceLen]
	sid := cid[1+c.nonceLen : 1+c.nonceLen+len(c.serverID)]
	copy(sid, c.serverID)
	c.threePass(nonce, sid)
}

func (c *streamCipherCodec) decode(cid []byte) uint64 {
	var buf [protocol.MaxConnectionIDLen]byte
	copy(buf[:], cid)
	nonce := buf[1 : 1+c.nonceLen]
	sid := buf[1+c.nonceLen : 1+c.nonceLen+len(c.serverID)]
	c.threePass(nonce, sid)
	return decodeServerID(sid)
}

func (c *streamCipherCodec) threePass(nonce, sid []byte) {
	maskField(c.block, nonce, sid) // intermediate server ID
	maskField(c.block, sid, nonce) // encrypted nonce
	maskField(c.block, nonce, sid) // encrypted server ID
}

// maskField XORs the first len(dst) bytes of AES(src, zero-padded to a full
// block) into dst.
// src is left untouched and must not be longer than a block.
func maskField(block cipher.Block, src, dst []byte) {
	var mask [aes.BlockSize]byte
	copy(mask[:], src)
	block.Encrypt(mask[:], mask[:])
	for i := range dst {
		dst[i] ^= mask[i]
	}
}

// blockCipherCodec implements the block cipher encoding: the 16 bytes
// following the first byte hold the server ID and the server-use bits, and
// are encrypted as a single AES block.
//
//	Block Cipher CID {
//	  First Octet (8),
//	  Encrypted Server ID (8..128),
//	  Encrypted Bits for Server Use (128-len(Encrypted Server ID)),
//	  Unencrypted Bits for Server Use (0..24),
//	}
type blockCipherCodec struct {
	block    cipher.Block
	serverID []byte
}

func (c *blockCipherCodec) encode(cid []byte) {
	copy(cid[1:], c.serverID)
	b := cid[1 : 1+aes.BlockSize]
	c.block.Encrypt(b, b)
}

func (c *blockCipherCodec) decode(cid []byte) uint64 {
	var decoded [aes.BlockSize]byte
	c.block.Decrypt(decoded[:], cid[1:1+aes.BlockSize])
	return decodeServerID(decoded[:len(c.serverID)])
}
