package protocol

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// U128 is an unsigned 128-bit integer. Hi holds the most significant bits.
type U128 struct {
	Hi uint64
	Lo uint64
}

// MaxU128 is 2^128-1.
var MaxU128 = U128{Hi: ^uint64(0), Lo: ^uint64(0)}

func U128From64(v uint64) U128 {
	return U128{Lo: v}
}

// U128FromBytes reads a big-endian 16-byte value.
func U128FromBytes(b [16]byte) U128 {
	return U128{
		Hi: binary.BigEndian.Uint64(b[0:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}
}

// U128FromUUID interprets the uuid bytes as a big-endian integer.
func U128FromUUID(id uuid.UUID) U128 {
	return U128FromBytes([16]byte(id))
}

// NewRandomU128 returns a random (uuid v4) value.
func NewRandomU128() U128 {
	return U128FromUUID(uuid.New())
}

// Bytes returns the big-endian encoding.
func (u U128) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], u.Hi)
	binary.BigEndian.PutUint64(b[8:16], u.Lo)
	return b
}

func (u U128) UUID() uuid.UUID {
	return uuid.UUID(u.Bytes())
}

func (u U128) Big() *big.Int {
	b := u.Bytes()
	return new(big.Int).SetBytes(b[:])
}

func (u U128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// String renders the value in decimal.
func (u U128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%d", u.Lo)
	}
	return u.Big().String()
}

// ParseU128 accepts a decimal integer or uuid text.
func ParseU128(raw string) (U128, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return U128{}, fmt.Errorf("%w: empty", ErrInvalidU128)
	}
	if n, ok := new(big.Int).SetString(s, 10); ok {
		if n.Sign() < 0 || n.BitLen() > 128 {
			return U128{}, fmt.Errorf("%w: %q out of range", ErrInvalidU128, raw)
		}
		var b [16]byte
		n.FillBytes(b[:])
		return U128FromBytes(b), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return U128{}, fmt.Errorf("%w: %q", ErrInvalidU128, raw)
	}
	return U128FromUUID(id), nil
}
