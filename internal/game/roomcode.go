package game

import (
	"crypto/rand"
	"strings"
)

// NewRoomCode draws RoomCodeLength characters from RoomCodeChars.
// The alphabet has 32 symbols, so a byte modulo its length is unbiased.
func NewRoomCode() string {
	var buf [RoomCodeLength]byte
	rand.Read(buf[:])
	for i, b := range buf {
		buf[i] = RoomCodeChars[int(b)%len(RoomCodeChars)]
	}
	return string(buf[:])
}

// NormalizeRoomCode turns user input into the stored form of a code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
