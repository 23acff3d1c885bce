package game

import "time"

const (
	// MinPlayers is the minimum number of players required to start a game
	MinPlayers = 2

	// MaxPlayers caps a lobby; 15 cards leave a deck of at least 3 after dealing 6 hands
	MaxPlayers = 6

	// CopiesPerRole is how many of each role a fresh deck holds
	CopiesPerRole = 3

	// HandSize is the number of cards dealt to each seat
	HandSize = 2

	// StartingCoins is every player's balance at the start of a game
	StartingCoins = 2

	// ReactionWindow is how long a pending action accepts reactions
	ReactionWindow = 60 * time.Second

	// EventBufferSize is the buffer size for subscriber channels
	EventBufferSize = 16

	// SendTimeout bounds how long a broadcast waits on one slow subscriber
	SendTimeout = time.Second

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes (excluding ambiguous chars)
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)
