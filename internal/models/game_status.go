package models

// LobbyStatus represents where a lobby is in its lifecycle
type LobbyStatus string

const (
	StatusWaiting  LobbyStatus = "waiting"
	StatusStarted  LobbyStatus = "started"
	StatusFinished LobbyStatus = "finished"
)
