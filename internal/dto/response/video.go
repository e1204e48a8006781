package response

import "time"

type RoomResponse struct {
	RoomName string `json:"roomName"`
	RoomURL  string `json:"roomUrl"`
}

type MeetingTokenResponse struct {
	Token     string    `json:"token"`
	RoomURL   string    `json:"roomUrl"`
	IsOwner   bool      `json:"isOwner"`
	ExpiresAt time.Time `json:"expiresAt"`
}
