package model

import "time"

// Cemetery is the burial record of a deceased member (1:1).
type Cemetery struct {
	MemberID     string    `json:"memberId"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Address      string    `json:"address"`
	CemeteryCode string    `json:"cemeteryCode,omitempty"`
	Photos       []string  `json:"photos,omitempty"`
	Panorama     string    `json:"panorama,omitempty"`
	IsPublic     bool      `json:"isPublic"`
	IsVerified   bool      `json:"isVerified"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type MemorialAction string

const (
	MemorialFlower  MemorialAction = "flower"
	MemorialCandle  MemorialAction = "candle"
	MemorialIncense MemorialAction = "incense"
	MemorialVisit   MemorialAction = "visit"
	MemorialMessage MemorialAction = "message"
)

func (a MemorialAction) Valid() bool {
	switch a {
	case MemorialFlower, MemorialCandle, MemorialIncense, MemorialVisit, MemorialMessage:
		return true
	}
	return false
}

// MemorialLog is one tribute paid to a deceased member.
type MemorialLog struct {
	ID          string         `json:"id"`
	MemberID    string         `json:"memberId"`
	VisitorName string         `json:"visitorName,omitempty"`
	Action      MemorialAction `json:"action"`
	Message     string         `json:"message,omitempty"`
	VisitedAt   time.Time      `json:"visitedAt"`
}
