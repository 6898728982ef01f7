package models

type Rest_Guild struct {
	ID          string
	Name        string
	Icon        string
	MemberCount int
	Prefix      string
}

type Rest_UID struct {
	UserID string
	UID    int64
}

type Rest_LastFm struct {
	UserID         string
	LastFmUsername string
}

type Rest_Error struct {
	Error string
}
