package models

// Dataset is the in-memory aggregate of one submission's canonical records.
// It lives only for the duration of one validate-then-upload cycle;
// ownership transfers to the stores upon commit.
type Dataset struct {
	OwnerID  string
	Project  *ProjectIndex
	Sessions []*SessionBundle
}

// SessionBundle pairs a session index with its surviving pictures.
type SessionBundle struct {
	Index    *SessionIndex
	Pictures []*Picture
}
