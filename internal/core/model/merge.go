package model

type ConflictType string

const ConflictDuplicate ConflictType = "duplicate"

// Conflict pairs an incoming member with the existing member it duplicates.
type Conflict struct {
	Type        ConflictType `json:"type"`
	Incoming    *Member      `json:"incoming"`
	Existing    *Member      `json:"existing"`
	Description string       `json:"description"`
}

type ConflictReport struct {
	Conflicts  []Conflict `json:"conflicts"`
	NewMembers []*Member  `json:"newMembers"`
}

type ResolutionAction string

const (
	ActionReplace  ResolutionAction = "replace"
	ActionKeepBoth ResolutionAction = "keep_both"
	ActionSkip     ResolutionAction = "skip"
)

func (a ResolutionAction) Valid() bool {
	return a == ActionReplace || a == ActionKeepBoth || a == ActionSkip
}

// Resolution settles one duplicate. IncomingData lists only the fields the
// caller supplies: replace applies exactly those to the existing member, and
// keep_both applies them on top of the incoming record (or a copy of the
// existing one when the incoming record has no id).
type Resolution struct {
	ExistingID   string           `json:"existingId"`
	IncomingID   string           `json:"incomingId"`
	Action       ResolutionAction `json:"action"`
	IncomingData *MemberUpdate    `json:"incomingData,omitempty"`
}

// AppliedResolution records a resolution that mutated (or deliberately did not
// mutate) the store. MemberID is the replaced or newly inserted member.
type AppliedResolution struct {
	Resolution
	MemberID string `json:"memberId,omitempty"`
}

type MergeSummary struct {
	Added       int                 `json:"added"`
	AddedIDs    []string            `json:"addedIds"`
	Resolutions []AppliedResolution `json:"resolutions"`
}
