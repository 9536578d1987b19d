package types

// ResolveConflictRequest is the body of a manual conflict resolution.
type ResolveConflictRequest struct {
	Choice           string `json:"choice" validate:"required,resolutionchoice"`
	MergeStrategy    string `json:"mergeStrategy" validate:"omitempty,mergestrategy"`
	UserNotes        string `json:"userNotes" validate:"max=1024"`
	PreserveMetadata bool   `json:"preserveMetadata"`
}
