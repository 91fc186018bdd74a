package types

// IssuanceCandidate is one work item eligible for certificate issuance.
// Candidates are produced by the external generation endpoint and are
// immutable once fetched for a given batch run.
type IssuanceCandidate struct {
	ItemID      string `json:"itemId"`
	DisplayName string `json:"displayName"`
	OwnerID     string `json:"ownerId"`

	// ContentAddress is the IPFS CID of the generated certificate content.
	// Empty when generation failed; such candidates can never be submitted.
	ContentAddress string `json:"contentAddress,omitempty"`

	// GenerationError carries the generator's error message for candidates
	// without a content address.
	GenerationError string `json:"error,omitempty"`
}

// HasContent reports whether the candidate has a content address and is
// therefore eligible for submission at all.
func (c IssuanceCandidate) HasContent() bool {
	return c.ContentAddress != ""
}

// TokenURI returns the content-addressed URI submitted on-chain as the
// token URI for this candidate.
func (c IssuanceCandidate) TokenURI() string {
	if c.ContentAddress == "" {
		return ""
	}
	return "ipfs://" + c.ContentAddress
}
