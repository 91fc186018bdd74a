package types

import "time"

// DefaultGatewayURL is the public IPFS gateway used for external_url links.
const DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"

// MetadataAttribute is one trait of the certificate metadata document.
type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// CertificateMetadata is the token metadata document describing an issued
// certificate. It follows the common NFT metadata convention and is
// informational: only the content-addressed token URI goes on-chain.
type CertificateMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	ExternalURL string              `json:"external_url"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

// NewCertificateMetadata builds the metadata document for a candidate in
// the given batch, stamped with the issuance time in ISO-8601.
func NewCertificateMetadata(c IssuanceCandidate, batchID string, issuedAt time.Time) CertificateMetadata {
	return CertificateMetadata{
		Name:        "Certificate: " + c.DisplayName,
		Description: "Completion certificate for project " + c.DisplayName + " in batch " + batchID,
		Image:       c.TokenURI(),
		ExternalURL: DefaultGatewayURL + c.ContentAddress,
		Attributes: []MetadataAttribute{
			{TraitType: "Type", Value: "Certificate"},
			{TraitType: "Project", Value: c.DisplayName},
			{TraitType: "Batch", Value: batchID},
			{TraitType: "Issued", Value: issuedAt.UTC().Format(time.RFC3339)},
			{TraitType: "Recipient", Value: c.OwnerID},
		},
	}
}
