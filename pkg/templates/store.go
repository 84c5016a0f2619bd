// Package templates fetches the workbook template that requests populate.
package templates

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Store returns the full template contents. Every call fetches fresh bytes.
type Store interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Source identifies the blob to read and how to authenticate to it. Exactly
// one of ConnectionString or ServiceURL is set.
type Source struct {
	ConnectionString string
	ServiceURL       string
	// Credential authenticates ServiceURL requests; nil when the URL carries a SAS token.
	Credential azcore.TokenCredential
	Container  string
	Blob       string
}

// CredentialProvider resolves the storage credential and resource names.
// It is consulted once at process start.
type CredentialProvider interface {
	Resolve(ctx context.Context) (Source, error)
}
