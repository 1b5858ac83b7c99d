// Package oauth2client manages the OAuth2 clients tokens are issued to.
//
// # Overview
//
// The package provides:
//   - the Client entity and its persisted ClientState form
//   - in-memory and PostgreSQL repositories
//   - client authentication via ValidateClient
//   - AES-GCM encryption of client secrets at rest
//   - ClientService for registration and secret rotation
//
// # Basic Usage
//
//	repo, err := oauth2client.NewPostgresRepository(pool, encryptionKey)
//	if err != nil {
//		return err
//	}
//	service := oauth2client.NewClientService(repo)
//
//	client, secret, err := service.CreateClient(ctx, oauth2client.CreateClientParams{
//		ID:           "my-app",
//		Name:         "My Application",
//		RedirectURIs: []string{"https://myapp.com/callback"},
//		Scopes:       []string{"openid", "profile", "email"},
//		Confidential: true,
//	})
//
// # Client Authentication
//
// ValidateClient never returns an error for bad credentials. Unknown,
// disabled and mismatched clients all yield false, and the secret comparison
// runs in constant time in every case:
//
//	ok, err := repo.ValidateClient(ctx, clientID, clientSecret, oauth2client.GrantAuthorizationCode)
//	if err != nil {
//		return err // storage failure
//	}
//	if !ok {
//		return errors.InvalidClient(clientID)
//	}
//
// Public clients authenticate without a secret, except for the
// client_credentials grant which requires a confidential client.
//
// # Disabled Clients
//
// FindByID returns any stored client so administrators can inspect and
// re-enable it. Flows must use FindEnabledByID, which reports a disabled client
// as not found.
package oauth2client
