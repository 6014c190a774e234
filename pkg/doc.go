// Package pkg provides the libraries behind bomcheck, a Digikey part lookup
// client for checking bills of materials.
//
// # Overview
//
//   - [digikey]: OAuth2 authorization code grant and product lookup
//   - [part]: the distributor-neutral part record ([part.Info])
//   - [errors]: the part-search error taxonomy shared by all clients
//   - [httputil]: base-URL transport and caller-side retry
//   - [session]: token persistence (file, Redis, MongoDB, memory)
//   - [observability]: HTTP and token hooks for metrics or tracing
//   - [buildinfo]: version information injected at build time
//
// # Quick Start
//
//	client := digikey.NewClient(digikey.SandboxURL, clientID, clientSecret,
//	    digikey.WithLogger(logger))
//
//	fmt.Println("open:", client.AuthorizationURL(redirectURI))
//	code, err := client.AwaitCode(os.Stdin)
//	if err != nil {
//	    return err
//	}
//	if _, err := client.ExchangeCode(ctx, code, redirectURI); err != nil {
//	    return err
//	}
//
//	infos, err := client.LookupByPartNumbers(ctx, []string{"GRM1555C1H2R2BA01D"})
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Digikey sandbox, Redis and MongoDB
//
// [digikey]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/digikey
// [part]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/part
// [errors]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/httputil
// [session]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/bomcheck/pkg/buildinfo
package pkg
