// Package sonar provides types, interfaces, and helpers for working with the
// SonarQube and SonarCloud Web API.
//
// # Overview
//
// The sonar package defines the domain types (e.g., Project, Issue, Rule,
// QualityGate) and the interfaces for resource-oriented clients (e.g.,
// ProjectsClient, IssuesClient). A concrete implementation of these clients
// is provided by the sonarclient package, which wires configuration,
// transport, and authentication. Most consumers should import sonarclient
// to construct a client and then interact with the resource client
// interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/sonar-client/pkg/sonar"
//	  "github.com/fivetwenty-io/sonar-client/pkg/sonarclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := sonarclient.New(ctx, &sonar.Config{BaseURL: "https://sonar.example.com", Token: "squ_..."})
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := cli.Projects().Search().WithPageSize(50).Execute(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// # Builders and pagination
//
// Search operations return builders. Execute sends one request for the
// configured page; All yields every item lazily, fetching the next page only
// when the range loop needs it:
//
//	for issue, err := range cli.Issues().Search().Projects("my-app").Severities("CRITICAL").All(ctx) {
//	  if err != nil { return err }
//	  fmt.Println(issue.Key)
//	}
//
// Iterator, Collect, FetchAllPages and StreamPages offer the same walk in
// pull, collected, and channel form. Endpoints backed by the search index
// stop after 10,000 results, the deepest window the server serves.
//
// # Errors
//
// Failed calls return one of AuthenticationError, AuthorizationError,
// NotFoundError, RateLimitError, ServerError, ValidationError (each wrapping
// APIError) or NetworkError. Helpers such as IsNotFound and IsRateLimited
// branch on them with errors.As.
//
// # Interceptors, caching and batches
//
// InterceptorChain hooks into every request (logging, headers, metrics,
// rate limiting, circuit breaking). GET responses can be cached in memory or
// in a NATS JetStream key-value bucket shared across processes. BatchExecutor
// runs many operations with bounded concurrency and aggregates failures.
package sonar
