/*
Package sonarclient constructs clients for the SonarQube and SonarCloud Web
API.

# Quick start

	client, err := sonarclient.NewWithToken(ctx, "https://sonar.example.com", os.Getenv("SONAR_TOKEN"))
	if err != nil {
		log.Fatal(err)
	}

	for project, err := range client.Projects().Search().All(ctx) {
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(project.Key, project.Name)
	}

SonarCloud requires an organization on most endpoints. NewSonarCloud sets
the base URL and injects the organization into every scoped request:

	client, err := sonarclient.NewSonarCloud(ctx, token, "acme")

# Configuration

New accepts a full sonar.Config for timeouts, retries, rate limiting,
response caching, interceptors and logging:

	client, err := sonarclient.New(ctx, &sonar.Config{
		BaseURL:   "sonar.example.com",
		Token:     token,
		RateLimit: 10,
		Cache:     sonar.NewMemoryCache(256),
		CacheTTL:  time.Minute,
		Logger:    sonar.NewZerologLogger(zerolog.New(os.Stderr)),
	})

Bare hosts are upgraded to https. Leaving RetryMax at zero selects three
retries with exponential backoff; a negative value turns retries off.

# Errors

Every operation returns errors from the sonar package. Use the helpers to
branch on them:

	_, err := client.Projects().Show(ctx, "missing")
	if sonar.IsNotFound(err) {
		// ...
	}
*/
package sonarclient
