package instance

import "os"

// GetID returns the replica identifier used in log fields. Heroku-style
// platforms set DYNO; container schedulers can set WORKER_ID instead.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "local"
}
