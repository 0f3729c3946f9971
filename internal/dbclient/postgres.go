package dbclient

// Postgres targets pass the postgres:// URL straight to lib/pq, which
// accepts both URL and key=value connection strings.
import _ "github.com/lib/pq"
