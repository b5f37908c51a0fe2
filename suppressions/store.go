package suppressions

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Store holds one list of test IDs.
type Store interface {
	// Load returns the stored test IDs. A list that was never saved is empty, not an error.
	Load(ctx context.Context) ([]string, error)
	// Save replaces the stored list.
	Save(ctx context.Context, testIDs []string) error
	// Description identifies the store in log messages.
	Description() string
}

// Open returns the Store for a location:
//
//	path/to/file or file:///path/to/file      one test ID per line
//	redis://host:port/key                     a Redis list
//	consul://host:port/key                    a Consul KV entry, one test ID per line
//	dynamodb://table/key?region=R&endpoint=E  a DynamoDB item
func Open(location string) (Store, error) {
	if !strings.Contains(location, "://") {
		return &FileStore{Path: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid suppression store URL %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	switch u.Scheme {
	case "file":
		return &FileStore{Path: u.Path}, nil
	case "redis":
		if key == "" {
			return nil, fmt.Errorf("redis suppression store URL %q has no key", location)
		}
		return NewRedisStore(u.Host, key), nil
	case "consul":
		if key == "" {
			return nil, fmt.Errorf("consul suppression store URL %q has no key", location)
		}
		return NewConsulStore(u.Host, key)
	case "dynamodb":
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("dynamodb suppression store URL %q needs a table and a key", location)
		}
		return NewDynamoDBStore(u.Host, key, u.Query().Get("region"), u.Query().Get("endpoint"))
	default:
		return nil, fmt.Errorf("unsupported suppression store scheme %q", u.Scheme)
	}
}

// ParseTestIDs splits text into test IDs, one per line. Blank lines and lines starting with #
// are ignored.
func ParseTestIDs(text string) []string {
	var ret []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ret = append(ret, line)
	}
	return ret
}

// FormatTestIDs is the inverse of ParseTestIDs.
func FormatTestIDs(testIDs []string) string {
	if len(testIDs) == 0 {
		return ""
	}
	return strings.Join(testIDs, "\n") + "\n"
}
