package suppressions

import (
	"context"
	"fmt"

	consul "github.com/hashicorp/consul/api"
)

// ConsulStore keeps the list in one Consul KV entry, one test ID per line.
type ConsulStore struct {
	consul *consul.Client
	key    string
}

// NewConsulStore connects to the agent at addr, or at Consul's default address if addr is empty.
func NewConsulStore(addr, key string) (*ConsulStore, error) {
	config := consul.DefaultConfig()
	if addr != "" {
		config.Address = addr
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("cannot create Consul client: %w", err)
	}
	return &ConsulStore{consul: client, key: key}, nil
}

func (c *ConsulStore) Description() string { return "consul key " + c.key }

func (c *ConsulStore) Load(ctx context.Context) ([]string, error) {
	pair, _, err := c.consul.KV().Get(c.key, (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", c.Description(), err)
	}
	if pair == nil {
		return nil, nil
	}
	return ParseTestIDs(string(pair.Value)), nil
}

func (c *ConsulStore) Save(ctx context.Context, testIDs []string) error {
	pair := &consul.KVPair{Key: c.key, Value: []byte(FormatTestIDs(testIDs))}
	if _, err := c.consul.KV().Put(pair, (&consul.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("cannot write %s: %w", c.Description(), err)
	}
	return nil
}
