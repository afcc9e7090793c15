package app

import (
	"context"
	"testing"

	"github.com/jekabolt/grbpwr-catalog/config"
	"github.com/jekabolt/grbpwr-catalog/internal/dependency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	dependency.Repository
	closed int
}

func (r *fakeRepository) Filters() dependency.Filters { return nil }

func (r *fakeRepository) Catalog() dependency.Catalog { return nil }

func (r *fakeRepository) Close() { r.closed++ }

func TestStartClosesStoreOnFailure(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{
			name: "bad redis url",
			cfg: config.Config{
				Cache: config.CacheConfig{RedisURL: "http://not-redis"},
			},
		},
		{
			name: "empty jwt secret",
			cfg:  config.Config{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeRepository{}
			a := New(&tt.cfg)

			err := a.startWith(context.Background(), db)
			require.Error(t, err)
			assert.Equal(t, 1, db.closed)
			assert.Nil(t, a.db)
			assert.Nil(t, a.hs)

			select {
			case <-a.Done():
				t.Fatal("done must stay open after a failed start")
			default:
			}
		})
	}
}
