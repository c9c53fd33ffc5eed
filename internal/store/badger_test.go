package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sputnik_dao/contract"
	"sputnik_dao/internal/store"
	"sputnik_dao/sdk"
)

func SetupStoreTest(t *testing.T) *store.Badger {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := SetupStoreTest(t)
	v, err := s.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestApplyAndScan(t *testing.T) {
	s := SetupStoreTest(t)
	require.NoError(t, s.Apply([]sdk.Mutation{
		{Key: "p/2", Value: []byte("two")},
		{Key: "p/1", Value: []byte("one")},
		{Key: "q/1", Value: []byte("other")},
		{Key: "p/3", Value: []byte{}},
	}))
	require.NoError(t, s.Apply([]sdk.Mutation{{Key: "p/3"}}))

	var keys []string
	require.NoError(t, s.Scan("p/", func(k string, v []byte) error {
		keys = append(keys, k+"="+string(v))
		return nil
	}))
	assert.Equal(t, []string{"p/1=one", "p/2=two"}, keys)

	v, err := s.Get("q/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), v)
}

func TestEmptyValueIsNotDelete(t *testing.T) {
	s := SetupStoreTest(t)
	require.NoError(t, s.Apply([]sdk.Mutation{{Key: "k", Value: []byte{}}}))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Len(t, v, 0)
}

func TestApplyAfterClose(t *testing.T) {
	s, err := store.Open(store.Options{InMemory: true}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Apply([]sdk.Mutation{{Key: "k", Value: []byte("v")}}), store.ErrClosing)
}

func TestOpenNeedsDir(t *testing.T) {
	_, err := store.Open(store.Options{}, nil)
	assert.Error(t, err)
}

func TestReopenKeepsDAOState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	env := sdk.Env{CurrentAccount: "dao.near", Predecessor: "alice.near", BlockTimestamp: 1}

	s, err := store.Open(store.Options{Dir: dir, SyncWrites: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	c := contract.New(s, sdk.NewMockHost())
	require.NoError(t, c.Init(ctx, env, contract.InitArgs{
		Config: contract.Config{Name: "persisted"},
		Policy: contract.LegacyPolicy("alice.near"),
	}))
	require.NoError(t, s.Close())

	s, err = store.Open(store.Options{Dir: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()
	c = contract.New(s, sdk.NewMockHost())
	cfg, err := c.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", cfg.Name)
	err = c.Init(ctx, env, contract.InitArgs{Policy: contract.LegacyPolicy("alice.near")})
	assert.ErrorIs(t, err, contract.ErrAlreadyInitialized)
}
