package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/harrison/everything/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_CreateDrop(t *testing.T) {
	ctx := context.Background()
	sc := NewSchema(newMemoryStore(t))

	exists, err := sc.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, sc.Create(ctx))

	exists, err = sc.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, sc.Drop(ctx))

	exists, err = sc.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSchema_CreateTwiceFails(t *testing.T) {
	ctx := context.Background()
	sc := NewSchema(newMemoryStore(t))
	require.NoError(t, sc.Create(ctx))

	err := sc.Create(ctx)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "create", schemaErr.Op)
	assert.Equal(t, TableName, schemaErr.Table)
	assert.True(t, errors.Is(err, store.ErrTableExists))
}

func TestSchema_DropMissingFails(t *testing.T) {
	sc := NewSchema(newMemoryStore(t))

	err := sc.Drop(context.Background())
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "drop", schemaErr.Op)
	assert.True(t, errors.Is(err, store.ErrNoSuchTable))
}

func TestSchema_WithTable(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore(t)
	sc := NewSchema(st)
	staging := sc.WithTable("file_staging")

	assert.Equal(t, TableName, sc.Table())
	assert.Equal(t, "file_staging", staging.Table())
	require.NoError(t, staging.Create(ctx))

	exists, err := st.TableExists(ctx, "file_staging")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = sc.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

